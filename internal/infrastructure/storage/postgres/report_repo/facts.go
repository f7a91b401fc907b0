package report_repo

import (
	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"catercost/internal/core/id"
	"catercost/internal/domain/costing"
	"catercost/internal/domain/measure"
)

// factRow is the common shape every cost-line query is aliased into. Each
// category selects only the columns it has.
type factRow struct {
	FunctionID     id.ID               `db:"function_id"`
	AgencyID       *id.ID              `db:"agency_id"`
	RawMaterialID  *id.ID              `db:"raw_material_id"`
	Quantity       decimal.NullDecimal `db:"quantity"`
	UnitID         *int64              `db:"unit_id"`
	Rate           decimal.NullDecimal `db:"rate"`
	PerPlate       *bool               `db:"per_plate"`
	CounterCount   decimal.NullDecimal `db:"counter_count"`
	CounterPrice   decimal.NullDecimal `db:"counter_price"`
	HelperCount    decimal.NullDecimal `db:"helper_count"`
	HelperPrice    decimal.NullDecimal `db:"helper_price"`
	PlateCount     decimal.NullDecimal `db:"plate_count"`
	PlatePrice     decimal.NullDecimal `db:"plate_price"`
	SupplierUnitID *int64              `db:"supplier_unit_id"`
	NoItems        *bool               `db:"no_items"`
	NonPriced      *bool               `db:"non_priced"`
}

func (r factRow) toFact(cat costing.Category) costing.Fact {
	f := costing.Fact{
		Category:     cat,
		FunctionID:   r.FunctionID,
		AgencyID:     r.AgencyID,
		Quantity:     r.Quantity,
		Rate:         r.Rate.Decimal,
		PerPlate:     boolOr(r.PerPlate),
		CounterCount: r.CounterCount,
		HelperCount:  r.HelperCount,
		PlateCount:   r.PlateCount,
		CounterPrice: r.CounterPrice.Decimal,
		HelperPrice:  r.HelperPrice.Decimal,
		PlatePrice:   r.PlatePrice.Decimal,
		NoItems:      boolOr(r.NoItems),
		NonPriced:    boolOr(r.NonPriced),
	}
	if r.RawMaterialID != nil {
		f.RawMaterialID = *r.RawMaterialID
	}
	if r.UnitID != nil {
		f.UnitID = measure.UnitID(*r.UnitID)
	}
	if r.SupplierUnitID != nil {
		f.SupplierUnitID = measure.UnitID(*r.SupplierUnitID)
	}
	return f
}

func boolOr(b *bool) bool {
	return b != nil && *b
}

// factSource describes where one cost category's lines live.
type factSource struct {
	category costing.Category
	table    string
	columns  []string
	material bool // joins raw-material master data for supplier pricing
}

// nonPricedColumn flags lines of a material whose category type is not priced
// when the line is ordered from an outside agency.
const nonPricedColumn = "COALESCE(ct.non_priced AND l.is_outside_order, false) AS non_priced"


var agencyColumns = []string{
	"l.agency_id", "l.per_plate",
	"l.counter_count", "l.counter_price",
	"l.helper_count", "l.helper_price",
	"l.plate_count", "l.plate_price",
}

func materialColumns(extra ...string) []string {
	cols := []string{
		"l.raw_material_id", "l.quantity", "l.unit_id",
		"m.supplier_unit_id", "m.supplier_rate AS rate",
		nonPricedColumn,
	}
	return append(cols, extra...)
}

var factSources = []factSource{
	{category: costing.ChefLabour, table: "fn_chef_labour", columns: agencyColumns},
	{category: costing.GeneralLabour, table: "fn_general_labour", columns: []string{"l.quantity", "l.labour_price AS rate"}},
	{category: costing.OutsideAgency, table: "fn_outside_agencies", columns: agencyColumns},
	{category: costing.ExtraExpense, table: "fn_extra_expenses", columns: []string{"l.quantity", "l.unit_price AS rate"}},
	{category: costing.RawMaterial, table: "fn_raw_materials", columns: materialColumns("l.no_items"), material: true},
	{category: costing.GeneralFix, table: "fn_general_fix", columns: materialColumns(), material: true},
	{category: costing.Crockery, table: "fn_crockery", columns: []string{"l.price AS rate"}},
}

// query selects the source's lines of the company's orders, in function
// sequence and line order. Callers add the scope (one order or a period).
func (s factSource) query(builder squirrel.StatementBuilderType, companyID string) squirrel.SelectBuilder {
	q := builder.
		Select("l.function_id").
		Columns(s.columns...).
		From(s.table + " l").
		Join("order_functions f ON f.id = l.function_id").
		Join("orders o ON o.id = f.order_id").
		Where(squirrel.Eq{"o.company_id": companyID})
	if s.material {
		q = q.LeftJoin("cat_raw_materials m ON m.id = l.raw_material_id").
			LeftJoin("cat_material_category_types ct ON ct.id = m.category_type_id")
	}
	return q.OrderBy("f.sequence", "l.line_no")
}

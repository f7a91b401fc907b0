// Package catalog_repo provides PostgreSQL access to master data: measurement
// units and raw materials. All rows are scoped by company_id.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"catercost/internal/domain/label"
	"catercost/internal/domain/measure"
	"catercost/internal/infrastructure/storage/postgres"
)

const (
	unitTable      = "cat_units"
	unitRangeTable = "cat_unit_custom_ranges"
)

// unitRow mirrors cat_units. Nullable columns stay nullable here; the graph
// decides what a missing value means.
type unitRow struct {
	ID                 int64               `db:"id"`
	Name               string              `db:"name"`
	NamePreferred      string              `db:"name_preferred"`
	NameSupportive     string              `db:"name_supportive"`
	Symbol             string              `db:"symbol"`
	SymbolPreferred    string              `db:"symbol_preferred"`
	SymbolSupportive   string              `db:"symbol_supportive"`
	IsBaseUnit         bool                `db:"is_base_unit"`
	BaseUnitEquivalent decimal.NullDecimal `db:"base_unit_equivalent"`
	BaseUnitID         *int64              `db:"base_unit_id"`
	DecimalLimitQty    *int                `db:"decimal_limit_qty"`
	AdjustType         int                 `db:"adjust_type"`
}

type rangeRow struct {
	UnitID int64 `db:"unit_id"`
	measure.CustomRange
}

func (r unitRow) toDomain() measure.Unit {
	u := measure.Unit{
		ID:                 measure.UnitID(r.ID),
		Name:               label.Text{Default: r.Name, Preferred: r.NamePreferred, Supportive: r.NameSupportive},
		Symbol:             label.Text{Default: r.Symbol, Preferred: r.SymbolPreferred, Supportive: r.SymbolSupportive},
		IsBaseUnit:         r.IsBaseUnit,
		BaseUnitEquivalent: r.BaseUnitEquivalent.Decimal,
		DecimalLimitQty:    measure.AutoDecimals,
		AdjustType:         measure.AdjustType(r.AdjustType),
	}
	if r.BaseUnitID != nil {
		u.BaseUnitID = measure.UnitID(*r.BaseUnitID)
	}
	if r.DecimalLimitQty != nil {
		u.DecimalLimitQty = *r.DecimalLimitQty
	}
	return u
}

// UnitRepo loads the unit master data of a company.
// TxManager is obtained from context per-request.
type UnitRepo struct {
	builder   squirrel.StatementBuilderType
	unitCols  []string
	rangeCols []string
}

// NewUnitRepo creates a new unit repository.
func NewUnitRepo() *UnitRepo {
	return &UnitRepo{
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		unitCols:  postgres.ExtractDBColumns[unitRow](),
		rangeCols: postgres.ExtractDBColumns[rangeRow](),
	}
}

// ListUnits returns every active unit of the company with its custom ranges.
// Units and ranges are read in one snapshot.
func (r *UnitRepo) ListUnits(ctx context.Context) ([]measure.Unit, error) {
	companyID, err := postgres.CompanyID(ctx)
	if err != nil {
		return nil, err
	}
	txm := postgres.MustGetTxManager(ctx)

	var (
		units  []unitRow
		ranges []rangeRow
	)
	err = txm.ReadOnly(ctx, func(ctx context.Context) error {
		sql, args, err := r.builder.
			Select(r.unitCols...).
			From(unitTable).
			Where(squirrel.Eq{"company_id": companyID, "deletion_mark": false}).
			OrderBy("id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build units query: %w", err)
		}
		if err := pgxscan.Select(ctx, txm.GetQuerier(ctx), &units, sql, args...); err != nil {
			return fmt.Errorf("select units: %w", err)
		}

		sql, args, err = r.builder.
			Select(r.rangeCols...).
			From(unitRangeTable).
			Where(squirrel.Eq{"company_id": companyID}).
			OrderBy("unit_id", "from_value").
			ToSql()
		if err != nil {
			return fmt.Errorf("build unit ranges query: %w", err)
		}
		if err := pgxscan.Select(ctx, txm.GetQuerier(ctx), &ranges, sql, args...); err != nil {
			return fmt.Errorf("select unit ranges: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return assembleUnits(units, ranges), nil
}

// assembleUnits attaches ranges to their units. Ranges of unknown units are
// dropped; the graph reports missing range targets itself.
func assembleUnits(units []unitRow, ranges []rangeRow) []measure.Unit {
	out := make([]measure.Unit, 0, len(units))
	index := make(map[int64]int, len(units))
	for _, row := range units {
		index[row.ID] = len(out)
		out = append(out, row.toDomain())
	}
	for _, rr := range ranges {
		if i, ok := index[rr.UnitID]; ok {
			out[i].CustomRanges = append(out[i].CustomRanges, rr.CustomRange)
		}
	}
	return out
}

package costing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"catercost/internal/core/id"
	"catercost/internal/core/types"
	"catercost/internal/domain/measure"
)

// CostCategoryTotal is the rounded amount of one category.
type CostCategoryTotal struct {
	Category Category
	Amount   types.Money
}

// MaterialLine is one raw-material (or general-fix) material summed over the
// function, ready to print.
type MaterialLine struct {
	RawMaterialID id.ID
	Category      Category
	Smallest      measure.SmallestUnitQuantity
	Display       measure.DisplayQuantity

	// SupplierUnitID and SupplierQuantity are the quantity the amount was priced on.
	SupplierUnitID   measure.UnitID
	SupplierQuantity decimal.Decimal
	Amount           types.Money

	// Excluded marks lines dropped from procurement.
	Excluded bool
}

// Warning records a line or material group that contributed zero.
type Warning struct {
	FunctionID    id.ID
	Category      Category
	Line          int // index in the function's facts, -1 for a material group
	RawMaterialID id.ID
	Err           error
}

func (w Warning) String() string {
	return fmt.Sprintf("function %s %s line %d: %v", w.FunctionID, w.Category, w.Line, w.Err)
}

// DishCostingResult is the costing of one function.
type DishCostingResult struct {
	FunctionID id.ID
	Sequence   int
	Headcount  int

	Categories         []CostCategoryTotal
	TotalAgencyCharges types.Money
	GrandTotal         types.Money
	DishCosting        types.Money

	Materials []MaterialLine
	Warnings  []Warning
}

// Amount returns the rounded total of c.
func (r DishCostingResult) Amount(c Category) types.Money {
	return amountOf(r.Categories, c)
}

// Totals is the order-level rollup across functions.
type Totals struct {
	Categories         []CostCategoryTotal
	TotalAgencyCharges types.Money
	GrandTotal         types.Money
	Headcount          int
}

// Amount returns the summed total of c.
func (t Totals) Amount(c Category) types.Money {
	return amountOf(t.Categories, c)
}

// OrderCosting is the costing of every function of an order, in sequence order.
type OrderCosting struct {
	Functions []DishCostingResult
	Total     Totals

	// Warnings holds facts that could not be attributed to any function.
	Warnings []Warning
}

// AllWarnings returns order-level and per-function warnings together.
func (o OrderCosting) AllWarnings() []Warning {
	out := append([]Warning(nil), o.Warnings...)
	for _, fn := range o.Functions {
		out = append(out, fn.Warnings...)
	}
	return out
}

func amountOf(totals []CostCategoryTotal, c Category) types.Money {
	for _, t := range totals {
		if t.Category == c {
			return t.Amount
		}
	}
	return decimal.Zero
}

package costing

import (
	"time"

	"github.com/shopspring/decimal"

	"catercost/internal/core/id"
	"catercost/internal/domain/label"
	"catercost/internal/domain/measure"
)

// Fact is one cost line fetched for a report. Which fields matter depends on
// Category; the rest stay zero.
type Fact struct {
	Category   Category
	FunctionID id.ID
	AgencyID   *id.ID

	// RawMaterialID groups material lines; unused for other categories.
	RawMaterialID id.ID

	// Quantity is NULL when the source row carries no data.
	Quantity decimal.NullDecimal
	UnitID   measure.UnitID

	// Rate is the labour price (general labour), unit price (extra expense),
	// stored line price (crockery) or supplier price per SupplierUnitID
	// (raw material, general fix).
	Rate decimal.Decimal

	// Agency lines (chef labour, outside agency).
	PerPlate     bool
	CounterCount decimal.NullDecimal
	CounterPrice decimal.Decimal
	HelperCount  decimal.NullDecimal
	HelperPrice  decimal.Decimal
	PlateCount   decimal.NullDecimal
	PlatePrice   decimal.Decimal

	// Material lines. SupplierUnitID zero means the supplier prices in UnitID.
	SupplierUnitID measure.UnitID
	NoItems        bool // preparation/material pair flagged "no items"
	NonPriced      bool // non-priced material category on an outside order line
}

// ExcludedFromProcurement reports material lines that are not bought.
func (f Fact) ExcludedFromProcurement() bool {
	return f.NoItems || f.NonPriced
}

// Function is one event function (meal service) of an order.
type Function struct {
	ID        id.ID
	Sequence  int
	Headcount *int
	StartsAt  time.Time
	Name      label.Text
	Venue     label.Text
}

// HeadcountOrZero returns the guest count, treating NULL as zero.
func (f Function) HeadcountOrZero() int {
	if f.Headcount == nil {
		return 0
	}
	return *f.Headcount
}

// Package reports assembles the dish costing and raw-material consumption
// reports from stored facts, the unit graph and the label tables.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"catercost/internal/core/id"
	"catercost/internal/core/types"
	"catercost/internal/domain/costing"
	"catercost/internal/domain/daypart"
	"catercost/internal/domain/label"
	"catercost/internal/domain/measure"
)

// Order is the header of a catering order together with its functions.
type Order struct {
	ID       id.ID
	Number   string
	Date     time.Time
	Customer label.Text
	Address  label.Text
	Notes    label.Text

	// AdjustQuantity enables stepwise display units (grams become kilograms
	// past the configured threshold) for the order's material listing.
	AdjustQuantity bool

	Functions []costing.Function
}

// --- Dish costing ---

// DishCostingFilter selects the order and presentation of a dish costing report.
type DishCostingFilter struct {
	OrderID id.ID

	// LangType is the raw language code of the reader. Unknown codes fall back
	// to the default language.
	LangType int

	// RequestTimeZone is the zone the stored function times were entered in.
	// Empty means UTC.
	RequestTimeZone string

	// IncludeTotal appends the order-level total row.
	IncludeTotal bool
}

// CategoryAmount is one cost category of a row with its localized label.
type CategoryAmount struct {
	Category costing.Category
	Label    string
	Amount   types.Money
}

// MaterialRow is a raw material printed under a function.
type MaterialRow struct {
	RawMaterialID id.ID
	Name          string
	Category      costing.Category
	Quantity      decimal.Decimal
	Decimals      int
	UnitID        measure.UnitID
	Unit          string
	Amount        types.Money
	Excluded      bool
}

// FunctionRow is the costing of one function, ready to print.
type FunctionRow struct {
	FunctionID id.ID
	Sequence   int
	Name       string
	Venue      string

	// StartsAt is the function start in the company's time zone.
	StartsAt time.Time
	Period   PeriodLabel

	Headcount          int
	Categories         []CategoryAmount
	TotalAgencyCharges types.Money
	GrandTotal         types.Money
	DishCosting        types.Money
	Materials          []MaterialRow
}

// PeriodLabel pairs a time-of-day period with its localized name.
type PeriodLabel struct {
	Period daypart.Period
	Label  string
}

// TotalRow is the order-level rollup.
type TotalRow struct {
	Headcount          int
	Categories         []CategoryAmount
	TotalAgencyCharges types.Money
	GrandTotal         types.Money
}

// DishCostingReport is the full dish costing report of an order.
type DishCostingReport struct {
	OrderID     id.ID
	OrderNumber string
	OrderDate   time.Time
	Customer    string
	Address     string
	Notes       string
	LangType    label.LangType

	Functions []FunctionRow
	Total     *TotalRow

	// WarningCount is the number of cost lines that could not contribute.
	WarningCount int
}

// --- Raw-material consumption ---

// ConsumptionFilter selects the functions whose material lines are summed.
type ConsumptionFilter struct {
	// Period (required); functions starting in [FromDate, ToDate].
	FromDate time.Time
	ToDate   time.Time

	LangType       int
	AdjustQuantity bool
}

// ConsumptionItem is the total quantity of one raw material.
type ConsumptionItem struct {
	RawMaterialID id.ID
	Name          string
	Quantity      decimal.Decimal
	Decimals      int
	UnitID        measure.UnitID
	Unit          string
	Excluded      bool
}

// ConsumptionReport lists material totals over a period.
type ConsumptionReport struct {
	FromDate     time.Time
	ToDate       time.Time
	Items        []ConsumptionItem
	WarningCount int
}

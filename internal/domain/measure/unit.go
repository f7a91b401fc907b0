// Package measure implements the measurement-unit graph: unit master data,
// conversion of quantities to their base ("smallest") unit for summation, and
// re-expression of summed quantities in a display unit with the right precision.
package measure

import (
	"github.com/shopspring/decimal"

	"catercost/internal/domain/label"
)

// UnitID identifies a measurement unit in master data. Zero means "no unit".
type UnitID int64

// AdjustType controls whether a base unit re-buckets quantities for display.
type AdjustType int

const (
	// AdjustNone keeps quantities in the base unit.
	AdjustNone AdjustType = 0
	// AdjustStepwise picks the display unit from the unit's CustomRanges.
	AdjustStepwise AdjustType = 1
)

// AutoDecimals asks the graph to derive display precision from the quantity.
const AutoDecimals = -1

// CustomRange switches display to UnitID once a base-unit quantity reaches FromValue.
type CustomRange struct {
	FromValue decimal.Decimal `db:"from_value" json:"fromValue"`
	UnitID    UnitID          `db:"range_unit_id" json:"unitId"`
}

// Unit is one row of measurement-unit master data.
type Unit struct {
	ID     UnitID
	Name   label.Text
	Symbol label.Text

	// IsBaseUnit marks the root of a measurement family (gram, millilitre, piece).
	IsBaseUnit bool

	// BaseUnitEquivalent: 1 of this unit = BaseUnitEquivalent of BaseUnitID.
	// Ignored for base units.
	BaseUnitEquivalent decimal.Decimal
	BaseUnitID         UnitID

	// DecimalLimitQty is the fixed display precision, or AutoDecimals.
	DecimalLimitQty int

	AdjustType   AdjustType
	CustomRanges []CustomRange
}

// FamilyID returns the base unit this unit resolves to without consulting the graph.
func (u Unit) FamilyID() UnitID {
	if u.IsBaseUnit {
		return u.ID
	}
	return u.BaseUnitID
}

// SmallestUnitQuantity is a quantity expressed in its family's base unit.
// Only values with the same BaseUnitID may be added together.
type SmallestUnitQuantity struct {
	Quantity   decimal.Decimal
	BaseUnitID UnitID
}

// IsZero reports whether the quantity is zero.
func (s SmallestUnitQuantity) IsZero() bool {
	return s.Quantity.IsZero()
}

// DisplayQuantity is what a report prints: the quantity already rounded to
// Decimals, in UnitID.
type DisplayQuantity struct {
	Quantity decimal.Decimal
	UnitID   UnitID
	Decimals int
}

// String formats the quantity with exactly Decimals fractional digits.
func (d DisplayQuantity) String() string {
	return d.Quantity.StringFixed(int32(d.Decimals))
}

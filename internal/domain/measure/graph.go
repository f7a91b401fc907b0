package measure

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"catercost/internal/core/apperror"
	"catercost/internal/core/types"
)

// Defaults for the precision rules. Units 1 and 3 are the "piece" and "number"
// units of the seeded master data.
var (
	DefaultCountUnits       = []UnitID{1, 3}
	DefaultFallbackDecimals = 3
)

const countFractionalDecimals = 3

// Option configures a Graph.
type Option func(*Graph)

// WithCountUnits overrides the set of count-like units whose automatic
// precision is 0 for whole quantities.
func WithCountUnits(ids ...UnitID) Option {
	return func(g *Graph) {
		g.countUnits = make(map[UnitID]struct{}, len(ids))
		for _, id := range ids {
			g.countUnits[id] = struct{}{}
		}
	}
}

// WithDefaultDecimals sets the precision used when a non-count unit asks for
// AutoDecimals.
func WithDefaultDecimals(n int) Option {
	return func(g *Graph) {
		g.defaultDecimals = n
	}
}

// Graph is an immutable view of unit master data. It is safe for concurrent use.
type Graph struct {
	units           map[UnitID]Unit
	broken          map[UnitID]error
	countUnits      map[UnitID]struct{}
	defaultDecimals int
}

// NewGraph builds a graph and fails on any integrity problem.
func NewGraph(units []Unit, opts ...Option) (*Graph, error) {
	g, issues := build(units, opts)
	if len(issues) > 0 {
		return nil, errors.Join(issues...)
	}
	return g, nil
}

// NewGraphLenient builds a graph that keeps every valid unit. Broken units stay
// unresolvable and the problems are returned for operators to fix.
func NewGraphLenient(units []Unit, opts ...Option) (*Graph, []error) {
	return build(units, opts)
}

func build(units []Unit, opts []Option) (*Graph, []error) {
	g := &Graph{
		units:           make(map[UnitID]Unit, len(units)),
		broken:          make(map[UnitID]error),
		defaultDecimals: DefaultFallbackDecimals,
	}
	WithCountUnits(DefaultCountUnits...)(g)
	for _, opt := range opts {
		opt(g)
	}

	var issues []error
	for _, u := range units {
		if _, dup := g.units[u.ID]; dup {
			issues = append(issues, unitGraphErr(u.ID, "duplicate unit id"))
			continue
		}
		if u.DecimalLimitQty < AutoDecimals {
			issues = append(issues, unitGraphErr(u.ID, "decimal limit %d is below %d", u.DecimalLimitQty, AutoDecimals))
			u.DecimalLimitQty = AutoDecimals
		}
		u.CustomRanges = append([]CustomRange(nil), u.CustomRanges...)
		sort.SliceStable(u.CustomRanges, func(i, j int) bool {
			return u.CustomRanges[i].FromValue.LessThan(u.CustomRanges[j].FromValue)
		})
		g.units[u.ID] = u
	}

	for id, u := range g.units {
		if err := g.checkBase(u); err != nil {
			g.broken[id] = err
			issues = append(issues, err)
		}
	}

	for id, u := range g.units {
		if _, bad := g.broken[id]; bad || !u.IsBaseUnit || len(u.CustomRanges) == 0 {
			continue
		}
		valid := u.CustomRanges[:0]
		for _, r := range u.CustomRanges {
			if err := g.checkRange(u, r); err != nil {
				issues = append(issues, err)
				continue
			}
			valid = append(valid, r)
		}
		u.CustomRanges = valid
		g.units[id] = u
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Error() < issues[j].Error() })
	return g, issues
}

// checkBase enforces the one-hop rule: a non-base unit must point directly at an
// existing base unit with a positive equivalence.
func (g *Graph) checkBase(u Unit) error {
	if u.IsBaseUnit {
		return nil
	}
	if u.BaseUnitID == 0 {
		return unitGraphErr(u.ID, "non-base unit has no base unit")
	}
	if !u.BaseUnitEquivalent.IsPositive() {
		return unitGraphErr(u.ID, "base unit equivalent must be positive")
	}
	base, ok := g.units[u.BaseUnitID]
	if !ok {
		return unitGraphErr(u.ID, "base unit %d does not exist", u.BaseUnitID)
	}
	if !base.IsBaseUnit {
		return unitGraphErr(u.ID, "base unit %d is not a base unit (chain deeper than one hop)", u.BaseUnitID)
	}
	return nil
}

func (g *Graph) checkRange(base Unit, r CustomRange) error {
	target, ok := g.units[r.UnitID]
	if !ok {
		return unitGraphErr(base.ID, "custom range references missing unit %d", r.UnitID)
	}
	if _, bad := g.broken[r.UnitID]; bad {
		return unitGraphErr(base.ID, "custom range references broken unit %d", r.UnitID)
	}
	if target.FamilyID() != base.ID {
		return unitGraphErr(base.ID, "custom range unit %d belongs to another family", r.UnitID)
	}
	return nil
}

// Len returns the number of units known to the graph, broken ones included.
func (g *Graph) Len() int {
	return len(g.units)
}

// Unit returns a resolvable unit.
func (g *Graph) Unit(id UnitID) (Unit, error) {
	u, ok := g.units[id]
	if !ok {
		return Unit{}, unitGraphErr(id, "unit does not exist")
	}
	if err, bad := g.broken[id]; bad {
		return Unit{}, err
	}
	return u, nil
}

// ToSmallestUnit expresses q (in unitID) in the unit's base unit.
func (g *Graph) ToSmallestUnit(q decimal.Decimal, unitID UnitID) (SmallestUnitQuantity, error) {
	u, err := g.Unit(unitID)
	if err != nil {
		return SmallestUnitQuantity{}, err
	}
	if u.IsBaseUnit {
		return SmallestUnitQuantity{Quantity: q, BaseUnitID: u.ID}, nil
	}
	return SmallestUnitQuantity{
		Quantity:   q.Mul(u.BaseUnitEquivalent),
		BaseUnitID: u.BaseUnitID,
	}, nil
}

// FromSmallestUnit is the inverse of ToSmallestUnit: it expresses a base-unit
// quantity in unitID.
func (g *Graph) FromSmallestUnit(sq SmallestUnitQuantity, unitID UnitID) (decimal.Decimal, error) {
	u, err := g.Unit(unitID)
	if err != nil {
		return decimal.Zero, err
	}
	if u.FamilyID() != sq.BaseUnitID {
		return decimal.Zero, apperror.NewIncompatibleUnits(int64(sq.BaseUnitID), int64(u.FamilyID()))
	}
	if u.IsBaseUnit {
		return sq.Quantity, nil
	}
	return sq.Quantity.Div(u.BaseUnitEquivalent), nil
}

// ConvertTo converts q from one unit to another of the same family through the base unit.
func (g *Graph) ConvertTo(q decimal.Decimal, from, to UnitID) (decimal.Decimal, error) {
	sq, err := g.ToSmallestUnit(q, from)
	if err != nil {
		return decimal.Zero, err
	}
	return g.FromSmallestUnit(sq, to)
}

// SumSmallestUnits adds quantities of one measurement family. Mixing families
// is rejected, never coerced.
func SumSmallestUnits(values ...SmallestUnitQuantity) (SmallestUnitQuantity, error) {
	var sum SmallestUnitQuantity
	for i, v := range values {
		if i == 0 {
			sum.BaseUnitID = v.BaseUnitID
		} else if v.BaseUnitID != sum.BaseUnitID {
			return SmallestUnitQuantity{}, apperror.NewIncompatibleUnits(int64(sum.BaseUnitID), int64(v.BaseUnitID))
		}
		sum.Quantity = sum.Quantity.Add(v.Quantity)
	}
	return sum, nil
}

// AdjustForDisplay re-expresses a base-unit quantity for printing. Without
// applyStepwise, or when the base unit does not re-bucket, the quantity stays in
// the base unit. Otherwise the last custom range whose FromValue does not exceed
// the quantity selects the display unit.
func (g *Graph) AdjustForDisplay(smallestQty decimal.Decimal, baseUnitID UnitID, applyStepwise bool) (decimal.Decimal, UnitID, error) {
	base, err := g.Unit(baseUnitID)
	if err != nil {
		return decimal.Zero, 0, err
	}
	if !base.IsBaseUnit {
		return decimal.Zero, 0, unitGraphErr(baseUnitID, "unit is not a base unit")
	}
	if !applyStepwise || base.AdjustType != AdjustStepwise {
		return smallestQty, base.ID, nil
	}

	var chosen *CustomRange
	for i := range base.CustomRanges {
		r := &base.CustomRanges[i]
		if r.FromValue.GreaterThan(smallestQty) {
			break
		}
		chosen = r
	}
	if chosen == nil {
		return smallestQty, base.ID, nil
	}

	q, err := g.FromSmallestUnit(SmallestUnitQuantity{Quantity: smallestQty, BaseUnitID: base.ID}, chosen.UnitID)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return q, chosen.UnitID, nil
}

// ResolveDecimalPrecision returns how many fractional digits to print q with in u.
func (g *Graph) ResolveDecimalPrecision(u Unit, q decimal.Decimal) int {
	if u.DecimalLimitQty != AutoDecimals {
		return u.DecimalLimitQty
	}
	if g.isCountUnit(u.ID) {
		if types.IsWhole(q) {
			return 0
		}
		return countFractionalDecimals
	}
	return g.defaultDecimals
}

// PrecisionGap reports units that ask for automatic precision but have no
// explicit rule; their precision comes from the configured fallback.
func (g *Graph) PrecisionGap(u Unit) bool {
	return u.DecimalLimitQty == AutoDecimals && !g.isCountUnit(u.ID)
}

func (g *Graph) isCountUnit(id UnitID) bool {
	_, ok := g.countUnits[id]
	return ok
}

// Display turns a summed base-unit quantity into the triple a report prints.
func (g *Graph) Display(sq SmallestUnitQuantity, applyStepwise bool) (DisplayQuantity, error) {
	q, unitID, err := g.AdjustForDisplay(sq.Quantity, sq.BaseUnitID, applyStepwise)
	if err != nil {
		return DisplayQuantity{}, err
	}
	u, err := g.Unit(unitID)
	if err != nil {
		return DisplayQuantity{}, err
	}
	decimals := g.ResolveDecimalPrecision(u, q)
	return DisplayQuantity{
		Quantity: q.Round(int32(decimals)),
		UnitID:   unitID,
		Decimals: decimals,
	}, nil
}

func unitGraphErr(id UnitID, format string, args ...any) error {
	return apperror.NewUnitGraph(int64(id), fmt.Sprintf("unit %d: ", id)+fmt.Sprintf(format, args...))
}

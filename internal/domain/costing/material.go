package costing

import (
	"github.com/shopspring/decimal"

	"catercost/internal/core/id"
	"catercost/internal/core/types"
	"catercost/internal/domain/measure"
)

type indexedFact struct {
	index int
	fact  Fact
}

// groupAcc collects the normalized lines of one raw material that share the
// same procurement status.
type groupAcc struct {
	materialID id.ID
	excluded   bool
	first      Fact
	quantities []measure.SmallestUnitQuantity
}

type groupKey struct {
	materialID id.ID
	excluded   bool
}

// GroupMaterials normalizes material facts to base units and groups them by raw
// material and procurement status, in order of first appearance. Lines that
// cannot be normalized are reported through warn and skipped.
func GroupMaterials(graph *measure.Graph, facts []Fact, warn func(Warning)) []MaterialGroup {
	indexed := make([]indexedFact, len(facts))
	for i, f := range facts {
		indexed[i] = indexedFact{index: i, fact: f}
	}
	return groupMaterials(graph, indexed, warn)
}

// MaterialGroup is one raw material's lines summed in its base unit.
type MaterialGroup struct {
	MaterialID id.ID
	Category   Category
	Excluded   bool
	First      Fact
	Sum        measure.SmallestUnitQuantity
}

func groupMaterials(graph *measure.Graph, facts []indexedFact, warn func(Warning)) []MaterialGroup {
	var order []groupKey
	groups := make(map[groupKey]*groupAcc)

	for _, in := range facts {
		f := in.fact
		q, err := lineQuantity(f)
		if err != nil {
			warn(Warning{Category: f.Category, Line: in.index, RawMaterialID: f.RawMaterialID, Err: err})
			continue
		}
		sq, err := graph.ToSmallestUnit(q, f.UnitID)
		if err != nil {
			warn(Warning{Category: f.Category, Line: in.index, RawMaterialID: f.RawMaterialID, Err: err})
			continue
		}

		key := groupKey{materialID: f.RawMaterialID, excluded: f.ExcludedFromProcurement()}
		g, ok := groups[key]
		if !ok {
			g = &groupAcc{materialID: f.RawMaterialID, excluded: key.excluded, first: f}
			groups[key] = g
			order = append(order, key)
		}
		g.quantities = append(g.quantities, sq)
	}

	out := make([]MaterialGroup, 0, len(order))
	for _, key := range order {
		g := groups[key]
		sum, err := measure.SumSmallestUnits(g.quantities...)
		if err != nil {
			warn(Warning{Category: g.first.Category, Line: -1, RawMaterialID: g.materialID, Err: err})
			continue
		}
		out = append(out, MaterialGroup{
			MaterialID: g.materialID,
			Category:   g.first.Category,
			Excluded:   g.excluded,
			First:      g.first,
			Sum:        sum,
		})
	}
	return out
}

// materialLines sums each material group, reprices it in the supplier's unit
// and returns the listing plus the category amount.
func (a *Aggregator) materialLines(cat Category, facts []indexedFact, adjust bool, warn func(Warning)) ([]MaterialLine, types.Money) {
	total := decimal.Zero
	var lines []MaterialLine

	for _, g := range groupMaterials(a.graph, facts, warn) {
		line := MaterialLine{
			RawMaterialID: g.MaterialID,
			Category:      cat,
			Smallest:      g.Sum,
			Excluded:      g.Excluded,
		}

		display, err := a.graph.Display(g.Sum, adjust)
		if err != nil {
			warn(Warning{Category: cat, Line: -1, RawMaterialID: g.MaterialID, Err: err})
		}
		line.Display = display

		amount, supplierUnit, supplierQty, err := a.supplierPrice(g)
		if err != nil {
			warn(Warning{Category: cat, Line: -1, RawMaterialID: g.MaterialID, Err: err})
		}
		line.SupplierUnitID = supplierUnit
		line.SupplierQuantity = supplierQty
		line.Amount = amount

		if !g.Excluded || a.opts.ExcludedLinesInTotal {
			total = total.Add(amount)
		}
		lines = append(lines, line)
	}
	return lines, total
}

// supplierPrice expresses the summed quantity in the supplier's unit, going
// through the base unit, and multiplies by the supplier's rate.
func (a *Aggregator) supplierPrice(g MaterialGroup) (types.Money, measure.UnitID, decimal.Decimal, error) {
	unit := g.First.SupplierUnitID
	if unit == 0 {
		unit = g.First.UnitID
	}
	qty, err := a.graph.FromSmallestUnit(g.Sum, unit)
	if err != nil {
		return decimal.Zero, unit, decimal.Zero, err
	}
	return qty.Mul(g.First.Rate), unit, qty, nil
}

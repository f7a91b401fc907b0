package costing

import (
	"sort"

	"github.com/shopspring/decimal"

	"catercost/internal/core/apperror"
	"catercost/internal/core/id"
	"catercost/internal/core/types"
	"catercost/internal/domain/measure"
)

// Options tune aggregation.
type Options struct {
	// ExcludedLinesInTotal keeps material lines excluded from procurement in the
	// category totals (and so in the grand total). They are always listed with
	// Excluded set either way.
	ExcludedLinesInTotal bool
}

// Aggregator computes dish costing over an immutable unit graph. It holds no
// mutable state and may be shared between concurrent report requests.
type Aggregator struct {
	graph *measure.Graph
	opts  Options
}

// NewAggregator creates an aggregator.
func NewAggregator(graph *measure.Graph, opts Options) *Aggregator {
	return &Aggregator{graph: graph, opts: opts}
}

// Graph returns the unit graph the aggregator normalizes with.
func (a *Aggregator) Graph() *measure.Graph {
	return a.graph
}

// AggregateOrder costs every function independently and rolls the results up.
// Functions come back ordered by Sequence. Facts of unknown functions are
// reported as warnings and ignored.
func (a *Aggregator) AggregateOrder(functions []Function, facts []Fact, adjust bool) OrderCosting {
	ordered := append([]Function(nil), functions...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	byFunction := make(map[id.ID][]Fact, len(ordered))
	for _, fn := range ordered {
		byFunction[fn.ID] = nil
	}

	var out OrderCosting
	for i, f := range facts {
		if _, ok := byFunction[f.FunctionID]; !ok {
			out.Warnings = append(out.Warnings, Warning{
				FunctionID: f.FunctionID,
				Category:   f.Category,
				Line:       i,
				Err:        apperror.NewMalformedFact("cost line references an unknown function"),
			})
			continue
		}
		byFunction[f.FunctionID] = append(byFunction[f.FunctionID], f)
	}

	out.Functions = make([]DishCostingResult, 0, len(ordered))
	for _, fn := range ordered {
		out.Functions = append(out.Functions, a.AggregateFunction(fn, byFunction[fn.ID], adjust))
	}
	out.Total = rollup(out.Functions)
	return out
}

// AggregateFunction costs a single function. facts must all belong to fn.
func (a *Aggregator) AggregateFunction(fn Function, facts []Fact, adjust bool) DishCostingResult {
	res := DishCostingResult{
		FunctionID: fn.ID,
		Sequence:   fn.Sequence,
		Headcount:  fn.HeadcountOrZero(),
	}
	warn := func(w Warning) {
		w.FunctionID = fn.ID
		res.Warnings = append(res.Warnings, w)
	}

	raw := make(map[Category]types.Money, len(Categories))
	materials := make(map[Category][]indexedFact)

	for i, f := range facts {
		var (
			amount types.Money
			err    error
		)
		switch f.Category {
		case ChefLabour, OutsideAgency:
			amount, err = agencyAmount(f)
		case GeneralLabour, ExtraExpense:
			amount, err = quantityAmount(f)
		case Crockery:
			amount, err = crockeryAmount(f)
		case RawMaterial, GeneralFix:
			materials[f.Category] = append(materials[f.Category], indexedFact{index: i, fact: f})
			continue
		default:
			err = apperror.NewMalformedFact("unknown cost category").WithDetail("category", int(f.Category))
		}
		if err != nil {
			warn(Warning{Category: f.Category, Line: i, Err: err})
			continue
		}
		raw[f.Category] = raw[f.Category].Add(amount)
	}

	for _, cat := range []Category{RawMaterial, GeneralFix} {
		lines, total := a.materialLines(cat, materials[cat], adjust, warn)
		res.Materials = append(res.Materials, lines...)
		raw[cat] = total
	}

	res.Categories = make([]CostCategoryTotal, 0, len(Categories))
	for _, cat := range Categories {
		res.Categories = append(res.Categories, CostCategoryTotal{
			Category: cat,
			Amount:   types.RoundWhole(raw[cat]),
		})
	}

	res.TotalAgencyCharges = res.Amount(ChefLabour).
		Add(res.Amount(GeneralLabour)).
		Add(res.Amount(OutsideAgency))
	res.GrandTotal = decimal.Zero
	for _, t := range res.Categories {
		res.GrandTotal = res.GrandTotal.Add(t.Amount)
	}
	res.DishCosting = dishCosting(res.GrandTotal, res.Headcount)
	return res
}

func rollup(results []DishCostingResult) Totals {
	sums := make(map[Category]types.Money, len(Categories))
	var t Totals
	for _, r := range results {
		for _, c := range r.Categories {
			sums[c.Category] = sums[c.Category].Add(c.Amount)
		}
		t.TotalAgencyCharges = t.TotalAgencyCharges.Add(r.TotalAgencyCharges)
		t.GrandTotal = t.GrandTotal.Add(r.GrandTotal)
		t.Headcount += r.Headcount
	}
	t.Categories = make([]CostCategoryTotal, 0, len(Categories))
	for _, cat := range Categories {
		t.Categories = append(t.Categories, CostCategoryTotal{Category: cat, Amount: sums[cat]})
	}
	return t
}

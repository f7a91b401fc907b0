package costing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catercost/internal/core/apperror"
	"catercost/internal/core/id"
	"catercost/internal/core/types"
	"catercost/internal/domain/label"
	"catercost/internal/domain/measure"
)

const (
	unitPiece measure.UnitID = 1
	unitGram  measure.UnitID = 2
	unitKilo  measure.UnitID = 4
	unitMl    measure.UnitID = 6
	unitLitre measure.UnitID = 7
	unitKgB   measure.UnitID = 10 // kilogram as its own base unit
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal { return types.Nullable(d(s)) }

func intPtr(v int) *int { return &v }

func testGraph(t *testing.T) *measure.Graph {
	t.Helper()
	g, err := measure.NewGraph([]measure.Unit{
		{ID: unitPiece, IsBaseUnit: true, DecimalLimitQty: measure.AutoDecimals},
		{
			ID: unitGram, IsBaseUnit: true, DecimalLimitQty: 0, AdjustType: measure.AdjustStepwise,
			CustomRanges: []measure.CustomRange{{FromValue: d("1000"), UnitID: unitKilo}},
		},
		{ID: unitKilo, BaseUnitID: unitGram, BaseUnitEquivalent: d("1000"), DecimalLimitQty: 3},
		{ID: unitMl, IsBaseUnit: true, DecimalLimitQty: 0},
		{ID: unitLitre, BaseUnitID: unitMl, BaseUnitEquivalent: d("1000"), DecimalLimitQty: 2},
		{ID: unitKgB, IsBaseUnit: true, DecimalLimitQty: 3},
	})
	require.NoError(t, err)
	return g
}

func newFunction(seq int, headcount *int) Function {
	return Function{
		ID:        id.New(),
		Sequence:  seq,
		Headcount: headcount,
		StartsAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Name:      label.Plain("Lunch"),
	}
}

func TestAggregateFunction_EndToEnd(t *testing.T) {
	agg := NewAggregator(testGraph(t), Options{})
	fn := newFunction(1, intPtr(50))
	material := id.New()

	facts := []Fact{
		{Category: ChefLabour, FunctionID: fn.ID, CounterCount: nd("2"), CounterPrice: d("500"), HelperCount: nd("1"), HelperPrice: d("200")},
		{Category: GeneralLabour, FunctionID: fn.ID, Quantity: nd("3"), Rate: d("150")},
		{Category: ExtraExpense, FunctionID: fn.ID, Quantity: nd("2"), Rate: d("100")},
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: material, Quantity: nd("2.5"), UnitID: unitKgB, SupplierUnitID: unitKgB, Rate: d("40")},
		{Category: Crockery, FunctionID: fn.ID, Quantity: nd("1"), Rate: d("300")},
	}

	res := agg.AggregateFunction(fn, facts, false)
	require.Empty(t, res.Warnings)

	want := map[Category]string{
		ChefLabour:    "1200",
		GeneralLabour: "450",
		OutsideAgency: "0",
		ExtraExpense:  "200",
		RawMaterial:   "100",
		GeneralFix:    "0",
		Crockery:      "300",
	}
	require.Len(t, res.Categories, len(Categories))
	for cat, amount := range want {
		assert.True(t, res.Amount(cat).Equal(d(amount)), "%s = %s", cat, res.Amount(cat))
	}
	assert.True(t, res.GrandTotal.Equal(d("2250")), res.GrandTotal.String())
	assert.True(t, res.TotalAgencyCharges.Equal(d("1650")))
	assert.True(t, res.DishCosting.Equal(d("45")))

	require.Len(t, res.Materials, 1)
	assert.Equal(t, material, res.Materials[0].RawMaterialID)
	assert.Equal(t, "2.500", res.Materials[0].Display.String())
}

func TestDishCosting_DivisionGuard(t *testing.T) {
	assert.True(t, dishCosting(d("5000"), 0).IsZero())
	assert.True(t, dishCosting(d("5000"), -3).IsZero())
	assert.True(t, dishCosting(d("5000"), 3).Equal(d("1667")))

	agg := NewAggregator(testGraph(t), Options{})
	fn := newFunction(1, nil)
	res := agg.AggregateFunction(fn, []Fact{
		{Category: Crockery, FunctionID: fn.ID, Rate: d("5000")},
	}, false)
	assert.True(t, res.GrandTotal.Equal(d("5000")))
	assert.True(t, res.DishCosting.IsZero())
}

func TestAgencyAmount(t *testing.T) {
	tests := []struct {
		name string
		fact Fact
		want string
	}{
		{"counters and helpers", Fact{CounterCount: nd("2"), CounterPrice: d("500"), HelperCount: nd("3"), HelperPrice: d("150")}, "1450"},
		{"missing helper count is zero", Fact{CounterCount: nd("2"), CounterPrice: d("500"), HelperPrice: d("150")}, "1000"},
		{"nothing counted", Fact{CounterPrice: d("500"), HelperPrice: d("150")}, "0"},
		{"per plate ignores counters", Fact{PerPlate: true, PlateCount: nd("120"), PlatePrice: d("35"), CounterCount: nd("9"), CounterPrice: d("1000")}, "4200"},
		{"per plate without count", Fact{PerPlate: true, PlatePrice: d("35")}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := agencyAmount(tt.fact)
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}

	_, err := agencyAmount(Fact{CounterCount: nd("-1"), CounterPrice: d("10")})
	assert.True(t, apperror.IsMalformedFact(err))
}

func TestAggregateFunction_OutsideAgencyPerPlate(t *testing.T) {
	agg := NewAggregator(testGraph(t), Options{})
	fn := newFunction(1, intPtr(100))
	agency := id.New()

	res := agg.AggregateFunction(fn, []Fact{
		{Category: OutsideAgency, FunctionID: fn.ID, AgencyID: &agency, PerPlate: true, PlateCount: nd("100"), PlatePrice: d("80")},
		{Category: ChefLabour, FunctionID: fn.ID, AgencyID: &agency, CounterCount: nd("1"), CounterPrice: d("700")},
	}, false)

	assert.True(t, res.Amount(OutsideAgency).Equal(d("8000")))
	assert.True(t, res.TotalAgencyCharges.Equal(d("8700")))
	assert.True(t, res.DishCosting.Equal(d("87")))
}

func TestAggregateFunction_RoundsEachCategoryBeforeCombining(t *testing.T) {
	agg := NewAggregator(testGraph(t), Options{})
	fn := newFunction(1, intPtr(1))

	res := agg.AggregateFunction(fn, []Fact{
		{Category: GeneralLabour, FunctionID: fn.ID, Quantity: nd("1"), Rate: d("0.5")},
		{Category: ExtraExpense, FunctionID: fn.ID, Quantity: nd("1"), Rate: d("0.5")},
		{Category: Crockery, FunctionID: fn.ID, Rate: d("10.25")},
		{Category: Crockery, FunctionID: fn.ID, Rate: d("10.25")},
	}, false)

	assert.True(t, res.Amount(GeneralLabour).Equal(d("1")))
	assert.True(t, res.Amount(ExtraExpense).Equal(d("1")))
	assert.True(t, res.Amount(Crockery).Equal(d("21")))
	assert.True(t, res.GrandTotal.Equal(d("23")), res.GrandTotal.String())
}

func TestAggregateFunction_SupplierUnitRepricing(t *testing.T) {
	agg := NewAggregator(testGraph(t), Options{})
	fn := newFunction(1, intPtr(10))
	rice := id.New()

	// Tracked in grams and kilograms, priced by the supplier per kilogram.
	res := agg.AggregateFunction(fn, []Fact{
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: rice, Quantity: nd("1500"), UnitID: unitGram, SupplierUnitID: unitKilo, Rate: d("60")},
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: rice, Quantity: nd("2"), UnitID: unitKilo, SupplierUnitID: unitKilo, Rate: d("60")},
	}, true)

	require.Empty(t, res.Warnings)
	require.Len(t, res.Materials, 1)
	line := res.Materials[0]
	assert.True(t, line.Smallest.Quantity.Equal(d("3500")))
	assert.Equal(t, unitGram, line.Smallest.BaseUnitID)
	assert.Equal(t, unitKilo, line.SupplierUnitID)
	assert.True(t, line.SupplierQuantity.Equal(d("3.5")))
	assert.True(t, line.Amount.Equal(d("210")))
	assert.Equal(t, unitKilo, line.Display.UnitID)
	assert.Equal(t, "3.500", line.Display.String())
	assert.True(t, res.Amount(RawMaterial).Equal(d("210")))

	// Without stepwise adjustment the listing stays in grams.
	res = agg.AggregateFunction(fn, []Fact{
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: rice, Quantity: nd("1500"), UnitID: unitGram, SupplierUnitID: unitKilo, Rate: d("60")},
	}, false)
	assert.Equal(t, unitGram, res.Materials[0].Display.UnitID)
	assert.Equal(t, "1500", res.Materials[0].Display.String())
}

func TestAggregateFunction_ExcludedLines(t *testing.T) {
	fn := newFunction(1, intPtr(10))
	oil := id.New()
	salt := id.New()
	facts := []Fact{
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: oil, Quantity: nd("2"), UnitID: unitLitre, Rate: d("150")},
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: salt, Quantity: nd("1"), UnitID: unitKilo, Rate: d("20"), NoItems: true},
		{Category: GeneralFix, FunctionID: fn.ID, RawMaterialID: oil, Quantity: nd("500"), UnitID: unitMl, SupplierUnitID: unitLitre, Rate: d("150"), NonPriced: true},
	}

	res := NewAggregator(testGraph(t), Options{}).AggregateFunction(fn, facts, false)
	require.Empty(t, res.Warnings)
	assert.True(t, res.Amount(RawMaterial).Equal(d("300")))
	assert.True(t, res.Amount(GeneralFix).IsZero())
	require.Len(t, res.Materials, 3)
	assert.False(t, res.Materials[0].Excluded)
	assert.True(t, res.Materials[1].Excluded)
	assert.True(t, res.Materials[1].Amount.Equal(d("20")))
	assert.True(t, res.Materials[2].Excluded)

	res = NewAggregator(testGraph(t), Options{ExcludedLinesInTotal: true}).AggregateFunction(fn, facts, false)
	assert.True(t, res.Amount(RawMaterial).Equal(d("320")))
	assert.True(t, res.Amount(GeneralFix).Equal(d("75")))
	assert.True(t, res.GrandTotal.Equal(d("395")))
}

func TestAggregateFunction_PartialDataTolerance(t *testing.T) {
	agg := NewAggregator(testGraph(t), Options{})
	fn := newFunction(1, intPtr(4))
	flour := id.New()
	milk := id.New()

	res := agg.AggregateFunction(fn, []Fact{
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: flour, Quantity: nd("1"), UnitID: unitKilo, Rate: d("40")},
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: flour, Quantity: nd("1"), UnitID: measure.UnitID(404), Rate: d("40")},
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: flour, Quantity: nd("-2"), UnitID: unitKilo, Rate: d("40")},
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: flour, UnitID: unitKilo, Rate: d("40")},
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: milk, Quantity: nd("1"), UnitID: unitLitre, Rate: d("50")},
		{Category: RawMaterial, FunctionID: fn.ID, RawMaterialID: milk, Quantity: nd("1"), UnitID: unitKilo, Rate: d("50")},
		{Category: ExtraExpense, FunctionID: fn.ID, Quantity: nd("-1"), Rate: d("100")},
		{Category: Category(42), FunctionID: fn.ID, Rate: d("999")},
		{Category: Crockery, FunctionID: fn.ID, Rate: d("60")},
	}, false)

	// flour: one good kilogram; the bad unit and negative line contribute zero,
	// the NULL quantity is simply zero. milk mixes volume and mass and drops out.
	assert.True(t, res.Amount(RawMaterial).Equal(d("40")), res.Amount(RawMaterial).String())
	assert.True(t, res.Amount(ExtraExpense).IsZero())
	assert.True(t, res.GrandTotal.Equal(d("100")))
	assert.True(t, res.DishCosting.Equal(d("25")))

	require.Len(t, res.Warnings, 5)
	var graphErrs, incompatible, malformed int
	for _, w := range res.Warnings {
		assert.Equal(t, fn.ID, w.FunctionID)
		switch {
		case apperror.IsUnitGraph(w.Err):
			graphErrs++
		case apperror.IsIncompatibleUnits(w.Err):
			incompatible++
			assert.Equal(t, milk, w.RawMaterialID)
			assert.Equal(t, -1, w.Line)
		case apperror.IsMalformedFact(w.Err):
			malformed++
		}
	}
	assert.Equal(t, 1, graphErrs)
	assert.Equal(t, 1, incompatible)
	assert.Equal(t, 3, malformed)
}

func TestAggregateOrder(t *testing.T) {
	agg := NewAggregator(testGraph(t), Options{})
	dinner := newFunction(3, intPtr(200))
	breakfast := newFunction(1, intPtr(0))
	lunch := newFunction(2, intPtr(100))
	stray := id.New()

	facts := []Fact{
		{Category: Crockery, FunctionID: dinner.ID, Rate: d("2000")},
		{Category: Crockery, FunctionID: breakfast.ID, Rate: d("500")},
		{Category: GeneralLabour, FunctionID: lunch.ID, Quantity: nd("4"), Rate: d("250")},
		{Category: Crockery, FunctionID: stray, Rate: d("99999")},
	}

	order := agg.AggregateOrder([]Function{dinner, breakfast, lunch}, facts, false)

	require.Len(t, order.Functions, 3)
	assert.Equal(t, breakfast.ID, order.Functions[0].FunctionID)
	assert.Equal(t, lunch.ID, order.Functions[1].FunctionID)
	assert.Equal(t, dinner.ID, order.Functions[2].FunctionID)

	assert.True(t, order.Functions[0].DishCosting.IsZero())
	assert.True(t, order.Functions[1].DishCosting.Equal(d("10")))
	assert.True(t, order.Functions[2].DishCosting.Equal(d("10")))

	assert.True(t, order.Total.GrandTotal.Equal(d("3500")))
	assert.True(t, order.Total.Amount(Crockery).Equal(d("2500")))
	assert.True(t, order.Total.TotalAgencyCharges.Equal(d("1000")))
	assert.Equal(t, 300, order.Total.Headcount)

	require.Len(t, order.Warnings, 1)
	assert.Equal(t, stray, order.Warnings[0].FunctionID)
	assert.Len(t, order.AllWarnings(), 1)
}

func TestGroupMaterials(t *testing.T) {
	g := testGraph(t)
	butter := id.New()
	var warnings []Warning

	groups := GroupMaterials(g, []Fact{
		{Category: RawMaterial, RawMaterialID: butter, Quantity: nd("250"), UnitID: unitGram},
		{Category: GeneralFix, RawMaterialID: butter, Quantity: nd("0.75"), UnitID: unitKilo},
		{Category: RawMaterial, RawMaterialID: butter, Quantity: nd("1"), UnitID: 404},
	}, func(w Warning) { warnings = append(warnings, w) })

	require.Len(t, groups, 1)
	assert.True(t, groups[0].Sum.Quantity.Equal(d("1000")))
	assert.Equal(t, unitGram, groups[0].Sum.BaseUnitID)
	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Line)
}

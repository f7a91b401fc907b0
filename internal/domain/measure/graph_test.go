package measure

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catercost/internal/core/apperror"
	"catercost/internal/domain/label"
)

const (
	piece  UnitID = 1
	gram   UnitID = 2
	number UnitID = 3
	kilo   UnitID = 4
	dozen  UnitID = 5
	milli  UnitID = 6
	litre  UnitID = 7
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixtureUnits() []Unit {
	return []Unit{
		{ID: piece, Name: label.Plain("Piece"), Symbol: label.Plain("pc"), IsBaseUnit: true, DecimalLimitQty: AutoDecimals},
		{ID: number, Name: label.Plain("Number"), Symbol: label.Plain("no"), IsBaseUnit: true, DecimalLimitQty: AutoDecimals},
		{
			ID: gram, Name: label.Plain("Gram"), Symbol: label.Plain("g"), IsBaseUnit: true,
			DecimalLimitQty: 0, AdjustType: AdjustStepwise,
			CustomRanges: []CustomRange{
				{FromValue: d("1000"), UnitID: kilo},
				{FromValue: d("0"), UnitID: gram},
			},
		},
		{ID: kilo, Name: label.Plain("Kilogram"), Symbol: label.Plain("kg"), BaseUnitID: gram, BaseUnitEquivalent: d("1000"), DecimalLimitQty: 3},
		{ID: dozen, Name: label.Plain("Dozen"), Symbol: label.Plain("dz"), BaseUnitID: piece, BaseUnitEquivalent: d("12"), DecimalLimitQty: AutoDecimals},
		{ID: milli, Name: label.Plain("Millilitre"), Symbol: label.Plain("ml"), IsBaseUnit: true, DecimalLimitQty: AutoDecimals},
		{ID: litre, Name: label.Plain("Litre"), Symbol: label.Plain("l"), BaseUnitID: milli, BaseUnitEquivalent: d("1000"), DecimalLimitQty: 2},
	}
}

func fixtureGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	g, err := NewGraph(fixtureUnits(), opts...)
	require.NoError(t, err)
	return g
}

func TestToSmallestUnit(t *testing.T) {
	g := fixtureGraph(t)

	sq, err := g.ToSmallestUnit(d("250"), gram)
	require.NoError(t, err)
	assert.Equal(t, gram, sq.BaseUnitID)
	assert.True(t, sq.Quantity.Equal(d("250")))

	sq, err = g.ToSmallestUnit(d("2.5"), kilo)
	require.NoError(t, err)
	assert.Equal(t, gram, sq.BaseUnitID)
	assert.True(t, sq.Quantity.Equal(d("2500")))

	sq, err = g.ToSmallestUnit(d("3"), dozen)
	require.NoError(t, err)
	assert.Equal(t, piece, sq.BaseUnitID)
	assert.True(t, sq.Quantity.Equal(d("36")))

	_, err = g.ToSmallestUnit(d("1"), UnitID(99))
	require.Error(t, err)
	assert.True(t, apperror.IsUnitGraph(err))
}

func TestNewGraph_RejectsDeepChains(t *testing.T) {
	units := append(fixtureUnits(), Unit{
		ID: 8, BaseUnitID: kilo, BaseUnitEquivalent: d("1000"), DecimalLimitQty: 3,
	})

	_, err := NewGraph(units)
	require.Error(t, err)
	assert.True(t, apperror.IsUnitGraph(err))
	assert.Contains(t, err.Error(), "unit 8")

	g, issues := NewGraphLenient(units)
	require.Len(t, issues, 1)

	_, err = g.ToSmallestUnit(d("1"), 8)
	assert.True(t, apperror.IsUnitGraph(err))

	sq, err := g.ToSmallestUnit(d("1"), kilo)
	require.NoError(t, err)
	assert.True(t, sq.Quantity.Equal(d("1000")))
}

func TestNewGraph_IntegrityProblems(t *testing.T) {
	tests := []struct {
		name string
		unit Unit
	}{
		{"missing base reference", Unit{ID: 20, BaseUnitEquivalent: d("1")}},
		{"non-positive equivalent", Unit{ID: 21, BaseUnitID: gram, BaseUnitEquivalent: d("0")}},
		{"base does not exist", Unit{ID: 22, BaseUnitID: 404, BaseUnitEquivalent: d("1")}},
		{"self reference", Unit{ID: 23, BaseUnitID: 23, BaseUnitEquivalent: d("1")}},
		{"duplicate id", Unit{ID: gram, IsBaseUnit: true}},
		{"range to another family", Unit{
			ID: 24, IsBaseUnit: true, AdjustType: AdjustStepwise,
			CustomRanges: []CustomRange{{FromValue: d("10"), UnitID: litre}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(append(fixtureUnits(), tt.unit))
			require.Error(t, err)
			assert.True(t, apperror.IsUnitGraph(err))
		})
	}
}

func TestNewGraph_RejectsCycles(t *testing.T) {
	units := []Unit{
		{ID: 30, BaseUnitID: 31, BaseUnitEquivalent: d("2")},
		{ID: 31, BaseUnitID: 30, BaseUnitEquivalent: d("0.5")},
	}
	g, issues := NewGraphLenient(units)
	assert.Len(t, issues, 2)

	_, err := g.ToSmallestUnit(d("1"), 30)
	assert.Error(t, err)
}

func TestSumSmallestUnits(t *testing.T) {
	a := SmallestUnitQuantity{Quantity: d("100.5"), BaseUnitID: gram}
	b := SmallestUnitQuantity{Quantity: d("2000"), BaseUnitID: gram}
	c := SmallestUnitQuantity{BaseUnitID: gram}

	orders := [][]SmallestUnitQuantity{{a, b, c}, {c, b, a}, {b, a, c}, {c, a, b}}
	for _, values := range orders {
		sum, err := SumSmallestUnits(values...)
		require.NoError(t, err)
		assert.Equal(t, gram, sum.BaseUnitID)
		assert.True(t, sum.Quantity.Equal(d("2100.5")), sum.Quantity.String())
	}

	empty, err := SumSmallestUnits()
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestSumSmallestUnits_RejectsMixedFamilies(t *testing.T) {
	g := fixtureGraph(t)

	mass, err := g.ToSmallestUnit(d("1"), kilo)
	require.NoError(t, err)
	volume, err := g.ToSmallestUnit(d("1"), litre)
	require.NoError(t, err)

	_, err = SumSmallestUnits(mass, volume)
	require.Error(t, err)
	assert.True(t, apperror.IsIncompatibleUnits(err))

	_, err = SumSmallestUnits(volume, mass, mass)
	assert.True(t, apperror.IsIncompatibleUnits(err))
}

func TestAdjustForDisplay(t *testing.T) {
	g := fixtureGraph(t)

	tests := []struct {
		name     string
		qty      string
		base     UnitID
		stepwise bool
		wantQty  string
		wantUnit UnitID
	}{
		{"stepwise above threshold", "2500", gram, true, "2.5", kilo},
		{"stepwise exactly at threshold", "1000", gram, true, "1", kilo},
		{"stepwise below threshold", "999", gram, true, "999", gram},
		{"flag off keeps base", "2500", gram, false, "2500", gram},
		{"base without stepwise type", "2500", milli, true, "2500", milli},
		{"negative below every threshold", "-5", gram, true, "-5", gram},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, unit, err := g.AdjustForDisplay(d(tt.qty), tt.base, tt.stepwise)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUnit, unit)
			assert.True(t, q.Equal(d(tt.wantQty)), "got %s", q)
		})
	}

	_, _, err := g.AdjustForDisplay(d("1"), kilo, true)
	assert.True(t, apperror.IsUnitGraph(err))
}

func TestRoundTripThroughBaseUnit(t *testing.T) {
	g := fixtureGraph(t)
	quantities := []string{"0", "1", "2.5", "0.125", "1234.5678"}

	for _, u := range fixtureUnits() {
		for _, qs := range quantities {
			q := d(qs)
			sq, err := g.ToSmallestUnit(q, u.ID)
			require.NoError(t, err)

			got, unit, err := g.AdjustForDisplay(sq.Quantity, sq.BaseUnitID, false)
			require.NoError(t, err)
			assert.Equal(t, u.FamilyID(), unit)

			want := q
			if !u.IsBaseUnit {
				want = q.Mul(u.BaseUnitEquivalent)
			}
			assert.True(t, got.Sub(want).Abs().LessThan(d("0.0000001")), "unit %d qty %s", u.ID, qs)

			back, err := g.FromSmallestUnit(sq, u.ID)
			require.NoError(t, err)
			assert.True(t, back.Sub(q).Abs().LessThan(d("0.0000001")))
		}
	}
}

func TestResolveDecimalPrecision(t *testing.T) {
	g := fixtureGraph(t)
	units := map[UnitID]Unit{}
	for _, u := range fixtureUnits() {
		units[u.ID] = u
	}

	assert.Equal(t, 0, g.ResolveDecimalPrecision(units[piece], d("12")))
	assert.Equal(t, 3, g.ResolveDecimalPrecision(units[piece], d("12.5")))
	assert.Equal(t, 0, g.ResolveDecimalPrecision(units[number], d("4.000")))
	assert.Equal(t, 3, g.ResolveDecimalPrecision(units[kilo], d("2")))
	assert.Equal(t, 2, g.ResolveDecimalPrecision(units[litre], d("1.23456")))
	assert.Equal(t, 0, g.ResolveDecimalPrecision(units[gram], d("0.5")))

	assert.Equal(t, DefaultFallbackDecimals, g.ResolveDecimalPrecision(units[milli], d("2")))
	assert.True(t, g.PrecisionGap(units[milli]))
	assert.True(t, g.PrecisionGap(units[dozen]))
	assert.False(t, g.PrecisionGap(units[piece]))
	assert.False(t, g.PrecisionGap(units[kilo]))

	custom := fixtureGraph(t, WithDefaultDecimals(1), WithCountUnits(milli))
	assert.Equal(t, 0, custom.ResolveDecimalPrecision(units[milli], d("2")))
	assert.Equal(t, 1, custom.ResolveDecimalPrecision(units[piece], d("2")))
}

func TestDisplay(t *testing.T) {
	g := fixtureGraph(t)

	dq, err := g.Display(SmallestUnitQuantity{Quantity: d("2500"), BaseUnitID: gram}, true)
	require.NoError(t, err)
	assert.Equal(t, kilo, dq.UnitID)
	assert.Equal(t, 3, dq.Decimals)
	assert.Equal(t, "2.500", dq.String())

	dq, err = g.Display(SmallestUnitQuantity{Quantity: d("12"), BaseUnitID: piece}, true)
	require.NoError(t, err)
	assert.Equal(t, piece, dq.UnitID)
	assert.Equal(t, "12", dq.String())

	dq, err = g.Display(SmallestUnitQuantity{Quantity: d("12.25"), BaseUnitID: piece}, false)
	require.NoError(t, err)
	assert.Equal(t, "12.250", dq.String())

	dq, err = g.Display(SmallestUnitQuantity{Quantity: d("750.6"), BaseUnitID: gram}, true)
	require.NoError(t, err)
	assert.Equal(t, gram, dq.UnitID)
	assert.Equal(t, "751", dq.String())
}

func TestConvertTo(t *testing.T) {
	g := fixtureGraph(t)

	q, err := g.ConvertTo(d("1500"), gram, kilo)
	require.NoError(t, err)
	assert.True(t, q.Equal(d("1.5")))

	_, err = g.ConvertTo(d("1"), kilo, litre)
	assert.True(t, apperror.IsIncompatibleUnits(err))
}

package costing

import (
	"github.com/shopspring/decimal"

	"catercost/internal/core/apperror"
	"catercost/internal/core/types"
)

// agencyAmount prices a chef-labour or outside-agency line: plates for per-plate
// lines, counters plus helpers otherwise. Missing counts are zero.
func agencyAmount(f Fact) (types.Money, error) {
	if f.PerPlate {
		plates := types.OrZero(f.PlateCount)
		if plates.IsNegative() {
			return decimal.Zero, negativeErr("plate count", plates)
		}
		return plates.Mul(f.PlatePrice), nil
	}

	counters := types.OrZero(f.CounterCount)
	helpers := types.OrZero(f.HelperCount)
	if counters.IsNegative() {
		return decimal.Zero, negativeErr("counter count", counters)
	}
	if helpers.IsNegative() {
		return decimal.Zero, negativeErr("helper count", helpers)
	}
	return counters.Mul(f.CounterPrice).Add(helpers.Mul(f.HelperPrice)), nil
}

// quantityAmount prices general-labour (quantity x labour price) and
// extra-expense (quantity x unit price) lines.
func quantityAmount(f Fact) (types.Money, error) {
	q, err := lineQuantity(f)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Mul(f.Rate), nil
}

// crockeryAmount is the stored line price; no unit math applies.
func crockeryAmount(f Fact) (types.Money, error) {
	return f.Rate, nil
}

// lineQuantity returns the quantity of a line, NULL as zero. Negative
// quantities are malformed.
func lineQuantity(f Fact) (decimal.Decimal, error) {
	q := types.OrZero(f.Quantity)
	if q.IsNegative() {
		return decimal.Zero, negativeErr("quantity", q)
	}
	return q, nil
}

// dishCosting divides the grand total by the headcount; no guests means zero.
func dishCosting(grandTotal types.Money, headcount int) types.Money {
	if headcount <= 0 {
		return decimal.Zero
	}
	return types.RoundWhole(grandTotal.Div(decimal.NewFromInt(int64(headcount))))
}

func negativeErr(field string, v decimal.Decimal) error {
	return apperror.NewMalformedFact(field+" must not be negative").
		WithDetail("value", v.String())
}

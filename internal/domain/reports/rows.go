package reports

import (
	"context"
	"strings"

	"catercost/internal/core/id"
	"catercost/internal/domain/costing"
	"catercost/internal/domain/daypart"
	"catercost/internal/domain/label"
	"catercost/internal/domain/measure"
	"catercost/pkg/logger"
)

// rowBuilder resolves labels and units for one report in one language.
type rowBuilder struct {
	graph      *measure.Graph
	lang       label.LangType
	categories map[costing.Category]label.Text
	periods    daypart.Labels
	names      map[id.ID]label.Text

	// units displayed with the fallback precision
	gaps map[measure.UnitID]struct{}
}

func (b *rowBuilder) categoryAmounts(totals []costing.CostCategoryTotal) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for _, t := range totals {
		text, ok := b.categories[t.Category]
		if !ok {
			text = label.Plain(t.Category.String())
		}
		out = append(out, CategoryAmount{
			Category: t.Category,
			Label:    text.In(b.lang),
			Amount:   t.Amount,
		})
	}
	return out
}

func (b *rowBuilder) materials(lines []costing.MaterialLine) []MaterialRow {
	out := make([]MaterialRow, 0, len(lines))
	for _, l := range lines {
		out = append(out, MaterialRow{
			RawMaterialID: l.RawMaterialID,
			Name:          b.names[l.RawMaterialID].In(b.lang),
			Category:      l.Category,
			Quantity:      l.Display.Quantity,
			Decimals:      l.Display.Decimals,
			UnitID:        l.Display.UnitID,
			Unit:          b.unitSymbol(l.Display.UnitID),
			Amount:        l.Amount,
			Excluded:      l.Excluded,
		})
	}
	return out
}

// unitSymbol returns the localized symbol of a unit, its name when the symbol
// is blank. Also records units that hit the precision fallback.
func (b *rowBuilder) unitSymbol(unitID measure.UnitID) string {
	u, err := b.graph.Unit(unitID)
	if err != nil {
		return ""
	}
	if b.graph.PrecisionGap(u) {
		b.gaps[u.ID] = struct{}{}
	}
	if sym := u.Symbol.In(b.lang); strings.TrimSpace(sym) != "" {
		return sym
	}
	return u.Name.In(b.lang)
}

func (b *rowBuilder) logPrecisionGaps(ctx context.Context) {
	for unitID := range b.gaps {
		logger.Warn(ctx, "unit has no decimal limit configured, using default precision",
			"unit_id", unitID)
	}
}

package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"catercost/internal/core/apperror"
	"catercost/internal/core/id"
	"catercost/internal/core/tenant"
	"catercost/internal/domain/costing"
	"catercost/internal/domain/daypart"
	"catercost/internal/domain/label"
	"catercost/internal/domain/measure"
	"catercost/pkg/logger"
)

var tracer = otel.Tracer("catercost/reports")

// Service provides report generation operations.
type Service struct {
	repo   Repository
	graphs UnitGraphProvider
	opts   costing.Options
}

// NewService creates a new reports service.
func NewService(repo Repository, graphs UnitGraphProvider, opts costing.Options) *Service {
	return &Service{repo: repo, graphs: graphs, opts: opts}
}

// DishCosting builds the dish costing report of one order.
func (s *Service) DishCosting(ctx context.Context, filter DishCostingFilter) (*DishCostingReport, error) {
	if id.IsNil(filter.OrderID) {
		return nil, apperror.NewValidation("orderId is required")
	}

	ctx, span := tracer.Start(ctx, "reports.DishCosting",
		trace.WithAttributes(attribute.String("order.id", filter.OrderID.String())))
	defer span.End()

	lang := s.language(ctx, filter.LangType)

	classifier, err := daypart.NewClassifier(tenant.GetTenant(ctx).Location())
	if err != nil {
		return nil, fmt.Errorf("company time zone: %w", err)
	}

	var (
		graph          *measure.Graph
		order          *Order
		facts          []costing.Fact
		categoryLabels map[costing.Category]label.Text
		periodLabels   daypart.TextLabels
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		graph, err = s.graphs.Graph(gctx)
		if err != nil {
			return fmt.Errorf("load unit graph: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Functions and their cost lines must come from one snapshot, or a
		// function edited in between shows up as an unknown-function warning.
		return readSnapshot(gctx, func(ctx context.Context) error {
			var err error
			order, err = s.repo.GetOrder(ctx, filter.OrderID)
			if err != nil {
				return fmt.Errorf("get order: %w", err)
			}
			facts, err = s.repo.ListCostFacts(ctx, filter.OrderID)
			if err != nil {
				return fmt.Errorf("list cost facts: %w", err)
			}
			return nil
		})
	})
	g.Go(func() error {
		var err error
		categoryLabels, err = s.repo.ListCategoryLabels(gctx)
		if err != nil {
			return fmt.Errorf("list category labels: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		periodLabels, err = s.repo.GetPeriodLabels(gctx)
		if err != nil {
			return fmt.Errorf("get period labels: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names, err := s.repo.ListMaterialNames(ctx, materialIDs(facts))
	if err != nil {
		return nil, fmt.Errorf("list material names: %w", err)
	}

	costs := costing.NewAggregator(graph, s.opts).AggregateOrder(order.Functions, facts, order.AdjustQuantity)
	warnings := costs.AllWarnings()
	s.logWarnings(ctx, warnings)
	span.SetAttributes(
		attribute.Int("report.functions", len(costs.Functions)),
		attribute.Int("report.warnings", len(warnings)),
	)

	functions := make(map[id.ID]costing.Function, len(order.Functions))
	for _, fn := range order.Functions {
		functions[fn.ID] = fn
	}

	rows := &rowBuilder{
		graph:      graph,
		lang:       lang,
		categories: categoryLabels,
		periods:    periodLabels.In(lang),
		names:      names,
		gaps:       make(map[measure.UnitID]struct{}),
	}

	report := &DishCostingReport{
		OrderID:      order.ID,
		OrderNumber:  order.Number,
		OrderDate:    order.Date,
		Customer:     order.Customer.In(lang),
		Address:      order.Address.In(lang),
		Notes:        order.Notes.In(lang),
		LangType:     lang,
		Functions:    make([]FunctionRow, 0, len(costs.Functions)),
		WarningCount: len(warnings),
	}

	for _, res := range costs.Functions {
		fn := functions[res.FunctionID]
		local, err := classifier.Local(fn.StartsAt, filter.RequestTimeZone)
		if err != nil {
			return nil, err
		}
		period := daypart.PeriodAt(local)

		report.Functions = append(report.Functions, FunctionRow{
			FunctionID:         res.FunctionID,
			Sequence:           res.Sequence,
			Name:               fn.Name.In(lang),
			Venue:              fn.Venue.In(lang),
			StartsAt:           local,
			Period:             PeriodLabel{Period: period, Label: rows.periods.For(period)},
			Headcount:          res.Headcount,
			Categories:         rows.categoryAmounts(res.Categories),
			TotalAgencyCharges: res.TotalAgencyCharges,
			GrandTotal:         res.GrandTotal,
			DishCosting:        res.DishCosting,
			Materials:          rows.materials(res.Materials),
		})
	}

	if filter.IncludeTotal {
		report.Total = &TotalRow{
			Headcount:          costs.Total.Headcount,
			Categories:         rows.categoryAmounts(costs.Total.Categories),
			TotalAgencyCharges: costs.Total.TotalAgencyCharges,
			GrandTotal:         costs.Total.GrandTotal,
		}
	}

	rows.logPrecisionGaps(ctx)
	return report, nil
}

// RawMaterialConsumption sums raw-material and general-fix lines over a period,
// one row per material and procurement status.
func (s *Service) RawMaterialConsumption(ctx context.Context, filter ConsumptionFilter) (*ConsumptionReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}

	ctx, span := tracer.Start(ctx, "reports.RawMaterialConsumption")
	defer span.End()

	lang := s.language(ctx, filter.LangType)

	var (
		graph *measure.Graph
		facts []costing.Fact
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		graph, err = s.graphs.Graph(gctx)
		if err != nil {
			return fmt.Errorf("load unit graph: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		facts, err = s.repo.ListConsumptionFacts(gctx, filter)
		if err != nil {
			return fmt.Errorf("list consumption facts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names, err := s.repo.ListMaterialNames(ctx, materialIDs(facts))
	if err != nil {
		return nil, fmt.Errorf("list material names: %w", err)
	}

	var warnings []costing.Warning
	groups := costing.GroupMaterials(graph, facts, func(w costing.Warning) {
		warnings = append(warnings, w)
	})

	rows := &rowBuilder{graph: graph, lang: lang, names: names, gaps: make(map[measure.UnitID]struct{})}
	report := &ConsumptionReport{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
		Items:    make([]ConsumptionItem, 0, len(groups)),
	}

	for _, grp := range groups {
		display, err := graph.Display(grp.Sum, filter.AdjustQuantity)
		if err != nil {
			warnings = append(warnings, costing.Warning{
				Category: grp.Category, Line: -1, RawMaterialID: grp.MaterialID, Err: err,
			})
			continue
		}
		report.Items = append(report.Items, ConsumptionItem{
			RawMaterialID: grp.MaterialID,
			Name:          names[grp.MaterialID].In(lang),
			Quantity:      display.Quantity,
			Decimals:      display.Decimals,
			UnitID:        display.UnitID,
			Unit:          rows.unitSymbol(display.UnitID),
			Excluded:      grp.Excluded,
		})
	}

	sort.SliceStable(report.Items, func(i, j int) bool {
		return strings.ToLower(report.Items[i].Name) < strings.ToLower(report.Items[j].Name)
	})

	s.logWarnings(ctx, warnings)
	rows.logPrecisionGaps(ctx)
	report.WarningCount = len(warnings)
	span.SetAttributes(attribute.Int("report.items", len(report.Items)))
	return report, nil
}

// language normalizes the reader's language code, logging unknown codes.
func (s *Service) language(ctx context.Context, raw int) label.LangType {
	lang, ok := label.Normalize(raw)
	if !ok {
		logger.Warn(ctx, "unknown language code, falling back to default", "lang_type", raw)
	}
	return lang
}

// logWarnings reports lines that could not contribute. Broken master data is
// an operator problem and goes to error level.
func (s *Service) logWarnings(ctx context.Context, warnings []costing.Warning) {
	for _, w := range warnings {
		kv := []any{
			"function_id", w.FunctionID,
			"category", w.Category.String(),
			"line", w.Line,
			"error", w.Err,
		}
		if !id.IsNil(w.RawMaterialID) {
			kv = append(kv, "raw_material_id", w.RawMaterialID)
		}
		if apperror.IsUnitGraph(w.Err) {
			logger.Error(ctx, "unit graph integrity failure", kv...)
			continue
		}
		logger.Warn(ctx, "cost line skipped", kv...)
	}
}

func materialIDs(facts []costing.Fact) []id.ID {
	seen := make(map[id.ID]struct{})
	var ids []id.ID
	for _, f := range facts {
		if !f.Category.IsMaterial() || id.IsNil(f.RawMaterialID) {
			continue
		}
		if _, ok := seen[f.RawMaterialID]; ok {
			continue
		}
		seen[f.RawMaterialID] = struct{}{}
		ids = append(ids, f.RawMaterialID)
	}
	return ids
}

// readSnapshot runs fn in the read-only transaction of the TxManager in ctx.
// Repository calls inside fn join it. Without a TxManager fn runs as is.
func readSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	txm, err := tenant.GetTxManager(ctx)
	if err != nil {
		return fn(ctx)
	}
	return txm.ReadOnly(ctx, fn)
}

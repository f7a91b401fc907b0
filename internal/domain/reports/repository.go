package reports

import (
	"context"

	"catercost/internal/core/id"
	"catercost/internal/domain/costing"
	"catercost/internal/domain/daypart"
	"catercost/internal/domain/label"
	"catercost/internal/domain/measure"
)

// Repository defines report data access interface.
type Repository interface {
	// Order header, adjust flag and functions. Returns a NotFound AppError
	// when the order does not exist.
	GetOrder(ctx context.Context, orderID id.ID) (*Order, error)

	// Every cost line of every function of the order.
	ListCostFacts(ctx context.Context, orderID id.ID) ([]costing.Fact, error)

	// Labels
	ListMaterialNames(ctx context.Context, ids []id.ID) (map[id.ID]label.Text, error)
	ListCategoryLabels(ctx context.Context) (map[costing.Category]label.Text, error)
	GetPeriodLabels(ctx context.Context) (daypart.TextLabels, error)

	// Raw-material and general-fix lines of functions in the filter's period.
	ListConsumptionFacts(ctx context.Context, filter ConsumptionFilter) ([]costing.Fact, error)
}

// UnitGraphProvider returns the unit graph of the current company.
type UnitGraphProvider interface {
	Graph(ctx context.Context) (*measure.Graph, error)
}

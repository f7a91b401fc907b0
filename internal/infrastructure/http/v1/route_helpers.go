package v1

import (
	"github.com/gin-gonic/gin"
)

// ReportRouteHandler defines the interface for report handlers.
type ReportRouteHandler interface {
	DishCosting(c *gin.Context)
	RawMaterialConsumption(c *gin.Context)
}

// RegisterReportRoutes registers the read-only report routes.
//
// Usage:
//
//	handler := handlers.NewReportsHandler(baseHandler, service)
//	RegisterReportRoutes(api.Group("/reports"), handler)
func RegisterReportRoutes(group *gin.RouterGroup, handler ReportRouteHandler) {
	group.GET("/dish-costing/:orderId", handler.DishCosting)
	group.GET("/raw-material-consumption", handler.RawMaterialConsumption)
}

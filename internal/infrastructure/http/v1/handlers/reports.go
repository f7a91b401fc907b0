package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"catercost/internal/core/apperror"
	"catercost/internal/core/id"
	"catercost/internal/domain/reports"
	"catercost/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// DishCosting handles GET /reports/dish-costing/:orderId
func (h *ReportsHandler) DishCosting(c *gin.Context) {
	orderID, err := id.Parse(c.Param("orderId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid orderId").WithDetail("value", c.Param("orderId")))
		return
	}

	var req dto.DishCostingRequest
	if !h.BindQuery(c, &req) {
		return
	}

	report, err := h.service.DishCosting(c.Request.Context(), reports.DishCostingFilter{
		OrderID:         orderID,
		LangType:        h.LangType(c, req.Lang),
		RequestTimeZone: h.TimeZone(c, req.TZ),
		IncludeTotal:    req.IncludeTotal,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDishCostingReport(report))
}

// RawMaterialConsumption handles GET /reports/raw-material-consumption
func (h *ReportsHandler) RawMaterialConsumption(c *gin.Context) {
	var req dto.ConsumptionRequest
	if !h.BindQuery(c, &req) {
		return
	}

	fromDate, err := parseDate(req.FromDate, false)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339 or YYYY-MM-DD"))
		return
	}
	toDate, err := parseDate(req.ToDate, true)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339 or YYYY-MM-DD"))
		return
	}

	report, err := h.service.RawMaterialConsumption(c.Request.Context(), reports.ConsumptionFilter{
		FromDate:       fromDate,
		ToDate:         toDate,
		LangType:       h.LangType(c, req.Lang),
		AdjustQuantity: req.Adjust,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromConsumptionReport(report))
}

// parseDate accepts RFC3339 or a bare date. A bare end date covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

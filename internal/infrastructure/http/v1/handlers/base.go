package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catercost/internal/core/apperror"
	appctx "catercost/internal/core/context"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// LangType returns the explicit language from the query, else the caller's.
func (h *BaseHandler) LangType(c *gin.Context, explicit *int) int {
	if explicit != nil {
		return *explicit
	}
	return appctx.GetLangType(c.Request.Context())
}

// TimeZone returns the explicit zone from the query, else the caller's.
func (h *BaseHandler) TimeZone(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return appctx.GetTimeZone(c.Request.Context())
}

package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catercost/internal/core/apperror"
	"catercost/internal/core/tenant"
	"catercost/internal/infrastructure/storage/postgres"
	"catercost/pkg/logger"
)

const (
	// TenantHeader is the HTTP header for company identification.
	TenantHeader = "X-Tenant-ID"
)

// TenantDB middleware resolves the company from header and injects it together
// with the TxManager into context. Repositories scope every query by it.
// This middleware MUST run before any database operations.
func TenantDB(registry tenant.Registry, txManager *postgres.TxManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rawTenantID := c.GetHeader(TenantHeader)
		if rawTenantID == "" {
			_ = c.Error(
				apperror.NewValidation("tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		tenantUUID, err := uuid.Parse(rawTenantID)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid tenant id").
					WithDetail("header", TenantHeader).
					WithDetail("value", rawTenantID),
			)
			c.Abort()
			return
		}
		tenantID := tenantUUID.String()

		company, err := registry.GetByID(ctx, tenantID)
		if err != nil {
			logger.Warn(ctx, "tenant lookup failed", "tenant_id", tenantID, "error", err)
			if errors.Is(err, tenant.ErrTenantNotFound) {
				_ = c.Error(apperror.NewNotFound("tenant", tenantID))
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("tenant_id", tenantID))
			}
			c.Abort()
			return
		}
		if !company.IsActive() {
			_ = c.Error(apperror.NewForbidden("tenant is not active").WithDetail("tenant_id", tenantID))
			c.Abort()
			return
		}

		ctx = tenant.WithTxManager(ctx, txManager)
		ctx = tenant.WithTenant(ctx, company)
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", company.ID)
		c.Next()
	}
}

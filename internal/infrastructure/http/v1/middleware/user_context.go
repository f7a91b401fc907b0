package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"catercost/internal/core/apperror"
	appctx "catercost/internal/core/context"
	"catercost/internal/core/tenant"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderLangType = "X-Lang-Type"
	HeaderTimeZone = "X-Time-Zone"
)

// UserContext reads the caller and display preferences the gateway forwards
// after authentication and adds them to the request context.
//
// Must run after TenantDB so the user is bound to the resolved company.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := &appctx.UserContext{
			UserID:   strings.TrimSpace(c.GetHeader(HeaderUserID)),
			TenantID: tenant.GetTenantID(c.Request.Context()),
			TimeZone: strings.TrimSpace(c.GetHeader(HeaderTimeZone)),
		}

		if raw := strings.TrimSpace(c.GetHeader(HeaderLangType)); raw != "" {
			lang, err := strconv.Atoi(raw)
			if err != nil {
				_ = c.Error(
					apperror.NewValidation("invalid language type").
						WithDetail("header", HeaderLangType).
						WithDetail("value", raw),
				)
				c.Abort()
				return
			}
			user.LangType = lang
		}

		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		if user.UserID != "" {
			c.Set("user_id", user.UserID)
		}
		c.Next()
	}
}

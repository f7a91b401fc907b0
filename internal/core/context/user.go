// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext describes the caller of a report request. Authentication happens
// upstream; the gateway forwards the user id together with display preferences.
type UserContext struct {
	UserID   string
	TenantID string

	// LangType selects default (0), preferred (1) or supportive (2) display strings.
	LangType int

	// TimeZone is the IANA zone the user's timestamps are expressed in.
	TimeZone string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetLangType returns the requested language slot, 0 when unknown.
func GetLangType(ctx context.Context) int {
	if u := GetUser(ctx); u != nil {
		return u.LangType
	}
	return 0
}

// GetTimeZone returns the user's zone or empty string.
func GetTimeZone(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.TimeZone
	}
	return ""
}

// Package tenant provides company (tenant) records and their request-scoped plumbing.
// All companies share one database; every tenant-owned row carries company_id.
package tenant

import (
	"time"
)

// Status represents tenant lifecycle state.
type Status string

const (
	// StatusActive - tenant can accept requests
	StatusActive Status = "active"

	// StatusSuspended - tenant is temporarily disabled (e.g., payment issues)
	StatusSuspended Status = "suspended"
)

// DefaultTimeZone is used when a company has not configured one.
const DefaultTimeZone = "UTC"

// Tenant represents a catering company.
type Tenant struct {
	ID          string    `db:"id"`
	Slug        string    `db:"slug"`
	DisplayName string    `db:"display_name"`
	TimeZone    string    `db:"time_zone"` // IANA zone used to classify event times
	Status      Status    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// IsActive returns true if tenant can accept requests.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// Location returns the configured company zone name, falling back to UTC.
func (t *Tenant) Location() string {
	if t == nil || t.TimeZone == "" {
		return DefaultTimeZone
	}
	return t.TimeZone
}

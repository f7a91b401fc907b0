// Package tx provides transaction management abstractions so domain and
// repository code does not depend on a concrete driver.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Nested calls reuse the existing transaction from context.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// ReadOnly executes fn in a read-only transaction so multi-statement
	// reads observe one snapshot.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

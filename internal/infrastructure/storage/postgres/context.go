package postgres

import (
	"context"
	"fmt"

	"catercost/internal/core/tenant"
)

// MustGetTxManager returns *postgres.TxManager from context.
// It is meant for infrastructure code that needs access to GetQuerier()/GetTx().
//
// Domain code should depend only on internal/core/tx.Manager.
func MustGetTxManager(ctx context.Context) *TxManager {
	txm := tenant.MustGetTxManager(ctx)
	postgresTxm, ok := txm.(*TxManager)
	if !ok || postgresTxm == nil {
		panic(fmt.Sprintf("TxManager in context has unexpected type: %T", txm))
	}
	return postgresTxm
}

// CompanyID returns the company the request is scoped to. Repositories filter
// every tenant-owned table by it.
func CompanyID(ctx context.Context) (string, error) {
	companyID := tenant.GetTenantID(ctx)
	if companyID == "" {
		return "", tenant.ErrTenantNotFound
	}
	return companyID, nil
}

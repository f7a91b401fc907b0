package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// BatchQuery is one statement of a batch together with the scanner of its rows.
type BatchQuery struct {
	Name string
	SQL  string
	Args []any
	Scan func(rows pgx.Rows) error
}

// ScanAllInto returns a BatchQuery scanner that collects every row into dst.
func ScanAllInto[T any](dst *[]T) func(rows pgx.Rows) error {
	return func(rows pgx.Rows) error {
		return pgxscan.ScanAll(dst, rows)
	}
}

// BatchReader runs several SELECTs in a single round-trip.
type BatchReader struct {
	txManager *TxManager
}

// NewBatchReader creates a new batch reader.
func NewBatchReader(txManager *TxManager) *BatchReader {
	return &BatchReader{txManager: txManager}
}

// Query sends queries as one pgx batch inside the transaction in ctx and
// scans their results in order. Run it under ReadOnly so every statement
// sees the same snapshot.
func (b *BatchReader) Query(ctx context.Context, queries []BatchQuery) (err error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("batch query requires transaction context")
	}
	if len(queries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := tx.SendBatch(ctx, batch)
	defer func() {
		err = errors.Join(err, results.Close())
	}()

	for _, q := range queries {
		rows, err := results.Query()
		if err != nil {
			return fmt.Errorf("batch query %s: %w", q.Name, err)
		}
		if err := q.Scan(rows); err != nil {
			return fmt.Errorf("scan %s: %w", q.Name, err)
		}
	}
	return nil
}

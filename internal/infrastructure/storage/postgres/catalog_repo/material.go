package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"catercost/internal/core/id"
	"catercost/internal/domain/label"
	"catercost/internal/infrastructure/storage/postgres"
)

const materialTable = "cat_raw_materials"

type materialNameRow struct {
	ID id.ID `db:"id"`
	label.Text
}

// MaterialRepo reads raw-material master data.
type MaterialRepo struct {
	builder squirrel.StatementBuilderType
}

// NewMaterialRepo creates a new raw-material repository.
func NewMaterialRepo() *MaterialRepo {
	return &MaterialRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListNames returns the multilingual names of the given materials. Deleted
// materials keep their name so historic orders still print.
func (r *MaterialRepo) ListNames(ctx context.Context, ids []id.ID) (map[id.ID]label.Text, error) {
	out := make(map[id.ID]label.Text, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	companyID, err := postgres.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.builder.
		Select(postgres.ExtractDBColumns[materialNameRow]()...).
		From(materialTable).
		Where(squirrel.Eq{"company_id": companyID, "id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []materialNameRow
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select material names: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row.Text
	}
	return out, nil
}

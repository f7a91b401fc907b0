// Package report_repo provides the PostgreSQL implementation of reports.Repository.
// TxManager and company are obtained from context per-request.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"catercost/internal/core/apperror"
	"catercost/internal/core/id"
	"catercost/internal/domain/costing"
	"catercost/internal/domain/daypart"
	"catercost/internal/domain/label"
	"catercost/internal/domain/reports"
	"catercost/internal/infrastructure/storage/postgres"
	"catercost/internal/infrastructure/storage/postgres/catalog_repo"
)

// Compile-time check that ReportRepo implements reports.Repository.
var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	builder   squirrel.StatementBuilderType
	materials *catalog_repo.MaterialRepo
}

// NewReportRepo creates a new report repository.
func NewReportRepo(materials *catalog_repo.MaterialRepo) *ReportRepo {
	return &ReportRepo{
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		materials: materials,
	}
}

type orderRow struct {
	ID                 id.ID     `db:"id"`
	Number             string    `db:"number"`
	Date               time.Time `db:"order_date"`
	Customer           string    `db:"customer_name"`
	CustomerPreferred  string    `db:"customer_name_preferred"`
	CustomerSupportive string    `db:"customer_name_supportive"`
	Address            string    `db:"address"`
	AddressPreferred   string    `db:"address_preferred"`
	AddressSupportive  string    `db:"address_supportive"`
	Notes              string    `db:"notes"`
	NotesPreferred     string    `db:"notes_preferred"`
	NotesSupportive    string    `db:"notes_supportive"`
	AdjustQuantity     bool      `db:"adjust_quantity"`
}

type functionRow struct {
	ID              id.ID     `db:"id"`
	Sequence        int       `db:"sequence"`
	Headcount       *int      `db:"headcount"`
	StartsAt        time.Time `db:"starts_at"`
	Name            string    `db:"name"`
	NamePreferred   string    `db:"name_preferred"`
	NameSupportive  string    `db:"name_supportive"`
	Venue           string    `db:"venue"`
	VenuePreferred  string    `db:"venue_preferred"`
	VenueSupportive string    `db:"venue_supportive"`
}

type categoryLabelRow struct {
	Category costing.Category `db:"category"`
	label.Text
}

type periodLabelRow struct {
	Period daypart.Period `db:"period"`
	label.Text
}

// GetOrder loads the order header and its functions in one snapshot.
func (r *ReportRepo) GetOrder(ctx context.Context, orderID id.ID) (*reports.Order, error) {
	companyID, err := postgres.CompanyID(ctx)
	if err != nil {
		return nil, err
	}
	txm := postgres.MustGetTxManager(ctx)

	var (
		header    orderRow
		functions []functionRow
	)
	err = txm.ReadOnly(ctx, func(ctx context.Context) error {
		sql, args, err := r.builder.
			Select(postgres.ExtractDBColumns[orderRow]()...).
			From("orders").
			Where(squirrel.Eq{"id": orderID, "company_id": companyID, "deletion_mark": false}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build order query: %w", err)
		}
		if err := pgxscan.Get(ctx, txm.GetQuerier(ctx), &header, sql, args...); err != nil {
			if pgxscan.NotFound(err) {
				return apperror.NewNotFound("order", orderID)
			}
			return fmt.Errorf("get order: %w", err)
		}

		sql, args, err = r.builder.
			Select(postgres.ExtractDBColumns[functionRow]()...).
			From("order_functions").
			Where(squirrel.Eq{"order_id": orderID}).
			OrderBy("sequence").
			ToSql()
		if err != nil {
			return fmt.Errorf("build functions query: %w", err)
		}
		if err := pgxscan.Select(ctx, txm.GetQuerier(ctx), &functions, sql, args...); err != nil {
			return fmt.Errorf("select functions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order := &reports.Order{
		ID:             header.ID,
		Number:         header.Number,
		Date:           header.Date,
		Customer:       label.Text{Default: header.Customer, Preferred: header.CustomerPreferred, Supportive: header.CustomerSupportive},
		Address:        label.Text{Default: header.Address, Preferred: header.AddressPreferred, Supportive: header.AddressSupportive},
		Notes:          label.Text{Default: header.Notes, Preferred: header.NotesPreferred, Supportive: header.NotesSupportive},
		AdjustQuantity: header.AdjustQuantity,
		Functions:      make([]costing.Function, 0, len(functions)),
	}
	for _, fr := range functions {
		order.Functions = append(order.Functions, costing.Function{
			ID:        fr.ID,
			Sequence:  fr.Sequence,
			Headcount: fr.Headcount,
			StartsAt:  fr.StartsAt,
			Name:      label.Text{Default: fr.Name, Preferred: fr.NamePreferred, Supportive: fr.NameSupportive},
			Venue:     label.Text{Default: fr.Venue, Preferred: fr.VenuePreferred, Supportive: fr.VenueSupportive},
		})
	}
	return order, nil
}

// ListCostFacts reads every category's lines of one order in one snapshot.
func (r *ReportRepo) ListCostFacts(ctx context.Context, orderID id.ID) ([]costing.Fact, error) {
	return r.listFacts(ctx, factSources, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		return q.Where(squirrel.Eq{"f.order_id": orderID})
	})
}

// ListConsumptionFacts reads the material lines of every function starting
// within the filter's period.
func (r *ReportRepo) ListConsumptionFacts(ctx context.Context, filter reports.ConsumptionFilter) ([]costing.Fact, error) {
	var sources []factSource
	for _, s := range factSources {
		if s.category.IsMaterial() {
			sources = append(sources, s)
		}
	}
	return r.listFacts(ctx, sources, func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		return q.Where(squirrel.GtOrEq{"f.starts_at": filter.FromDate}).
			Where(squirrel.LtOrEq{"f.starts_at": filter.ToDate}).
			Where(squirrel.Eq{"o.deletion_mark": false})
	})
}

func (r *ReportRepo) listFacts(
	ctx context.Context,
	sources []factSource,
	scope func(squirrel.SelectBuilder) squirrel.SelectBuilder,
) ([]costing.Fact, error) {
	companyID, err := postgres.CompanyID(ctx)
	if err != nil {
		return nil, err
	}
	txm := postgres.MustGetTxManager(ctx)

	rows := make([][]factRow, len(sources))
	queries := make([]postgres.BatchQuery, len(sources))
	for i, src := range sources {
		sql, args, err := scope(src.query(r.builder, companyID)).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build %s query: %w", src.category, err)
		}
		queries[i] = postgres.BatchQuery{
			Name: src.category.String(),
			SQL:  sql,
			Args: args,
			Scan: postgres.ScanAllInto(&rows[i]),
		}
	}

	err = txm.ReadOnly(ctx, func(ctx context.Context) error {
		return postgres.NewBatchReader(txm).Query(ctx, queries)
	})
	if err != nil {
		return nil, fmt.Errorf("select cost lines: %w", err)
	}

	var facts []costing.Fact
	for i, src := range sources {
		for _, row := range rows[i] {
			facts = append(facts, row.toFact(src.category))
		}
	}
	return facts, nil
}

// ListMaterialNames delegates to the raw-material catalog.
func (r *ReportRepo) ListMaterialNames(ctx context.Context, ids []id.ID) (map[id.ID]label.Text, error) {
	return r.materials.ListNames(ctx, ids)
}

// ListCategoryLabels returns the company's cost category captions. Categories
// without a configured caption are absent.
func (r *ReportRepo) ListCategoryLabels(ctx context.Context) (map[costing.Category]label.Text, error) {
	companyID, err := postgres.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.builder.
		Select(postgres.ExtractDBColumns[categoryLabelRow]()...).
		From("cost_category_labels").
		Where(squirrel.Eq{"company_id": companyID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []categoryLabelRow
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select category labels: %w", err)
	}

	out := make(map[costing.Category]label.Text, len(rows))
	for _, row := range rows {
		if row.Category.Valid() {
			out[row.Category] = row.Text
		}
	}
	return out, nil
}

// GetPeriodLabels returns the company's time-of-day captions, defaulting
// missing ones to the period code.
func (r *ReportRepo) GetPeriodLabels(ctx context.Context) (daypart.TextLabels, error) {
	companyID, err := postgres.CompanyID(ctx)
	if err != nil {
		return daypart.TextLabels{}, err
	}

	sql, args, err := r.builder.
		Select(postgres.ExtractDBColumns[periodLabelRow]()...).
		From("daypart_labels").
		Where(squirrel.Eq{"company_id": companyID}).
		ToSql()
	if err != nil {
		return daypart.TextLabels{}, fmt.Errorf("build query: %w", err)
	}

	var rows []periodLabelRow
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return daypart.TextLabels{}, fmt.Errorf("select period labels: %w", err)
	}
	return periodLabels(rows), nil
}

func periodLabels(rows []periodLabelRow) daypart.TextLabels {
	out := daypart.TextLabels{
		Morning: label.Plain(daypart.Morning.String()),
		Noon:    label.Plain(daypart.Noon.String()),
		Evening: label.Plain(daypart.Evening.String()),
		Night:   label.Plain(daypart.Night.String()),
	}
	for _, row := range rows {
		switch row.Period {
		case daypart.Morning:
			out.Morning = row.Text
		case daypart.Noon:
			out.Noon = row.Text
		case daypart.Evening:
			out.Evening = row.Text
		case daypart.Night:
			out.Night = row.Text
		}
	}
	return out
}

package postgres

import (
	"context"

	"github.com/flexisub/flexisub/internal/cache"
	"github.com/flexisub/flexisub/internal/domain/plan"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/postgres"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/shopspring/decimal"
)

const planColumns = `id, name, description, category, monthly_price, yearly_price, setup_fee,
	currency, download_speed, upload_speed, data_limit, unlimited, status,
	created_at, updated_at, created_by, updated_by`

// planRow is the flat table shape of a plan
type planRow struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	Category      string          `db:"category"`
	MonthlyPrice  decimal.Decimal `db:"monthly_price"`
	YearlyPrice   decimal.Decimal `db:"yearly_price"`
	SetupFee      decimal.Decimal `db:"setup_fee"`
	Currency      string          `db:"currency"`
	DownloadSpeed int             `db:"download_speed"`
	UploadSpeed   int             `db:"upload_speed"`
	DataLimit     int             `db:"data_limit"`
	Unlimited     bool            `db:"unlimited"`
	Status        string          `db:"status"`
	types.BaseModel
}

func (row *planRow) toDomain() *plan.Plan {
	return &plan.Plan{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Category:    types.PlanCategory(row.Category),
		Pricing: plan.Pricing{
			Monthly:  row.MonthlyPrice,
			Yearly:   row.YearlyPrice,
			SetupFee: row.SetupFee,
			Currency: row.Currency,
		},
		Features: plan.Features{
			DownloadSpeed: row.DownloadSpeed,
			UploadSpeed:   row.UploadSpeed,
			DataLimit:     row.DataLimit,
			Unlimited:     row.Unlimited,
		},
		Status:    types.PlanStatus(row.Status),
		BaseModel: row.BaseModel,
	}
}

func planRowFromDomain(p *plan.Plan) *planRow {
	return &planRow{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      string(p.Category),
		MonthlyPrice:  p.Pricing.Monthly,
		YearlyPrice:   p.Pricing.Yearly,
		SetupFee:      p.Pricing.SetupFee,
		Currency:      p.Pricing.Currency,
		DownloadSpeed: p.Features.DownloadSpeed,
		UploadSpeed:   p.Features.UploadSpeed,
		DataLimit:     p.Features.DataLimit,
		Unlimited:     p.Features.Unlimited,
		Status:        string(p.Status),
		BaseModel:     p.BaseModel,
	}
}

type planRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	cache  cache.Cache
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) plan.Repository {
	return &planRepository{db: db, logger: logger, cache: cache}
}

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `
		INSERT INTO plans (
			id, name, description, category,
			monthly_price, yearly_price, setup_fee, currency,
			download_speed, upload_speed, data_limit, unlimited,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :name, :description, :category,
			:monthly_price, :yearly_price, :setup_fee, :currency,
			:download_speed, :upload_speed, :data_limit, :unlimited,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
	`

	r.logger.Debugw("creating plan", "plan_id", p.ID, "name", p.Name)

	span := StartRepositorySpan(ctx, "plan", "create", map[string]interface{}{
		"plan_id": p.ID,
	})
	defer FinishSpan(span)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, planRowFromDomain(p)); err != nil {
		SetSpanError(span, err)
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("Plan with this ID already exists").
				WithReportableDetails(map[string]any{
					"plan_id": p.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			WithReportableDetails(map[string]any{
				"plan_id":   p.ID,
				"plan_name": p.Name,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	r.SetCache(ctx, p)
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	if cached := r.GetCache(ctx, id); cached != nil {
		return cached, nil
	}

	span := StartRepositorySpan(ctx, "plan", "get", map[string]interface{}{
		"plan_id": id,
	})
	defer FinishSpan(span)

	var row planRow
	query := "SELECT " + planColumns + " FROM plans WHERE id = $1"
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query, id); err != nil {
		SetSpanError(span, err)
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Plan with ID %s was not found", id).
				WithReportableDetails(map[string]any{
					"plan_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			WithReportableDetails(map[string]any{
				"plan_id": id,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	p := row.toDomain()
	r.SetCache(ctx, p)
	return p, nil
}

func (r *planRepository) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, error) {
	if filter == nil {
		filter = types.NewPlanFilter()
	}

	r.logger.Debugw("listing plans",
		"limit", filter.GetLimit(),
		"offset", filter.GetOffset(),
	)

	span := StartRepositorySpan(ctx, "plan", "list", map[string]interface{}{
		"category": filter.Category,
		"status":   filter.Status,
	})
	defer FinishSpan(span)

	where := r.applyFilter(filter)
	query, args := paginate("SELECT "+planColumns+" FROM plans"+where.clause(), filter.QueryFilter, where.args)

	q := r.db.GetQuerier(ctx)
	var rows []planRow
	if err := q.SelectContext(ctx, &rows, q.Rebind(query), args...); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	plans := make([]*plan.Plan, len(rows))
	for i := range rows {
		plans[i] = rows[i].toDomain()
	}
	return plans, nil
}

func (r *planRepository) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	if filter == nil {
		filter = types.NewPlanFilter()
	}

	span := StartRepositorySpan(ctx, "plan", "count", nil)
	defer FinishSpan(span)

	where := r.applyFilter(filter)
	q := r.db.GetQuerier(ctx)

	var count int
	if err := q.GetContext(ctx, &count, q.Rebind("SELECT COUNT(*) FROM plans"+where.clause()), where.args...); err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to count plans").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return count, nil
}

func (r *planRepository) applyFilter(filter *types.PlanFilter) *whereBuilder {
	where := &whereBuilder{}
	if filter.Category != "" {
		where.add("category = ?", string(filter.Category))
	}
	if filter.Status != "" {
		where.add("status = ?", string(filter.Status))
	}
	return where
}

func (r *planRepository) SetCache(ctx context.Context, p *plan.Plan) {
	span := cache.StartCacheSpan(ctx, "plan", "set", map[string]interface{}{
		"plan_id": p.ID,
	})
	defer cache.FinishSpan(span)

	r.cache.Set(ctx, cache.GenerateKey(cache.PrefixPlan, p.ID), p, 0)
}

func (r *planRepository) GetCache(ctx context.Context, id string) *plan.Plan {
	span := cache.StartCacheSpan(ctx, "plan", "get", map[string]interface{}{
		"plan_id": id,
	})
	defer cache.FinishSpan(span)

	if value, found := r.cache.Get(ctx, cache.GenerateKey(cache.PrefixPlan, id)); found {
		cache.SetSpanHit(span, true)
		return value.(*plan.Plan)
	}
	cache.SetSpanHit(span, false)
	return nil
}

package postgres

import (
	"context"

	"github.com/flexisub/flexisub/internal/domain/subscription"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/postgres"
	"github.com/flexisub/flexisub/internal/types"
)

const subscriptionColumns = `id, user_id, plan_id, status, billing_cycle, start_date, end_date,
	currency, pricing, discount_code, cancellation, scheduled_change,
	service_history, payment_history, data_usage, version,
	created_at, updated_at, created_by, updated_by`

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, user_id, plan_id, status, billing_cycle, start_date, end_date,
			currency, pricing, discount_code, cancellation, scheduled_change,
			service_history, payment_history, data_usage, version,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :user_id, :plan_id, :status, :billing_cycle, :start_date, :end_date,
			:currency, :pricing, :discount_code, :cancellation, :scheduled_change,
			:service_history, :payment_history, :data_usage, :version,
			:created_at, :updated_at, :created_by, :updated_by
		)
	`

	r.logger.Debugw("creating subscription",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"plan_id", sub.PlanID,
	)

	span := StartRepositorySpan(ctx, "subscription", "create", map[string]interface{}{
		"subscription_id": sub.ID,
	})
	defer FinishSpan(span)

	if sub.Version == 0 {
		sub.Version = 1
	}

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub); err != nil {
		SetSpanError(span, err)
		if postgres.IsUniqueViolation(err) {
			return duplicateActiveError(err, sub)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	span := StartRepositorySpan(ctx, "subscription", "get", map[string]interface{}{
		"subscription_id": id,
	})
	defer FinishSpan(span)

	var sub subscription.Subscription
	query := "SELECT " + subscriptionColumns + " FROM subscriptions WHERE id = $1"
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, id); err != nil {
		SetSpanError(span, err)
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription with ID %s was not found", id).
				WithReportableDetails(map[string]any{
					"subscription_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			WithReportableDetails(map[string]any{
				"subscription_id": id,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return &sub, nil
}

// Update writes every mutable column in one statement guarded by the version
// the caller read. The history columns travel with the field changes.
func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		UPDATE subscriptions SET
			plan_id = :plan_id,
			status = :status,
			end_date = :end_date,
			pricing = :pricing,
			cancellation = :cancellation,
			scheduled_change = :scheduled_change,
			service_history = :service_history,
			payment_history = :payment_history,
			data_usage = :data_usage,
			updated_at = :updated_at,
			updated_by = :updated_by,
			version = version + 1
		WHERE id = :id AND version = :version
	`

	r.logger.Debugw("updating subscription",
		"subscription_id", sub.ID,
		"status", sub.Status,
		"version", sub.Version,
	)

	span := StartRepositorySpan(ctx, "subscription", "update", map[string]interface{}{
		"subscription_id": sub.ID,
		"version":         sub.Version,
	})
	defer FinishSpan(span)

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		SetSpanError(span, err)
		if postgres.IsUniqueViolation(err) {
			return duplicateActiveError(err, sub)
		}
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		err := ierr.NewError("subscription was modified concurrently").
			WithHint("Subscription was modified by another request, please retry").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"version":         sub.Version,
			}).
			Mark(ierr.ErrVersionConflict)
		SetSpanError(span, err)
		return err
	}

	SetSpanSuccess(span)
	sub.Version++
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}

	r.logger.Debugw("listing subscriptions",
		"user_id", filter.UserID,
		"status", filter.Status,
		"limit", filter.GetLimit(),
		"offset", filter.GetOffset(),
	)

	span := StartRepositorySpan(ctx, "subscription", "list", map[string]interface{}{
		"user_id": filter.UserID,
		"status":  filter.Status,
	})
	defer FinishSpan(span)

	where := r.applyFilter(filter)
	query, args := paginate("SELECT "+subscriptionColumns+" FROM subscriptions"+where.clause(), filter.QueryFilter, where.args)

	q := r.db.GetQuerier(ctx)
	var subs []*subscription.Subscription
	if err := q.SelectContext(ctx, &subs, q.Rebind(query), args...); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return subs, nil
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}

	span := StartRepositorySpan(ctx, "subscription", "count", nil)
	defer FinishSpan(span)

	where := r.applyFilter(filter)
	q := r.db.GetQuerier(ctx)

	var count int
	if err := q.GetContext(ctx, &count, q.Rebind("SELECT COUNT(*) FROM subscriptions"+where.clause()), where.args...); err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to count subscriptions").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return count, nil
}

func (r *subscriptionRepository) applyFilter(filter *types.SubscriptionFilter) *whereBuilder {
	where := &whereBuilder{}
	if filter.UserID != "" {
		where.add("user_id = ?", filter.UserID)
	}
	if filter.PlanID != "" {
		where.add("plan_id = ?", filter.PlanID)
	}
	if filter.Status != "" {
		where.add("status = ?", string(filter.Status))
	}
	if filter.EndBefore != nil {
		where.add("end_date < ?", *filter.EndBefore)
	}
	if filter.WithScheduledChange {
		where.add("scheduled_change IS NOT NULL")
	}
	return where
}

// duplicateActiveError maps the partial unique index on active (user, plan) pairs
func duplicateActiveError(err error, sub *subscription.Subscription) error {
	return ierr.WithError(err).
		WithHint("User already has an active subscription for this plan").
		WithReportableDetails(map[string]any{
			"user_id": sub.UserID,
			"plan_id": sub.PlanID,
		}).
		Mark(ierr.ErrConflict)
}

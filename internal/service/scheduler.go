package service

import (
	"context"
	"time"

	"github.com/flexisub/flexisub/internal/api/dto"
	"github.com/flexisub/flexisub/internal/domain/plan"
	"github.com/flexisub/flexisub/internal/domain/subscription"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
)

// ProcessExpirations moves every active subscription whose period ended before
// now to expired. Each subscription is written on its own.
func (s *subscriptionService) ProcessExpirations(ctx context.Context) (*dto.BatchResult, error) {
	now := time.Now().UTC()

	filter := types.NewNoLimitSubscriptionFilter()
	filter.Status = types.SubscriptionStatusActive
	filter.EndBefore = &now

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("processing subscription expirations", "candidates", len(subs))

	result := dto.NewBatchResult()
	for _, candidate := range subs {
		sub, err := s.mutate(ctx, candidate.ID, func(ctx context.Context, sub *subscription.Subscription) error {
			// renewed between the listing and this write
			if !sub.EndDate.Before(now) {
				return ierr.NewError("subscription period has not ended").
					WithHint("Subscription was renewed before it could expire").
					WithReportableDetails(map[string]interface{}{
						"subscription_id": sub.ID,
						"end_date":        sub.EndDate,
					}).
					Mark(ierr.ErrConflict)
			}

			if err := sub.Transition(subscription.EventExpire); err != nil {
				return err
			}

			sub.AppendHistory(subscription.ServiceHistoryEntry{
				Timestamp:   now,
				Type:        types.ServiceHistoryExpired,
				Description: "Subscription expired at end of billing period",
				PerformedBy: types.SystemUserID,
				Metadata:    types.Metadata{"end_date": sub.EndDate},
			})
			return nil
		})
		if err != nil {
			s.Logger.Errorw("failed to expire subscription",
				"subscription_id", candidate.ID,
				"error", err,
			)
			result.AddFailure(candidate.ID, err)
			continue
		}

		result.AddSuccess()
		s.publish(ctx, types.EventSubscriptionExpired, sub, map[string]interface{}{
			"end_date": sub.EndDate,
		})
	}

	s.Logger.Infow("processed subscription expirations",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

// ApplyScheduledChanges swaps in the plan of every scheduled downgrade whose
// effective date has been reached.
func (s *subscriptionService) ApplyScheduledChanges(ctx context.Context) (*dto.BatchResult, error) {
	now := time.Now().UTC()

	filter := types.NewNoLimitSubscriptionFilter()
	filter.Status = types.SubscriptionStatusActive
	filter.WithScheduledChange = true

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := dto.NewBatchResult()
	for _, candidate := range subs {
		if !candidate.ScheduledChange.IsDue(now) {
			continue
		}

		var (
			oldPlanID string
			dropped   error
		)
		sub, err := s.mutate(ctx, candidate.ID, func(ctx context.Context, sub *subscription.Subscription) error {
			dropped = nil

			change := sub.ScheduledChange
			if !change.IsDue(now) {
				return ierr.NewError("scheduled change is no longer due").
					WithHint("Scheduled change was modified before it could be applied").
					Mark(ierr.ErrConflict)
			}

			if err := sub.Transition(subscription.EventApplyScheduled); err != nil {
				return err
			}

			newPlan, err := s.scheduledTarget(ctx, sub, change)
			if isPermanentScheduleError(err) {
				// the change can never apply, retire it so later runs skip it
				dropped = err
				sub.ScheduledChange = nil
				sub.AppendHistory(subscription.ServiceHistoryEntry{
					Timestamp:   now,
					Type:        types.ServiceHistoryDowngrade,
					Description: "Scheduled downgrade dropped",
					PerformedBy: types.SystemUserID,
					Metadata: types.Metadata{
						"plan_id":           change.PlanID,
						"requested_by":      change.RequestedBy,
						"effective_date":    change.EffectiveDate,
						"scheduled_dropped": true,
						"reason":            ierr.CodeFromErr(err),
					},
				})
				return nil
			}
			if err != nil {
				return err
			}

			oldPlanID = sub.PlanID
			sub.SwapPlan(newPlan.ID, newPlan.PriceFor(sub.BillingCycle))
			sub.ScheduledChange = nil
			sub.AppendHistory(subscription.ServiceHistoryEntry{
				Timestamp:   now,
				Type:        types.ServiceHistoryDowngrade,
				Description: "Scheduled downgrade to " + newPlan.Name + " applied",
				PerformedBy: types.SystemUserID,
				Metadata: types.Metadata{
					"old_plan_id":       oldPlanID,
					"new_plan_id":       newPlan.ID,
					"new_plan_name":     newPlan.Name,
					"requested_by":      change.RequestedBy,
					"effective_date":    change.EffectiveDate,
					"scheduled_applied": true,
				},
			})
			return nil
		})
		if err == nil && dropped != nil {
			err = dropped
		}
		if err != nil {
			s.Logger.Errorw("failed to apply scheduled change",
				"subscription_id", candidate.ID,
				"dropped", dropped != nil,
				"error", err,
			)
			result.AddFailure(candidate.ID, err)
			continue
		}

		result.AddSuccess()
		s.publish(ctx, types.EventSubscriptionDowngraded, sub, map[string]interface{}{
			"old_plan_id":       oldPlanID,
			"new_plan_id":       sub.PlanID,
			"scheduled_applied": true,
		})
	}

	s.Logger.Infow("applied scheduled changes",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

// scheduledTarget loads the plan a scheduled change moves to and checks it is
// still a downgrade from the plan currently on the subscription
func (s *subscriptionService) scheduledTarget(ctx context.Context, sub *subscription.Subscription, change *subscription.ScheduledChange) (*plan.Plan, error) {
	current, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	newPlan, err := s.getAvailablePlan(ctx, change.PlanID)
	if err != nil {
		return nil, err
	}

	if !newPlan.Pricing.Monthly.LessThan(current.Pricing.Monthly) {
		return nil, ierr.NewError("scheduled plan is not a lower tier").
			WithHint("Scheduled plan is no longer a lower tier than the current plan").
			WithReportableDetails(map[string]interface{}{
				"current_plan_id": current.ID,
				"current_monthly": current.Pricing.Monthly.String(),
				"new_plan_id":     newPlan.ID,
				"new_monthly":     newPlan.Pricing.Monthly.String(),
			}).
			Mark(ierr.ErrInvalidTransition)
	}

	if err := checkCurrency(sub, newPlan); err != nil {
		return nil, err
	}
	return newPlan, nil
}

// isPermanentScheduleError reports target failures that no retry can fix
func isPermanentScheduleError(err error) bool {
	return err != nil && (ierr.IsNotFound(err) || ierr.IsInvalidTransition(err) || ierr.IsValidation(err))
}

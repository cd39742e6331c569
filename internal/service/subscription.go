package service

import (
	"context"
	"time"

	"github.com/flexisub/flexisub/internal/api/dto"
	"github.com/flexisub/flexisub/internal/domain/plan"
	"github.com/flexisub/flexisub/internal/domain/proration"
	"github.com/flexisub/flexisub/internal/domain/subscription"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/samber/lo"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error)

	UpgradeSubscription(ctx context.Context, id string, req dto.UpgradeSubscriptionRequest) (*dto.UpgradeSubscriptionResponse, error)
	DowngradeSubscription(ctx context.Context, id string, req dto.DowngradeSubscriptionRequest) (*dto.DowngradeSubscriptionResponse, error)
	CancelSubscription(ctx context.Context, id string, req dto.CancelSubscriptionRequest) (*dto.CancelSubscriptionResponse, error)
	RenewSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	PauseSubscription(ctx context.Context, id string, req dto.PauseSubscriptionRequest) (*dto.SubscriptionResponse, error)
	ResumeSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ActivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)

	GetUsage(ctx context.Context, id string) (*dto.UsageResponse, error)
	RecordUsage(ctx context.Context, id string, req dto.RecordUsageRequest) (*dto.UsageResponse, error)
	GetPayments(ctx context.Context, id string) (*dto.PaymentsResponse, error)

	// Scheduler entry points
	ProcessExpirations(ctx context.Context) (*dto.BatchResult, error)
	ApplyScheduledChanges(ctx context.Context) (*dto.BatchResult, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	// Handle default values
	if req.BillingCycle == "" {
		req.BillingCycle = types.BillingCycleMonthly
	}
	if req.EntryPath == "" {
		req.EntryPath = types.SubscriptionEntryPathSelfServe
	}
	if req.UserID == "" {
		req.UserID = types.GetUserID(ctx)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := authorizeOwner(ctx, req.UserID); err != nil {
		return nil, err
	}

	p, err := s.getAvailablePlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	if _, err := s.UserRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	sub := subscription.New(ctx, subscription.NewSubscriptionParams{
		UserID:       req.UserID,
		PlanID:       p.ID,
		PlanName:     p.Name,
		BillingCycle: req.BillingCycle,
		BasePrice:    p.PriceFor(req.BillingCycle),
		Currency:     p.Pricing.Currency,
		DiscountCode: req.DiscountCode,
		StartDate:    lo.FromPtr(req.StartDate),
		EntryPath:    req.EntryPath,
	})

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNoActiveSubscription(ctx, sub.UserID, sub.PlanID); err != nil {
			return err
		}
		return s.SubRepo.Create(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"plan_id", sub.PlanID,
		"status", sub.Status,
		"billing_cycle", sub.BillingCycle,
		"total_amount", sub.Pricing.TotalAmount,
	)

	s.publish(ctx, types.EventSubscriptionCreated, sub, map[string]interface{}{
		"entry_path":   req.EntryPath,
		"total_amount": sub.Pricing.TotalAmount.String(),
	})

	return dto.NewSubscriptionResponse(sub, p), nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.getOwnedSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubscriptionResponse(sub, p), nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	// customers only ever see their own subscriptions
	if !types.IsAdmin(ctx) {
		filter.UserID = types.GetUserID(ctx)
	}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionResponse {
		return dto.NewSubscriptionResponse(sub, nil)
	})

	resp := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *subscriptionService) UpgradeSubscription(ctx context.Context, id string, req dto.UpgradeSubscriptionRequest) (*dto.UpgradeSubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	newPlan, err := s.getAvailablePlan(ctx, req.NewPlanID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var (
		oldPlan *plan.Plan
		result  *proration.ProrationResult
	)

	sub, err := s.mutate(ctx, id, func(ctx context.Context, sub *subscription.Subscription) error {
		if err := sub.Transition(subscription.EventUpgrade); err != nil {
			return err
		}

		var err error
		oldPlan, err = s.PlanRepo.Get(ctx, sub.PlanID)
		if err != nil {
			return err
		}

		if !newPlan.Pricing.Monthly.GreaterThan(oldPlan.Pricing.Monthly) {
			return ierr.NewError("new plan must be higher tier").
				WithHint("New plan must be a higher tier than the current plan").
				WithReportableDetails(map[string]interface{}{
					"current_plan_id": oldPlan.ID,
					"current_monthly": oldPlan.Pricing.Monthly.String(),
					"new_plan_id":     newPlan.ID,
					"new_monthly":     newPlan.Pricing.Monthly.String(),
				}).
				Mark(ierr.ErrInvalidTransition)
		}

		if err := checkCurrency(sub, newPlan); err != nil {
			return err
		}

		newPrice := newPlan.PriceFor(sub.BillingCycle)
		result, err = s.ProrationCalculator.Calculate(ctx, proration.ProrationParams{
			SubscriptionID:    sub.ID,
			BillingCycle:      sub.BillingCycle,
			CurrentFinalPrice: sub.Pricing.FinalPrice,
			NewPeriodPrice:    newPrice,
			ProrationDate:     now,
			CurrentPeriodEnd:  sub.EndDate,
			Currency:          sub.Currency,
		})
		if err != nil {
			return err
		}

		metadata := types.Metadata{
			"old_plan_id":     oldPlan.ID,
			"old_plan_name":   oldPlan.Name,
			"new_plan_id":     newPlan.ID,
			"new_plan_name":   newPlan.Name,
			"remaining_days":  result.RemainingDays,
			"additional_cost": result.AdditionalCost.String(),
		}

		// an upgrade supersedes any downgrade still waiting to be applied
		if sub.ScheduledChange != nil {
			metadata["cancelled_scheduled_plan_id"] = sub.ScheduledChange.PlanID
			metadata["cancelled_scheduled_effective_date"] = sub.ScheduledChange.EffectiveDate
			sub.ScheduledChange = nil
		}

		sub.SwapPlan(newPlan.ID, newPrice)
		sub.AppendHistory(subscription.ServiceHistoryEntry{
			Timestamp:   now,
			Type:        types.ServiceHistoryUpgrade,
			Description: "Upgraded from " + oldPlan.Name + " to " + newPlan.Name,
			PerformedBy: types.GetUserID(ctx),
			Metadata:    metadata,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("upgraded subscription",
		"subscription_id", sub.ID,
		"old_plan_id", oldPlan.ID,
		"new_plan_id", newPlan.ID,
		"additional_cost", result.AdditionalCost,
	)

	s.publish(ctx, types.EventSubscriptionUpgraded, sub, map[string]interface{}{
		"old_plan_id":     oldPlan.ID,
		"additional_cost": result.AdditionalCost.String(),
	})

	return &dto.UpgradeSubscriptionResponse{
		Subscription: dto.NewSubscriptionResponse(sub, newPlan),
		Proration:    result,
	}, nil
}

func (s *subscriptionService) DowngradeSubscription(ctx context.Context, id string, req dto.DowngradeSubscriptionRequest) (*dto.DowngradeSubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	newPlan, err := s.getAvailablePlan(ctx, req.NewPlanID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	scheduled := req.IsScheduled(now)
	effectiveDate := now
	if scheduled {
		effectiveDate = req.EffectiveDate.UTC()
	}

	var oldPlan *plan.Plan
	sub, err := s.mutate(ctx, id, func(ctx context.Context, sub *subscription.Subscription) error {
		event := subscription.EventDowngrade
		if scheduled {
			event = subscription.EventScheduleDowngrade
		}
		if err := sub.Transition(event); err != nil {
			return err
		}

		var err error
		oldPlan, err = s.PlanRepo.Get(ctx, sub.PlanID)
		if err != nil {
			return err
		}

		if !newPlan.Pricing.Monthly.LessThan(oldPlan.Pricing.Monthly) {
			return ierr.NewError("new plan must be lower tier").
				WithHint("New plan must be a lower tier than the current plan").
				WithReportableDetails(map[string]interface{}{
					"current_plan_id": oldPlan.ID,
					"current_monthly": oldPlan.Pricing.Monthly.String(),
					"new_plan_id":     newPlan.ID,
					"new_monthly":     newPlan.Pricing.Monthly.String(),
				}).
				Mark(ierr.ErrInvalidTransition)
		}

		if err := checkCurrency(sub, newPlan); err != nil {
			return err
		}

		entry := subscription.ServiceHistoryEntry{
			Timestamp:   now,
			Type:        types.ServiceHistoryDowngrade,
			PerformedBy: types.GetUserID(ctx),
			Metadata: types.Metadata{
				"old_plan_id":    oldPlan.ID,
				"old_plan_name":  oldPlan.Name,
				"new_plan_id":    newPlan.ID,
				"new_plan_name":  newPlan.Name,
				"effective_date": effectiveDate,
				"scheduled":      scheduled,
			},
		}

		if scheduled {
			sub.ScheduledChange = &subscription.ScheduledChange{
				PlanID:        newPlan.ID,
				EffectiveDate: effectiveDate,
				RequestedBy:   types.GetUserID(ctx),
			}
			entry.Description = "Downgrade to " + newPlan.Name + " scheduled for " + effectiveDate.Format(time.DateOnly)
		} else {
			sub.SwapPlan(newPlan.ID, newPlan.PriceFor(sub.BillingCycle))
			sub.ScheduledChange = nil
			entry.Description = "Downgraded from " + oldPlan.Name + " to " + newPlan.Name
		}

		sub.AppendHistory(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("downgraded subscription",
		"subscription_id", sub.ID,
		"old_plan_id", oldPlan.ID,
		"new_plan_id", newPlan.ID,
		"scheduled", scheduled,
		"effective_date", effectiveDate,
	)

	eventName := types.EventSubscriptionDowngraded
	respPlan := newPlan
	if scheduled {
		eventName = types.EventSubscriptionDowngradePlanned
		respPlan = oldPlan
	}
	s.publish(ctx, eventName, sub, map[string]interface{}{
		"old_plan_id":    oldPlan.ID,
		"new_plan_id":    newPlan.ID,
		"effective_date": effectiveDate,
	})

	return &dto.DowngradeSubscriptionResponse{
		Subscription:  dto.NewSubscriptionResponse(sub, respPlan),
		Scheduled:     scheduled,
		EffectiveDate: effectiveDate,
	}, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, id string, req dto.CancelSubscriptionRequest) (*dto.CancelSubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	effectiveDate := now
	if req.EffectiveDate != nil {
		effectiveDate = req.EffectiveDate.UTC()
	}

	var (
		p        *plan.Plan
		decision subscription.RefundDecision
	)

	sub, err := s.mutate(ctx, id, func(ctx context.Context, sub *subscription.Subscription) error {
		if err := sub.Transition(subscription.EventCancel); err != nil {
			return err
		}

		var err error
		p, err = s.PlanRepo.Get(ctx, sub.PlanID)
		if err != nil {
			return err
		}

		decision = sub.EvaluateRefund(p.UsagePercentage(sub.Usage.CurrentMonth.DataUsed), now)

		sub.Cancellation = &subscription.Cancellation{
			RequestDate:    now,
			EffectiveDate:  effectiveDate,
			Reason:         req.Reason,
			RequestedBy:    types.GetUserID(ctx),
			RefundEligible: decision.Eligible,
			RefundAmount:   decision.Amount,
		}
		sub.ScheduledChange = nil
		sub.AppendHistory(subscription.ServiceHistoryEntry{
			Timestamp:   now,
			Type:        types.ServiceHistoryCancelled,
			Description: "Subscription cancelled: " + req.Reason,
			PerformedBy: types.GetUserID(ctx),
			Metadata: types.Metadata{
				"reason":           req.Reason,
				"effective_date":   effectiveDate,
				"refund_eligible":  decision.Eligible,
				"refund_amount":    decision.Amount.String(),
				"days_since_start": decision.DaysSinceStart,
				"usage_percentage": decision.UsagePercentage.String(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled subscription",
		"subscription_id", sub.ID,
		"refund_eligible", decision.Eligible,
		"refund_amount", decision.Amount,
	)

	s.publish(ctx, types.EventSubscriptionCancelled, sub, map[string]interface{}{
		"reason":          req.Reason,
		"refund_eligible": decision.Eligible,
		"refund_amount":   decision.Amount.String(),
	})

	return &dto.CancelSubscriptionResponse{
		Subscription:    dto.NewSubscriptionResponse(sub, p),
		RefundEligible:  decision.Eligible,
		RefundAmount:    decision.Amount,
		DaysSinceStart:  decision.DaysSinceStart,
		UsagePercentage: decision.UsagePercentage,
	}, nil
}

func (s *subscriptionService) RenewSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	now := time.Now().UTC()
	var invoiceNumber string

	sub, err := s.mutate(ctx, id, func(ctx context.Context, sub *subscription.Subscription) error {
		reactivating := sub.Status == types.SubscriptionStatusExpired
		if err := sub.Transition(subscription.EventRenew); err != nil {
			return err
		}

		// an expired subscription coming back must not collide with another active one
		if reactivating {
			if err := s.ensureNoActiveSubscription(ctx, sub.UserID, sub.PlanID); err != nil {
				return err
			}
		}

		previousEnd := sub.EndDate
		sub.EndDate = sub.BillingCycle.AdvancePeriod(previousEnd)
		invoiceNumber = types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE)

		sub.AppendPayment(subscription.PaymentRecord{
			Date:          now,
			Amount:        sub.Pricing.TotalAmount,
			Method:        types.PaymentMethodAutoRenewal,
			Status:        types.PaymentStatusCompleted,
			InvoiceNumber: invoiceNumber,
		})
		sub.AppendHistory(subscription.ServiceHistoryEntry{
			Timestamp:   now,
			Type:        types.ServiceHistoryRenewed,
			Description: "Subscription renewed until " + sub.EndDate.Format(time.DateOnly),
			PerformedBy: types.GetUserID(ctx),
			Metadata: types.Metadata{
				"previous_end_date": previousEnd,
				"new_end_date":      sub.EndDate,
				"invoice_number":    invoiceNumber,
				"amount":            sub.Pricing.TotalAmount.String(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("renewed subscription",
		"subscription_id", sub.ID,
		"end_date", sub.EndDate,
		"invoice_number", invoiceNumber,
	)

	s.publish(ctx, types.EventSubscriptionRenewed, sub, map[string]interface{}{
		"end_date":       sub.EndDate,
		"invoice_number": invoiceNumber,
		"amount":         sub.Pricing.TotalAmount.String(),
	})

	return dto.NewSubscriptionResponse(sub, nil), nil
}

func (s *subscriptionService) PauseSubscription(ctx context.Context, id string, req dto.PauseSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.mutate(ctx, id, func(ctx context.Context, sub *subscription.Subscription) error {
		if err := sub.Transition(subscription.EventPause); err != nil {
			return err
		}

		description := "Subscription paused"
		if req.Reason != "" {
			description += ": " + req.Reason
		}
		sub.AppendHistory(subscription.ServiceHistoryEntry{
			Type:        types.ServiceHistoryPaused,
			Description: description,
			PerformedBy: types.GetUserID(ctx),
			Metadata:    types.Metadata{"reason": req.Reason},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("paused subscription", "subscription_id", sub.ID, "reason", req.Reason)
	s.publish(ctx, types.EventSubscriptionPaused, sub, map[string]interface{}{"reason": req.Reason})

	return dto.NewSubscriptionResponse(sub, nil), nil
}

func (s *subscriptionService) ResumeSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.mutate(ctx, id, func(ctx context.Context, sub *subscription.Subscription) error {
		if err := sub.Transition(subscription.EventResume); err != nil {
			return err
		}

		sub.AppendHistory(subscription.ServiceHistoryEntry{
			Type:        types.ServiceHistoryResumed,
			Description: "Subscription resumed",
			PerformedBy: types.GetUserID(ctx),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("resumed subscription", "subscription_id", sub.ID)
	s.publish(ctx, types.EventSubscriptionResumed, sub, nil)

	return dto.NewSubscriptionResponse(sub, nil), nil
}

func (s *subscriptionService) ActivateSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	current, err := s.getOwnedSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	// activating an active subscription is a no-op
	if current.Status == types.SubscriptionStatusActive {
		return dto.NewSubscriptionResponse(current, nil), nil
	}

	sub, err := s.mutate(ctx, id, func(ctx context.Context, sub *subscription.Subscription) error {
		if err := sub.Transition(subscription.EventActivate); err != nil {
			return err
		}

		if err := s.ensureNoActiveSubscription(ctx, sub.UserID, sub.PlanID); err != nil {
			return err
		}

		sub.AppendHistory(subscription.ServiceHistoryEntry{
			Type:        types.ServiceHistoryActivated,
			Description: "Subscription activated",
			PerformedBy: types.GetUserID(ctx),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("activated subscription", "subscription_id", sub.ID)
	s.publish(ctx, types.EventSubscriptionActivated, sub, nil)

	return dto.NewSubscriptionResponse(sub, nil), nil
}

func (s *subscriptionService) GetUsage(ctx context.Context, id string) (*dto.UsageResponse, error) {
	sub, err := s.getOwnedSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	return newUsageResponse(sub, p), nil
}

// RecordUsage adds metered data to the running month. Only admins and the
// scheduler report usage, and only while the service is active.
func (s *subscriptionService) RecordUsage(ctx context.Context, id string, req dto.RecordUsageRequest) (*dto.UsageResponse, error) {
	if err := authorizeAdmin(ctx); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub, err := s.mutate(ctx, id, func(ctx context.Context, sub *subscription.Subscription) error {
		if sub.Status != types.SubscriptionStatusActive {
			return ierr.NewError("usage can only be recorded on active subscriptions").
				WithHintf("Cannot record usage on a subscription that is %s", sub.Status).
				WithReportableDetails(map[string]interface{}{
					"subscription_id": sub.ID,
					"status":          sub.Status,
				}).
				Mark(ierr.ErrInvalidTransition)
		}
		sub.RecordUsage(req.DataUsed, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	s.Logger.Debugw("recorded usage",
		"subscription_id", sub.ID,
		"data_used", req.DataUsed,
		"current_month", sub.Usage.CurrentMonth.DataUsed,
	)

	return newUsageResponse(sub, p), nil
}

func (s *subscriptionService) GetPayments(ctx context.Context, id string) (*dto.PaymentsResponse, error) {
	sub, err := s.getOwnedSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	payments := sub.PaymentHistory
	if payments == nil {
		payments = subscription.PaymentHistory{}
	}

	return &dto.PaymentsResponse{
		SubscriptionID: sub.ID,
		Payments:       payments,
	}, nil
}

// mutate loads the subscription, checks the caller may act on it, applies fn
// and writes the result back under the version guard, all in one transaction.
func (s *subscriptionService) mutate(
	ctx context.Context,
	id string,
	fn func(ctx context.Context, sub *subscription.Subscription) error,
) (*subscription.Subscription, error) {
	var sub *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.SubRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if err := authorizeOwner(ctx, sub.UserID); err != nil {
			return err
		}

		if err := fn(ctx, sub); err != nil {
			return err
		}

		sub.Touch(ctx)
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) getOwnedSubscription(ctx context.Context, id string) (*subscription.Subscription, error) {
	if id == "" {
		return nil, ierr.NewError("subscription_id is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeOwner(ctx, sub.UserID); err != nil {
		return nil, err
	}
	return sub, nil
}

// getAvailablePlan returns the plan only if it can be subscribed to
func (s *subscriptionService) getAvailablePlan(ctx context.Context, planID string) (*plan.Plan, error) {
	p, err := s.PlanRepo.Get(ctx, planID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	if p == nil || !p.IsAvailable() {
		return nil, ierr.NewError("plan not found or unavailable").
			WithHint("Plan not found or unavailable").
			WithReportableDetails(map[string]interface{}{
				"plan_id": planID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *subscriptionService) ensureNoActiveSubscription(ctx context.Context, userID, planID string) error {
	filter := types.NewNoLimitSubscriptionFilter()
	filter.UserID = userID
	filter.PlanID = planID
	filter.Status = types.SubscriptionStatusActive

	count, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return err
	}

	if count > 0 {
		return ierr.NewError("user already has an active subscription for this plan").
			WithHint("User already has an active subscription for this plan").
			WithReportableDetails(map[string]interface{}{
				"user_id": userID,
				"plan_id": planID,
			}).
			Mark(ierr.ErrConflict)
	}
	return nil
}

func checkCurrency(sub *subscription.Subscription, target *plan.Plan) error {
	if target.Pricing.Currency == sub.Currency {
		return nil
	}
	return ierr.NewError("plan currency does not match subscription currency").
		WithHint("The new plan must be priced in the subscription's currency").
		WithReportableDetails(map[string]interface{}{
			"subscription_currency": sub.Currency,
			"plan_currency":         target.Pricing.Currency,
		}).
		Mark(ierr.ErrValidation)
}

func newUsageResponse(sub *subscription.Subscription, p *plan.Plan) *dto.UsageResponse {
	return &dto.UsageResponse{
		SubscriptionID:  sub.ID,
		Usage:           sub.Usage,
		DataLimit:       p.Features.DataLimit,
		Unlimited:       p.IsUnlimited(),
		UsagePercentage: p.UsagePercentage(sub.Usage.CurrentMonth.DataUsed),
	}
}

// publish emits a lifecycle event for a committed write. Failures are logged
// and never returned since the write already succeeded.
func (s *subscriptionService) publish(ctx context.Context, name types.LifecycleEventName, sub *subscription.Subscription, data map[string]interface{}) {
	if s.LifecyclePublisher == nil {
		return
	}

	event := &types.LifecycleEvent{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		Name:           name,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		PlanID:         sub.PlanID,
		Status:         sub.Status,
		Version:        sub.Version,
		Actor:          types.GetUserID(ctx),
		Timestamp:      time.Now().UTC(),
		Data:           data,
	}

	if err := s.LifecyclePublisher.Publish(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish lifecycle event",
			"error", err,
			"event_name", name,
			"subscription_id", sub.ID,
		)
	}
}

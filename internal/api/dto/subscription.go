package dto

import (
	"time"

	"github.com/flexisub/flexisub/internal/domain/plan"
	"github.com/flexisub/flexisub/internal/domain/proration"
	"github.com/flexisub/flexisub/internal/domain/subscription"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/flexisub/flexisub/internal/validator"
	"github.com/shopspring/decimal"
)

type CreateSubscriptionRequest struct {
	// UserID defaults to the caller. Only admins may subscribe another user.
	UserID       string                      `json:"user_id,omitempty"`
	PlanID       string                      `json:"plan_id" validate:"required"`
	BillingCycle types.BillingCycle          `json:"billing_cycle,omitempty"`
	DiscountCode string                      `json:"discount_code,omitempty" validate:"omitempty,max=50"`
	StartDate    *time.Time                  `json:"start_date,omitempty"`
	EntryPath    types.SubscriptionEntryPath `json:"entry_path,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.UserID == "" {
		return ierr.NewError("user_id is required").
			WithHint("User ID is required").
			Mark(ierr.ErrValidation)
	}

	if err := r.BillingCycle.Validate(); err != nil {
		return err
	}

	if err := r.EntryPath.Validate(); err != nil {
		return err
	}

	return nil
}

type UpgradeSubscriptionRequest struct {
	NewPlanID string `json:"new_plan_id" validate:"required"`
}

func (r *UpgradeSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type DowngradeSubscriptionRequest struct {
	NewPlanID string `json:"new_plan_id" validate:"required"`

	// EffectiveDate in the future schedules the downgrade instead of applying it now
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

func (r *DowngradeSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// IsScheduled reports whether the downgrade takes effect after now
func (r *DowngradeSubscriptionRequest) IsScheduled(now time.Time) bool {
	return r.EffectiveDate != nil && r.EffectiveDate.After(now)
}

type CancelSubscriptionRequest struct {
	Reason        string     `json:"reason" validate:"required,max=500"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

func (r *CancelSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type PauseSubscriptionRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

func (r *PauseSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type RecordUsageRequest struct {
	// DataUsed is in GB
	DataUsed decimal.Decimal `json:"data_used"`
}

func (r *RecordUsageRequest) Validate() error {
	if !r.DataUsed.IsPositive() {
		return ierr.NewError("data_used must be positive").
			WithHint("Data used must be greater than zero").
			WithReportableDetails(map[string]interface{}{
				"data_used": r.DataUsed.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type SubscriptionResponse struct {
	*subscription.Subscription
	Plan *PlanResponse `json:"plan,omitempty"`
}

func NewSubscriptionResponse(sub *subscription.Subscription, p *plan.Plan) *SubscriptionResponse {
	resp := &SubscriptionResponse{Subscription: sub}
	if p != nil {
		resp.Plan = &PlanResponse{Plan: p}
	}
	return resp
}

// ListSubscriptionsResponse represents the response for listing subscriptions
type ListSubscriptionsResponse = types.ListResponse[*SubscriptionResponse]

type UpgradeSubscriptionResponse struct {
	Subscription *SubscriptionResponse      `json:"subscription"`
	Proration    *proration.ProrationResult `json:"proration"`
}

type DowngradeSubscriptionResponse struct {
	Subscription  *SubscriptionResponse `json:"subscription"`
	Scheduled     bool                  `json:"scheduled"`
	EffectiveDate time.Time             `json:"effective_date"`
}

type CancelSubscriptionResponse struct {
	Subscription    *SubscriptionResponse `json:"subscription"`
	RefundEligible  bool                  `json:"refund_eligible"`
	RefundAmount    decimal.Decimal       `json:"refund_amount"`
	DaysSinceStart  int                   `json:"days_since_start"`
	UsagePercentage decimal.Decimal       `json:"usage_percentage"`
}

type UsageResponse struct {
	SubscriptionID  string             `json:"subscription_id"`
	Usage           subscription.Usage `json:"usage"`
	DataLimit       int                `json:"data_limit"`
	Unlimited       bool               `json:"unlimited"`
	UsagePercentage decimal.Decimal    `json:"usage_percentage"`
}

type PaymentsResponse struct {
	SubscriptionID string                      `json:"subscription_id"`
	Payments       subscription.PaymentHistory `json:"payments"`
}

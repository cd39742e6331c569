package types

import (
	"time"

	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the lifecycle status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusPending,
		SubscriptionStatusActive,
		SubscriptionStatusSuspended,
		SubscriptionStatusCancelled,
		SubscriptionStatusExpired,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BillingCycle is the recurrence unit of a subscription. It fixes the period
// length and which plan price tier applies.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

func (b BillingCycle) String() string {
	return string(b)
}

func (b BillingCycle) Validate() error {
	allowed := []BillingCycle{BillingCycleMonthly, BillingCycleYearly}
	if !lo.Contains(allowed, b) {
		return ierr.NewError("invalid billing cycle").
			WithHint("Billing cycle must be monthly or yearly").
			WithReportableDetails(map[string]any{
				"billing_cycle":  b,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ProrationDays is the fixed day count used to prorate one period of this cycle
func (b BillingCycle) ProrationDays() int {
	if b == BillingCycleYearly {
		return 365
	}
	return 30
}

// AdvancePeriod returns t moved forward by one calendar billing period
func (b BillingCycle) AdvancePeriod(t time.Time) time.Time {
	if b == BillingCycleYearly {
		return AddClampedDate(t, 1, 0)
	}
	return AddClampedDate(t, 0, 1)
}

// SubscriptionEntryPath distinguishes self-serve subscriptions, which start
// active, from subscription requests that wait for installation.
type SubscriptionEntryPath string

const (
	SubscriptionEntryPathSelfServe SubscriptionEntryPath = "self_serve"
	SubscriptionEntryPathRequest   SubscriptionEntryPath = "request"
)

func (p SubscriptionEntryPath) Validate() error {
	allowed := []SubscriptionEntryPath{SubscriptionEntryPathSelfServe, SubscriptionEntryPathRequest}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid entry path").
			WithHint("Entry path must be self_serve or request").
			WithReportableDetails(map[string]any{
				"entry_path":     p,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InitialStatus is the status a subscription is created in for this entry path
func (p SubscriptionEntryPath) InitialStatus() SubscriptionStatus {
	if p == SubscriptionEntryPathRequest {
		return SubscriptionStatusPending
	}
	return SubscriptionStatusActive
}

// ServiceHistoryType is the kind of lifecycle transition recorded in the service history
type ServiceHistoryType string

const (
	ServiceHistoryCreated   ServiceHistoryType = "created"
	ServiceHistoryActivated ServiceHistoryType = "activated"
	ServiceHistoryUpgrade   ServiceHistoryType = "upgrade"
	ServiceHistoryDowngrade ServiceHistoryType = "downgrade"
	ServiceHistoryPaused    ServiceHistoryType = "paused"
	ServiceHistoryResumed   ServiceHistoryType = "resumed"
	ServiceHistoryRenewed   ServiceHistoryType = "renewed"
	ServiceHistoryCancelled ServiceHistoryType = "cancelled"
	ServiceHistoryExpired   ServiceHistoryType = "expired"
)

// PaymentMethod is how a payment history entry was collected
type PaymentMethod string

const (
	PaymentMethodAutoRenewal PaymentMethod = "auto-renewal"
)

// PaymentStatus is the outcome of a payment history entry
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// SubscriptionFilter represents filters for subscription queries
type SubscriptionFilter struct {
	*QueryFilter

	UserID string             `json:"user_id,omitempty" form:"user_id"`
	PlanID string             `json:"plan_id,omitempty" form:"plan_id"`
	Status SubscriptionStatus `json:"status,omitempty" form:"status"`

	// EndBefore matches subscriptions whose end date is strictly before this time
	EndBefore *time.Time `json:"-" form:"-"`

	// WithScheduledChange matches subscriptions carrying a pending scheduled plan change
	WithScheduledChange bool `json:"-" form:"-"`
}

// NewSubscriptionFilter creates a new subscription filter with default pagination
func NewSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitSubscriptionFilter creates a subscription filter without pagination
func NewNoLimitSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f *SubscriptionFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	if f.Status != "" {
		if err := f.Status.Validate(); err != nil {
			return err
		}
	}
	return nil
}

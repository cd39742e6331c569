package subscription

import (
	"context"
	"time"

	"github.com/flexisub/flexisub/internal/types"
	"github.com/shopspring/decimal"
)

type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// UserID is the identifier of the subscribing user
	UserID string `db:"user_id" json:"user_id"`

	// PlanID is the identifier of the current plan, swapped on upgrade and downgrade
	PlanID string `db:"plan_id" json:"plan_id"`

	Status types.SubscriptionStatus `db:"status" json:"status"`

	// BillingCycle is fixed at creation and selects the plan price tier
	BillingCycle types.BillingCycle `db:"billing_cycle" json:"billing_cycle"`

	StartDate time.Time `db:"start_date" json:"start_date"`

	// EndDate is the end of the current paid period and moves forward on renewal
	EndDate time.Time `db:"end_date" json:"end_date"`

	// Currency is copied from the plan at creation
	Currency string `db:"currency" json:"currency"`

	Pricing Pricing `db:"pricing" json:"pricing"`

	DiscountCode string `db:"discount_code" json:"discount_code,omitempty"`

	// Cancellation is set only once the subscription is cancelled
	Cancellation *Cancellation `db:"cancellation" json:"cancellation,omitempty"`

	// ScheduledChange is a downgrade waiting for its effective date
	ScheduledChange *ScheduledChange `db:"scheduled_change" json:"scheduled_change,omitempty"`

	ServiceHistory ServiceHistory `db:"service_history" json:"service_history"`

	PaymentHistory PaymentHistory `db:"payment_history" json:"payment_history"`

	Usage Usage `db:"data_usage" json:"usage"`

	// Version is incremented on every write and guards concurrent updates
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// Cancellation records who cancelled a subscription and the refund outcome
type Cancellation struct {
	RequestDate    time.Time       `json:"request_date"`
	EffectiveDate  time.Time       `json:"effective_date"`
	Reason         string          `json:"reason"`
	RequestedBy    string          `json:"requested_by"`
	RefundEligible bool            `json:"refund_eligible"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
}

// ScheduledChange is a pending plan change applied by the scheduler once due
type ScheduledChange struct {
	PlanID        string    `json:"plan_id"`
	EffectiveDate time.Time `json:"effective_date"`
	RequestedBy   string    `json:"requested_by"`
}

// IsDue reports whether the change should be applied at now
func (c *ScheduledChange) IsDue(now time.Time) bool {
	return c != nil && !c.EffectiveDate.After(now)
}

// ServiceHistoryEntry is one lifecycle transition in the audit trail
type ServiceHistoryEntry struct {
	Timestamp   time.Time                `json:"timestamp"`
	Type        types.ServiceHistoryType `json:"type"`
	Description string                   `json:"description"`
	PerformedBy string                   `json:"performed_by"`
	Metadata    types.Metadata           `json:"metadata,omitempty"`
}

type ServiceHistory []ServiceHistoryEntry

// PaymentRecord is one entry of the payment history
type PaymentRecord struct {
	Date          time.Time           `json:"date"`
	Amount        decimal.Decimal     `json:"amount"`
	Method        types.PaymentMethod `json:"method"`
	Status        types.PaymentStatus `json:"status"`
	InvoiceNumber string              `json:"invoice_number"`
}

type PaymentHistory []PaymentRecord

// Usage tracks data consumption in GB for the running month and past months
type Usage struct {
	CurrentMonth MonthUsage          `json:"current_month"`
	History      []UsageHistoryEntry `json:"history"`
}

type MonthUsage struct {
	DataUsed    decimal.Decimal `json:"data_used"`
	LastUpdated time.Time       `json:"last_updated"`
}

type UsageHistoryEntry struct {
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	DataUsed decimal.Decimal `json:"data_used"`
}

// NewSubscriptionParams carries the already validated inputs of a new subscription
type NewSubscriptionParams struct {
	UserID       string
	PlanID       string
	PlanName     string
	BillingCycle types.BillingCycle
	BasePrice    decimal.Decimal
	Currency     string
	DiscountCode string
	StartDate    time.Time
	EntryPath    types.SubscriptionEntryPath
}

// New builds a subscription with its pricing snapshot, period dates and the
// initial created history entry.
func New(ctx context.Context, params NewSubscriptionParams) *Subscription {
	base := types.GetDefaultBaseModel(ctx)
	start := params.StartDate
	if start.IsZero() {
		start = base.CreatedAt
	}

	sub := &Subscription{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:         params.UserID,
		PlanID:         params.PlanID,
		Status:         params.EntryPath.InitialStatus(),
		BillingCycle:   params.BillingCycle,
		StartDate:      start,
		EndDate:        params.BillingCycle.AdvancePeriod(start),
		Currency:       params.Currency,
		Pricing:        NewPricing(params.BasePrice, params.DiscountCode),
		DiscountCode:   params.DiscountCode,
		ServiceHistory: ServiceHistory{},
		PaymentHistory: PaymentHistory{},
		Usage: Usage{
			CurrentMonth: MonthUsage{DataUsed: decimal.Zero},
			History:      []UsageHistoryEntry{},
		},
		BaseModel: base,
	}

	sub.AppendHistory(ServiceHistoryEntry{
		Timestamp:   base.CreatedAt,
		Type:        types.ServiceHistoryCreated,
		Description: "Subscription created for plan " + params.PlanName,
		PerformedBy: base.CreatedBy,
		Metadata: types.Metadata{
			"plan_id":       params.PlanID,
			"billing_cycle": string(params.BillingCycle),
			"entry_path":    string(params.EntryPath),
		},
	})
	return sub
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == types.SubscriptionStatusCancelled
}

// AppendHistory adds an entry to the end of the service history
func (s *Subscription) AppendHistory(entry ServiceHistoryEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	s.ServiceHistory = append(s.ServiceHistory, entry)
}

// AppendPayment adds an entry to the end of the payment history
func (s *Subscription) AppendPayment(record PaymentRecord) {
	s.PaymentHistory = append(s.PaymentHistory, record)
}

// SwapPlan points the subscription at a new plan and reprices it at the new period price
func (s *Subscription) SwapPlan(planID string, newPeriodPrice decimal.Decimal) {
	s.PlanID = planID
	s.Pricing = s.Pricing.WithPlanPrice(newPeriodPrice)
}

// RecordUsage adds dataUsed GB to the running month. When now falls in a later
// calendar month than the last update, the finished month is moved to history first.
func (s *Subscription) RecordUsage(dataUsed decimal.Decimal, now time.Time) {
	s.rollUsageMonth(now)
	s.Usage.CurrentMonth.DataUsed = s.Usage.CurrentMonth.DataUsed.Add(dataUsed)
	s.Usage.CurrentMonth.LastUpdated = now
}

func (s *Subscription) rollUsageMonth(now time.Time) {
	last := s.Usage.CurrentMonth.LastUpdated
	if last.IsZero() {
		return
	}
	if last.Year() == now.Year() && last.Month() == now.Month() {
		return
	}
	s.Usage.History = append(s.Usage.History, UsageHistoryEntry{
		Month:    int(last.Month()),
		Year:     last.Year(),
		DataUsed: s.Usage.CurrentMonth.DataUsed,
	})
	s.Usage.CurrentMonth = MonthUsage{DataUsed: decimal.Zero}
}

// Touch stamps the audit columns for a write performed in ctx
func (s *Subscription) Touch(ctx context.Context) {
	s.UpdatedAt = time.Now().UTC()
	s.UpdatedBy = types.GetUserID(ctx)
}

package subscription

import (
	"time"

	"github.com/flexisub/flexisub/internal/types"
	"github.com/shopspring/decimal"
)

var (
	// TaxRate is applied to the final price of every pricing snapshot
	TaxRate = decimal.NewFromFloat(0.08)

	// DiscountRate is the flat reduction granted when a discount code is supplied
	DiscountRate = decimal.NewFromFloat(0.10)

	// RefundUsageThreshold is the usage percentage at or above which a cancellation is not refunded
	RefundUsageThreshold = decimal.NewFromInt(10)
)

// RefundWindowDays is how long after the start date a cancellation may be refunded
const RefundWindowDays = 30

// Pricing is the snapshot captured at each pricing affecting transition.
// TotalAmount always equals FinalPrice plus TaxAmount.
type Pricing struct {
	BasePrice       decimal.Decimal `json:"base_price"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// NewPricing prices one period at basePrice. Any non-empty discount code grants DiscountRate.
func NewPricing(basePrice decimal.Decimal, discountCode string) Pricing {
	base := basePrice.Round(2)
	discount := decimal.Zero
	if discountCode != "" {
		discount = base.Mul(DiscountRate).Round(2)
	}
	final := base.Sub(discount)
	tax := final.Mul(TaxRate).Round(2)

	return Pricing{
		BasePrice:       base,
		DiscountApplied: discount,
		FinalPrice:      final,
		TaxAmount:       tax,
		TotalAmount:     final.Add(tax),
	}
}

// WithPlanPrice reprices the snapshot after a plan change. The discount is
// dropped and the tax amount already charged is carried over unchanged.
func (p Pricing) WithPlanPrice(newPeriodPrice decimal.Decimal) Pricing {
	price := newPeriodPrice.Round(2)
	return Pricing{
		BasePrice:       price,
		DiscountApplied: decimal.Zero,
		FinalPrice:      price,
		TaxAmount:       p.TaxAmount,
		TotalAmount:     price.Add(p.TaxAmount),
	}
}

// IsBalanced reports whether TotalAmount equals FinalPrice plus TaxAmount within a cent
func (p Pricing) IsBalanced() bool {
	diff := p.TotalAmount.Sub(p.FinalPrice.Add(p.TaxAmount)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(0.01))
}

// RefundDecision is the outcome of the cancellation refund rule
type RefundDecision struct {
	DaysSinceStart  int
	UsagePercentage decimal.Decimal
	Eligible        bool
	Amount          decimal.Decimal
}

// EvaluateRefund applies the refund window: a cancellation within RefundWindowDays
// of the start date with usage below RefundUsageThreshold refunds the full total.
func (s *Subscription) EvaluateRefund(usagePercentage decimal.Decimal, now time.Time) RefundDecision {
	days := types.DaysSince(s.StartDate, now)
	eligible := days <= RefundWindowDays && usagePercentage.LessThan(RefundUsageThreshold)

	amount := decimal.Zero
	if eligible {
		amount = s.Pricing.TotalAmount
	}
	return RefundDecision{
		DaysSinceStart:  days,
		UsagePercentage: usagePercentage,
		Eligible:        eligible,
		Amount:          amount,
	}
}

package proration

import (
	"context"
	"fmt"
	"time"

	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/shopspring/decimal"
)

// Calculator computes the credit and charge produced by a mid-period plan change.
type Calculator interface {
	Calculate(ctx context.Context, params ProrationParams) (*ProrationResult, error)
}

// ProrationParams holds the input for prorating a plan change.
type ProrationParams struct {
	SubscriptionID string
	BillingCycle   types.BillingCycle

	// CurrentFinalPrice is the period price the customer is paying today
	CurrentFinalPrice decimal.Decimal
	// NewPeriodPrice is the target plan's price for the same billing cycle
	NewPeriodPrice decimal.Decimal

	ProrationDate    time.Time
	CurrentPeriodEnd time.Time
	Currency         string
}

// ProrationResult holds the output of a proration calculation. Amounts are
// rounded to two decimal places.
type ProrationResult struct {
	RemainingDays   int             `json:"remaining_days"`
	TotalDays       int             `json:"total_days"`
	ProratedCredit  decimal.Decimal `json:"prorated_credit"`
	ProratedNewCost decimal.Decimal `json:"prorated_new_cost"`
	AdditionalCost  decimal.Decimal `json:"additional_cost"`
	Currency        string          `json:"currency"`
	ProrationDate   time.Time       `json:"proration_date"`
}

// NewCalculator returns the day based calculator. A period is a fixed 30 days
// for monthly and 365 days for yearly billing.
func NewCalculator() Calculator {
	return &dayBasedCalculator{}
}

type dayBasedCalculator struct{}

func (c *dayBasedCalculator) Calculate(ctx context.Context, params ProrationParams) (*ProrationResult, error) {
	if err := validateParams(params); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("invalid proration params: %v", err).
			Mark(ierr.ErrValidation)
	}

	totalDays := params.BillingCycle.ProrationDays()

	// remaining days never exceed the nominal period length
	remainingDays := types.DaysUntil(params.ProrationDate, params.CurrentPeriodEnd)
	if remainingDays > totalDays {
		remainingDays = totalDays
	}

	total := decimal.NewFromInt(int64(totalDays))
	remaining := decimal.NewFromInt(int64(remainingDays))

	credit := params.CurrentFinalPrice.Div(total).Mul(remaining).Round(2)
	newCost := params.NewPeriodPrice.Div(total).Mul(remaining).Round(2)

	return &ProrationResult{
		RemainingDays:   remainingDays,
		TotalDays:       totalDays,
		ProratedCredit:  credit,
		ProratedNewCost: newCost,
		AdditionalCost:  newCost.Sub(credit),
		Currency:        params.Currency,
		ProrationDate:   params.ProrationDate,
	}, nil
}

func validateParams(params ProrationParams) error {
	if err := params.BillingCycle.Validate(); err != nil {
		return err
	}
	if params.CurrentFinalPrice.IsNegative() {
		return fmt.Errorf("current price cannot be negative: %s", params.CurrentFinalPrice)
	}
	if params.NewPeriodPrice.IsNegative() {
		return fmt.Errorf("new price cannot be negative: %s", params.NewPeriodPrice)
	}
	if params.ProrationDate.IsZero() {
		return fmt.Errorf("proration date is required")
	}
	if params.CurrentPeriodEnd.IsZero() {
		return fmt.Errorf("current period end is required")
	}
	return nil
}

package plan

import (
	"strings"

	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/shopspring/decimal"
)

// yearlyDiscountFactor is applied to twelve monthly payments when a plan has no yearly price
var yearlyDiscountFactor = decimal.NewFromFloat(0.9)

type Plan struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    types.PlanCategory `json:"category"`
	Pricing     Pricing            `json:"pricing"`
	Features    Features           `json:"features"`
	Status      types.PlanStatus   `json:"status"`
	types.BaseModel
}

// Pricing holds the catalog prices of a plan for each billing cycle
type Pricing struct {
	Monthly  decimal.Decimal `json:"monthly"`
	Yearly   decimal.Decimal `json:"yearly"`
	SetupFee decimal.Decimal `json:"setup_fee"`
	Currency string          `json:"currency"`
}

// Features describes the connection a plan provides. DataLimit is in GB.
type Features struct {
	DownloadSpeed int  `json:"download_speed"`
	UploadSpeed   int  `json:"upload_speed"`
	DataLimit     int  `json:"data_limit"`
	Unlimited     bool `json:"unlimited"`
}

// NormalizeYearlyPrice fills an unset yearly price with monthly x 12 x 0.9
func (p *Plan) NormalizeYearlyPrice() {
	if p.Pricing.Yearly.IsZero() {
		p.Pricing.Yearly = p.Pricing.Monthly.
			Mul(decimal.NewFromInt(12)).
			Mul(yearlyDiscountFactor).
			Round(2)
	}
}

// PriceFor returns the period price charged for the given billing cycle
func (p *Plan) PriceFor(cycle types.BillingCycle) decimal.Decimal {
	if cycle == types.BillingCycleYearly {
		return p.Pricing.Yearly
	}
	return p.Pricing.Monthly
}

// IsAvailable reports whether new subscriptions and plan changes may target this plan
func (p *Plan) IsAvailable() bool {
	return p.Status == types.PlanStatusActive
}

// IsUnlimited reports whether usage is uncapped on this plan
func (p *Plan) IsUnlimited() bool {
	return p.Features.Unlimited || p.Features.DataLimit <= 0
}

// UsagePercentage returns dataUsed as a percentage of the plan's data limit.
// Unlimited plans always report zero.
func (p *Plan) UsagePercentage(dataUsed decimal.Decimal) decimal.Decimal {
	if p.IsUnlimited() {
		return decimal.Zero
	}
	return dataUsed.
		Div(decimal.NewFromInt(int64(p.Features.DataLimit))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ierr.NewError("plan name is required").
			WithHint("Plan name is required").
			Mark(ierr.ErrValidation)
	}
	if err := p.Category.Validate(); err != nil {
		return err
	}
	if err := p.Status.Validate(); err != nil {
		return err
	}
	if p.Pricing.Monthly.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("monthly price must be positive").
			WithHint("Monthly price must be greater than zero").
			WithReportableDetails(map[string]any{
				"monthly": p.Pricing.Monthly.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if p.Pricing.Yearly.IsNegative() || p.Pricing.SetupFee.IsNegative() {
		return ierr.NewError("plan prices cannot be negative").
			WithHint("Yearly price and setup fee cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if p.Pricing.Currency == "" {
		return ierr.NewError("currency is required").
			WithHint("Plan currency is required").
			Mark(ierr.ErrValidation)
	}
	if !p.Features.Unlimited && p.Features.DataLimit < 0 {
		return ierr.NewError("data limit cannot be negative").
			WithHint("Data limit must be zero or more GB").
			Mark(ierr.ErrValidation)
	}
	return nil
}

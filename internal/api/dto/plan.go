package dto

import (
	"context"

	"github.com/flexisub/flexisub/internal/domain/plan"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/flexisub/flexisub/internal/validator"
	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	Name        string             `json:"name" validate:"required,max=255"`
	Description string             `json:"description" validate:"omitempty,max=1000"`
	Category    types.PlanCategory `json:"category" validate:"required"`
	Pricing     PlanPricingRequest `json:"pricing"`
	Features    PlanFeatures       `json:"features"`
	Status      types.PlanStatus   `json:"status,omitempty"`
}

type PlanPricingRequest struct {
	Monthly  decimal.Decimal `json:"monthly" validate:"amount"`
	Yearly   decimal.Decimal `json:"yearly" validate:"amount"`
	SetupFee decimal.Decimal `json:"setup_fee" validate:"amount"`
	Currency string          `json:"currency" validate:"required,currency"`
}

type PlanFeatures struct {
	DownloadSpeed int  `json:"download_speed" validate:"min=0"`
	UploadSpeed   int  `json:"upload_speed" validate:"min=0"`
	DataLimit     int  `json:"data_limit" validate:"min=0"`
	Unlimited     bool `json:"unlimited"`
}

func (r *CreatePlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if err := r.Category.Validate(); err != nil {
		return err
	}

	if r.Status != "" {
		if err := r.Status.Validate(); err != nil {
			return err
		}
	}

	if !r.Pricing.Monthly.IsPositive() {
		return ierr.NewError("monthly price must be positive").
			WithHint("Monthly price must be greater than zero").
			WithReportableDetails(map[string]interface{}{
				"monthly": r.Pricing.Monthly.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// ToPlan builds the catalog entry. An unset yearly price is derived from the monthly one.
func (r *CreatePlanRequest) ToPlan(ctx context.Context) *plan.Plan {
	status := r.Status
	if status == "" {
		status = types.PlanStatusActive
	}

	p := &plan.Plan{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Pricing: plan.Pricing{
			Monthly:  r.Pricing.Monthly,
			Yearly:   r.Pricing.Yearly,
			SetupFee: r.Pricing.SetupFee,
			Currency: r.Pricing.Currency,
		},
		Features: plan.Features{
			DownloadSpeed: r.Features.DownloadSpeed,
			UploadSpeed:   r.Features.UploadSpeed,
			DataLimit:     r.Features.DataLimit,
			Unlimited:     r.Features.Unlimited,
		},
		Status:    status,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	p.NormalizeYearlyPrice()
	return p
}

type PlanResponse struct {
	*plan.Plan
}

// ListPlansResponse represents the response for listing plans
type ListPlansResponse = types.ListResponse[*PlanResponse]

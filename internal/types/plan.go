package types

import (
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/samber/lo"
)

// PlanCategory groups plans by the kind of customer they target
type PlanCategory string

const (
	PlanCategoryResidential PlanCategory = "residential"
	PlanCategoryBusiness    PlanCategory = "business"
	PlanCategoryEnterprise  PlanCategory = "enterprise"
)

func (c PlanCategory) Validate() error {
	allowed := []PlanCategory{
		PlanCategoryResidential,
		PlanCategoryBusiness,
		PlanCategoryEnterprise,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid plan category").
			WithHint("Plan category must be residential, business or enterprise").
			WithReportableDetails(map[string]any{
				"category":           c,
				"allowed_categories": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PlanStatus is the catalog availability of a plan
type PlanStatus string

const (
	PlanStatusActive     PlanStatus = "active"
	PlanStatusInactive   PlanStatus = "inactive"
	PlanStatusDeprecated PlanStatus = "deprecated"
)

func (s PlanStatus) Validate() error {
	allowed := []PlanStatus{
		PlanStatusActive,
		PlanStatusInactive,
		PlanStatusDeprecated,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid plan status").
			WithHint("Invalid plan status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PlanFilter represents filters for plan queries
type PlanFilter struct {
	*QueryFilter

	Category PlanCategory `json:"category,omitempty" form:"category"`
	Status   PlanStatus   `json:"status,omitempty" form:"status"`
}

// NewPlanFilter creates a new plan filter with default pagination
func NewPlanFilter() *PlanFilter {
	return &PlanFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *PlanFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	if f.Category != "" {
		if err := f.Category.Validate(); err != nil {
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

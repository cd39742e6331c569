package service

import (
	"testing"

	"github.com/flexisub/flexisub/internal/api/dto"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/testutil"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PlanServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PlanService
}

func TestPlanService(t *testing.T) {
	suite.Run(t, new(PlanServiceSuite))
}

func (s *PlanServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewPlanService(NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		stores.UserRepo,
		stores.PlanRepo,
		stores.SubscriptionRepo,
		s.GetCalculator(),
		s.GetPublisher(),
	))
	s.SetContext(testutil.WithActor(s.GetContext(), "user_admin", types.UserRoleAdmin))
}

func (s *PlanServiceSuite) validRequest() dto.CreatePlanRequest {
	return dto.CreatePlanRequest{
		Name:     "Fibre 300",
		Category: types.PlanCategoryResidential,
		Pricing: dto.PlanPricingRequest{
			Monthly:  decimal.NewFromInt(60),
			Currency: "USD",
		},
		Features: dto.PlanFeatures{
			DownloadSpeed: 300,
			UploadSpeed:   50,
			DataLimit:     1000,
		},
	}
}

func (s *PlanServiceSuite) TestCreatePlan() {
	resp, err := s.service.CreatePlan(s.GetContext(), s.validRequest())
	s.Require().NoError(err)

	s.NotEmpty(resp.ID)
	s.Equal(types.PlanStatusActive, resp.Status)
	s.True(decimal.NewFromInt(648).Equal(resp.Pricing.Yearly), "yearly defaults to monthly x 12 x 0.9")
	s.Equal("user_admin", resp.CreatedBy)

	stored, err := s.service.GetPlan(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	s.Equal("Fibre 300", stored.Name)
}

func (s *PlanServiceSuite) TestCreatePlanKeepsExplicitYearlyPrice() {
	req := s.validRequest()
	req.Pricing.Yearly = decimal.NewFromInt(600)

	resp, err := s.service.CreatePlan(s.GetContext(), req)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(600).Equal(resp.Pricing.Yearly))
}

func (s *PlanServiceSuite) TestCreatePlanErrors() {
	tests := []struct {
		name   string
		mutate func(req *dto.CreatePlanRequest)
		check  func(err error) bool
	}{
		{
			name:   "missing name",
			mutate: func(req *dto.CreatePlanRequest) { req.Name = "" },
			check:  ierr.IsValidation,
		},
		{
			name:   "unknown category",
			mutate: func(req *dto.CreatePlanRequest) { req.Category = types.PlanCategory("satellite") },
			check:  ierr.IsValidation,
		},
		{
			name:   "zero monthly price",
			mutate: func(req *dto.CreatePlanRequest) { req.Pricing.Monthly = decimal.Zero },
			check:  ierr.IsValidation,
		},
		{
			name:   "bad currency",
			mutate: func(req *dto.CreatePlanRequest) { req.Pricing.Currency = "DOLLAR" },
			check:  ierr.IsValidation,
		},
		{
			name:   "unknown status",
			mutate: func(req *dto.CreatePlanRequest) { req.Status = types.PlanStatus("archived") },
			check:  ierr.IsValidation,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := s.validRequest()
			tt.mutate(&req)

			_, err := s.service.CreatePlan(s.GetContext(), req)
			s.Error(err)
			s.True(tt.check(err), "unexpected error: %v", err)
		})
	}
}

func (s *PlanServiceSuite) TestCreatePlanRequiresAdmin() {
	ctx := testutil.WithActor(s.GetContext(), "user_customer", types.UserRoleCustomer)

	_, err := s.service.CreatePlan(ctx, s.validRequest())
	s.True(ierr.IsPermissionDenied(err))
}

func (s *PlanServiceSuite) TestGetPlans() {
	for _, name := range []string{"A", "B", "C"} {
		req := s.validRequest()
		req.Name = name
		_, err := s.service.CreatePlan(s.GetContext(), req)
		s.Require().NoError(err)
	}
	business := s.validRequest()
	business.Category = types.PlanCategoryBusiness
	_, err := s.service.CreatePlan(s.GetContext(), business)
	s.Require().NoError(err)

	resp, err := s.service.GetPlans(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Len(resp.Items, 4)
	s.Equal(4, resp.Pagination.Total)

	filter := types.NewPlanFilter()
	filter.Category = types.PlanCategoryBusiness
	resp, err = s.service.GetPlans(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Len(resp.Items, 1)
	s.Equal(types.PlanCategoryBusiness, resp.Items[0].Category)
}

func (s *PlanServiceSuite) TestGetPlanNotFound() {
	_, err := s.service.GetPlan(s.GetContext(), "plan_missing")
	s.True(ierr.IsNotFound(err))

	_, err = s.service.GetPlan(s.GetContext(), "")
	s.True(ierr.IsValidation(err))
}

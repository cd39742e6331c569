package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexisub/flexisub/internal/api/cron"
	"github.com/flexisub/flexisub/internal/api/dto"
	v1 "github.com/flexisub/flexisub/internal/api/v1"
	"github.com/flexisub/flexisub/internal/auth"
	"github.com/flexisub/flexisub/internal/config"
	"github.com/flexisub/flexisub/internal/domain/plan"
	"github.com/flexisub/flexisub/internal/domain/proration"
	"github.com/flexisub/flexisub/internal/domain/user"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/sentry"
	"github.com/flexisub/flexisub/internal/service"
	"github.com/flexisub/flexisub/internal/testutil"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/flexisub/flexisub/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const testCronKey = "cron-secret"

type fakePinger struct {
	err error
}

func (p *fakePinger) PingContext(context.Context) error {
	return p.err
}

type RouterSuite struct {
	suite.Suite

	router    *gin.Engine
	db        *fakePinger
	provider  auth.Provider
	publisher *testutil.InMemoryLifecyclePublisher

	customer *user.User
	other    *user.User
	admin    *user.User
	basic    *plan.Plan
	premium  *plan.Plan
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	validator.NewValidator()
}

func (s *RouterSuite) SetupTest() {
	ctx := testutil.SetupContext()
	cfg := config.GetDefaultConfig()
	cfg.Cron.APIKey = testCronKey
	log := logger.NewNopLogger()

	userRepo := testutil.NewInMemoryUserStore()
	planRepo := testutil.NewInMemoryPlanStore()
	subRepo := testutil.NewInMemorySubscriptionStore()
	s.publisher = testutil.NewInMemoryLifecyclePublisher()

	params := service.NewServiceParams(
		log,
		cfg,
		testutil.NewMockPostgresClient(log),
		userRepo,
		planRepo,
		subRepo,
		proration.NewCalculator(),
		s.publisher,
	)
	subscriptionService := service.NewSubscriptionService(params)
	sentrySvc := sentry.NewSentryService(cfg, log)

	s.db = &fakePinger{}
	s.provider = auth.NewProvider(cfg)
	s.router = NewRouter(Handlers{
		Health:           v1.NewHealthHandler(s.db, log),
		Plan:             v1.NewPlanHandler(service.NewPlanService(params), log),
		Subscription:     v1.NewSubscriptionHandler(subscriptionService, log),
		CronSubscription: cron.NewSubscriptionHandler(subscriptionService, sentrySvc, log),
	}, cfg, log, sentrySvc, s.provider)

	s.customer = userRepo.SeedUser(ctx, "Ada", "ada@example.com", types.UserRoleCustomer)
	s.other = userRepo.SeedUser(ctx, "Bob", "bob@example.com", types.UserRoleCustomer)
	s.admin = userRepo.SeedUser(ctx, "Root", "root@example.com", types.UserRoleAdmin)

	s.basic = s.seedPlan(ctx, planRepo, "Basic", 50)
	s.premium = s.seedPlan(ctx, planRepo, "Premium", 100)
}

func (s *RouterSuite) seedPlan(ctx context.Context, repo plan.Repository, name string, monthly int64) *plan.Plan {
	p := &plan.Plan{
		ID:       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:     name,
		Category: types.PlanCategoryResidential,
		Pricing: plan.Pricing{
			Monthly:  decimal.NewFromInt(monthly),
			Currency: "USD",
		},
		Features:  plan.Features{DownloadSpeed: 100, UploadSpeed: 10, DataLimit: 100},
		Status:    types.PlanStatusActive,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	p.NormalizeYearlyPrice()
	s.Require().NoError(repo.Create(ctx, p))
	return p
}

func (s *RouterSuite) token(u *user.User) string {
	token, err := s.provider.GenerateToken(u.ID, u.Role, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path string, as *user.User, body any) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set(types.HeaderAuthorization, "Bearer "+s.token(as))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decodeError(w *httptest.ResponseRecorder) ierr.ErrorResponse {
	var resp ierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.False(resp.Success)
	return resp
}

func (s *RouterSuite) subscribe(as *user.User, p *plan.Plan) *dto.SubscriptionResponse {
	w := s.do(http.MethodPost, "/v1/subscriptions", as, dto.CreateSubscriptionRequest{PlanID: p.ID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp dto.SubscriptionResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
	s.Contains(w.Body.String(), `"database":"up"`)

	s.db.err = ierr.NewError("connection refused").Mark(ierr.ErrDatabase)
	w = s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Contains(w.Body.String(), `"status":"unavailable"`)
}

func (s *RouterSuite) TestAuthentication() {
	w := s.do(http.MethodGet, "/v1/subscriptions", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.decodeError(w)

	req := httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil)
	req.Header.Set(types.HeaderAuthorization, "Bearer not-a-token")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestCreateSubscription() {
	resp := s.subscribe(s.customer, s.basic)

	s.Equal(types.SubscriptionStatusActive, resp.Status)
	s.Equal(s.customer.ID, resp.UserID)
	s.True(decimal.NewFromInt(54).Equal(resp.Pricing.TotalAmount))
	s.Require().NotNil(resp.Plan)
	s.Equal(s.basic.ID, resp.Plan.ID)

	w := s.do(http.MethodPost, "/v1/subscriptions", s.customer, dto.CreateSubscriptionRequest{PlanID: s.basic.ID})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("User already has an active subscription for this plan", s.decodeError(w).Error.Display)

	w = s.do(http.MethodPost, "/v1/subscriptions", s.customer, map[string]any{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/v1/subscriptions", s.customer, dto.CreateSubscriptionRequest{PlanID: "plan_missing"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestSubscriptionLifecycle() {
	sub := s.subscribe(s.customer, s.basic)
	base := "/v1/subscriptions/" + sub.ID

	w := s.do(http.MethodPut, base+"/downgrade", s.customer, dto.DowngradeSubscriptionRequest{NewPlanID: s.premium.ID})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("New plan must be a lower tier than the current plan", s.decodeError(w).Error.Display)

	w = s.do(http.MethodPut, base+"/upgrade", s.customer, dto.UpgradeSubscriptionRequest{NewPlanID: s.premium.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var upgrade dto.UpgradeSubscriptionResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &upgrade))
	s.Equal(s.premium.ID, upgrade.Subscription.PlanID)
	s.Require().NotNil(upgrade.Proration)

	w = s.do(http.MethodPut, base+"/pause", s.customer, nil)
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, base+"/renew", s.customer, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPut, base+"/resume", s.customer, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPut, base+"/renew", s.customer, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, base+"/payments", s.customer, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var payments dto.PaymentsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &payments))
	s.Len(payments.Payments, 1)

	w = s.do(http.MethodPut, base+"/cancel", s.customer, dto.CancelSubscriptionRequest{Reason: "moving"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var cancel dto.CancelSubscriptionResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &cancel))
	s.True(cancel.RefundEligible)

	w = s.do(http.MethodPut, base+"/cancel", s.customer, dto.CancelSubscriptionRequest{Reason: "again"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPut, base+"/cancel", s.customer, map[string]any{})
	s.Equal(http.StatusBadRequest, w.Code)

	s.Equal([]types.LifecycleEventName{
		types.EventSubscriptionCreated,
		types.EventSubscriptionUpgraded,
		types.EventSubscriptionPaused,
		types.EventSubscriptionResumed,
		types.EventSubscriptionRenewed,
		types.EventSubscriptionCancelled,
	}, s.publisher.EventNames())
}

func (s *RouterSuite) TestOwnership() {
	sub := s.subscribe(s.customer, s.basic)

	w := s.do(http.MethodGet, "/v1/subscriptions/"+sub.ID, s.other, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/v1/subscriptions/"+sub.ID, s.admin, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/subscriptions", s.other, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list dto.ListSubscriptionsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	s.Empty(list.Items)
}

func (s *RouterSuite) TestUsage() {
	sub := s.subscribe(s.customer, s.basic)
	path := "/v1/subscriptions/" + sub.ID + "/usage"
	body := map[string]any{"data_used": 12.5}

	w := s.do(http.MethodPost, path, s.customer, body)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, path, s.admin, body)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, path, s.customer, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var usage dto.UsageResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &usage))
	s.True(decimal.RequireFromString("12.5").Equal(usage.UsagePercentage))
}

func (s *RouterSuite) TestPlans() {
	req := dto.CreatePlanRequest{
		Name:     "Business 1G",
		Category: types.PlanCategoryBusiness,
		Pricing:  dto.PlanPricingRequest{Monthly: decimal.NewFromInt(150), Currency: "USD"},
	}

	w := s.do(http.MethodPost, "/v1/plans", s.customer, req)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/v1/plans", s.admin, req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.PlanResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))

	w = s.do(http.MethodGet, "/v1/plans/"+created.ID, s.customer, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/plans?category=business", s.customer, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list dto.ListPlansResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	s.Len(list.Items, 1)
}

func (s *RouterSuite) TestCronEndpoints() {
	w := s.do(http.MethodPost, "/cron/subscriptions/expire", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/cron/subscriptions/expire", nil)
	req.Header.Set("x-cron-key", testCronKey)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var result dto.BatchResult
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &result))
	s.Equal(0, result.Processed)

	req = httptest.NewRequest(http.MethodPost, "/cron/subscriptions/apply-scheduled-changes", nil)
	req.Header.Set("x-cron-key", testCronKey)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

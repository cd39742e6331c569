package api

import (
	"github.com/flexisub/flexisub/internal/api/cron"
	v1 "github.com/flexisub/flexisub/internal/api/v1"
	"github.com/flexisub/flexisub/internal/auth"
	"github.com/flexisub/flexisub/internal/config"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/rest/middleware"
	"github.com/flexisub/flexisub/internal/sentry"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health           *v1.HealthHandler
	Plan             *v1.PlanHandler
	Subscription     *v1.SubscriptionHandler
	CronSubscription *cron.SubscriptionHandler
}

func NewRouter(
	handlers Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	sentrySvc *sentry.Service,
	authProvider auth.Provider,
) *gin.Engine {
	if cfg.Logging.Level != types.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(sentrySvc),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.RequestLogMiddleware(logger),
		middleware.ErrorHandler(logger, sentrySvc),
	)

	router.GET("/health", handlers.Health.Health)

	// v1 routes
	v1Router := router.Group("/v1")
	v1Router.Use(middleware.AuthenticateMiddleware(authProvider, logger))
	registerV1Routes(v1Router, handlers)

	// scheduler routes
	cronRouter := router.Group("/cron")
	cronRouter.Use(middleware.CronAuthMiddleware(cfg, logger))
	{
		subscriptions := cronRouter.Group("/subscriptions")
		subscriptions.POST("/expire", handlers.CronSubscription.ProcessExpirations)
		subscriptions.POST("/apply-scheduled-changes", handlers.CronSubscription.ApplyScheduledChanges)
	}

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("", handlers.Subscription.ListSubscriptions)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.PUT("/:id/upgrade", handlers.Subscription.UpgradeSubscription)
		subscriptions.PUT("/:id/downgrade", handlers.Subscription.DowngradeSubscription)
		subscriptions.PUT("/:id/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.PUT("/:id/renew", handlers.Subscription.RenewSubscription)
		subscriptions.PUT("/:id/pause", handlers.Subscription.PauseSubscription)
		subscriptions.PUT("/:id/resume", handlers.Subscription.ResumeSubscription)
		subscriptions.PUT("/:id/activate", handlers.Subscription.ActivateSubscription)
		subscriptions.GET("/:id/usage", handlers.Subscription.GetUsage)
		subscriptions.POST("/:id/usage", handlers.Subscription.RecordUsage)
		subscriptions.GET("/:id/payments", handlers.Subscription.GetPayments)
	}

	plans := router.Group("/plans")
	{
		plans.POST("", handlers.Plan.CreatePlan)
		plans.GET("", handlers.Plan.GetPlans)
		plans.GET("/:id", handlers.Plan.GetPlan)
	}
}

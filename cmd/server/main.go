package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexisub/flexisub/internal/api"
	"github.com/flexisub/flexisub/internal/api/cron"
	v1 "github.com/flexisub/flexisub/internal/api/v1"
	"github.com/flexisub/flexisub/internal/auth"
	"github.com/flexisub/flexisub/internal/cache"
	"github.com/flexisub/flexisub/internal/config"
	"github.com/flexisub/flexisub/internal/domain/proration"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/postgres"
	"github.com/flexisub/flexisub/internal/publisher"
	"github.com/flexisub/flexisub/internal/pubsub"
	kafkaPubSub "github.com/flexisub/flexisub/internal/pubsub/kafka"
	memoryPubSub "github.com/flexisub/flexisub/internal/pubsub/memory"
	pubsubRouter "github.com/flexisub/flexisub/internal/pubsub/router"
	"github.com/flexisub/flexisub/internal/repository"
	"github.com/flexisub/flexisub/internal/sentry"
	"github.com/flexisub/flexisub/internal/service"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/flexisub/flexisub/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Auth
			auth.NewProvider,

			// Repositories
			repository.NewUserRepository,
			repository.NewPlanRepository,
			repository.NewSubscriptionRepository,

			// Pricing
			proration.NewCalculator,

			// PubSub
			providePubSub,
			pubsubRouter.NewRouter,

			// Lifecycle events
			publisher.NewLifecyclePublisher,
		),
		sentry.Module(),
		postgres.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewPlanService,
			service.NewSubscriptionService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			validator.NewValidator,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

// providePubSub selects the lifecycle event transport from configuration
func providePubSub(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (pubsub.PubSub, error) {
	var (
		ps  pubsub.PubSub
		err error
	)

	switch cfg.PubSub.Driver {
	case types.PubSubKafka:
		ps, err = kafkaPubSub.NewPubSub(cfg, log)
		if err != nil {
			return nil, err
		}
	default:
		ps = memoryPubSub.NewPubSub(log)
	}

	log.Infow("lifecycle event transport ready",
		"driver", cfg.PubSub.Driver,
		"topic", cfg.PubSub.Topic,
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return ps.Close()
		},
	})
	return ps, nil
}

func provideHandlers(
	db *postgres.DB,
	logger *logger.Logger,
	sentrySvc *sentry.Service,
	planService service.PlanService,
	subscriptionService service.SubscriptionService,
) api.Handlers {
	return api.Handlers{
		Health:           v1.NewHealthHandler(db, logger),
		Plan:             v1.NewPlanHandler(planService, logger),
		Subscription:     v1.NewSubscriptionHandler(subscriptionService, logger),
		CronSubscription: cron.NewSubscriptionHandler(subscriptionService, sentrySvc, logger),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	ps pubsub.PubSub,
	c cache.Cache,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, ps, c, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}

// startMessageRouter runs the watermill router that consumes lifecycle events.
// The audit log handler is its only consumer and can be switched off in config.
func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	ps pubsub.PubSub,
	c cache.Cache,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	if !cfg.PubSub.AuditLog {
		log.Info("Lifecycle audit log disabled, message router not started")
		return
	}

	publisher.NewAuditLogHandler(ps, cfg, c, log).RegisterHandler(router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting message router...")
			go func() {
				if err := router.Run(context.Background()); err != nil {
					log.Errorw("message router stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping message router...")
			return router.Close()
		},
	})
}

package service

import (
	"github.com/flexisub/flexisub/internal/config"
	"github.com/flexisub/flexisub/internal/domain/plan"
	"github.com/flexisub/flexisub/internal/domain/proration"
	"github.com/flexisub/flexisub/internal/domain/subscription"
	"github.com/flexisub/flexisub/internal/domain/user"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/postgres"
	"github.com/flexisub/flexisub/internal/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	UserRepo user.Repository
	PlanRepo plan.Repository
	SubRepo  subscription.Repository

	ProrationCalculator proration.Calculator

	// Publishers
	LifecyclePublisher publisher.LifecyclePublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	userRepo user.Repository,
	planRepo plan.Repository,
	subRepo subscription.Repository,
	prorationCalculator proration.Calculator,
	lifecyclePublisher publisher.LifecyclePublisher,
) ServiceParams {
	return ServiceParams{
		Logger:              logger,
		Config:              config,
		DB:                  db,
		UserRepo:            userRepo,
		PlanRepo:            planRepo,
		SubRepo:             subRepo,
		ProrationCalculator: prorationCalculator,
		LifecyclePublisher:  lifecyclePublisher,
	}
}

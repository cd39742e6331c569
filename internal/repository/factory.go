package repository

import (
	"github.com/flexisub/flexisub/internal/cache"
	"github.com/flexisub/flexisub/internal/domain/plan"
	"github.com/flexisub/flexisub/internal/domain/subscription"
	"github.com/flexisub/flexisub/internal/domain/user"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/postgres"
	postgresRepo "github.com/flexisub/flexisub/internal/repository/postgres"
)

func NewPlanRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger, cache)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) user.Repository {
	return postgresRepo.NewUserRepository(db, logger, cache)
}

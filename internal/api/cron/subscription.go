package cron

import (
	"net/http"

	"github.com/flexisub/flexisub/internal/api/dto"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/sentry"
	"github.com/flexisub/flexisub/internal/service"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler handles subscription related cron jobs
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	sentry              *sentry.Service
	logger              *logger.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(
	subscriptionService service.SubscriptionService,
	sentry *sentry.Service,
	logger *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		sentry:              sentry,
		logger:              logger,
	}
}

// ProcessExpirations expires every active subscription whose period has ended
func (h *SubscriptionHandler) ProcessExpirations(c *gin.Context) {
	h.logger.Infow("starting subscription expiration cron job")

	span, ctx := h.sentry.StartCronSpan(c.Request.Context(), "subscription_expirations")
	if span != nil {
		defer span.Finish()
	}

	response, err := h.subscriptionService.ProcessExpirations(types.SystemContext(ctx))
	if err != nil {
		h.logger.Errorw("failed to process subscription expirations",
			"error", err)
		c.Error(err)
		return
	}

	h.recordFailures("subscription_expirations", response)
	h.logger.Infow("completed subscription expiration cron job",
		"processed", response.Processed,
		"failed", response.Failed)
	c.JSON(http.StatusOK, response)
}

// ApplyScheduledChanges applies every scheduled downgrade that has become due
func (h *SubscriptionHandler) ApplyScheduledChanges(c *gin.Context) {
	h.logger.Infow("starting scheduled plan change cron job")

	span, ctx := h.sentry.StartCronSpan(c.Request.Context(), "subscription_scheduled_changes")
	if span != nil {
		defer span.Finish()
	}

	response, err := h.subscriptionService.ApplyScheduledChanges(types.SystemContext(ctx))
	if err != nil {
		h.logger.Errorw("failed to apply scheduled plan changes",
			"error", err)
		c.Error(err)
		return
	}

	h.recordFailures("subscription_scheduled_changes", response)
	h.logger.Infow("completed scheduled plan change cron job",
		"processed", response.Processed,
		"failed", response.Failed)
	c.JSON(http.StatusOK, response)
}

// recordFailures leaves a breadcrumb per subscription the batch skipped
func (h *SubscriptionHandler) recordFailures(job string, result *dto.BatchResult) {
	for _, f := range result.Failures {
		h.sentry.AddBreadcrumb("cron."+job, "subscription skipped", map[string]interface{}{
			"subscription_id": f.SubscriptionID,
			"error":           f.Error,
		})
	}
}

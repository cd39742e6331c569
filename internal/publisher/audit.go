package publisher

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexisub/flexisub/internal/cache"
	"github.com/flexisub/flexisub/internal/config"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/pubsub"
	"github.com/flexisub/flexisub/internal/pubsub/router"
	"github.com/flexisub/flexisub/internal/types"
)

const (
	prefixAuditSeen = "audit:v1:"

	// window in which a redelivered event is recognised
	auditDedupWindow = 24 * time.Hour
)

// AuditLogHandler writes every lifecycle event on the topic to the structured log
type AuditLogHandler struct {
	subscriber pubsub.Subscriber
	topic      string
	cache      cache.Cache
	logger     *logger.Logger
}

func NewAuditLogHandler(
	subscriber pubsub.Subscriber,
	cfg *config.Configuration,
	cache cache.Cache,
	logger *logger.Logger,
) *AuditLogHandler {
	return &AuditLogHandler{
		subscriber: subscriber,
		topic:      cfg.PubSub.Topic,
		cache:      cache,
		logger:     logger,
	}
}

// RegisterHandler adds the audit consumer to the router
func (h *AuditLogHandler) RegisterHandler(r *router.Router) {
	r.AddNoPublishHandler(
		"lifecycle_audit_log",
		h.topic,
		h.subscriber,
		h.Handle,
	)
}

func (h *AuditLogHandler) Handle(msg *message.Message) error {
	ctx := msg.Context()

	var cacheKey string
	if key := msg.Metadata.Get(MetadataIdempotencyKey); key != "" {
		cacheKey = cache.GenerateKey(prefixAuditSeen, key)
		if _, seen := h.cache.Get(ctx, cacheKey); seen {
			h.logger.Debugw("skipping redelivered lifecycle event",
				"message_uuid", msg.UUID,
				"idempotency_key", key,
			)
			return nil
		}
	}

	var event types.LifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return err
	}

	h.logger.Infow("subscription lifecycle event",
		"event_id", event.ID,
		"event_name", event.Name,
		"subscription_id", event.SubscriptionID,
		"user_id", event.UserID,
		"plan_id", event.PlanID,
		"status", event.Status,
		"version", event.Version,
		"actor", event.Actor,
		"timestamp", event.Timestamp,
		"data", event.Data,
	)

	if cacheKey != "" {
		h.cache.Set(ctx, cacheKey, true, auditDedupWindow)
	}
	return nil
}

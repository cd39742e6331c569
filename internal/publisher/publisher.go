package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexisub/flexisub/internal/config"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/idempotency"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/pubsub"
	"github.com/flexisub/flexisub/internal/sentry"
	"github.com/flexisub/flexisub/internal/types"
)

// MetadataIdempotencyKey carries the key consumers use to drop redelivered events
const MetadataIdempotencyKey = "idempotency_key"

// LifecyclePublisher publishes subscription lifecycle events
type LifecyclePublisher interface {
	Publish(ctx context.Context, event *types.LifecycleEvent) error
	Close() error
}

type lifecyclePublisher struct {
	pubSub    pubsub.PubSub
	topic     string
	logger    *logger.Logger
	sentry    *sentry.Service
	generator *idempotency.Generator
}

func NewLifecyclePublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
	sentry *sentry.Service,
) LifecyclePublisher {
	return &lifecyclePublisher{
		pubSub:    pubSub,
		topic:     cfg.PubSub.Topic,
		logger:    logger,
		sentry:    sentry,
		generator: idempotency.NewGenerator(),
	}
}

func (p *lifecyclePublisher) Publish(ctx context.Context, event *types.LifecycleEvent) error {
	if event.ID == "" {
		event.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT)
	}

	span, ctx := p.sentry.StartPublishSpan(ctx, p.topic, string(event.Name))
	if span != nil {
		defer span.Finish()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode lifecycle event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	if msg.UUID == "" {
		msg.UUID = watermill.NewUUID()
	}
	msg.Metadata.Set("event_name", string(event.Name))
	msg.Metadata.Set("subscription_id", event.SubscriptionID)
	msg.Metadata.Set(MetadataIdempotencyKey, p.generator.LifecycleEventKey(event.SubscriptionID, event.Version, string(event.Name)))
	if requestID := types.GetRequestID(ctx); requestID != "" {
		msg.Metadata.Set("request_id", requestID)
	}

	p.logger.Debugw("publishing lifecycle event",
		"event_id", event.ID,
		"event_name", event.Name,
		"subscription_id", event.SubscriptionID,
		"topic", p.topic,
	)

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.logger.Errorw("failed to publish lifecycle event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.Name,
			"subscription_id", event.SubscriptionID,
		)
		return ierr.WithError(err).
			WithHint("Failed to publish lifecycle event").
			Mark(ierr.ErrSystem)
	}

	return nil
}

// Close closes the underlying pubsub
func (p *lifecyclePublisher) Close() error {
	return p.pubSub.Close()
}

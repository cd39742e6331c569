package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexisub/flexisub/internal/cache"
	"github.com/flexisub/flexisub/internal/config"
	"github.com/flexisub/flexisub/internal/idempotency"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/pubsub/memory"
	"github.com/flexisub/flexisub/internal/sentry"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecyclePublisher_Publish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.GetDefaultConfig()
	log := logger.NewNopLogger()
	ps := memory.NewPubSub(log)
	pub := NewLifecyclePublisher(ps, cfg, log, sentry.NewSentryService(cfg, log))
	defer pub.Close()

	event := &types.LifecycleEvent{
		Name:           types.EventSubscriptionUpgraded,
		SubscriptionID: "subs_1",
		UserID:         "user_1",
		PlanID:         "plan_2",
		Status:         types.SubscriptionStatusActive,
		Version:        3,
		Actor:          "user_1",
		Timestamp:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(ctx, event))
	assert.NotEmpty(t, event.ID)

	messages, err := ps.Subscribe(ctx, cfg.PubSub.Topic)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, "subscription.upgraded", msg.Metadata.Get("event_name"))
		assert.Equal(t, "subs_1", msg.Metadata.Get("subscription_id"))
		assert.Equal(t,
			idempotency.NewGenerator().LifecycleEventKey("subs_1", 3, "subscription.upgraded"),
			msg.Metadata.Get(MetadataIdempotencyKey),
		)

		var got types.LifecycleEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, event.Name, got.Name)
		assert.Equal(t, 3, got.Version)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lifecycle event")
	}
}

func TestAuditLogHandler_Handle(t *testing.T) {
	cfg := config.GetDefaultConfig()
	log := logger.NewNopLogger()
	h := NewAuditLogHandler(memory.NewPubSub(log), cfg, cache.NewInMemoryCache(cfg, log), log)

	payload, err := json.Marshal(types.LifecycleEvent{
		ID:             "event_1",
		Name:           types.EventSubscriptionCancelled,
		SubscriptionID: "subs_1",
	})
	require.NoError(t, err)

	assert.NoError(t, h.Handle(message.NewMessage("event_1", payload)))
	assert.Error(t, h.Handle(message.NewMessage("bad", []byte("{"))))
}

func TestAuditLogHandler_SkipsRedelivery(t *testing.T) {
	cfg := config.GetDefaultConfig()
	log := logger.NewNopLogger()
	h := NewAuditLogHandler(memory.NewPubSub(log), cfg, cache.NewInMemoryCache(cfg, log), log)

	key := idempotency.NewGenerator().LifecycleEventKey("subs_1", 2, "subscription.paused")

	first := message.NewMessage("event_1", []byte(`{"id":"event_1"}`))
	first.Metadata.Set(MetadataIdempotencyKey, key)
	require.NoError(t, h.Handle(first))

	// a redelivery is acknowledged without decoding the payload again
	again := message.NewMessage("event_1", []byte("{"))
	again.Metadata.Set(MetadataIdempotencyKey, key)
	assert.NoError(t, h.Handle(again))

	// a failed message is not remembered
	other := idempotency.NewGenerator().LifecycleEventKey("subs_1", 3, "subscription.resumed")
	bad := message.NewMessage("event_2", []byte("{"))
	bad.Metadata.Set(MetadataIdempotencyKey, other)
	assert.Error(t, h.Handle(bad))
	assert.Error(t, h.Handle(bad))
}

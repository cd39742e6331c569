package types

import "time"

// LifecycleEventName identifies a subscription lifecycle event published after a committed transition
type LifecycleEventName string

const (
	EventSubscriptionCreated          LifecycleEventName = "subscription.created"
	EventSubscriptionActivated        LifecycleEventName = "subscription.activated"
	EventSubscriptionUpgraded         LifecycleEventName = "subscription.upgraded"
	EventSubscriptionDowngraded       LifecycleEventName = "subscription.downgraded"
	EventSubscriptionDowngradePlanned LifecycleEventName = "subscription.downgrade_scheduled"
	EventSubscriptionPaused           LifecycleEventName = "subscription.paused"
	EventSubscriptionResumed          LifecycleEventName = "subscription.resumed"
	EventSubscriptionRenewed          LifecycleEventName = "subscription.renewed"
	EventSubscriptionCancelled        LifecycleEventName = "subscription.cancelled"
	EventSubscriptionExpired          LifecycleEventName = "subscription.expired"
)

// LifecycleEvent is the payload published on the lifecycle topic after a
// subscription mutation commits
type LifecycleEvent struct {
	ID             string                 `json:"id"`
	Name           LifecycleEventName     `json:"event_name"`
	SubscriptionID string                 `json:"subscription_id"`
	UserID         string                 `json:"user_id"`
	PlanID         string                 `json:"plan_id"`
	Status         SubscriptionStatus     `json:"status"`
	Version        int                    `json:"version"`
	Actor          string                 `json:"actor"`
	Timestamp      time.Time              `json:"timestamp"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

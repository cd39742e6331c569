package testutil

import (
	"context"
	"fmt"

	"github.com/flexisub/flexisub/internal/domain/subscription"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository with the same
// version guard and active uniqueness rule as the postgres table.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStoreWithClone[*subscription.Subscription](cloneSubscription),
	}
}

// cloneSubscription deep copies the nested records that are mutated in place
func cloneSubscription(sub *subscription.Subscription) *subscription.Subscription {
	c := *sub
	c.ServiceHistory = append(subscription.ServiceHistory{}, sub.ServiceHistory...)
	c.PaymentHistory = append(subscription.PaymentHistory{}, sub.PaymentHistory...)
	c.Usage.History = append([]subscription.UsageHistoryEntry{}, sub.Usage.History...)
	if sub.Cancellation != nil {
		cancellation := *sub.Cancellation
		c.Cancellation = &cancellation
	}
	if sub.ScheduledChange != nil {
		change := *sub.ScheduledChange
		c.ScheduledChange = &change
	}
	return &c
}

func subscriptionFilterFn(ctx context.Context, sub *subscription.Subscription, filter interface{}) bool {
	if sub == nil {
		return false
	}

	f, ok := filter.(*types.SubscriptionFilter)
	if !ok || f == nil {
		return true
	}

	if f.UserID != "" && sub.UserID != f.UserID {
		return false
	}

	if f.PlanID != "" && sub.PlanID != f.PlanID {
		return false
	}

	if f.Status != "" && sub.Status != f.Status {
		return false
	}

	if f.EndBefore != nil && !sub.EndDate.Before(*f.EndBefore) {
		return false
	}

	if f.WithScheduledChange && sub.ScheduledChange == nil {
		return false
	}

	return true
}

func subscriptionSortFn(i, j *subscription.Subscription) bool {
	if i == nil || j == nil {
		return false
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return fmt.Errorf("subscription cannot be nil")
	}

	if sub.Status == types.SubscriptionStatusActive && s.hasOtherActive(ctx, sub) {
		return duplicateActiveError(sub)
	}

	if sub.Version == 0 {
		sub.Version = 1
	}
	return s.InMemoryStore.Create(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return fmt.Errorf("subscription cannot be nil")
	}

	if sub.Status == types.SubscriptionStatusActive && s.hasOtherActive(ctx, sub) {
		return duplicateActiveError(sub)
	}

	expected := sub.Version
	sub.Version++
	err := s.InMemoryStore.Update(ctx, sub.ID, sub, func(stored *subscription.Subscription) error {
		if stored.Version != expected {
			return ierr.NewError("subscription was modified concurrently").
				WithHint("Subscription was modified by another request, please retry").
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
					"version":         expected,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		return nil
	})
	if err != nil {
		sub.Version = expected
		return err
	}
	return nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn)
}

func (s *InMemorySubscriptionStore) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, subscriptionFilterFn)
}

// Clear clears the subscription store
func (s *InMemorySubscriptionStore) Clear() {
	s.InMemoryStore.Clear()
}

func (s *InMemorySubscriptionStore) hasOtherActive(ctx context.Context, sub *subscription.Subscription) bool {
	active, _ := s.InMemoryStore.List(ctx, nil, func(ctx context.Context, other *subscription.Subscription, _ interface{}) bool {
		return other.ID != sub.ID &&
			other.UserID == sub.UserID &&
			other.PlanID == sub.PlanID &&
			other.Status == types.SubscriptionStatusActive
	}, nil)
	return len(active) > 0
}

func duplicateActiveError(sub *subscription.Subscription) error {
	return ierr.NewError("duplicate active subscription").
		WithHint("User already has an active subscription for this plan").
		WithReportableDetails(map[string]any{
			"user_id": sub.UserID,
			"plan_id": sub.PlanID,
		}).
		Mark(ierr.ErrConflict)
}

package testutil

import (
	"context"
	"sync"

	"github.com/flexisub/flexisub/internal/publisher"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/samber/lo"
)

// InMemoryLifecyclePublisher records published lifecycle events for assertions
type InMemoryLifecyclePublisher struct {
	mu     sync.RWMutex
	events []*types.LifecycleEvent

	// Err is returned from Publish when set
	Err error
}

var _ publisher.LifecyclePublisher = (*InMemoryLifecyclePublisher)(nil)

func NewInMemoryLifecyclePublisher() *InMemoryLifecyclePublisher {
	return &InMemoryLifecyclePublisher{
		events: make([]*types.LifecycleEvent, 0),
	}
}

func (p *InMemoryLifecyclePublisher) Publish(ctx context.Context, event *types.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryLifecyclePublisher) Close() error {
	return nil
}

// GetEvents returns all published events
func (p *InMemoryLifecyclePublisher) GetEvents() []*types.LifecycleEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	events := make([]*types.LifecycleEvent, len(p.events))
	copy(events, p.events)
	return events
}

// EventNames returns the names of all published events in order
func (p *InMemoryLifecyclePublisher) EventNames() []types.LifecycleEventName {
	return lo.Map(p.GetEvents(), func(e *types.LifecycleEvent, _ int) types.LifecycleEventName {
		return e.Name
	})
}

// Clear removes all published events
func (p *InMemoryLifecyclePublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make([]*types.LifecycleEvent, 0)
	p.Err = nil
}

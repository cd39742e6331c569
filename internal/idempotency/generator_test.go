package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	g := NewGenerator()

	a := g.GenerateKey(ScopeLifecycleEvent, map[string]interface{}{"a": 1, "b": "x"})
	b := g.GenerateKey(ScopeLifecycleEvent, map[string]interface{}{"b": "x", "a": 1})
	assert.Equal(t, a, b)
	assert.Contains(t, a, "lifecycle_event-")
	assert.True(t, g.ValidateKey(ScopeLifecycleEvent, map[string]interface{}{"a": 1, "b": "x"}, a))
	assert.False(t, g.ValidateKey(ScopeLifecycleEvent, map[string]interface{}{"a": 2, "b": "x"}, a))
}

func TestLifecycleEventKey(t *testing.T) {
	g := NewGenerator()

	key := g.LifecycleEventKey("subs_1", 4, "subscription.renewed")
	assert.Equal(t, key, g.LifecycleEventKey("subs_1", 4, "subscription.renewed"))
	assert.NotEqual(t, key, g.LifecycleEventKey("subs_1", 5, "subscription.renewed"))
	assert.NotEqual(t, key, g.LifecycleEventKey("subs_2", 4, "subscription.renewed"))
}

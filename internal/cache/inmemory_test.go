package cache

import (
	"context"
	"testing"
	"time"

	"github.com/flexisub/flexisub/internal/config"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	c := NewInMemoryCache(cfg, logger.NewNopLogger())

	key := GenerateKey(PrefixPlan, "plan_1")
	assert.Equal(t, "plan:v1::plan_1", key)

	c.Set(ctx, key, "fiber", 0)
	c.Set(ctx, GenerateKey(PrefixPlan, "plan_2"), "copper", time.Minute)
	c.Set(ctx, GenerateKey(PrefixUser, "user_1"), "alice", time.Minute)

	v, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "fiber", v)

	c.DeleteByPrefix(ctx, PrefixPlan)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixUser, "user_1"))
	assert.True(t, ok)

	c.Flush(ctx)
	_, ok = c.Get(ctx, GenerateKey(PrefixUser, "user_1"))
	assert.False(t, ok)
}

func TestInMemoryCache_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg, logger.NewNopLogger())

	c.Set(ctx, "k", "v", time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

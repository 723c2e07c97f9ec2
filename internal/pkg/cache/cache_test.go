package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "stats:1", 42, time.Minute)
	v, ok := c.Get(ctx, "stats:1")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "stats:1")
	assert.False(t, ok)

	stale, ok := c.GetStale(ctx, "stats:1")
	assert.True(t, ok)
	assert.Equal(t, 42, stale)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 0, c.Len())
}

func TestMemory_InvalidateTag(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "dash:vol:1", "a", time.Hour, VolunteerTag(1), CatalogTag)
	c.Set(ctx, "dash:vol:2", "b", time.Hour, VolunteerTag(2))
	c.Set(ctx, "recs:1", "c", time.Hour, CatalogTag)

	c.InvalidateTag(ctx, CatalogTag)

	_, ok := c.Get(ctx, "dash:vol:1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "recs:1")
	assert.False(t, ok)
	v, ok := c.Get(ctx, "dash:vol:2")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestMemory_OverwriteDropsOldTags(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "k", 1, time.Hour, "old")
	c.Set(ctx, "k", 2, time.Hour, "new")
	c.InvalidateTag(ctx, "old")

	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag := EventTag(int64(i % 3))
			c.Set(ctx, tag+":k", i, time.Minute, tag)
			c.Get(ctx, tag+":k")
			c.InvalidateTag(ctx, tag)
		}(i)
	}
	wg.Wait()
}

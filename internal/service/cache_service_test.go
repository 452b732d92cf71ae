package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyFillsEmptyParts(t *testing.T) {
	assert.Equal(t, "eduvita:timetables:list:_:1:20", CacheKey(cacheNSTimetables, "list", "", "1", "20"))
}

func TestCacheServiceRoundTripAndInvalidate(t *testing.T) {
	repo := newMemCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	var out map[string]int
	assert.False(t, svc.Get(ctx, "eduvita:dashboard:admin", &out))

	svc.Set(ctx, "eduvita:dashboard:admin", map[string]int{"users": 3}, 0)
	require.True(t, svc.Get(ctx, "eduvita:dashboard:admin", &out))
	assert.Equal(t, 3, out["users"])

	svc.Invalidate(ctx, cacheNSDashboard)
	assert.Equal(t, []string{"eduvita:dashboard:*"}, repo.deleted)
	assert.False(t, svc.Get(ctx, "eduvita:dashboard:admin", &out))
}

func TestCacheServiceFailsOpen(t *testing.T) {
	repo := newMemCache()
	repo.failGet = true
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out string
	assert.False(t, svc.Get(context.Background(), "k", &out))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	svc.Set(context.Background(), "k", "v", time.Minute)
	assert.Empty(t, repo.items)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	nilSvc.Invalidate(context.Background(), cacheNSDashboard)
}

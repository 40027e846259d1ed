package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/models"
	appErrors "github.com/noah-isme/scholarship-api/pkg/errors"
)

type memoryCacheRepo struct {
	data     map[string][]byte
	ttls     map[string]time.Duration
	patterns []string
	getErr   error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	var out models.Scholarship
	assert.False(t, cache.Get(ctx, "scholarships:sch-1", &out))

	cache.Set(ctx, "scholarships:sch-1", academicScholarship("sch-1", 5, 1), 0)
	assert.Equal(t, 10*time.Minute, repo.ttls["scholarships:sch-1"])
	require.True(t, cache.Get(ctx, "scholarships:sch-1", &out))
	assert.Equal(t, 5, out.Slots)

	cache.Invalidate(ctx, []string{"scholarships:sch-1"}, "scholarships:list:*")
	assert.False(t, cache.Get(ctx, "scholarships:sch-1", &out))
	assert.Equal(t, []string{"scholarships:list:*"}, repo.patterns)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(2), snapshot.CacheMisses)
	assert.InDelta(t, 1.0/3.0, snapshot.CacheHitRatio, 0.0001)
}

func TestCacheServiceDisabledOrFailing(t *testing.T) {
	repo := newMemoryCacheRepo()
	disabled := NewCacheService(repo, nil, time.Minute, nil, false)
	disabled.Set(context.Background(), "k", 1, 0)
	assert.Empty(t, repo.data)
	assert.False(t, disabled.Enabled())

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())

	repo.getErr = errors.New("connection refused")
	failing := NewCacheService(repo, nil, time.Minute, nil, true)
	var out int
	assert.False(t, failing.Get(context.Background(), "k", &out))
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sports-club-api/pkg/errors"
	"github.com/noah-isme/sports-club-api/pkg/jobs"
)

type stubCacheRepo struct {
	mu       sync.Mutex
	values   map[string][]byte
	deleted  []string
	patterns []string
	failGet  error
	failDel  int
	ttls     map[string]time.Duration
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return s.failGet
	}
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	s.ttls[key] = ttl
	return nil
}

func (s *stubCacheRepo) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDel > 0 {
		s.failDel--
		return errors.New("redis: connection reset")
	}
	for _, key := range keys {
		delete(s.values, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			delete(s.values, key)
		}
	}
	return nil
}

func (s *stubCacheRepo) snapshot() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...), append([]string(nil), s.patterns...)
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newStubCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out map[string]int
	hit, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "k", map[string]int{"a": 1}, 0))
	assert.Equal(t, time.Minute, repo.ttls["k"])

	hit, err = cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, out["a"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))

	repo.failGet = errors.New("connection refused")
	hit, err = cache.Get(ctx, "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newStubCacheRepo()
	ctx := context.Background()

	for _, cache := range []*CacheService{NewCacheService(repo, nil, 0, nil, false), nil} {
		assert.False(t, cache.Enabled())
		require.NoError(t, cache.Set(ctx, "k", 1, 0))
		var out int
		hit, err := cache.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.False(t, hit)
		require.NoError(t, cache.Delete(ctx, "k"))
		require.NoError(t, cache.Invalidate(ctx, "*"))
	}
	assert.Empty(t, repo.values)
}

func TestCacheInvalidatorEvictsBeforeReturning(t *testing.T) {
	repo := newStubCacheRepo()
	repo.values[attendanceSummaryKey("stu-1")] = []byte(`{}`)
	repo.values[attendanceSummaryKey("stu-2")] = []byte(`{}`)
	repo.values[debtDetailsKey("stu-1")] = []byte(`{}`)
	metrics := NewMetricsService()
	inv := NewCacheInvalidator(NewCacheService(repo, nil, 0, nil, true), metrics, jobs.QueueConfig{Workers: 1})
	inv.Start(context.Background())
	defer inv.Stop()

	inv.Invalidate(context.Background(), debtDetailsKey("stu-1"))
	inv.InvalidatePattern(context.Background(), attendanceSummaryKeyPrefix+"*")

	deleted, patterns := repo.snapshot()
	assert.Equal(t, []string{debtDetailsKey("stu-1")}, deleted)
	assert.Equal(t, []string{attendanceSummaryKeyPrefix + "*"}, patterns)
	assert.Empty(t, repo.values)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.invalidations.WithLabelValues("done")))
	assert.Zero(t, testutil.ToFloat64(metrics.invalidations.WithLabelValues("retry_queued")))
}

func TestCacheInvalidatorRetriesFailedEviction(t *testing.T) {
	repo := newStubCacheRepo()
	repo.values[debtDetailsKey("stu-1")] = []byte(`{}`)
	repo.failDel = 1
	metrics := NewMetricsService()
	inv := NewCacheInvalidator(NewCacheService(repo, nil, 0, nil, true), metrics,
		jobs.QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	inv.Start(context.Background())
	defer inv.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv.Invalidate(ctx, debtDetailsKey("stu-1"))

	require.Eventually(t, func() bool {
		deleted, _ := repo.snapshot()
		return len(deleted) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.invalidations.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.invalidations.WithLabelValues("retry_queued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.invalidations.WithLabelValues("done")))
}

func TestCacheInvalidatorDropsWhenQueueStopped(t *testing.T) {
	repo := newStubCacheRepo()
	repo.values[debtDetailsKey("stu-1")] = []byte(`{}`)
	repo.failDel = 1
	metrics := NewMetricsService()
	inv := NewCacheInvalidator(NewCacheService(repo, nil, 0, nil, true), metrics, jobs.QueueConfig{})

	inv.Invalidate(context.Background(), debtDetailsKey("stu-1"))

	assert.Contains(t, repo.values, debtDetailsKey("stu-1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.invalidations.WithLabelValues("dropped")))

	var nilInvalidator *CacheInvalidator
	nilInvalidator.Invalidate(context.Background(), "ignored")
	nilInvalidator.InvalidatePattern(context.Background(), "ignored*")
}

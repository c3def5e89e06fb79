package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noah-isme/sports-club-api/pkg/jobs"
)

const (
	jobInvalidateKeys    = "invalidate_keys"
	jobInvalidatePattern = "invalidate_pattern"
)

type cacheEvictor interface {
	Delete(ctx context.Context, keys ...string) error
	Invalidate(ctx context.Context, pattern string) error
}

// CacheInvalidator evicts cached aggregates on the request path so the next read sees the write.
// An eviction that fails is handed to the queue and retried there.
type CacheInvalidator struct {
	cache   cacheEvictor
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	seq     uint64
}

// NewCacheInvalidator builds an invalidator backed by a worker queue.
func NewCacheInvalidator(cache cacheEvictor, metrics *MetricsService, cfg jobs.QueueConfig) *CacheInvalidator {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	inv := &CacheInvalidator{cache: cache, metrics: metrics, logger: cfg.Logger}
	inv.queue = jobs.NewQueue("cache-invalidation", inv.handle, cfg)
	return inv
}

// Start launches the workers.
func (i *CacheInvalidator) Start(ctx context.Context) {
	i.queue.Start(ctx)
}

// Stop stops the workers.
func (i *CacheInvalidator) Stop() {
	i.queue.Stop()
}

// Invalidate removes exact keys.
func (i *CacheInvalidator) Invalidate(ctx context.Context, keys ...string) {
	if i == nil || len(keys) == 0 {
		return
	}
	i.submit(ctx, jobs.Job{Type: jobInvalidateKeys, Payload: keys})
}

// InvalidatePattern removes every key matching pattern.
func (i *CacheInvalidator) InvalidatePattern(ctx context.Context, pattern string) {
	if i == nil || pattern == "" {
		return
	}
	i.submit(ctx, jobs.Job{Type: jobInvalidatePattern, Payload: pattern})
}

func (i *CacheInvalidator) submit(ctx context.Context, job jobs.Job) {
	job.ID = fmt.Sprintf("inv-%d", atomic.AddUint64(&i.seq, 1))
	err := i.handle(context.WithoutCancel(ctx), job)
	if err == nil {
		return
	}
	job.Attempt = 1
	if qErr := i.queue.Enqueue(job); qErr != nil {
		i.metrics.RecordInvalidation("dropped")
		i.logger.Error("invalidation failed and could not be queued for retry",
			zap.String("type", job.Type), zap.NamedError("evict_error", err), zap.Error(qErr))
		return
	}
	i.metrics.RecordInvalidation("retry_queued")
	i.logger.Warn("invalidation failed, queued for retry", zap.String("type", job.Type), zap.Error(err))
}

func (i *CacheInvalidator) handle(ctx context.Context, job jobs.Job) error {
	var err error
	switch job.Type {
	case jobInvalidateKeys:
		keys, _ := job.Payload.([]string)
		err = i.cache.Delete(ctx, keys...)
	case jobInvalidatePattern:
		pattern, _ := job.Payload.(string)
		err = i.cache.Invalidate(ctx, pattern)
	default:
		return fmt.Errorf("unknown invalidation job %q", job.Type)
	}
	if err != nil {
		i.metrics.RecordInvalidation("failed")
		return err
	}
	i.metrics.RecordInvalidation("done")
	return nil
}

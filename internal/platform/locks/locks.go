// Package locks provides scoped mutual exclusion for governance operations.
//
// Certificate mutations (mint, revoke, transfer, renewal application) and
// multi-signature execution must not interleave for the same certificate.
// A Guard hands out per-key locks: callers acquire before the critical
// section and release when done. The key is the certificate ID, so
// unrelated certificates proceed concurrently.
package locks

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"laurel/internal/sentinel"
	platformsync "laurel/pkg/platform/sync"
)

// Shard contention metrics for monitoring guard behavior under load.
var (
	guardLockWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "laurel_guard_lock_wait_seconds",
		Help:    "Time spent waiting to acquire the guard's shard lock",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	guardConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laurel_guard_conflicts_total",
		Help: "Total number of acquisitions refused because the key was held",
	})
)

// Guard provides per-key mutual exclusion.
// Acquire returns a release function on success, or sentinel.ErrLocked when
// the key is already held. Callers must invoke release exactly once.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryGuard is an in-process Guard backed by a sharded lock table, so
// acquisitions for unrelated keys rarely contend on the same mutex.
// Suitable for single-instance deployments and tests.
type MemoryGuard struct {
	mu   *platformsync.ShardedMutex
	held sync.Map
}

// NewMemoryGuard creates an empty in-process guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{mu: platformsync.NewShardedMutex()}
}

// Acquire takes the lock for key, failing fast if it is already held.
// The guard does not queue waiters: re-entrant or concurrent attempts on the
// same key are governance conflicts, not contention to be waited out.
func (g *MemoryGuard) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lockStart := time.Now()
	g.mu.Lock(key)
	guardLockWaitDuration.Observe(time.Since(lockStart).Seconds())
	defer g.mu.Unlock(key)

	if _, exists := g.held.Load(key); exists {
		guardConflicts.Inc()
		return nil, sentinel.ErrLocked
	}
	g.held.Store(key, struct{}{})

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock(key)
			g.held.Delete(key)
			g.mu.Unlock(key)
		})
	}
	return release, nil
}

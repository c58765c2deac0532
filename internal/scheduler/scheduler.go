// Package scheduler keeps the snapshot cache fresh by scanning once at
// startup and then on a fixed interval. Scans never overlap.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pranshuparmar/portman/internal/metrics"
	"github.com/pranshuparmar/portman/internal/scan"
	"github.com/pranshuparmar/portman/internal/snapshot"
)

const DefaultInterval = 5 * time.Second

type Scheduler struct {
	strategy scan.Strategy
	cache    *snapshot.Cache
	interval time.Duration
	logger   *zap.Logger

	// held for the duration of a scan
	mu sync.Mutex
}

func New(strategy scan.Strategy, cache *snapshot.Cache, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		strategy: strategy,
		cache:    cache,
		interval: interval,
		logger:   logger.Named("scheduler"),
	}
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

// Run scans immediately and then on every tick until ctx is cancelled.
// A tick that fires while a scan is in progress is dropped.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Trigger(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.TryScan(ctx)
		}
	}
}

// Trigger runs a scan now, waiting behind any scan already in progress,
// and returns the snapshot it published.
func (s *Scheduler) Trigger(ctx context.Context) *snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanLocked(ctx)
}

// TryScan scans unless another scan holds the lock. It reports whether a
// scan ran.
func (s *Scheduler) TryScan(ctx context.Context) bool {
	if !s.mu.TryLock() {
		metrics.IncScanSkipped()
		s.logger.Debug("scan still running, skipping tick")
		return false
	}
	defer s.mu.Unlock()
	s.scanLocked(ctx)
	return true
}

func (s *Scheduler) scanLocked(ctx context.Context) *snapshot.Snapshot {
	start := time.Now()
	// In-flight scans run to completion; each command is still bounded by
	// the executor timeout.
	records := s.strategy.Scan(context.WithoutCancel(ctx))
	snap := s.cache.Replace(records)
	elapsed := time.Since(start)

	metrics.ObserveScan(elapsed, s.cache.Statistics())
	s.logger.Debug("scan complete",
		zap.Int("ports", snap.Len()),
		zap.Duration("elapsed", elapsed),
		zap.String("snapshot", snap.ID.String()))
	return snap
}

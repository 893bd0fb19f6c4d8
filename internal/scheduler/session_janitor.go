package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/hub/internal/logger"
)

const (
	// DefaultSessionIdle is how long an unused session stays in memory
	DefaultSessionIdle = 30 * time.Minute
)

// Sessions is the part of the session registry the janitor drives.
type Sessions interface {
	EvictIdle(ctx context.Context, idle time.Duration) int
	Flush(ctx context.Context) error
	Len() int
}

// IndexPruner is implemented by snapshot stores that keep a secondary index
// of sessions which can go stale when snapshots expire.
type IndexPruner interface {
	PruneIndex(ctx context.Context) (int, error)
}

// SessionJanitor periodically drops idle sessions from memory, after making
// sure their last changes are stored.
type SessionJanitor struct {
	sessions Sessions
	pruner   IndexPruner // nil when the store has nothing to prune
	logger   logger.Logger
	interval time.Duration
	idle     time.Duration
	stopCh   chan struct{}
}

// NewSessionJanitor creates a new janitor. pruner may be nil.
func NewSessionJanitor(
	sessions Sessions,
	pruner IndexPruner,
	log logger.Logger,
	interval time.Duration,
	idle time.Duration,
) *SessionJanitor {
	if idle == 0 {
		idle = DefaultSessionIdle
	}

	return &SessionJanitor{
		sessions: sessions,
		pruner:   pruner,
		logger:   log.Named("janitor"),
		interval: interval,
		idle:     idle,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (j *SessionJanitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := j.Sweep(ctx); err != nil {
					j.logger.Error("session sweep failed",
						logger.Error(err))
				}
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the janitor
func (j *SessionJanitor) Stop() {
	close(j.stopCh)
}

// Sweep flushes pending writes, evicts idle sessions and prunes the store's
// session index.
func (j *SessionJanitor) Sweep(ctx context.Context) error {
	if err := j.sessions.Flush(ctx); err != nil {
		// Sessions that failed to flush are kept by EvictIdle.
		j.logger.Warn("failed to flush sessions before eviction",
			logger.Error(err))
	}

	evicted := j.sessions.EvictIdle(ctx, j.idle)

	pruned := 0
	if j.pruner != nil {
		n, err := j.pruner.PruneIndex(ctx)
		if err != nil {
			return fmt.Errorf("failed to prune session index: %w", err)
		}
		pruned = n
	}

	if evicted > 0 || pruned > 0 {
		j.logger.Info("session sweep completed",
			logger.Int("evicted", evicted),
			logger.Int("pruned", pruned),
			logger.Int("remaining", j.sessions.Len()))
	} else {
		j.logger.Debug("no sessions to sweep")
	}

	return nil
}

// Package resync pushes event changes to connected Google calendars in
// the background. Feeds are pull-based and always current, but a remote
// Google calendar only changes when this worker (or the connect flow)
// pushes to it.
package resync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hotrph/calsync/internal/model"
	"github.com/hotrph/calsync/internal/repository"
)

// SubscriberSyncer runs one subscriber's sync. The connect flow and this
// worker share the implementation.
type SubscriberSyncer interface {
	// SyncSubscriber pushes the subscriber's targeted events into their
	// connected Google calendar and returns the number pushed.
	SyncSubscriber(ctx context.Context, sub *model.Subscriber) (int, error)
}

// Scheduler periodically re-syncs every Google-connected subscriber. A
// semaphore caps the number of concurrent syncs; failing subscribers are
// retried with exponential backoff.
type Scheduler struct {
	subscribers    repository.SubscriberRepository
	syncer         SubscriberSyncer
	logger         *slog.Logger
	maxConcurrency int
	backoff        *backoffState

	now func() time.Time
}

// NewScheduler creates a Scheduler. maxConcurrency values of zero or
// less fall back to 10.
func NewScheduler(
	subscribers repository.SubscriberRepository,
	syncer SubscriberSyncer,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		subscribers:    subscribers,
		syncer:         syncer,
		logger:         logger,
		maxConcurrency: maxConcurrency,
		backoff:        newBackoffState(),
		now:            time.Now,
	}
}

// Start runs the scheduler on the given interval until the context is
// cancelled. One cycle runs immediately at startup.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("resync scheduler started",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("resync cycle failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("resync scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("resync cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce lists the connected subscribers and syncs the ones that are
// due, bounded by the semaphore.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := s.now()

	subs, err := s.subscribers.ListGoogleConnected(ctx)
	if err != nil {
		return err
	}

	if len(subs) == 0 {
		s.logger.Info("no google-connected subscribers to sync")
		return nil
	}

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup
	var synced, skipped int
	var mu sync.Mutex

	for _, sub := range subs {
		if !s.backoff.ShouldAttempt(sub.ID, s.now()) {
			skipped++
			continue
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(sub *model.Subscriber) {
			defer wg.Done()
			defer func() { <-sem }()

			count, err := s.syncer.SyncSubscriber(ctx, sub)
			if err != nil {
				s.backoff.RecordFailure(sub.ID, s.now())
				s.logger.Error("subscriber resync failed",
					slog.String("subscriber_id", sub.ID),
					slog.String("error", err.Error()),
				)
				return
			}

			s.backoff.RecordSuccess(sub.ID)
			mu.Lock()
			synced += count
			mu.Unlock()
		}(sub)
	}

	wg.Wait()

	s.logger.Info("resync cycle completed",
		slog.Int("subscriber_count", len(subs)),
		slog.Int("skipped", skipped),
		slog.Int("events_synced", synced),
		slog.Float64("duration_ms", float64(s.now().Sub(start).Milliseconds())),
	)

	return nil
}

package googlesync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hotrph/calsync/internal/model"
	"github.com/hotrph/calsync/internal/repository"
	"github.com/hotrph/calsync/internal/targeting"
)

// TokenStore persists a subscriber's provider state. The subscriber
// service satisfies it.
type TokenStore interface {
	SaveGoogleSync(ctx context.Context, subscriberID string, sync model.GoogleSync) error
}

// Syncer runs one subscriber's full sync: it builds an authenticated
// client from the stored tokens, provisions the remote calendar once,
// and pushes the subscriber's matching events. The OAuth connect flow
// uses it for the initial sync and the background worker for every
// later one.
type Syncer struct {
	factory *ClientFactory
	events  repository.EventRepository
	store   TokenStore
	metrics SyncRecorder
	logger  *slog.Logger

	now func() time.Time
}

// NewSyncer creates a Syncer. metrics may be nil.
func NewSyncer(
	factory *ClientFactory,
	events repository.EventRepository,
	store TokenStore,
	metrics SyncRecorder,
	logger *slog.Logger,
) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		factory: factory,
		events:  events,
		store:   store,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// SyncSubscriber pushes the subscriber's targeted events into their
// connected Google calendar. The remote calendar is provisioned on first
// use and its id persisted; refreshed tokens are persisted as they are
// minted so the stored state never lags behind the live session.
func (s *Syncer) SyncSubscriber(ctx context.Context, sub *model.Subscriber) (int, error) {
	state := sub.Google
	if state.AccessToken == "" {
		return 0, model.NewGoogleAuthFailedError("subscriber has no stored google tokens")
	}

	persist := func(updated model.GoogleSync) error {
		updated.CalendarID = state.CalendarID
		state = updated
		return s.store.SaveGoogleSync(ctx, sub.ID, updated)
	}

	client, refresher := s.factory.HTTPClient(state, persist)

	api, err := NewCalendarAPI(ctx, client)
	if err != nil {
		return 0, fmt.Errorf("failed to build calendar client: %w", err)
	}

	engine := NewEngine(api, refresher, s.metrics, s.logger)

	calendarID := state.CalendarID
	if calendarID == "" {
		calendarID, err = engine.EnsureCalendar(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to provision google calendar: %w", err)
		}
		state.CalendarID = calendarID
		if err := s.store.SaveGoogleSync(ctx, sub.ID, state); err != nil {
			return 0, fmt.Errorf("failed to persist google calendar id: %w", err)
		}
	}

	events, err := s.events.ListActiveByCalendarID(ctx, sub.CalendarID)
	if err != nil {
		return 0, fmt.Errorf("failed to load events: %w", err)
	}

	matched := targeting.Filter(sub, events, s.now())

	count, err := engine.SyncAll(ctx, calendarID, matched)
	if err != nil {
		return count, fmt.Errorf("failed to sync events: %w", err)
	}
	return count, nil
}

package googlesync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/hotrph/calsync/internal/ics"
	"github.com/hotrph/calsync/internal/model"
)

const (
	// Display name of the provisioned secondary calendar. Provisioning
	// matches on this exact name, so it must stay stable.
	syncCalendarName        = "HOTR Port Harcourt"
	syncCalendarDescription = "House on the Rock Port Harcourt - Church Events Calendar"
	syncCalendarTimezone    = "Africa/Lagos"

	calendarBackgroundColor = "#D4A853"
	calendarForegroundColor = "#000000"
)

// TokenRefresher obtains a fresh access token; see Refresher.
type TokenRefresher interface {
	Refresh(ctx context.Context) error
}

// SyncRecorder receives sync outcome metrics.
type SyncRecorder interface {
	RecordSyncSuccess()
	RecordSyncFailure()
	RecordEventsSynced(count int)
}

// Engine drives one subscriber's Google Calendar sync: idempotent
// provisioning of the secondary calendar and update-then-create upserts
// of individual events. Operations that fail with a rejected credential
// are retried exactly once after a token refresh.
type Engine struct {
	api       CalendarAPI
	refresher TokenRefresher
	metrics   SyncRecorder
	logger    *slog.Logger
}

// NewEngine builds an Engine. refresher and metrics may be nil.
func NewEngine(api CalendarAPI, refresher TokenRefresher, metrics SyncRecorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{api: api, refresher: refresher, metrics: metrics, logger: logger}
}

// withAuthRetry runs op, refreshing the token and retrying exactly once
// when the provider rejects the credential. A failed refresh is a hard
// authentication failure; there is no second retry.
func (e *Engine) withAuthRetry(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || !isAuthError(err) || e.refresher == nil {
		return err
	}

	if rerr := e.refresher.Refresh(ctx); rerr != nil {
		return fmt.Errorf("authentication failed and token refresh did not recover: %w", rerr)
	}

	return op()
}

// EnsureCalendar finds or creates the dedicated secondary calendar and
// returns its id. A calendar whose display name matches exactly is
// reused, so repeating this on every OAuth completion never creates a
// duplicate. Newly created calendars get the house colours.
func (e *Engine) EnsureCalendar(ctx context.Context) (string, error) {
	var calendarID string

	err := e.withAuthRetry(ctx, func() error {
		existing, err := e.api.ListCalendars(ctx)
		if err != nil {
			return err
		}
		for _, info := range existing {
			if info.Summary == syncCalendarName {
				calendarID = info.ID
				return nil
			}
		}

		created, err := e.api.CreateCalendar(ctx, syncCalendarName, syncCalendarDescription, syncCalendarTimezone)
		if err != nil {
			return err
		}

		if err := e.api.PatchCalendarColors(ctx, created, calendarBackgroundColor, calendarForegroundColor); err != nil {
			// The calendar exists and is usable; colours are cosmetic.
			e.logger.Warn("failed to set calendar colors",
				slog.String("calendar_id", created),
				slog.String("error", err.Error()),
			)
		}

		calendarID = created
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to provision sync calendar: %w", err)
	}

	return calendarID, nil
}

// UpsertEvent pushes one event into the remote calendar. Update by id is
// attempted first; only when the remote reports the id unknown does the
// engine fall back to create-with-that-id. The order is what makes
/// re-running a sync safe: at most one remote event per local event.
func (e *Engine) UpsertEvent(ctx context.Context, calendarID string, event *model.Event) error {
	remoteID := RemoteEventID(event.ID)
	remote := toRemoteEvent(event)

	return e.withAuthRetry(ctx, func() error {
		err := e.api.UpdateEvent(ctx, calendarID, remoteID, remote)
		if err == nil {
			return nil
		}
		if !isNotFound(err) {
			return err
		}

		remote.Id = remoteID
		return e.api.InsertEvent(ctx, calendarID, remote)
	})
}

// DeleteEvent removes the remote counterpart of a local event. Deleting
// something already gone is success, not an error.
func (e *Engine) DeleteEvent(ctx context.Context, calendarID, localEventID string) error {
	remoteID := RemoteEventID(localEventID)

	return e.withAuthRetry(ctx, func() error {
		err := e.api.DeleteEvent(ctx, calendarID, remoteID)
		if err != nil && !isNotFound(err) {
			return err
		}
		return nil
	})
}

// SyncAll upserts every event sequentially, one round-trip at a time to
// stay under provider rate limits, and returns how many were pushed.
// The first failure aborts the run; a partial sync is recoverable since
// the next run's upserts are idempotent.
func (e *Engine) SyncAll(ctx context.Context, calendarID string, events []*model.Event) (int, error) {
	synced := 0
	for _, event := range events {
		if err := e.UpsertEvent(ctx, calendarID, event); err != nil {
			if e.metrics != nil {
				e.metrics.RecordSyncFailure()
			}
			return synced, fmt.Errorf("failed to sync event %s: %w", event.ID, err)
		}
		synced++
	}

	if e.metrics != nil {
		e.metrics.RecordSyncSuccess()
		e.metrics.RecordEventsSynced(synced)
	}

	e.logger.Info("google calendar sync completed",
		slog.String("calendar_id", calendarID),
		slog.Int("events_synced", synced),
	)
	return synced, nil
}

// toRemoteEvent maps a local event onto the provider representation. The
// same informational footer attached to ICS feeds is appended here so
// synced events match what polling subscribers see.
func toRemoteEvent(event *model.Event) *calendar.Event {
	timezone := event.Timezone
	if timezone == "" {
		timezone = syncCalendarTimezone
	}

	status := "confirmed"
	if event.Status == model.EventStatusCancelled {
		status = "cancelled"
	}

	return &calendar.Event{
		Summary:     event.Title,
		Description: event.Description + ics.DescriptionFooter,
		Location:    event.Location,
		Status:      status,
		Start: &calendar.EventDateTime{
			DateTime: event.StartTime.Format(time.RFC3339),
			TimeZone: timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.EndTime.Format(time.RFC3339),
			TimeZone: timezone,
		},
	}
}

// Package repository defines the data persistence interfaces.
package repository

import (
	"context"

	"github.com/hotrph/calsync/internal/model"
)

// CalendarRepository persists published calendars.
type CalendarRepository interface {
	// FindByID fetches the calendar with the given id. Returns nil when
	// not found.
	FindByID(ctx context.Context, id string) (*model.Calendar, error)

	// FindBySlug fetches the calendar with the given URL slug. Returns
	// nil when not found.
	FindBySlug(ctx context.Context, slug string) (*model.Calendar, error)

	// List returns all calendars ordered by name.
	List(ctx context.Context) ([]*model.Calendar, error)

	// Create inserts a new calendar.
	Create(ctx context.Context, cal *model.Calendar) error

	// Update overwrites an existing calendar.
	Update(ctx context.Context, cal *model.Calendar) error

	// Delete removes the calendar with the given id. Events and
	// subscribers are removed by CASCADE.
	Delete(ctx context.Context, id string) error
}

// EventRepository persists calendar events and their targeting rules.
type EventRepository interface {
	// FindByID fetches the event with the given id. Returns nil when not
	// found.
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// ListByCalendarID returns every event of a calendar, cancelled ones
	// included, ordered by start time ascending.
	ListByCalendarID(ctx context.Context, calendarID string) ([]*model.Event, error)

	// ListActiveByCalendarID returns the non-cancelled events of a
	// calendar ordered by start time ascending. This is the event set
	// feeds and provider sync start from.
	ListActiveByCalendarID(ctx context.Context, calendarID string) ([]*model.Event, error)

	// ListUpcomingByCalendarID returns the next non-cancelled events of a
	// calendar that have not yet started, at most limit of them.
	ListUpcomingByCalendarID(ctx context.Context, calendarID string, limit int) ([]*model.Event, error)

	// Create inserts a new event.
	Create(ctx context.Context, event *model.Event) error

	// Update overwrites an existing event. The stored uid is never
	// changed by an update.
	Update(ctx context.Context, event *model.Event) error

	// Delete removes the event with the given id.
	Delete(ctx context.Context, id string) error
}

// SubscriberRepository persists subscribers and their provider sync state.
type SubscriberRepository interface {
	// FindByID fetches the subscriber with the given id. Returns nil when
	// not found.
	FindByID(ctx context.Context, id string) (*model.Subscriber, error)

	// FindByFeedToken fetches the subscriber holding the given feed
	// token. Returns nil when no subscriber holds it.
	FindByFeedToken(ctx context.Context, token string) (*model.Subscriber, error)

	// FindByEmailAndCalendar fetches the subscriber registered with the
	// given email on a calendar. Returns nil when not found.
	FindByEmailAndCalendar(ctx context.Context, email, calendarID string) (*model.Subscriber, error)

	// ListGoogleConnected returns every subscriber who has completed the
	// Google OAuth flow and still holds an access token.
	ListGoogleConnected(ctx context.Context) ([]*model.Subscriber, error)

	// Create inserts a new subscriber.
	Create(ctx context.Context, sub *model.Subscriber) error

	// Update overwrites an existing subscriber's profile fields. The feed
	// token is never changed by an update.
	Update(ctx context.Context, sub *model.Subscriber) error

	// UpdatePlatform records which calendar client the subscriber uses.
	UpdatePlatform(ctx context.Context, id string, platform model.Platform) error

	// UpdateGoogleSync stores the provider tokens and calendar id
	// obtained from the OAuth flow.
	UpdateGoogleSync(ctx context.Context, id string, sync model.GoogleSync) error
}

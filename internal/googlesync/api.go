package googlesync

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// CalendarInfo is the subset of a calendar-list entry the engine needs.
type CalendarInfo struct {
	ID      string
	Summary string
}

// CalendarAPI is the capability interface over the external provider.
// Any provider implementing these operations satisfies the sync engine;
// tests substitute an in-memory fake.
type CalendarAPI interface {
	// ListCalendars returns the calendars visible in the account.
	ListCalendars(ctx context.Context) ([]CalendarInfo, error)

	// CreateCalendar creates a secondary calendar and returns its id.
	CreateCalendar(ctx context.Context, summary, description, timezone string) (string, error)

	// PatchCalendarColors sets the display colours of a calendar-list
	// entry.
	PatchCalendarColors(ctx context.Context, calendarID, background, foreground string) error

	// UpdateEvent overwrites the remote event with the given id.
	UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) error

	// InsertEvent creates the remote event; event.Id carries the
	// caller-chosen id.
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) error

	// DeleteEvent removes the remote event with the given id.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// googleCalendarAPI implements CalendarAPI on the Google Calendar v3
// service.
type googleCalendarAPI struct {
	service *calendar.Service
}

// NewCalendarAPI builds a CalendarAPI over an authenticated HTTP client
// (see ClientFactory.HTTPClient).
func NewCalendarAPI(ctx context.Context, client *http.Client) (CalendarAPI, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &googleCalendarAPI{service: service}, nil
}

func (g *googleCalendarAPI) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := g.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	infos := make([]CalendarInfo, 0, len(list.Items))
	for _, item := range list.Items {
		infos = append(infos, CalendarInfo{ID: item.Id, Summary: item.Summary})
	}
	return infos, nil
}

func (g *googleCalendarAPI) CreateCalendar(ctx context.Context, summary, description, timezone string) (string, error) {
	created, err := g.service.Calendars.Insert(&calendar.Calendar{
		Summary:     summary,
		Description: description,
		TimeZone:    timezone,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar: %w", err)
	}
	return created.Id, nil
}

func (g *googleCalendarAPI) PatchCalendarColors(ctx context.Context, calendarID, background, foreground string) error {
	_, err := g.service.CalendarList.Patch(calendarID, &calendar.CalendarListEntry{
		BackgroundColor: background,
		ForegroundColor: foreground,
	}).ColorRgbFormat(true).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to patch calendar colors: %w", err)
	}
	return nil
}

func (g *googleCalendarAPI) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) error {
	_, err := g.service.Events.Update(calendarID, eventID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", eventID, err)
	}
	return nil
}

func (g *googleCalendarAPI) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) error {
	_, err := g.service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", event.Id, err)
	}
	return nil
}

func (g *googleCalendarAPI) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := g.service.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}

// isNotFound reports whether err is the provider saying the resource
// does not exist (404) or is already gone (410).
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}

// isAuthError reports whether err is a rejected credential.
func isAuthError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized
	}
	return false
}

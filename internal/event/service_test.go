package event

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hotrph/calsync/internal/model"
)

// --- mocks ---

type mockEventRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Event, error)
	createFn   func(ctx context.Context, event *model.Event) error
	updateFn   func(ctx context.Context, event *model.Event) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockEventRepo) ListByCalendarID(ctx context.Context, calendarID string) ([]*model.Event, error) {
	return nil, nil
}
func (m *mockEventRepo) ListActiveByCalendarID(ctx context.Context, calendarID string) ([]*model.Event, error) {
	return nil, nil
}
func (m *mockEventRepo) ListUpcomingByCalendarID(ctx context.Context, calendarID string, limit int) ([]*model.Event, error) {
	return nil, nil
}
func (m *mockEventRepo) Create(ctx context.Context, event *model.Event) error {
	if m.createFn != nil {
		return m.createFn(ctx, event)
	}
	return nil
}
func (m *mockEventRepo) Update(ctx context.Context, event *model.Event) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, event)
	}
	return nil
}
func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockCalendarRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Calendar, error)
}

func (m *mockCalendarRepo) FindByID(ctx context.Context, id string) (*model.Calendar, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.Calendar{ID: id, Slug: "hotr-port-harcourt"}, nil
}
func (m *mockCalendarRepo) FindBySlug(ctx context.Context, slug string) (*model.Calendar, error) {
	return nil, nil
}
func (m *mockCalendarRepo) List(ctx context.Context) ([]*model.Calendar, error)   { return nil, nil }
func (m *mockCalendarRepo) Create(ctx context.Context, cal *model.Calendar) error { return nil }
func (m *mockCalendarRepo) Update(ctx context.Context, cal *model.Calendar) error { return nil }
func (m *mockCalendarRepo) Delete(ctx context.Context, id string) error           { return nil }

// --- fixtures ---

func validInput() Input {
	start := time.Date(2026, time.April, 5, 8, 0, 0, 0, time.UTC)
	return Input{
		Title:     "Sunday Service",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
}

// --- tests ---

func TestCreate_AssignsStableUID(t *testing.T) {
	var created *model.Event
	repo := &mockEventRepo{
		createFn: func(ctx context.Context, event *model.Event) error {
			created = event
			return nil
		},
	}
	svc := NewService(repo, &mockCalendarRepo{}, nil)

	event, err := svc.Create(context.Background(), "cal-1", validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	wantUID := "event-" + event.ID + "@hotrph.org"
	if event.UID != wantUID {
		t.Errorf("UID = %q, want %q", event.UID, wantUID)
	}
	if created == nil || created.UID != wantUID {
		t.Error("persisted event should carry the derived UID")
	}
	if event.Status != model.EventStatusConfirmed {
		t.Errorf("default status = %q, want confirmed", event.Status)
	}
	if event.Timezone != "Africa/Lagos" {
		t.Errorf("default timezone = %q, want Africa/Lagos", event.Timezone)
	}
}

func TestCreate_StripsMarkupFromText(t *testing.T) {
	var created *model.Event
	repo := &mockEventRepo{
		createFn: func(ctx context.Context, event *model.Event) error {
			created = event
			return nil
		},
	}
	svc := NewService(repo, &mockCalendarRepo{}, nil)

	input := validInput()
	input.Title = "<strong>Sunday Service</strong>"
	input.Description = "<p>Doors open at 9am<script>alert('x')</script></p>"
	input.Location = "<em>Main auditorium</em>"

	_, err := svc.Create(context.Background(), "cal-1", input)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.Title != "Sunday Service" {
		t.Errorf("title = %q, want markup stripped", created.Title)
	}
	if created.Description != "Doors open at 9am" {
		t.Errorf("description = %q, want markup stripped", created.Description)
	}
	if created.Location != "Main auditorium" {
		t.Errorf("location = %q, want markup stripped", created.Location)
	}
}

func TestCreate_RequiresFields(t *testing.T) {
	svc := NewService(&mockEventRepo{}, &mockCalendarRepo{}, nil)

	_, err := svc.Create(context.Background(), "cal-1", Input{})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMissingFields {
		t.Fatalf("expected MISSING_FIELDS error, got %v", err)
	}
	for _, field := range []string{"title", "startTime", "endTime"} {
		if !strings.Contains(apiErr.Message, field) {
			t.Errorf("error should name missing field %q, got %q", field, apiErr.Message)
		}
	}
}

func TestCreate_UnknownCalendar(t *testing.T) {
	calRepo := &mockCalendarRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Calendar, error) {
			return nil, nil
		},
	}
	svc := NewService(&mockEventRepo{}, calRepo, nil)

	_, err := svc.Create(context.Background(), "ghost", validInput())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCalendarNotFound {
		t.Fatalf("expected CALENDAR_NOT_FOUND error, got %v", err)
	}
}

func TestUpdate_PreservesUID(t *testing.T) {
	stored := &model.Event{
		ID:         "ev-1",
		CalendarID: "cal-1",
		UID:        "event-ev-1@hotrph.org",
		Title:      "Old Title",
		StartTime:  time.Date(2026, time.April, 5, 8, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, time.April, 5, 10, 0, 0, 0, time.UTC),
	}
	var updated *model.Event
	repo := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return stored, nil
		},
		updateFn: func(ctx context.Context, event *model.Event) error {
			updated = event
			return nil
		},
	}
	svc := NewService(repo, &mockCalendarRepo{}, nil)

	input := validInput()
	input.Title = "Rescheduled Service"
	input.StartTime = input.StartTime.Add(24 * time.Hour)
	input.EndTime = input.EndTime.Add(24 * time.Hour)

	event, err := svc.Update(context.Background(), "ev-1", input)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if event.UID != "event-ev-1@hotrph.org" {
		t.Errorf("UID changed on update: %q", event.UID)
	}
	if updated.Title != "Rescheduled Service" {
		t.Errorf("title = %q", updated.Title)
	}
}

func TestUpdate_TargetingRules(t *testing.T) {
	stored := &model.Event{
		ID:        "ev-1",
		UID:       "event-ev-1@hotrph.org",
		Title:     "Old",
		StartTime: time.Now(),
		EndTime:   time.Now(),
	}
	repo := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return stored, nil
		},
	}
	svc := NewService(repo, &mockCalendarRepo{}, nil)

	min, max := 18, 35
	input := validInput()
	input.TargetGenders = []string{"female"}
	input.TargetAgeMin = &min
	input.TargetAgeMax = &max

	event, err := svc.Update(context.Background(), "ev-1", input)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if !event.TargetGenders.Restricted() || !event.TargetGenders.Allows("female") {
		t.Error("gender targeting not applied")
	}
	if event.TargetGenders.Allows("male") {
		t.Error("gender targeting should exclude male")
	}
	if !event.TargetAgeRange.Contains(25) || event.TargetAgeRange.Contains(40) {
		t.Error("age range not applied")
	}
	if event.TargetCountries.Restricted() {
		t.Error("unset dimensions should stay open")
	}
}

func TestCancel_MarksCancelledAndKeepsEvent(t *testing.T) {
	stored := &model.Event{
		ID:     "ev-1",
		UID:    "event-ev-1@hotrph.org",
		Status: model.EventStatusConfirmed,
	}
	var deleted bool
	repo := &mockEventRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return stored, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(repo, &mockCalendarRepo{}, nil)

	event, err := svc.Cancel(context.Background(), "ev-1")
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if event.Status != model.EventStatusCancelled {
		t.Errorf("status = %q, want cancelled", event.Status)
	}
	if deleted {
		t.Error("cancelling must not delete the row")
	}
}

func TestGet_UnknownEvent(t *testing.T) {
	svc := NewService(&mockEventRepo{}, &mockCalendarRepo{}, nil)

	_, err := svc.Get(context.Background(), "ghost")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEventNotFound {
		t.Fatalf("expected EVENT_NOT_FOUND error, got %v", err)
	}
}

// Package event provides event management with demographic targeting.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hotrph/calsync/internal/model"
	"github.com/hotrph/calsync/internal/repository"
	"github.com/hotrph/calsync/internal/security"
)

// uidDomain is the domain part of generated iCalendar UIDs.
const uidDomain = "hotrph.org"

// Service is the event service layer.
type Service struct {
	events    repository.EventRepository
	calendars repository.CalendarRepository
	sanitizer security.TextSanitizer
	logger    *slog.Logger

	now func() time.Time
}

// NewService creates an event Service.
func NewService(events repository.EventRepository, calendars repository.CalendarRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		events:    events,
		calendars: calendars,
		sanitizer: security.NewTextSanitizer(),
		logger:    logger,
		now:       time.Now,
	}
}

// Input carries the writable fields of an event.
type Input struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Timezone    string
	Location    string
	Status      model.EventStatus

	TargetGenders              []string
	TargetAgeMin               *int
	TargetAgeMax               *int
	TargetCountries            []string
	TargetRelationshipStatuses []string
}

// Create adds an event to a calendar. The iCalendar UID is derived from
// the fresh event id here and never touched again; clients identify the
// event by it across every later edit.
func (s *Service) Create(ctx context.Context, calendarID string, input Input) (*model.Event, error) {
	s.sanitize(&input)
	if err := validate(&input); err != nil {
		return nil, err
	}

	cal, err := s.calendars.FindByID(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	if cal == nil {
		return nil, model.NewCalendarNotFoundError(calendarID)
	}

	now := s.now()
	id := uuid.New().String()
	event := &model.Event{
		ID:         id,
		CalendarID: calendarID,
		UID:        fmt.Sprintf("event-%s@%s", id, uidDomain),
		CreatedAt:  now,
	}
	apply(event, input, now)

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("event created",
		slog.String("event_id", event.ID),
		slog.String("calendar_id", calendarID),
		slog.String("title", event.Title),
	)

	return event, nil
}

// Get fetches an event by id.
func (s *Service) Get(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(id)
	}
	return event, nil
}

// List returns every event of a calendar, cancelled ones included, for
// admin views.
func (s *Service) List(ctx context.Context, calendarID string) ([]*model.Event, error) {
	events, err := s.events.ListByCalendarID(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Update overwrites an event's writable fields. The UID survives verbatim.
func (s *Service) Update(ctx context.Context, id string, input Input) (*model.Event, error) {
	s.sanitize(&input)
	if err := validate(&input); err != nil {
		return nil, err
	}

	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(id)
	}

	apply(event, input, s.now())

	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// Cancel marks an event cancelled. Cancelled events disappear from
// subscriber feeds but stay in the database for admin views.
func (s *Service) Cancel(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(id)
	}

	event.Status = model.EventStatusCancelled
	event.UpdatedAt = s.now()

	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to cancel event: %w", err)
	}

	s.logger.Info("event cancelled", slog.String("event_id", id))
	return event, nil
}

// Delete removes an event entirely.
func (s *Service) Delete(ctx context.Context, id string) error {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch event: %w", err)
	}
	if event == nil {
		return model.NewEventNotFoundError(id)
	}

	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// sanitize strips markup from the free-text fields. Titles and
// locations pasted from rich editors otherwise leak tags into feeds.
func (s *Service) sanitize(input *Input) {
	input.Title = s.sanitizer.Sanitize(input.Title)
	input.Description = s.sanitizer.Sanitize(input.Description)
	input.Location = s.sanitizer.Sanitize(input.Location)
}

func validate(input *Input) error {
	var missing []string
	if input.Title == "" {
		missing = append(missing, "title")
	}
	if input.StartTime.IsZero() {
		missing = append(missing, "startTime")
	}
	if input.EndTime.IsZero() {
		missing = append(missing, "endTime")
	}
	if len(missing) > 0 {
		return model.NewMissingFieldsError(missing...)
	}

	if input.Status == "" {
		input.Status = model.EventStatusConfirmed
	}
	if input.Timezone == "" {
		input.Timezone = "Africa/Lagos"
	}
	return nil
}

func apply(event *model.Event, input Input, now time.Time) {
	event.Title = input.Title
	event.Description = input.Description
	event.StartTime = input.StartTime
	event.EndTime = input.EndTime
	event.Timezone = input.Timezone
	event.Location = input.Location
	event.Status = input.Status
	event.TargetGenders = model.OneOf(input.TargetGenders...)
	event.TargetAgeRange = model.AgeRange{Min: input.TargetAgeMin, Max: input.TargetAgeMax}
	event.TargetCountries = model.OneOf(input.TargetCountries...)
	event.TargetRelationshipStatuses = model.OneOf(input.TargetRelationshipStatuses...)
	event.UpdatedAt = now
}

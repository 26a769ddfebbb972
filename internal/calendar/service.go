// Package calendar provides calendar management for organisation admins
// and the public calendar views.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hotrph/calsync/internal/model"
	"github.com/hotrph/calsync/internal/repository"
)

// Service is the calendar service layer.
type Service struct {
	calendars repository.CalendarRepository
	events    repository.EventRepository
	logger    *slog.Logger

	now func() time.Time
}

// NewService creates a calendar Service.
func NewService(calendars repository.CalendarRepository, events repository.EventRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		calendars: calendars,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateInput carries a calendar creation request. When Slug is empty one
// is derived from the name.
type CreateInput struct {
	Name        string
	Slug        string
	Description string
	IsPublic    bool
}

// Create registers a new calendar. The slug must be unique; collisions are
// rejected rather than suffixed so published URLs stay predictable.
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Calendar, error) {
	if input.Name == "" {
		return nil, model.NewMissingFieldsError("name")
	}

	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Name)
	}

	existing, err := s.calendars.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if existing != nil {
		return nil, model.NewSlugTakenError(slug)
	}

	now := s.now()
	cal := &model.Calendar{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		IsPublic:    input.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.calendars.Create(ctx, cal); err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}

	s.logger.Info("calendar created",
		slog.String("calendar_id", cal.ID),
		slog.String("slug", slug),
	)

	return cal, nil
}

// Get fetches a calendar by slug. Private calendars are only returned when
// includePrivate is set (admin access).
func (s *Service) Get(ctx context.Context, slug string, includePrivate bool) (*model.Calendar, error) {
	cal, err := s.calendars.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	if cal == nil {
		return nil, model.NewCalendarNotFoundError(slug)
	}
	if !cal.IsPublic && !includePrivate {
		return nil, model.NewCalendarPrivateError()
	}
	return cal, nil
}

// List returns all calendars.
func (s *Service) List(ctx context.Context) ([]*model.Calendar, error) {
	calendars, err := s.calendars.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return calendars, nil
}

// UpdateInput carries a calendar update. Nil fields keep their current
// value.
type UpdateInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// Update modifies a calendar. The slug is never changed after creation so
// distributed feed URLs keep working.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*model.Calendar, error) {
	cal, err := s.calendars.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	if cal == nil {
		return nil, model.NewCalendarNotFoundError(id)
	}

	if input.Name != nil {
		cal.Name = *input.Name
	}
	if input.Description != nil {
		cal.Description = *input.Description
	}
	if input.IsPublic != nil {
		cal.IsPublic = *input.IsPublic
	}
	cal.UpdatedAt = s.now()

	if err := s.calendars.Update(ctx, cal); err != nil {
		return nil, fmt.Errorf("failed to update calendar: %w", err)
	}
	return cal, nil
}

// Delete removes a calendar and, via CASCADE, its events and subscribers.
func (s *Service) Delete(ctx context.Context, id string) error {
	cal, err := s.calendars.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch calendar: %w", err)
	}
	if cal == nil {
		return model.NewCalendarNotFoundError(id)
	}

	if err := s.calendars.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}

	s.logger.Info("calendar deleted",
		slog.String("calendar_id", id),
		slog.String("slug", cal.Slug),
	)
	return nil
}

// upcomingEventsLimit caps the public events listing.
const upcomingEventsLimit = 10

// Events returns the next upcoming events of a public calendar,
// cancelled ones excluded.
func (s *Service) Events(ctx context.Context, slug string) ([]*model.Event, error) {
	cal, err := s.Get(ctx, slug, false)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListUpcomingByCalendarID(ctx, cal.ID, upcomingEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a display name: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, no leading or trailing
// hyphen.
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

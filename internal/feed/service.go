// Package feed assembles personalised iCalendar feeds for subscribers.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hotrph/calsync/internal/ics"
	"github.com/hotrph/calsync/internal/metrics"
	"github.com/hotrph/calsync/internal/model"
	"github.com/hotrph/calsync/internal/repository"
	"github.com/hotrph/calsync/internal/targeting"
)

// Feed is a generated iCalendar document together with the name it should
// be served under.
type Feed struct {
	CalendarName string
	Body         string
	EventCount   int
}

// Service resolves a slug and feed token to a personalised feed. The token
// is the only credential a polling calendar client can present, so every
// failure mode is distinguished: unknown slug, unknown token, and a token
// issued for a different calendar each map to their own error.
type Service struct {
	calendars   repository.CalendarRepository
	events      repository.EventRepository
	subscribers repository.SubscriberRepository
	synthesizer *ics.Synthesizer
	metrics     metrics.MetricsCollector
	logger      *slog.Logger

	// now is replaceable in tests; targeting evaluates ages at request time.
	now func() time.Time
}

// NewService creates a feed Service. metrics may be nil.
func NewService(
	calendars repository.CalendarRepository,
	events repository.EventRepository,
	subscribers repository.SubscriberRepository,
	synthesizer *ics.Synthesizer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		calendars:   calendars,
		events:      events,
		subscribers: subscribers,
		synthesizer: synthesizer,
		metrics:     collector,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate produces the personalised feed for the subscriber holding token
// on the calendar published under slug.
func (s *Service) Generate(ctx context.Context, slug, token string) (*Feed, error) {
	started := s.now()

	feed, err := s.generate(ctx, slug, token)
	s.record(outcomeFor(err), started)
	return feed, err
}

func (s *Service) generate(ctx context.Context, slug, token string) (*Feed, error) {
	cal, err := s.calendars.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve calendar: %w", err)
	}
	if cal == nil {
		return nil, model.NewCalendarNotFoundError(slug)
	}

	sub, err := s.subscribers.FindByFeedToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve feed token: %w", err)
	}
	if sub == nil {
		return nil, model.NewInvalidFeedTokenError()
	}
	if sub.CalendarID != cal.ID {
		return nil, model.NewFeedForbiddenError()
	}

	events, err := s.events.ListActiveByCalendarID(ctx, cal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	matched := targeting.Filter(sub, events, s.now())

	body, err := s.synthesizer.Generate(cal.Name, matched)
	if err != nil {
		return nil, model.NewFeedGenerationError(err.Error())
	}

	if s.metrics != nil {
		s.metrics.RecordFeedEvents(len(matched))
	}

	s.logger.Info("feed generated",
		slog.String("calendar_slug", slug),
		slog.String("subscriber_id", sub.ID),
		slog.Int("events", len(matched)),
	)

	return &Feed{CalendarName: cal.Name, Body: body, EventCount: len(matched)}, nil
}

func (s *Service) record(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordFeedRequest(outcome)
	s.metrics.RecordFeedLatency(s.now().Sub(started))
}

func outcomeFor(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeCalendarNotFound:
			return "not_found"
		case model.ErrCodeInvalidFeedToken:
			return "unauthorized"
		case model.ErrCodeFeedForbidden:
			return "forbidden"
		}
	}
	return "error"
}

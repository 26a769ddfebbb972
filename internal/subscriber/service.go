// Package subscriber provides the subscription domain logic: registering
// subscribers, issuing feed tokens, and building subscription links.
package subscriber

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hotrph/calsync/internal/ics"
	"github.com/hotrph/calsync/internal/model"
	"github.com/hotrph/calsync/internal/repository"
)

// DefaultCalendarSlug is used when a subscribe request names no calendar.
const DefaultCalendarSlug = "hotr-port-harcourt"

// feedTokenBytes is the entropy of a feed token. 16 random bytes rendered
// as 32 hex characters.
const feedTokenBytes = 16

// SubscribeInput carries a subscription request.
type SubscribeInput struct {
	CalendarSlug       string
	Name               string
	Email              string
	Phone              string
	Gender             model.Gender
	Country            string
	RelationshipStatus model.RelationshipStatus
	DateOfBirth        time.Time
	Platform           model.Platform
	Interests          []string
}

// SubscribeResult is a registered subscriber together with the
// subscription URLs issued for them.
type SubscribeResult struct {
	Subscriber *model.Subscriber
	URLs       ics.SubscriptionURLs
	// Existing is true when the email was already registered on the
	// calendar; the profile was updated and the original feed token kept.
	Existing bool
}

// Service is the subscriber service layer.
type Service struct {
	subscribers repository.SubscriberRepository
	calendars   repository.CalendarRepository
	baseURL     string
	logger      *slog.Logger

	now func() time.Time
}

// NewService creates a subscriber Service. baseURL is the public origin of
// this server, used to build feed URLs.
func NewService(
	subscribers repository.SubscriberRepository,
	calendars repository.CalendarRepository,
	baseURL string,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		subscribers: subscribers,
		calendars:   calendars,
		baseURL:     baseURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Subscribe registers a subscriber on a calendar. Subscribing twice with
// the same email updates the profile and keeps the feed token, so links
// already added to a calendar client stay valid.
func (s *Service) Subscribe(ctx context.Context, input SubscribeInput) (*SubscribeResult, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	slug := input.CalendarSlug
	if slug == "" {
		slug = DefaultCalendarSlug
	}

	cal, err := s.calendars.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve calendar: %w", err)
	}
	if cal == nil {
		return nil, model.NewCalendarNotFoundError(slug)
	}

	existing, err := s.subscribers.FindByEmailAndCalendar(ctx, input.Email, cal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up subscriber: %w", err)
	}

	now := s.now()

	if existing != nil {
		applyInput(existing, input, now)
		if err := s.subscribers.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update subscriber: %w", err)
		}

		s.logger.Info("subscriber updated",
			slog.String("subscriber_id", existing.ID),
			slog.String("calendar_slug", slug),
		)

		return &SubscribeResult{
			Subscriber: existing,
			URLs:       ics.BuildSubscriptionURLs(s.baseURL, slug, existing.FeedToken),
			Existing:   true,
		}, nil
	}

	token, err := newFeedToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate feed token: %w", err)
	}

	sub := &model.Subscriber{
		ID:         uuid.New().String(),
		CalendarID: cal.ID,
		FeedToken:  token,
		CreatedAt:  now,
	}
	applyInput(sub, input, now)

	if err := s.subscribers.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscriber: %w", err)
	}

	s.logger.Info("subscriber created",
		slog.String("subscriber_id", sub.ID),
		slog.String("calendar_slug", slug),
	)

	return &SubscribeResult{
		Subscriber: sub,
		URLs:       ics.BuildSubscriptionURLs(s.baseURL, slug, token),
	}, nil
}

// UpdatePlatform records which calendar client the subscriber uses.
func (s *Service) UpdatePlatform(ctx context.Context, subscriberID string, platform model.Platform) error {
	if !model.ValidPlatform(platform) {
		return model.NewInvalidPlatformError(string(platform))
	}

	sub, err := s.subscribers.FindByID(ctx, subscriberID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscriber: %w", err)
	}
	if sub == nil {
		return model.NewSubscriberNotFoundError(subscriberID)
	}

	if err := s.subscribers.UpdatePlatform(ctx, subscriberID, platform); err != nil {
		return fmt.Errorf("failed to update platform: %w", err)
	}
	return nil
}

// Get fetches a subscriber by id.
func (s *Service) Get(ctx context.Context, subscriberID string) (*model.Subscriber, error) {
	sub, err := s.subscribers.FindByID(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriber: %w", err)
	}
	if sub == nil {
		return nil, model.NewSubscriberNotFoundError(subscriberID)
	}
	return sub, nil
}

// SaveGoogleSync stores the tokens and provisioned calendar obtained from
// the OAuth flow.
func (s *Service) SaveGoogleSync(ctx context.Context, subscriberID string, sync model.GoogleSync) error {
	if err := s.subscribers.UpdateGoogleSync(ctx, subscriberID, sync); err != nil {
		return fmt.Errorf("failed to persist google sync state: %w", err)
	}
	return nil
}

// SubscriptionLinks rebuilds the subscription URLs for an existing
// subscriber.
func (s *Service) SubscriptionLinks(ctx context.Context, subscriberID string) (ics.SubscriptionURLs, error) {
	sub, err := s.Get(ctx, subscriberID)
	if err != nil {
		return ics.SubscriptionURLs{}, err
	}

	cal, err := s.calendars.FindByID(ctx, sub.CalendarID)
	if err != nil {
		return ics.SubscriptionURLs{}, fmt.Errorf("failed to resolve calendar: %w", err)
	}
	if cal == nil {
		return ics.SubscriptionURLs{}, model.NewCalendarNotFoundError(sub.CalendarID)
	}

	return ics.BuildSubscriptionURLs(s.baseURL, cal.Slug, sub.FeedToken), nil
}

func validateInput(input *SubscribeInput) error {
	var missing []string
	if input.Name == "" {
		missing = append(missing, "name")
	}
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Gender == "" {
		missing = append(missing, "gender")
	}
	if input.RelationshipStatus == "" {
		missing = append(missing, "relationshipStatus")
	}
	if input.DateOfBirth.IsZero() {
		missing = append(missing, "dateOfBirth")
	}
	if len(missing) > 0 {
		return model.NewMissingFieldsError(missing...)
	}

	if input.Platform == "" {
		input.Platform = model.PlatformOther
	}
	if !model.ValidPlatform(input.Platform) {
		return model.NewInvalidPlatformError(string(input.Platform))
	}
	return nil
}

func applyInput(sub *model.Subscriber, input SubscribeInput, now time.Time) {
	sub.Name = input.Name
	sub.Email = input.Email
	sub.Phone = input.Phone
	sub.Gender = input.Gender
	sub.Country = input.Country
	sub.RelationshipStatus = input.RelationshipStatus
	sub.DateOfBirth = input.DateOfBirth
	sub.Platform = input.Platform
	sub.Interests = input.Interests
	sub.UpdatedAt = now
}

// newFeedToken draws a fresh feed token from crypto/rand.
func newFeedToken() (string, error) {
	buf := make([]byte, feedTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

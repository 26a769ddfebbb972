package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hotrph/calsync/internal/model"
)

// PostgresSubscriberRepo is the PostgreSQL subscriber repository.
type PostgresSubscriberRepo struct {
	db *sql.DB
}

// NewPostgresSubscriberRepo creates a PostgresSubscriberRepo.
func NewPostgresSubscriberRepo(db *sql.DB) *PostgresSubscriberRepo {
	return &PostgresSubscriberRepo{db: db}
}

const subscriberColumns = `id, calendar_id, name, email, phone,
        gender, country, relationship_status, date_of_birth,
        feed_token, platform, interests,
        google_access_token, google_refresh_token, google_token_expiry, google_calendar_id,
        created_at, updated_at`

func scanSubscriber(row eventScanner) (*model.Subscriber, error) {
	sub := &model.Subscriber{}
	var phone, country sql.NullString
	var accessToken, refreshToken, googleCalendarID sql.NullString
	var tokenExpiry sql.NullTime
	var interests pq.StringArray

	err := row.Scan(
		&sub.ID, &sub.CalendarID, &sub.Name, &sub.Email, &phone,
		&sub.Gender, &country, &sub.RelationshipStatus, &sub.DateOfBirth,
		&sub.FeedToken, &sub.Platform, &interests,
		&accessToken, &refreshToken, &tokenExpiry, &googleCalendarID,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.Phone = nullStringValue(phone)
	sub.Country = nullStringValue(country)
	sub.Interests = interests
	sub.Google = model.GoogleSync{
		AccessToken:  nullStringValue(accessToken),
		RefreshToken: nullStringValue(refreshToken),
		CalendarID:   nullStringValue(googleCalendarID),
	}
	if tokenExpiry.Valid {
		sub.Google.TokenExpiry = tokenExpiry.Time
	}

	return sub, nil
}

func (r *PostgresSubscriberRepo) findOne(ctx context.Context, where string, args ...any) (*model.Subscriber, error) {
	sub, err := scanSubscriber(r.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE `+where, args...,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// FindByID fetches the subscriber with the given id. Returns nil when not
// found.
func (r *PostgresSubscriberRepo) FindByID(ctx context.Context, id string) (*model.Subscriber, error) {
	sub, err := r.findOne(ctx, `id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriber: %w", err)
	}
	return sub, nil
}

// FindByFeedToken fetches the subscriber holding the given feed token.
// Returns nil when no subscriber holds it.
func (r *PostgresSubscriberRepo) FindByFeedToken(ctx context.Context, token string) (*model.Subscriber, error) {
	sub, err := r.findOne(ctx, `feed_token = $1`, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriber by feed token: %w", err)
	}
	return sub, nil
}

// FindByEmailAndCalendar fetches the subscriber registered with the given
// email on a calendar. Returns nil when not found.
func (r *PostgresSubscriberRepo) FindByEmailAndCalendar(ctx context.Context, email, calendarID string) (*model.Subscriber, error) {
	sub, err := r.findOne(ctx, `email = $1 AND calendar_id = $2`, email, calendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriber by email: %w", err)
	}
	return sub, nil
}

// ListGoogleConnected returns every subscriber who has completed the
// Google OAuth flow and still holds an access token.
func (r *PostgresSubscriberRepo) ListGoogleConnected(ctx context.Context) ([]*model.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers
		 WHERE google_access_token IS NOT NULL AND google_access_token <> ''
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list google-connected subscribers: %w", err)
	}
	defer rows.Close()

	var subs []*model.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}
	return subs, nil
}

// Create inserts a new subscriber.
func (r *PostgresSubscriberRepo) Create(ctx context.Context, sub *model.Subscriber) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, calendar_id, name, email, phone,
		                          gender, country, relationship_status, date_of_birth,
		                          feed_token, platform, interests,
		                          google_access_token, google_refresh_token,
		                          google_token_expiry, google_calendar_id,
		                          created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		sub.ID, sub.CalendarID, sub.Name, sub.Email, nullString(sub.Phone),
		sub.Gender, nullString(sub.Country), sub.RelationshipStatus, sub.DateOfBirth,
		sub.FeedToken, sub.Platform, pq.Array(sub.Interests),
		nullString(sub.Google.AccessToken), nullString(sub.Google.RefreshToken),
		nullTime(sub.Google.TokenExpiry), nullString(sub.Google.CalendarID),
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	return nil
}

// Update overwrites an existing subscriber's profile fields. The feed token
// column is not touched: rotating it would break the URL every calendar
// client already holds.
func (r *PostgresSubscriberRepo) Update(ctx context.Context, sub *model.Subscriber) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscribers SET
		    name = $2, email = $3, phone = $4,
		    gender = $5, country = $6, relationship_status = $7, date_of_birth = $8,
		    platform = $9, interests = $10, updated_at = $11
		 WHERE id = $1`,
		sub.ID, sub.Name, sub.Email, nullString(sub.Phone),
		sub.Gender, nullString(sub.Country), sub.RelationshipStatus, sub.DateOfBirth,
		sub.Platform, pq.Array(sub.Interests), sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscriber: %w", err)
	}
	return nil
}

// UpdatePlatform records which calendar client the subscriber uses.
func (r *PostgresSubscriberRepo) UpdatePlatform(ctx context.Context, id string, platform model.Platform) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscribers SET platform = $2, updated_at = now() WHERE id = $1`,
		id, platform,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscriber platform: %w", err)
	}
	return nil
}

// UpdateGoogleSync stores the provider tokens and calendar id obtained from
// the OAuth flow.
func (r *PostgresSubscriberRepo) UpdateGoogleSync(ctx context.Context, id string, sync model.GoogleSync) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscribers SET
		    google_access_token = $2, google_refresh_token = $3,
		    google_token_expiry = $4, google_calendar_id = $5,
		    updated_at = now()
		 WHERE id = $1`,
		id, nullString(sync.AccessToken), nullString(sync.RefreshToken),
		nullTime(sync.TokenExpiry), nullString(sync.CalendarID),
	)
	if err != nil {
		return fmt.Errorf("failed to update google sync state: %w", err)
	}
	return nil
}

// nullTime converts a zero time to a NULL sql.NullTime.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// compile-time interface check
var _ SubscriberRepository = (*PostgresSubscriberRepo)(nil)

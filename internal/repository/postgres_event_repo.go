package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hotrph/calsync/internal/model"
)

// PostgresEventRepo is the PostgreSQL event repository. Targeting sets are
// stored as text[] columns; an empty array means the dimension is open to
// everyone, mirroring model.Anyone.
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo creates a PostgresEventRepo.
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

const eventColumns = `id, calendar_id, uid, title, description, start_time, end_time,
        timezone, location, status,
        target_genders, target_age_min, target_age_max,
        target_countries, target_relationship_statuses,
        created_at, updated_at`

type eventScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row eventScanner) (*model.Event, error) {
	event := &model.Event{}
	var description, location sql.NullString
	var ageMin, ageMax sql.NullInt64
	var genders, countries, relationships pq.StringArray

	err := row.Scan(
		&event.ID, &event.CalendarID, &event.UID, &event.Title, &description,
		&event.StartTime, &event.EndTime, &event.Timezone, &location, &event.Status,
		&genders, &ageMin, &ageMax, &countries, &relationships,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Description = nullStringValue(description)
	event.Location = nullStringValue(location)
	event.TargetGenders = model.OneOf(genders...)
	event.TargetCountries = model.OneOf(countries...)
	event.TargetRelationshipStatuses = model.OneOf(relationships...)
	event.TargetAgeRange = model.AgeRange{Min: nullIntPtr(ageMin), Max: nullIntPtr(ageMax)}

	return event, nil
}

// FindByID fetches the event with the given id. Returns nil when not found.
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	event, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	return event, nil
}

// ListByCalendarID returns every event of a calendar, cancelled ones
// included, ordered by start time ascending.
func (r *PostgresEventRepo) ListByCalendarID(ctx context.Context, calendarID string) ([]*model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE calendar_id = $1
		 ORDER BY start_time ASC`,
		calendarID,
	)
}

// ListActiveByCalendarID returns the non-cancelled events of a calendar
// ordered by start time ascending.
func (r *PostgresEventRepo) ListActiveByCalendarID(ctx context.Context, calendarID string) ([]*model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE calendar_id = $1 AND status <> 'cancelled'
		 ORDER BY start_time ASC`,
		calendarID,
	)
}

// ListUpcomingByCalendarID returns the next non-cancelled events of a
// calendar that have not started yet, at most limit of them.
func (r *PostgresEventRepo) ListUpcomingByCalendarID(ctx context.Context, calendarID string, limit int) ([]*model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE calendar_id = $1 AND status <> 'cancelled' AND start_time >= now()
		 ORDER BY start_time ASC
		 LIMIT $2`,
		calendarID, limit,
	)
}

func (r *PostgresEventRepo) list(ctx context.Context, query string, args ...any) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read event row: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan events: %w", err)
	}

	return events, nil
}

// Create inserts a new event.
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, calendar_id, uid, title, description, start_time, end_time,
		                     timezone, location, status,
		                     target_genders, target_age_min, target_age_max,
		                     target_countries, target_relationship_statuses,
		                     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		event.ID, event.CalendarID, event.UID, event.Title, nullString(event.Description),
		event.StartTime, event.EndTime, event.Timezone, nullString(event.Location), event.Status,
		pq.Array(event.TargetGenders.Members()),
		nullInt(event.TargetAgeRange.Min), nullInt(event.TargetAgeRange.Max),
		pq.Array(event.TargetCountries.Members()),
		pq.Array(event.TargetRelationshipStatuses.Members()),
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// Update overwrites an existing event. The uid column is not touched: it
// is assigned at creation and must survive every edit.
func (r *PostgresEventRepo) Update(ctx context.Context, event *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE events SET
		    title = $2, description = $3, start_time = $4, end_time = $5,
		    timezone = $6, location = $7, status = $8,
		    target_genders = $9, target_age_min = $10, target_age_max = $11,
		    target_countries = $12, target_relationship_statuses = $13,
		    updated_at = $14
		 WHERE id = $1`,
		event.ID, event.Title, nullString(event.Description),
		event.StartTime, event.EndTime, event.Timezone,
		nullString(event.Location), event.Status,
		pq.Array(event.TargetGenders.Members()),
		nullInt(event.TargetAgeRange.Min), nullInt(event.TargetAgeRange.Max),
		pq.Array(event.TargetCountries.Members()),
		pq.Array(event.TargetRelationshipStatuses.Members()),
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// Delete removes the event with the given id.
func (r *PostgresEventRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// nullInt converts an optional int to sql.NullInt64.
func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// nullIntPtr extracts an optional int from sql.NullInt64.
func nullIntPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)

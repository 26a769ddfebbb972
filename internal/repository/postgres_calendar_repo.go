package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hotrph/calsync/internal/model"
)

// PostgresCalendarRepo is the PostgreSQL calendar repository.
type PostgresCalendarRepo struct {
	db *sql.DB
}

// NewPostgresCalendarRepo creates a PostgresCalendarRepo.
func NewPostgresCalendarRepo(db *sql.DB) *PostgresCalendarRepo {
	return &PostgresCalendarRepo{db: db}
}

const calendarColumns = `id, name, slug, description, is_public, created_at, updated_at`

func scanCalendar(row *sql.Row) (*model.Calendar, error) {
	cal := &model.Calendar{}
	var description sql.NullString

	err := row.Scan(
		&cal.ID, &cal.Name, &cal.Slug, &description,
		&cal.IsPublic, &cal.CreatedAt, &cal.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cal.Description = nullStringValue(description)
	return cal, nil
}

// FindByID fetches the calendar with the given id. Returns nil when not found.
func (r *PostgresCalendarRepo) FindByID(ctx context.Context, id string) (*model.Calendar, error) {
	cal, err := scanCalendar(r.db.QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	return cal, nil
}

// FindBySlug fetches the calendar with the given URL slug. Returns nil when
// not found.
func (r *PostgresCalendarRepo) FindBySlug(ctx context.Context, slug string) (*model.Calendar, error) {
	cal, err := scanCalendar(r.db.QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE slug = $1`, slug,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar by slug: %w", err)
	}
	return cal, nil
}

// List returns all calendars ordered by name.
func (r *PostgresCalendarRepo) List(ctx context.Context) ([]*model.Calendar, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	defer rows.Close()

	var calendars []*model.Calendar
	for rows.Next() {
		cal := &model.Calendar{}
		var description sql.NullString

		if err := rows.Scan(
			&cal.ID, &cal.Name, &cal.Slug, &description,
			&cal.IsPublic, &cal.CreatedAt, &cal.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to read calendar row: %w", err)
		}

		cal.Description = nullStringValue(description)
		calendars = append(calendars, cal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan calendars: %w", err)
	}

	return calendars, nil
}

// Create inserts a new calendar.
func (r *PostgresCalendarRepo) Create(ctx context.Context, cal *model.Calendar) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO calendars (id, name, slug, description, is_public, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cal.ID, cal.Name, cal.Slug, nullString(cal.Description),
		cal.IsPublic, cal.CreatedAt, cal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create calendar: %w", err)
	}
	return nil
}

// Update overwrites an existing calendar.
func (r *PostgresCalendarRepo) Update(ctx context.Context, cal *model.Calendar) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE calendars SET
		    name = $2, slug = $3, description = $4, is_public = $5, updated_at = $6
		 WHERE id = $1`,
		cal.ID, cal.Name, cal.Slug, nullString(cal.Description),
		cal.IsPublic, cal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update calendar: %w", err)
	}
	return nil
}

// Delete removes the calendar with the given id.
func (r *PostgresCalendarRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM calendars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}
	return nil
}

// nullString converts an empty string to a NULL sql.NullString.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue extracts the string from a sql.NullString.
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ CalendarRepository = (*PostgresCalendarRepo)(nil)

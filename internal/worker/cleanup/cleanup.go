// Package cleanup provides the automatic purge job for stale events.
// Events whose end time passed more than the retention period ago are
// deleted in a daily batch; their remote copies stay untouched so
// subscribers keep their own history.
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor abstracts ExecContext. Both *sql.DB and *sql.Tx satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob deletes events that ended longer than the retention period
// ago. It runs as a daily batch and the delete is idempotent.
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // days to keep past events (default: 180)
}

// NewCleanupJob creates a CleanupJob with the default 180-day retention.
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: 180,
	}
}

// Run deletes every event whose end_time is older than RetentionDays.
// Running with nothing to delete is not an error.
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	query := `DELETE FROM events WHERE end_time < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("event cleanup job failed",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("failed to run event cleanup: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("failed to read deleted row count",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to read deleted row count: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("event cleanup job completed",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

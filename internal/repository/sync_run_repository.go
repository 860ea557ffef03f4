package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mpetrov/anisync/internal/models"
)

// SyncRunRepository persists finished run summaries so history survives
// restarts even though live sessions do not.
type SyncRunRepository struct {
	db *sql.DB
}

func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Record(summary models.SyncRunSummary) error {
	_, err := r.db.Exec(`
		INSERT INTO sync_runs (session_id, dry_run, status, total, succeeded, warnings, failed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			status = excluded.status,
			total = excluded.total,
			succeeded = excluded.succeeded,
			warnings = excluded.warnings,
			failed = excluded.failed,
			finished_at = excluded.finished_at`,
		summary.SessionID,
		boolToInt(summary.DryRun),
		string(summary.Status),
		summary.Total,
		summary.Succeeded,
		summary.Warnings,
		summary.Failed,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// ListRecent returns the newest runs first.
func (r *SyncRunRepository) ListRecent(limit int) ([]models.SyncRunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT session_id, dry_run, status, total, succeeded, warnings, failed, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.SyncRunSummary, 0, limit)
	for rows.Next() {
		var summary models.SyncRunSummary
		var dryRun int
		var status, startedAt, finishedAt string
		if err := rows.Scan(&summary.SessionID, &dryRun, &status, &summary.Total,
			&summary.Succeeded, &summary.Warnings, &summary.Failed, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		summary.DryRun = dryRun != 0
		summary.Status = models.SessionStatus(status)
		if parsed, err := time.Parse(time.RFC3339, startedAt); err == nil {
			summary.StartedAt = parsed
		}
		if parsed, err := time.Parse(time.RFC3339, finishedAt); err == nil {
			summary.FinishedAt = parsed
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}
	return summaries, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

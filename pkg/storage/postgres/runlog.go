package postgres

import (
	"context"
	"fmt"
	"time"

	"tcgtracker/internal/ingest"
)

// RunCounters are the row counts a finished run reports.
type RunCounters struct {
	Groups         int
	RowsFetched    int
	RowsKept       int
	LatestUpserts  int
	HistoryInserts int
	TrendsUpserts  int
}

// StartRun inserts a run_log row in the running state and returns its id.
func (p *PostgresClient) StartRun(ctx context.Context, jobName string, snapshotDate time.Time) (int64, error) {
	rec := RunRecord{
		JobName:      jobName,
		SnapshotDate: ingest.DayUTC(snapshotDate),
		StartedAt:    time.Now().UTC(),
		Status:       RunStatusRunning,
	}

	if err := p.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return rec.RunID, nil
}

// FinishRun finalizes a run exactly once: status, counters and notes are
// written together with the finish timestamp. Notes are truncated so a long
// provider error cannot blow up the row.
func (p *PostgresClient) FinishRun(ctx context.Context, runID int64, status, notes string, c RunCounters) error {
	if len(notes) > 500 {
		notes = notes[:500]
	}
	now := time.Now().UTC()

	tx := p.DB.WithContext(ctx).
		Model(&RunRecord{}).
		Where("run_id = ? AND status = ?", runID, RunStatusRunning).
		Updates(map[string]interface{}{
			"finished_at":        &now,
			"status":             status,
			"notes":              notes,
			"groups_count":       c.Groups,
			"price_rows_fetched": c.RowsFetched,
			"price_rows_kept":    c.RowsKept,
			"latest_upserts":     c.LatestUpserts,
			"history_inserts":    c.HistoryInserts,
			"trends_upserts":     c.TrendsUpserts,
		})
	if tx.Error != nil {
		return fmt.Errorf("finish run %d: %w", runID, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("run %d already finalized", runID)
	}
	return nil
}

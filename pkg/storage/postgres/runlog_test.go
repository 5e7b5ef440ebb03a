package postgres_test

import (
	"context"
	"testing"
	"time"

	"tcgtracker/pkg/storage/postgres"
)

// go test -v --run TestRunLifecycle
func TestRunLifecycle(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	day := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	runID, err := client.StartRun(ctx, "refresh_prices_daily", day)
	if err != nil {
		t.Fatalf("start run failed: %v", err)
	}

	counters := postgres.RunCounters{
		Groups:         3,
		RowsFetched:    120,
		RowsKept:       100,
		LatestUpserts:  100,
		HistoryInserts: 100,
		TrendsUpserts:  80,
	}
	if err := client.FinishRun(ctx, runID, postgres.RunStatusSuccess, "", counters); err != nil {
		t.Fatalf("finish run failed: %v", err)
	}

	var rec postgres.RunRecord
	if err := client.DB.First(&rec, runID).Error; err != nil {
		t.Fatalf("read run failed: %v", err)
	}
	if rec.Status != postgres.RunStatusSuccess || rec.FinishedAt == nil {
		t.Errorf("run not finalized: %+v", rec)
	}
	if rec.PriceRowsKept != 100 || rec.TrendsUpserts != 80 {
		t.Errorf("counters not recorded: %+v", rec)
	}

	// Finalization is exactly-once.
	if err := client.FinishRun(ctx, runID, postgres.RunStatusFailed, "late", counters); err == nil {
		t.Error("second finalize should fail")
	}
}

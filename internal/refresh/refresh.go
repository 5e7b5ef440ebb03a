package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tcgtracker/config"
	"tcgtracker/internal/ingest"
	"tcgtracker/internal/trend"
	"tcgtracker/pkg/feed"
	"tcgtracker/pkg/storage/postgres"
)

// JobName identifies daily refresh runs in the run log.
const JobName = "refresh_prices_daily"

// Runner executes one daily price refresh: fetch quotes per group, ingest the
// day's snapshot, then recompute trends from the stored history. The runner
// itself is re-entrant; single-instance locking is the scheduler's problem,
// and correctness under accidental concurrent invocation comes from the
// keyed upserts in the storage layer.
type Runner struct {
	Cfg   *config.Config
	Log   *zap.Logger
	Store *postgres.PostgresClient
	Feed  *feed.Client
}

// Run ingests prices for one UTC snapshot day and records the outcome in the
// run log. Group-level failures are tolerated while the feed is partially
// reachable, but any failed group marks the run failed and skips the trend
// step: trends are never computed over knowingly incomplete history.
func (r *Runner) Run(ctx context.Context, snapshotDate time.Time) error {
	day := ingest.DayUTC(snapshotDate)

	runID, err := r.Store.StartRun(ctx, JobName, day)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	counters, runErr := r.execute(ctx, day, &runTally{})
	if runErr != nil {
		if ferr := r.Store.FinishRun(ctx, runID, postgres.RunStatusFailed, runErr.Error(), counters); ferr != nil {
			r.Log.Error("failed to finalize run", zap.Int64("run_id", runID), zap.Error(ferr))
		}
		return runErr
	}

	if err := r.Store.FinishRun(ctx, runID, postgres.RunStatusSuccess, "", counters); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	r.Log.Info("refresh run finished",
		zap.Int64("run_id", runID),
		zap.Time("snapshot_date", day),
		zap.Int("groups", counters.Groups),
		zap.Int("rows_fetched", counters.RowsFetched),
		zap.Int("rows_kept", counters.RowsKept),
		zap.Int("history_inserts", counters.HistoryInserts),
		zap.Int("trends_upserts", counters.TrendsUpserts))
	return nil
}

// runTally accumulates run counters across concurrent group workers.
type runTally struct {
	mu           sync.Mutex
	c            postgres.RunCounters
	failedGroups int
}

func (t *runTally) add(fn func(*postgres.RunCounters)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.c)
}

func (r *Runner) execute(ctx context.Context, day time.Time, tally *runTally) (postgres.RunCounters, error) {
	groupIDs, err := r.Store.ListGroupIDs(ctx)
	if err != nil {
		return tally.c, fmt.Errorf("list groups: %w", err)
	}
	if len(groupIDs) == 0 {
		return tally.c, fmt.Errorf("no groups found in cards table, ingest catalog first")
	}
	tally.c.Groups = len(groupIDs)

	capturedAt := time.Now().UTC()

	sem := make(chan struct{}, r.Cfg.Feed.Concurrency)
	var wg sync.WaitGroup

	for _, gid := range groupIDs {
		gid := gid
		sem <- struct{}{}
		wg.Add(1)

		go func() {
			defer func() { <-sem; wg.Done() }()

			if err := r.refreshGroup(ctx, day, gid, capturedAt, tally); err != nil {
				r.Log.Warn("group refresh failed",
					zap.Int64("group_id", gid),
					zap.Error(err))
				tally.mu.Lock()
				tally.failedGroups++
				tally.mu.Unlock()
			}

			if r.Cfg.Feed.Throttle > 0 {
				time.Sleep(r.Cfg.Feed.Throttle)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return tally.c, err
	}
	if tally.failedGroups > 0 {
		return tally.c, fmt.Errorf("feed fetch failed for %d/%d groups, trends skipped", tally.failedGroups, len(groupIDs))
	}

	trendsUpserts, err := r.computeTrends(ctx, day)
	if err != nil {
		return tally.c, fmt.Errorf("trend step: %w", err)
	}
	tally.c.TrendsUpserts = trendsUpserts

	return tally.c, nil
}

// refreshGroup ingests one group's quotes for the snapshot day.
func (r *Runner) refreshGroup(ctx context.Context, day time.Time, groupID int64, capturedAt time.Time, tally *runTally) error {
	valid, err := r.Store.ProductIDsByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if len(valid) == 0 {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.Cfg.Feed.Timeout)
	rows, err := r.Feed.GetGroupPrices(fetchCtx, groupID)
	cancel()
	if err != nil {
		return err
	}

	quotes := make([]ingest.Quote, 0, len(rows))
	for _, row := range rows {
		if !valid[row.ProductID] {
			continue
		}
		if row.MarketPrice == nil {
			// Rows without a market price carry no signal for the series.
			continue
		}
		quotes = append(quotes, ingest.Quote{
			ProductID:  row.ProductID,
			SubType:    row.SubTypeName,
			Price:      *row.MarketPrice,
			ObservedAt: capturedAt,
		})
	}

	plan := ingest.BuildPlan(day, quotes)
	res, err := ingest.Run(ctx, r.Store, r.Log, plan)
	if err != nil {
		return err
	}

	tally.add(func(c *postgres.RunCounters) {
		c.RowsFetched += len(rows)
		c.RowsKept += plan.RowsKept
		c.LatestUpserts += res.LatestUpserts
		c.HistoryInserts += res.HistoryInserts
	})

	r.Log.Info("group refreshed",
		zap.Int64("group_id", groupID),
		zap.Int("fetched", len(rows)),
		zap.Int("kept", plan.RowsKept))
	return nil
}

// computeTrends derives the latest trend snapshot for every series that has a
// point on the snapshot day.
func (r *Runner) computeTrends(ctx context.Context, day time.Time) (int, error) {
	windows := trend.Windows{
		Lookback7d:  r.Cfg.Trend.Lookback7d,
		Lookback30d: r.Cfg.Trend.Lookback30d,
	}

	series, err := r.Store.LoadSeries(ctx, day, windows.Lookback30d)
	if err != nil {
		return 0, err
	}

	computedAt := time.Now().UTC()
	upserts := 0
	for _, s := range series {
		snap, ok := trend.Compute(day, s, windows, computedAt)
		if !ok {
			continue
		}
		if err := r.Store.UpsertTrend(ctx, snap); err != nil {
			return upserts, fmt.Errorf("upsert trend product=%d sub_type=%s: %w", s.ProductID, s.SubType, err)
		}
		upserts++
	}
	return upserts, nil
}

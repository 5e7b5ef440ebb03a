package ingest

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Quote is one raw market-price observation from the feed.
type Quote struct {
	ProductID  int64
	SubType    string
	Price      float64
	ObservedAt time.Time
}

// Key identifies one price series: a card in a specific printing variant.
type Key struct {
	ProductID int64
	SubType   string
}

// Point is the representative value chosen for one series on one day.
type Point struct {
	Key
	Price      float64
	ObservedAt time.Time
}

// Plan is the deterministic write set for one snapshot day. Building the plan
// is pure; running it against a store is a separate step, so re-running the
// same plan converges to the same stored rows.
type Plan struct {
	SnapshotDate time.Time
	Points       []Point
	RowsFetched  int
	RowsKept     int
	Malformed    int
}

// BuildPlan groups quotes by (product, sub_type) and picks one representative
// quote per series for the day. Tie-break policy, in order:
//
//  1. the most recent ObservedAt wins;
//  2. at identical timestamps the LOWER price wins.
//
// The conservative lower-price rule is deliberate: when a feed re-delivers
// conflicting values for the same instant we record the cheaper one rather
// than letting delivery order decide.
//
// Malformed quotes (zero product id, NaN/Inf price) are skipped and counted,
// never abort the batch.
func BuildPlan(snapshotDate time.Time, quotes []Quote) Plan {
	plan := Plan{
		SnapshotDate: DayUTC(snapshotDate),
		RowsFetched:  len(quotes),
	}

	best := make(map[Key]Quote)
	for _, q := range quotes {
		if q.ProductID == 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
			plan.Malformed++
			continue
		}
		if q.SubType == "" {
			q.SubType = "Unknown"
		}

		k := Key{ProductID: q.ProductID, SubType: q.SubType}
		cur, seen := best[k]
		switch {
		case !seen:
			best[k] = q
		case q.ObservedAt.After(cur.ObservedAt):
			best[k] = q
		case q.ObservedAt.Equal(cur.ObservedAt) && q.Price < cur.Price:
			best[k] = q
		}
	}

	plan.Points = make([]Point, 0, len(best))
	for k, q := range best {
		plan.Points = append(plan.Points, Point{Key: k, Price: q.Price, ObservedAt: q.ObservedAt})
		plan.RowsKept++
	}

	// Stable write order so runs are reproducible.
	sort.Slice(plan.Points, func(i, j int) bool {
		a, b := plan.Points[i], plan.Points[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.SubType < b.SubType
	})

	return plan
}

// Store is the slice of the storage layer the ingestor writes through. Both
// writes are insert-or-replace on their natural key, which is what makes a
// re-run of the same plan idempotent.
type Store interface {
	UpsertLatestPrice(ctx context.Context, productID int64, subType string, price float64, updatedAt time.Time) error
	UpsertHistoryPoint(ctx context.Context, productID int64, subType string, snapshotDate time.Time, price float64, capturedAt time.Time) error
}

// Result carries the ingest counters reported to the run log.
type Result struct {
	LatestUpserts  int
	HistoryInserts int
	Rejected       int
}

// Run applies a plan to the store. Row-level failures (e.g. a quote whose
// product no longer exists in the catalog) are logged, counted as rejected and
// do not stop the batch; already-committed rows stay valid under cancellation
// because a re-run converges to the same values.
func Run(ctx context.Context, store Store, log *zap.Logger, plan Plan) (Result, error) {
	var res Result

	for _, p := range plan.Points {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := store.UpsertLatestPrice(ctx, p.ProductID, p.SubType, p.Price, p.ObservedAt); err != nil {
			log.Warn("latest price upsert rejected",
				zap.Int64("product_id", p.ProductID),
				zap.String("sub_type", p.SubType),
				zap.Error(err))
			res.Rejected++
			continue
		}
		res.LatestUpserts++

		if err := store.UpsertHistoryPoint(ctx, p.ProductID, p.SubType, plan.SnapshotDate, p.Price, p.ObservedAt); err != nil {
			log.Warn("history point upsert rejected",
				zap.Int64("product_id", p.ProductID),
				zap.String("sub_type", p.SubType),
				zap.Error(err))
			res.Rejected++
			continue
		}
		res.HistoryInserts++
	}

	return res, nil
}

// DayUTC truncates t to its UTC calendar day. All snapshot dates go through
// this so that a quote captured at 23:59 UTC and one at 00:01 UTC land on the
// days they were observed, independent of server timezone.
func DayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

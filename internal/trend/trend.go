package trend

import (
	"sort"
	"time"
)

// HistoryPoint is one stored daily price for a series.
type HistoryPoint struct {
	SnapshotDate time.Time
	Price        float64
}

// Series is the recent history of one (product, sub_type) price series,
// including (when present) the point for the snapshot day itself.
type Series struct {
	ProductID int64
	SubType   string
	Points    []HistoryPoint
}

// Windows configures how far behind each anchor the calculator may fall back
// when the exact anchor day has no point.
type Windows struct {
	Lookback7d  int // days; anchor search range is [today-Lookback7d, today-7]
	Lookback30d int // days; anchor search range is [today-Lookback30d, today-30]
}

func DefaultWindows() Windows {
	return Windows{Lookback7d: 10, Lookback30d: 35}
}

// Snapshot is the computed trend for one series on one day. Anchor prices and
// percent changes are nil when no usable anchor exists; a zero or negative
// historical price is treated as missing, never as zero growth.
type Snapshot struct {
	ProductID      int64
	SubType        string
	SnapshotDate   time.Time
	MarketPrice    float64
	MarketPrice7d  *float64
	MarketPrice30d *float64
	PctChange7d    *float64
	PctChange30d   *float64
	ComputedAt     time.Time
}

// Compute derives the trend snapshot for one series. The second return is
// false when the series has no point on the snapshot day, in which case no
// trend row should be written.
func Compute(today time.Time, s Series, w Windows, computedAt time.Time) (Snapshot, bool) {
	points := make([]HistoryPoint, len(s.Points))
	copy(points, s.Points)
	sort.Slice(points, func(i, j int) bool {
		return points[i].SnapshotDate.Before(points[j].SnapshotDate)
	})

	var todayPrice *float64
	for i := len(points) - 1; i >= 0; i-- {
		if sameDay(points[i].SnapshotDate, today) {
			todayPrice = &points[i].Price
			break
		}
	}
	if todayPrice == nil {
		return Snapshot{}, false
	}

	snap := Snapshot{
		ProductID:    s.ProductID,
		SubType:      s.SubType,
		SnapshotDate: today,
		MarketPrice:  *todayPrice,
		ComputedAt:   computedAt,
	}

	snap.MarketPrice7d = anchor(points, today, 7, w.Lookback7d)
	snap.MarketPrice30d = anchor(points, today, 30, w.Lookback30d)
	snap.PctChange7d = pctChange(*todayPrice, snap.MarketPrice7d)
	snap.PctChange30d = pctChange(*todayPrice, snap.MarketPrice30d)

	return snap, true
}

// anchor returns the price exactly `back` days before today, or the nearest
// earlier point no older than `lookback` days, or nil.
func anchor(points []HistoryPoint, today time.Time, back, lookback int) *float64 {
	target := today.AddDate(0, 0, -back)
	oldest := today.AddDate(0, 0, -lookback)

	var found *float64
	for i := range points {
		d := points[i].SnapshotDate
		if d.After(target) || d.Before(oldest) {
			continue
		}
		// Points are sorted ascending, so the last hit is the nearest.
		found = &points[i].Price
	}
	return found
}

// pctChange returns (today - then) / then * 100, or nil when the anchor is
// missing or not a positive price. Division by zero is unreachable by
// construction.
func pctChange(today float64, then *float64) *float64 {
	if then == nil || *then <= 0 {
		return nil
	}
	pct := (today - *then) / *then * 100
	return &pct
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

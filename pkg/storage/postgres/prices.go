package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tcgtracker/internal/ingest"
	"tcgtracker/internal/trend"

	"gorm.io/gorm/clause"
)

// UpsertLatestPrice replaces the latest known price for one printing variant.
func (p *PostgresClient) UpsertLatestPrice(ctx context.Context, productID int64, subType string, price float64, updatedAt time.Time) error {
	rec := LatestPriceRecord{
		ProductID:   productID,
		SubType:     subType,
		MarketPrice: price,
		UpdatedAt:   updatedAt,
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "product_id"},
			{Name: "sub_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"market_price", "updated_at"}),
	}).Create(&rec)

	return tx.Error
}

// UpsertHistoryPoint writes the representative daily price for one variant.
// Insert-or-replace keyed by (product_id, sub_type, snapshot_date): a same-day
// re-run overwrites the day's point instead of duplicating it.
func (p *PostgresClient) UpsertHistoryPoint(ctx context.Context, productID int64, subType string, snapshotDate time.Time, price float64, capturedAt time.Time) error {
	rec := PriceHistoryRecord{
		ProductID:    productID,
		SubType:      subType,
		SnapshotDate: ingest.DayUTC(snapshotDate),
		MarketPrice:  price,
		CapturedAt:   capturedAt,
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "product_id"},
			{Name: "sub_type"},
			{Name: "snapshot_date"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"market_price", "captured_at"}),
	}).Create(&rec)

	return tx.Error
}

// LoadSeries returns the per-variant history needed to compute trends for the
// given snapshot day: every point within lookbackDays of the day, grouped by
// (product_id, sub_type) and sorted ascending by date.
func (p *PostgresClient) LoadSeries(ctx context.Context, day time.Time, lookbackDays int) ([]trend.Series, error) {
	day = ingest.DayUTC(day)
	oldest := day.AddDate(0, 0, -lookbackDays)

	var rows []PriceHistoryRecord
	err := p.DB.WithContext(ctx).
		Where("snapshot_date >= ? AND snapshot_date <= ?", oldest, day).
		Order("product_id, sub_type, snapshot_date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}

	grouped := make(map[ingest.Key]*trend.Series)
	for _, r := range rows {
		k := ingest.Key{ProductID: r.ProductID, SubType: r.SubType}
		s, ok := grouped[k]
		if !ok {
			s = &trend.Series{ProductID: r.ProductID, SubType: r.SubType}
			grouped[k] = s
		}
		s.Points = append(s.Points, trend.HistoryPoint{
			SnapshotDate: r.SnapshotDate,
			Price:        r.MarketPrice,
		})
	}

	out := make([]trend.Series, 0, len(grouped))
	for _, s := range grouped {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].SubType < out[j].SubType
	})
	return out, nil
}

// CountSubTypes returns how many distinct printing variants currently carry a
// price across the given products.
func (p *PostgresClient) CountSubTypes(ctx context.Context, productIDs []int64) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := p.DB.WithContext(ctx).
		Model(&LatestPriceRecord{}).
		Where("product_id IN ?", productIDs).
		Distinct("sub_type").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count sub types: %w", err)
	}
	return int(count), nil
}

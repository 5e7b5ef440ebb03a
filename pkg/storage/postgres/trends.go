package postgres

import (
	"context"

	"tcgtracker/internal/trend"

	"gorm.io/gorm/clause"
)

// UpsertTrend replaces the trend snapshot for one printing variant. The table
// holds the latest computation only; it is never a source of truth.
func (p *PostgresClient) UpsertTrend(ctx context.Context, snap trend.Snapshot) error {
	rec := TrendRecord{
		ProductID:      snap.ProductID,
		SubType:        snap.SubType,
		SnapshotDate:   snap.SnapshotDate,
		MarketPrice:    snap.MarketPrice,
		MarketPrice7d:  snap.MarketPrice7d,
		MarketPrice30d: snap.MarketPrice30d,
		PctChange7d:    snap.PctChange7d,
		PctChange30d:   snap.PctChange30d,
		ComputedAt:     snap.ComputedAt,
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "product_id"},
			{Name: "sub_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"snapshot_date", "market_price",
			"market_price_7d", "market_price_30d",
			"pct_change_7d", "pct_change_30d",
			"computed_at",
		}),
	}).Create(&rec)

	return tx.Error
}

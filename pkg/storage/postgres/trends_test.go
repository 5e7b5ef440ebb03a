package postgres_test

import (
	"context"
	"testing"
	"time"

	"tcgtracker/internal/trend"
	"tcgtracker/pkg/storage/postgres"
)

// go test -v --run TestTrendUpsertReplaces
func TestTrendUpsertReplaces(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	const productID = 880301
	day := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	client.DB.Where("product_id = ?", productID).Delete(&postgres.TrendRecord{})

	anchor := 10.0
	pct := 25.0
	first := trend.Snapshot{
		ProductID:     productID,
		SubType:       "Normal",
		SnapshotDate:  day,
		MarketPrice:   12.50,
		MarketPrice7d: &anchor,
		PctChange7d:   &pct,
		ComputedAt:    time.Now().UTC(),
	}
	if err := client.UpsertTrend(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Next day's computation replaces the row; the 30d anchor is unknown.
	second := first
	second.SnapshotDate = day.AddDate(0, 0, 1)
	second.MarketPrice = 13.00
	second.MarketPrice7d = nil
	second.PctChange7d = nil
	if err := client.UpsertTrend(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	var recs []postgres.TrendRecord
	if err := client.DB.Where("product_id = ?", productID).Find(&recs).Error; err != nil {
		t.Fatalf("read trends failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one trend row per variant, got %d", len(recs))
	}
	if recs[0].MarketPrice != 13.00 {
		t.Errorf("market price = %v, want 13.00", recs[0].MarketPrice)
	}
	if recs[0].MarketPrice7d != nil || recs[0].PctChange7d != nil {
		t.Errorf("missing anchors must be stored as NULL, got %+v", recs[0])
	}
}

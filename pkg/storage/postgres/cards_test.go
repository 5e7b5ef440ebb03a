package postgres_test

import (
	"context"
	"testing"
	"time"

	"tcgtracker/pkg/storage/postgres"
)

// go test -v --run TestCatalogIndexRoundTrip
func TestCatalogIndexRoundTrip(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	const groupID = 990002
	now := time.Now().UTC()

	if err := client.UpsertSets(ctx, []postgres.SetRecord{{
		GroupID: groupID, Name: "Index Set", UpdatedAt: now,
	}}); err != nil {
		t.Fatalf("seed set failed: %v", err)
	}

	cards := []postgres.CardRecord{
		{
			ProductID: 880101, GroupID: groupID,
			ProductName: "Pikachu", CleanName: "pikachu",
			CollectorNumberRaw: "025/102", CollectorNumberNorm: "25/102",
			ProductType: "single", UpdatedAt: now,
		},
		{
			ProductID: 880102, GroupID: groupID,
			ProductName: "Mew", CleanName: "mew",
			CollectorNumberRaw: "SVP 123", CollectorNumberNorm: "SVP123",
			ExtNumberRaw: "SVP 123", ExtNumberNorm: "SVP123",
			ProductType: "single", UpdatedAt: now,
		},
	}
	if err := client.UpsertCards(ctx, cards); err != nil {
		t.Fatalf("upsert cards failed: %v", err)
	}

	ix, err := client.LoadCatalogIndex(ctx)
	if err != nil {
		t.Fatalf("load index failed: %v", err)
	}
	if got := ix.ByCollectorNumber("25/102"); len(got) == 0 || got[0].ProductID != 880101 {
		t.Errorf("collector lookup failed: %+v", got)
	}
	if got := ix.ByExtNumber("SVP123"); len(got) == 0 || got[0].ProductID != 880102 {
		t.Errorf("ext lookup failed: %+v", got)
	}
}

// go test -v --run TestBackfillExtNumbers
func TestBackfillExtNumbers(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	const groupID = 990003
	now := time.Now().UTC()

	if err := client.UpsertSets(ctx, []postgres.SetRecord{{
		GroupID: groupID, Name: "Backfill Set", UpdatedAt: now,
	}}); err != nil {
		t.Fatalf("seed set failed: %v", err)
	}
	if err := client.UpsertCards(ctx, []postgres.CardRecord{{
		ProductID: 880201, GroupID: groupID,
		ProductName: "Promo Pikachu", CleanName: "promo pikachu",
		CollectorNumberRaw: "SM 05", CollectorNumberNorm: "SM5",
		ProductType: "single", UpdatedAt: now,
	}}); err != nil {
		t.Fatalf("upsert card failed: %v", err)
	}

	if _, err := client.BackfillExtNumbers(ctx); err != nil {
		t.Fatalf("backfill failed: %v", err)
	}

	var card postgres.CardRecord
	if err := client.DB.First(&card, int64(880201)).Error; err != nil {
		t.Fatalf("read card failed: %v", err)
	}
	if card.ExtNumberNorm != "SM05" {
		t.Errorf("ext number norm = %q, want SM05 (leading zero preserved)", card.ExtNumberNorm)
	}
}

package postgres_test

import (
	"context"
	"testing"
	"time"

	"tcgtracker/config"
	"tcgtracker/pkg/storage/postgres"
)

// testClient connects to the local test database, creating and migrating it on
// first use. Tests are skipped when no Postgres is reachable so the pure-logic
// suites still run everywhere.
func testClient(t *testing.T) *postgres.PostgresClient {
	t.Helper()

	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "tcgtracker_test",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	if err := postgres.CreateDatabase(cfg); err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}

	client, err := postgres.NewClient(cfg.DSN("dev"))
	if err != nil {
		t.Skipf("failed to connect to test DB: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if !client.IsHealthy(ctx) {
		t.Skip("test DB connection not healthy")
	}

	if err := client.AutoMigrateAll(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return client
}

// seedCard satisfies the FK chain (sets -> cards) for price and trend rows.
func seedCard(t *testing.T, client *postgres.PostgresClient, groupID, productID int64) {
	t.Helper()
	ctx := context.Background()

	if err := client.UpsertSets(ctx, []postgres.SetRecord{{
		GroupID:   groupID,
		Name:      "Test Set",
		UpdatedAt: time.Now().UTC(),
	}}); err != nil {
		t.Fatalf("failed to seed set: %v", err)
	}

	if err := client.UpsertCards(ctx, []postgres.CardRecord{{
		ProductID:   productID,
		GroupID:     groupID,
		ProductName: "Test Card",
		CleanName:   "test card",
		ProductType: "single",
		UpdatedAt:   time.Now().UTC(),
	}}); err != nil {
		t.Fatalf("failed to seed card: %v", err)
	}
}

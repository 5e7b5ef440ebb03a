package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tcgtracker/internal/catalog"
	"tcgtracker/pkg/storage/postgres"
)

// SyncCatalog pulls groups and products from the feed and refreshes the sets
// and cards tables, computing the normalized lookup columns on the way in.
// Safe to rerun; everything is keyed upserts.
func (r *Runner) SyncCatalog(ctx context.Context) error {
	groups, err := r.Feed.GetGroups(ctx)
	if err != nil {
		return fmt.Errorf("fetch groups: %w", err)
	}
	if len(groups) == 0 {
		return fmt.Errorf("feed returned no groups")
	}

	now := time.Now().UTC()
	sets := make([]postgres.SetRecord, 0, len(groups))
	for _, g := range groups {
		sets = append(sets, postgres.SetRecord{
			GroupID:      g.GroupID,
			Name:         g.Name,
			Abbreviation: g.Abbreviation,
			PublishedOn:  g.PublishedOn,
			UpdatedAt:    now,
		})
	}
	if err := r.Store.UpsertSets(ctx, sets); err != nil {
		return fmt.Errorf("upsert sets: %w", err)
	}
	r.Log.Info("sets refreshed", zap.Int("count", len(sets)))

	sem := make(chan struct{}, r.Cfg.Feed.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed int
	var total int

	for _, g := range groups {
		g := g
		sem <- struct{}{}
		wg.Add(1)

		go func() {
			defer func() { <-sem; wg.Done() }()

			n, err := r.syncGroupProducts(ctx, g.GroupID, now)

			mu.Lock()
			if err != nil {
				r.Log.Warn("group product sync failed",
					zap.Int64("group_id", g.GroupID),
					zap.Error(err))
				failed++
			}
			total += n
			mu.Unlock()

			if r.Cfg.Feed.Throttle > 0 {
				time.Sleep(r.Cfg.Feed.Throttle)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("product sync failed for %d/%d groups", failed, len(groups))
	}

	backfilled, err := r.Store.BackfillExtNumbers(ctx)
	if err != nil {
		return fmt.Errorf("backfill ext numbers: %w", err)
	}

	r.Log.Info("catalog sync finished",
		zap.Int("groups", len(groups)),
		zap.Int("cards", total),
		zap.Int64("ext_numbers_backfilled", backfilled))
	return nil
}

func (r *Runner) syncGroupProducts(ctx context.Context, groupID int64, now time.Time) (int, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.Cfg.Feed.Timeout)
	products, err := r.Feed.GetGroupProducts(fetchCtx, groupID)
	cancel()
	if err != nil {
		return 0, err
	}

	cards := make([]postgres.CardRecord, 0, len(products))
	for _, p := range products {
		// A collector number marks a single card; products without one are
		// sealed items or accessories and keep empty lookup columns.
		number := p.CardNumber()

		cards = append(cards, postgres.CardRecord{
			ProductID:           p.ProductID,
			GroupID:             groupID,
			ProductName:         p.Name,
			CleanName:           catalog.NormalizeName(p.Name),
			CollectorNumberRaw:  number,
			CollectorNumberNorm: catalog.NormalizeCollectorNumber(number),
			ExtNumberRaw:        number,
			ExtNumberNorm:       catalog.NormalizePromoNumber(number),
			Rarity:              p.Rarity(),
			ImageURL:            p.ImageURL,
			ProductURL:          p.URL,
			ProductType:         classifyProduct(p.Name, number),
			UpdatedAt:           now,
		})
	}

	if err := r.Store.UpsertCards(ctx, cards); err != nil {
		return 0, fmt.Errorf("upsert cards for group %d: %w", groupID, err)
	}
	return len(cards), nil
}

var sealedKeywords = []string{
	"booster", "box", "pack", "bundle", "collection", "tin", "display", "case",
}

func classifyProduct(name, number string) string {
	if number != "" {
		return "single"
	}
	lower := strings.ToLower(name)
	for _, kw := range sealedKeywords {
		if strings.Contains(lower, kw) {
			return "sealed"
		}
	}
	return "other"
}

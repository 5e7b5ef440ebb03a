package postgres

import (
	"context"
	"fmt"

	"tcgtracker/internal/catalog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertCards inserts or refreshes catalog cards keyed by product_id. Derived
// *_norm columns are expected to be populated by the caller from the raw
// fields.
func (p *PostgresClient) UpsertCards(ctx context.Context, cards []CardRecord) error {
	if len(cards) == 0 {
		return nil
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"group_id", "product_name", "clean_name",
			"collector_number_raw", "collector_number_norm",
			"ext_number_raw", "ext_number_norm",
			"rarity", "image_url", "product_url", "product_type", "updated_at",
		}),
	}).Create(&cards)

	return tx.Error
}

// ListGroupIDs returns every set that has at least one card in the catalog.
func (p *PostgresClient) ListGroupIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := p.DB.WithContext(ctx).
		Model(&CardRecord{}).
		Distinct("group_id").
		Order("group_id").
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list group ids: %w", err)
	}
	return ids, nil
}

// ProductIDsByGroup returns the known product ids of one set, used to filter
// feed rows down to catalog cards.
func (p *PostgresClient) ProductIDsByGroup(ctx context.Context, groupID int64) (map[int64]bool, error) {
	var ids []int64
	err := p.DB.WithContext(ctx).
		Model(&CardRecord{}).
		Where("group_id = ?", groupID).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("product ids for group %d: %w", groupID, err)
	}

	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// LoadCatalogIndex loads every card into the in-memory index the resolver
// queries. Called once per OCR run.
func (p *PostgresClient) LoadCatalogIndex(ctx context.Context) (*catalog.Index, error) {
	ix := catalog.NewIndex()

	var cards []CardRecord
	if err := p.DB.WithContext(ctx).FindInBatches(&cards, 1000, func(tx *gorm.DB, batch int) error {
		for _, c := range cards {
			ix.Put(catalog.Entry{
				ProductID:           c.ProductID,
				GroupID:             c.GroupID,
				ProductName:         c.ProductName,
				CleanName:           c.CleanName,
				CollectorNumberNorm: c.CollectorNumberNorm,
				ExtNumberNorm:       c.ExtNumberNorm,
			})
		}
		return nil
	}).Error; err != nil {
		return nil, fmt.Errorf("load catalog index: %w", err)
	}

	return ix, nil
}

// BackfillExtNumbers computes the ext (promo) number columns for cards that
// do not have them yet, deriving from the raw collector number. Returns the
// number of cards updated.
func (p *PostgresClient) BackfillExtNumbers(ctx context.Context) (int64, error) {
	var cards []CardRecord
	err := p.DB.WithContext(ctx).
		Where("(ext_number_norm IS NULL OR ext_number_norm = '') AND collector_number_raw <> ''").
		Find(&cards).Error
	if err != nil {
		return 0, fmt.Errorf("select cards for ext backfill: %w", err)
	}

	var updated int64
	for _, c := range cards {
		raw := c.CollectorNumberRaw
		norm := catalog.NormalizePromoNumber(raw)

		tx := p.DB.WithContext(ctx).
			Model(&CardRecord{}).
			Where("product_id = ?", c.ProductID).
			Updates(map[string]interface{}{
				"ext_number_raw":  raw,
				"ext_number_norm": norm,
			})
		if tx.Error != nil {
			return updated, fmt.Errorf("backfill ext number for product %d: %w", c.ProductID, tx.Error)
		}
		updated += tx.RowsAffected
	}

	return updated, nil
}

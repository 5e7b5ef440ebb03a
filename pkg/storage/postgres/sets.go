package postgres

import (
	"context"

	"gorm.io/gorm/clause"
)

// UpsertSets inserts or refreshes set metadata keyed by group_id.
func (p *PostgresClient) UpsertSets(ctx context.Context, sets []SetRecord) error {
	if len(sets) == 0 {
		return nil
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "abbreviation", "published_on", "updated_at",
		}),
	}).Create(&sets)

	return tx.Error
}

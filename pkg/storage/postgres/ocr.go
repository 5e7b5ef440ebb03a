package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateOCRRun records a new attempt in the pending state. The caller owns
// the uuid so it can correlate log lines before the row is finalized.
func (p *PostgresClient) CreateOCRRun(ctx context.Context, run *OCRRunRecord) error {
	run.Status = OCRStatusPending
	if err := p.DB.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("create ocr run: %w", err)
	}
	return nil
}

// FinishOCRRunSuccess finalizes a pending attempt and writes its result row
// in one transaction. The shared primary key guarantees at most one result
// per run; a second success for the same run fails instead of duplicating.
func (p *PostgresClient) FinishOCRRunSuccess(ctx context.Context, runID uuid.UUID, elapsedMS int64, result *OCRResultRecord) error {
	result.RunID = runID

	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&OCRRunRecord{}).
			Where("run_id = ? AND status = ?", runID, OCRStatusPending).
			Updates(map[string]interface{}{
				"status":     OCRStatusSuccess,
				"elapsed_ms": elapsedMS,
			})
		if res.Error != nil {
			return fmt.Errorf("finalize ocr run %s: %w", runID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("ocr run %s not pending", runID)
		}

		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("insert ocr result %s: %w", runID, err)
		}
		return nil
	})
}

// FinishOCRRunError finalizes a pending attempt as failed. No result row is
// written for a failed attempt.
func (p *PostgresClient) FinishOCRRunError(ctx context.Context, runID uuid.UUID, elapsedMS int64, message string) error {
	if len(message) > 800 {
		message = message[:800]
	}

	res := p.DB.WithContext(ctx).Model(&OCRRunRecord{}).
		Where("run_id = ? AND status = ?", runID, OCRStatusPending).
		Updates(map[string]interface{}{
			"status":        OCRStatusError,
			"elapsed_ms":    elapsedMS,
			"error_message": message,
		})
	if res.Error != nil {
		return fmt.Errorf("fail ocr run %s: %w", runID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("ocr run %s not pending", runID)
	}
	return nil
}

// DeleteOCRRun removes an attempt; the result row goes with it via the
// ON DELETE CASCADE constraint.
func (p *PostgresClient) DeleteOCRRun(ctx context.Context, runID uuid.UUID) error {
	return p.DB.WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&OCRRunRecord{}).Error
}

// FindOCRRunByImage returns the most recent successful attempt for an image
// hash, with its result preloaded, or nil when the image has not been
// resolved before. Used to dedupe repeated uploads of the same photo.
func (p *PostgresClient) FindOCRRunByImage(ctx context.Context, sha256 string) (*OCRRunRecord, error) {
	var run OCRRunRecord
	err := p.DB.WithContext(ctx).
		Preload("Result").
		Where("image_sha256 = ? AND status = ?", sha256, OCRStatusSuccess).
		Order("created_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup ocr run by image: %w", err)
	}
	return &run, nil
}

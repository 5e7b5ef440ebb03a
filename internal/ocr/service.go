package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tcgtracker/internal/catalog"
	"tcgtracker/pkg/storage/postgres"
)

// TextDetector is the OCR provider boundary; pkg/vision implements it.
type TextDetector interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// AttemptStore is the slice of the storage layer the attempt lifecycle needs.
type AttemptStore interface {
	CreateOCRRun(ctx context.Context, run *postgres.OCRRunRecord) error
	FinishOCRRunSuccess(ctx context.Context, runID uuid.UUID, elapsedMS int64, result *postgres.OCRResultRecord) error
	FinishOCRRunError(ctx context.Context, runID uuid.UUID, elapsedMS int64, message string) error
	FindOCRRunByImage(ctx context.Context, sha256 string) (*postgres.OCRRunRecord, error)
	CountSubTypes(ctx context.Context, productIDs []int64) (int, error)
}

// Service runs one image through the full pipeline: record the attempt, call
// the OCR provider, parse, resolve against the catalog and persist the
// outcome. Every attempt ends in exactly one of success or error.
type Service struct {
	Store    AttemptStore
	Detector TextDetector
	Resolver *Resolver
	Log      *zap.Logger
	Provider string
}

// ProcessImage resolves one card photo. An unresolved match is a successful
// attempt; only provider or storage failures surface as errors.
func (s *Service) ProcessImage(ctx context.Context, filename string, image []byte) (Resolution, error) {
	sha := hashImage(image)

	// Same photo seen before: reuse the stored resolution instead of paying
	// for another provider call.
	if prior, err := s.Store.FindOCRRunByImage(ctx, sha); err != nil {
		return Resolution{}, err
	} else if prior != nil && prior.Result != nil {
		s.Log.Info("image already resolved, reusing result",
			zap.String("sha256", sha),
			zap.String("run_id", prior.RunID.String()))
		return resolutionFromRecord(prior.Result), nil
	}

	run := &postgres.OCRRunRecord{
		RunID:       uuid.New(),
		CreatedAt:   time.Now().UTC(),
		Provider:    s.Provider,
		Filename:    filename,
		ImageSHA256: sha,
		ImageBytes:  int64(len(image)),
	}
	if err := s.Store.CreateOCRRun(ctx, run); err != nil {
		return Resolution{}, err
	}

	start := time.Now()
	text, err := s.Detector.DetectText(ctx, image)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if ferr := s.Store.FinishOCRRunError(ctx, run.RunID, elapsed, err.Error()); ferr != nil {
			s.Log.Error("failed to record ocr error", zap.Error(ferr))
		}
		return Resolution{}, fmt.Errorf("ocr provider: %w", err)
	}

	ex := ParseText(text)
	res := s.Resolver.Resolve(ex)

	result := &postgres.OCRResultRecord{
		FullText:            text,
		CollectorNumberRaw:  ex.CollectorNumberRaw,
		CollectorNumberNorm: ex.CollectorNumberNorm,
		PromoNumberRaw:      ex.PromoNumberRaw,
		PromoNumberNorm:     ex.PromoNumberNorm,
		CardName:            ex.CardName,
		MatchStrategy:       res.Strategy,
		Confidence:          res.Confidence,
		MatchCount:          res.MatchCount,
		VariantProductCount: res.VariantProductCount,
	}
	if res.Outcome == OutcomeMatched {
		pid := res.Card.ProductID
		result.MatchedProductID = &pid

		subTypes, err := s.Store.CountSubTypes(ctx, []int64{pid})
		if err != nil {
			s.Log.Warn("failed to count variant sub types", zap.Error(err))
		} else {
			result.VariantSubtypeCount = subTypes
		}
	}

	if err := s.Store.FinishOCRRunSuccess(ctx, run.RunID, elapsed, result); err != nil {
		return Resolution{}, err
	}

	s.Log.Info("ocr attempt finished",
		zap.String("run_id", run.RunID.String()),
		zap.String("outcome", string(res.Outcome)),
		zap.Float64("confidence", res.Confidence),
		zap.Int64("elapsed_ms", elapsed))

	return res, nil
}

func hashImage(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// resolutionFromRecord rebuilds the outcome of a previously stored result so
// duplicate uploads observe the same answer.
func resolutionFromRecord(rec *postgres.OCRResultRecord) Resolution {
	res := Resolution{
		Outcome:             OutcomeUnresolved,
		Confidence:          rec.Confidence,
		Strategy:            rec.MatchStrategy,
		MatchCount:          rec.MatchCount,
		VariantProductCount: rec.VariantProductCount,
	}
	if rec.MatchedProductID != nil {
		res.Outcome = OutcomeMatched
		res.Card = &catalog.Entry{ProductID: *rec.MatchedProductID}
	}
	return res
}

package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tcgtracker/internal/catalog"
	"tcgtracker/pkg/storage/postgres"
)

// memAttemptStore keeps OCR runs in memory so the attempt lifecycle can be
// exercised without a database.
type memAttemptStore struct {
	runs map[uuid.UUID]*postgres.OCRRunRecord
}

func newMemAttemptStore() *memAttemptStore {
	return &memAttemptStore{runs: make(map[uuid.UUID]*postgres.OCRRunRecord)}
}

func (m *memAttemptStore) CreateOCRRun(_ context.Context, run *postgres.OCRRunRecord) error {
	cp := *run
	cp.Status = postgres.OCRStatusPending
	m.runs[run.RunID] = &cp
	return nil
}

func (m *memAttemptStore) FinishOCRRunSuccess(_ context.Context, runID uuid.UUID, elapsedMS int64, result *postgres.OCRResultRecord) error {
	run, ok := m.runs[runID]
	if !ok || run.Status != postgres.OCRStatusPending {
		return errors.New("run not pending")
	}
	run.Status = postgres.OCRStatusSuccess
	run.ElapsedMS = elapsedMS
	result.RunID = runID
	run.Result = result
	return nil
}

func (m *memAttemptStore) FinishOCRRunError(_ context.Context, runID uuid.UUID, elapsedMS int64, message string) error {
	run, ok := m.runs[runID]
	if !ok || run.Status != postgres.OCRStatusPending {
		return errors.New("run not pending")
	}
	run.Status = postgres.OCRStatusError
	run.ElapsedMS = elapsedMS
	run.ErrorMessage = message
	return nil
}

func (m *memAttemptStore) FindOCRRunByImage(_ context.Context, sha string) (*postgres.OCRRunRecord, error) {
	for _, run := range m.runs {
		if run.ImageSHA256 == sha && run.Status == postgres.OCRStatusSuccess {
			return run, nil
		}
	}
	return nil, nil
}

func (m *memAttemptStore) CountSubTypes(_ context.Context, _ []int64) (int, error) {
	return 1, nil
}

// stubDetector returns canned text, or an error, and counts calls.
type stubDetector struct {
	text  string
	err   error
	calls int
}

func (d *stubDetector) DetectText(_ context.Context, _ []byte) (string, error) {
	d.calls++
	return d.text, d.err
}

func testService(store *memAttemptStore, det *stubDetector) *Service {
	ix := catalog.NewIndex()
	ix.Put(catalog.Entry{ProductID: 101, ProductName: "Charizard", CleanName: "charizard", CollectorNumberNorm: "59/131"})

	return &Service{
		Store:    store,
		Detector: det,
		Resolver: &Resolver{Index: ix, Threshold: 0.6},
		Log:      zap.NewNop(),
		Provider: "test",
	}
}

// go test -v --run TestProcessImageMatched
func TestProcessImageMatched(t *testing.T) {
	store := newMemAttemptStore()
	det := &stubDetector{text: "Charizard ex\nHP 180\n059/131"}
	svc := testService(store, det)

	res, err := svc.ProcessImage(context.Background(), "charizard.jpg", []byte("image-a"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res.Outcome != OutcomeMatched || res.Card.ProductID != 101 {
		t.Fatalf("expected match on product 101, got %+v", res)
	}

	if len(store.runs) != 1 {
		t.Fatalf("expected 1 stored run, got %d", len(store.runs))
	}
	for _, run := range store.runs {
		if run.Status != postgres.OCRStatusSuccess {
			t.Errorf("run status = %q, want success", run.Status)
		}
		if run.Result == nil || run.Result.MatchedProductID == nil || *run.Result.MatchedProductID != 101 {
			t.Errorf("stored result should carry matched product 101, got %+v", run.Result)
		}
	}
}

// An unresolved card is still a successful attempt.
// go test -v --run TestProcessImageUnresolved
func TestProcessImageUnresolved(t *testing.T) {
	store := newMemAttemptStore()
	svc := testService(store, &stubDetector{text: "blurry nonsense"})

	res, err := svc.ProcessImage(context.Background(), "blur.jpg", []byte("image-b"))
	if err != nil {
		t.Fatalf("unresolved must not be an error: %v", err)
	}
	if res.Outcome != OutcomeUnresolved {
		t.Fatalf("expected unresolved, got %s", res.Outcome)
	}
	for _, run := range store.runs {
		if run.Status != postgres.OCRStatusSuccess {
			t.Errorf("run status = %q, want success", run.Status)
		}
		if run.Result.MatchedProductID != nil {
			t.Errorf("unresolved result must not carry a product id")
		}
	}
}

// go test -v --run TestProcessImageProviderError
func TestProcessImageProviderError(t *testing.T) {
	store := newMemAttemptStore()
	svc := testService(store, &stubDetector{err: errors.New("quota exceeded")})

	if _, err := svc.ProcessImage(context.Background(), "x.jpg", []byte("image-c")); err == nil {
		t.Fatal("expected provider error to surface")
	}
	if len(store.runs) != 1 {
		t.Fatalf("expected the failed attempt to be recorded, got %d runs", len(store.runs))
	}
	for _, run := range store.runs {
		if run.Status != postgres.OCRStatusError {
			t.Errorf("run status = %q, want error", run.Status)
		}
		if run.ErrorMessage == "" {
			t.Errorf("error message should be recorded")
		}
	}
}

// go test -v --run TestProcessImageDedup
func TestProcessImageDedup(t *testing.T) {
	store := newMemAttemptStore()
	det := &stubDetector{text: "Charizard ex\nHP 180\n059/131"}
	svc := testService(store, det)

	image := []byte("same-bytes")
	first, err := svc.ProcessImage(context.Background(), "a.jpg", image)
	if err != nil {
		t.Fatalf("first attempt failed: %v", err)
	}
	second, err := svc.ProcessImage(context.Background(), "b.jpg", image)
	if err != nil {
		t.Fatalf("second attempt failed: %v", err)
	}

	if det.calls != 1 {
		t.Errorf("expected 1 provider call for duplicate images, got %d", det.calls)
	}
	if len(store.runs) != 1 {
		t.Errorf("expected no second run row, got %d", len(store.runs))
	}
	if second.Outcome != first.Outcome || second.Card.ProductID != first.Card.ProductID {
		t.Errorf("duplicate image must observe the same answer: %+v vs %+v", first, second)
	}
}

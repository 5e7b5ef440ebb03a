package postgres

import (
	"time"

	"github.com/google/uuid"
)

// Run log and OCR attempt statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"

	OCRStatusPending = "pending"
	OCRStatusSuccess = "success"
	OCRStatusError   = "error"
)

// SetRecord is a catalog grouping (an expansion) from the marketplace feed.
type SetRecord struct {
	GroupID      int64  `gorm:"primaryKey;autoIncrement:false"`
	Name         string `gorm:"type:text;not null"`
	Abbreviation string `gorm:"type:varchar(16)"`
	PublishedOn  string `gorm:"type:text"`

	UpdatedAt time.Time `gorm:"not null"`
}

func (SetRecord) TableName() string {
	return "sets"
}

// CardRecord is one catalog product. The *_norm columns are derived lookup
// keys, recomputed whenever the raw fields change; they are never hand-edited.
type CardRecord struct {
	ProductID int64 `gorm:"primaryKey;autoIncrement:false"`
	GroupID   int64 `gorm:"not null;index:idx_cards_group"`

	ProductName string `gorm:"type:text;not null"`
	CleanName   string `gorm:"type:text;index:idx_cards_clean_name"`

	CollectorNumberRaw  string `gorm:"type:varchar(32)"`
	CollectorNumberNorm string `gorm:"type:varchar(32);index:idx_cards_collector_norm"`
	ExtNumberRaw        string `gorm:"type:varchar(32)"`
	ExtNumberNorm       string `gorm:"type:varchar(32);index:idx_cards_ext_norm"`

	Rarity     string `gorm:"type:varchar(64)"`
	ImageURL   string `gorm:"type:text"`
	ProductURL string `gorm:"type:text"`

	// single | sealed | other | unknown
	ProductType string `gorm:"type:varchar(16);not null;default:unknown"`

	UpdatedAt time.Time `gorm:"not null"`

	Set SetRecord `gorm:"foreignKey:GroupID;references:GroupID"`
}

func (CardRecord) TableName() string {
	return "cards"
}

// LatestPriceRecord holds the most recent known market price per printing
// variant. Overwritten in place on every refresh; no history.
type LatestPriceRecord struct {
	ID uint `gorm:"primaryKey"`

	ProductID int64  `gorm:"not null;index:idx_latest_product_subtype,unique"`
	SubType   string `gorm:"type:varchar(32);not null;index:idx_latest_product_subtype,unique"`

	MarketPrice float64   `gorm:"type:numeric;not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	Card CardRecord `gorm:"foreignKey:ProductID;references:ProductID"`
}

func (LatestPriceRecord) TableName() string {
	return "prices_latest"
}

// PriceHistoryRecord is one daily snapshot point. At most one row per
// (product, sub_type, snapshot_date); same-day re-runs replace in place.
type PriceHistoryRecord struct {
	ID uint `gorm:"primaryKey"`

	ProductID    int64     `gorm:"not null;index:idx_history_key,unique"`
	SubType      string    `gorm:"type:varchar(32);not null;index:idx_history_key,unique"`
	SnapshotDate time.Time `gorm:"type:date;not null;index:idx_history_key,unique;index:idx_history_date"`

	MarketPrice float64   `gorm:"type:numeric;not null"`
	CapturedAt  time.Time `gorm:"not null"`

	Card CardRecord `gorm:"foreignKey:ProductID;references:ProductID"`
}

func (PriceHistoryRecord) TableName() string {
	return "prices_history"
}

// TrendRecord holds the most recent computed trend per printing variant.
// Derived entirely from prices_history; latest computation overwrites the
// previous one.
type TrendRecord struct {
	ID uint `gorm:"primaryKey"`

	ProductID int64  `gorm:"not null;index:idx_trends_product_subtype,unique"`
	SubType   string `gorm:"type:varchar(32);not null;index:idx_trends_product_subtype,unique"`

	SnapshotDate time.Time `gorm:"type:date;not null"`
	MarketPrice  float64   `gorm:"type:numeric;not null"`

	// Nullable: no usable anchor inside the lookback window.
	MarketPrice7d  *float64 `gorm:"type:numeric"`
	MarketPrice30d *float64 `gorm:"type:numeric"`
	PctChange7d    *float64 `gorm:"type:numeric"`
	PctChange30d   *float64 `gorm:"type:numeric"`

	ComputedAt time.Time `gorm:"not null"`
}

func (TrendRecord) TableName() string {
	return "trends_latest"
}

// RunRecord is one pipeline execution, append-only and immutable once
// finalized.
type RunRecord struct {
	RunID int64 `gorm:"primaryKey"`

	JobName      string    `gorm:"type:varchar(64);not null;index:idx_run_log_job"`
	SnapshotDate time.Time `gorm:"type:date;not null"`

	StartedAt  time.Time  `gorm:"not null"`
	FinishedAt *time.Time ``
	Status     string     `gorm:"type:varchar(16);not null"`

	GroupsCount      int `gorm:"not null;default:0"`
	PriceRowsFetched int `gorm:"not null;default:0"`
	PriceRowsKept    int `gorm:"not null;default:0"`
	LatestUpserts    int `gorm:"not null;default:0"`
	HistoryInserts   int `gorm:"not null;default:0"`
	TrendsUpserts    int `gorm:"not null;default:0"`

	Notes string `gorm:"type:text"`
}

func (RunRecord) TableName() string {
	return "run_log"
}

// OCRRunRecord is one processed image: input metadata, terminal status and
// latency. Immutable once finalized.
type OCRRunRecord struct {
	RunID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt   time.Time `gorm:"not null;index:idx_ocr_runs_created_at"`
	Provider    string    `gorm:"type:varchar(32);not null"`
	Filename    string    `gorm:"type:text"`
	ImageSHA256 string    `gorm:"type:varchar(64);not null;index:idx_ocr_runs_sha"`
	ImageBytes  int64     `gorm:"not null"`

	Status       string `gorm:"type:varchar(16);not null"`
	ElapsedMS    int64  ``
	ErrorMessage string `gorm:"type:text"`

	// 1:1 with the result row, cascade-deleted with the run.
	Result *OCRResultRecord `gorm:"foreignKey:RunID;references:RunID;constraint:OnDelete:CASCADE"`
}

func (OCRRunRecord) TableName() string {
	return "ocr_runs"
}

// OCRResultRecord is the parsed and matched output of one successful OCR run.
// The shared primary key enforces exactly one result per run.
type OCRResultRecord struct {
	RunID uuid.UUID `gorm:"type:uuid;primaryKey"`

	FullText string `gorm:"type:text;not null"`

	CollectorNumberRaw  string `gorm:"type:varchar(32)"`
	CollectorNumberNorm string `gorm:"type:varchar(32);index:idx_ocr_results_collector_norm"`
	PromoNumberRaw      string `gorm:"type:varchar(32)"`
	PromoNumberNorm     string `gorm:"type:varchar(32);index:idx_ocr_results_promo_norm"`
	CardName            string `gorm:"type:text"`

	MatchedProductID *int64  ``
	MatchStrategy    string  `gorm:"type:varchar(32)"`
	Confidence       float64 `gorm:"type:numeric;not null;default:0"`

	MatchCount          int `gorm:"not null;default:0"`
	VariantProductCount int `gorm:"not null;default:0"`
	VariantSubtypeCount int `gorm:"not null;default:0"`
}

func (OCRResultRecord) TableName() string {
	return "ocr_results"
}

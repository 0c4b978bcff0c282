package store

import "time"

// StockState enumerates a Product's availability (spec §3).
type StockState string

const (
	StockInStock StockState = "in_stock"
	StockLow     StockState = "low"
	StockOut     StockState = "out"
)

// ObservationLifecycle enumerates a CatalogObservation's place in the
// review pipeline (spec §3).
type ObservationLifecycle string

const (
	LifecycleBaseline      ObservationLifecycle = "baseline"
	LifecyclePendingReview ObservationLifecycle = "pending_review"
	LifecycleApproved      ObservationLifecycle = "approved"
	LifecycleRejected      ObservationLifecycle = "rejected"
	LifecyclePromoted      ObservationLifecycle = "promoted"
)

// RunType enumerates why an Orchestrator invocation happened (spec §3).
type RunType string

const (
	RunBaseline   RunType = "baseline"
	RunMonitoring RunType = "monitoring"
	RunRecheck    RunType = "recheck"
)

// RunEndState enumerates how a MonitoringRun finished (spec §3).
type RunEndState string

const (
	RunStateRunning   RunEndState = "running"
	RunStateCompleted RunEndState = "completed"
	RunStateFailed    RunEndState = "failed"
	RunStatePartial   RunEndState = "partial"
)

// PatternElementType enumerates the page element a LearnedPattern
// describes (spec §3).
type PatternElementType string

const (
	ElementProductLink     PatternElementType = "product_link"
	ElementTitle           PatternElementType = "title"
	ElementPrice           PatternElementType = "price"
	ElementImage           PatternElementType = "image"
	ElementDescription     PatternElementType = "description"
	ElementPaginationNext  PatternElementType = "pagination_next"
	ElementLoadMoreButton  PatternElementType = "load_more_button"
)

// PatternKind distinguishes the three shapes a LearnedPattern payload
// can take (spec §3).
type PatternKind string

const (
	PatternKindSelector           PatternKind = "selector"
	PatternKindURLTransform       PatternKind = "url_transform"
	PatternKindPlaceholderExclude PatternKind = "placeholder_exclude"
)

// Product is a stable, never-deleted catalog row (spec §3). Identity is
// (Retailer, ProductCode) when a code was extractable, else
// (Retailer, NormalizedURL).
type Product struct {
	ID                 int64
	Retailer           string
	ProductCode        string // empty when no code was extractable
	NormalizedURL      string
	ExactURL           string
	Title              string
	Brand              string
	CurrentPriceCents  int64
	OriginalPriceCents *int64
	Currency           string
	OnSale             bool
	StockState         StockState
	Category           string
	ImageURLs          []string
	Description        string
	Neckline           string
	SleeveLength       string
	FirstSeenAt        time.Time
	LastSeenAt         time.Time
	LastUpdatedAt      time.Time
}

// CatalogObservation is one append-only row per (retailer, category,
// product, discovered-date) (spec §3).
type CatalogObservation struct {
	ID              int64
	Retailer        string
	Category        string
	ProductCode     string
	URL             string
	DiscoveredDate  string // YYYY-MM-DD
	Title           string
	PriceCents      int64
	Lifecycle       ObservationLifecycle
	ProductID       *int64
	CreatedAt       time.Time
}

// Baseline is the canonical per-(retailer, category) snapshot that
// monitoring runs compare against (spec §3). At most one row per
// (retailer, category) has Active = true (invariant P1).
type Baseline struct {
	ID                int64
	Retailer          string
	Category          string
	CapturedAt        time.Time
	PagesWalked       int
	ObservationCount  int
	CrawlerMetadata   string // opaque JSON blob
	Active            bool
}

// MonitoringRun tracks one Orchestrator invocation (spec §3).
type MonitoringRun struct {
	ID               int64
	RunType          RunType
	Retailer         string
	Category         string
	StartedAt        time.Time
	EndedAt          *time.Time
	ProductsCrawled  int
	NewProducts      int
	QueuedForReview  int
	EndState         RunEndState
	ErrorLog         string
}

// LearnedPattern is one per-retailer extraction hint with its observed
// success/failure counters (spec §3, §4.2).
type LearnedPattern struct {
	ID             int64
	Retailer       string
	ElementType    PatternElementType
	PatternKind    PatternKind
	PatternPayload string
	SuccessCount   int
	FailureCount   int
	Confidence     float64
	VisualHints    string // opaque JSON blob, empty when absent
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MarkdownCacheEntry caches a fetched-and-converted page body (spec §3,
// §4.3). Entries are treated as absent once older than the configured
// expiry; expiry is enforced by the caller, not the schema.
type MarkdownCacheEntry struct {
	URL          string
	CanonicalURL string
	Body         string
	CapturedAt   time.Time
}

// PageStructureSnapshot is a point-in-time fingerprint of a retailer's
// page structure (spec §12), used to detect when a retailer redesigns
// pages out from under the Pattern Learner's accumulated selectors.
type PageStructureSnapshot struct {
	ID               int64
	Retailer         string
	CapturedAt       time.Time
	DOMStructureHash string
	VisualLayoutHash string
	KeySelectors     string // opaque JSON blob: {element_type: selector}
	CreatedAt        time.Time
}

// Statistics is the aggregate snapshot returned by GetStatistics.
type Statistics struct {
	TotalProducts       int64
	TotalObservations   int64
	ActiveBaselines     int64
	PendingReviewCount  int64
	MonitoringRunCount  int64
	LearnedPatternCount int64
}

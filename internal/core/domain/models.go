package domain

import "time"

// PostKind selects which publish payload variant is built.
type PostKind string

const (
	KindText     PostKind = "text"
	KindImage    PostKind = "image"
	KindCarousel PostKind = "carousel"
)

// PostRequest is a normalized, parsed submission. Immutable once built.
type PostRequest struct {
	Kind      PostKind `json:"kind"`
	Topic     string   `json:"topic"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	MediaPath string   `json:"media_path,omitempty"` // image file for KindImage, PDF for KindCarousel
	BestTime  string   `json:"best_time,omitempty"`
}

// NeedsMedia reports whether this kind requires a local media file.
func (r PostRequest) NeedsMedia() bool {
	return r.Kind == KindImage || r.Kind == KindCarousel
}

// SubmissionStatus tracks a submission file through its lifecycle.
type SubmissionStatus string

const (
	StatusPending     SubmissionStatus = "pending"
	StatusProcessing  SubmissionStatus = "processing"
	StatusPublished   SubmissionStatus = "published"
	StatusFailed      SubmissionStatus = "failed"
	StatusRateLimited SubmissionStatus = "rate_limited"
)

// AssetHandle is the opaque asset URN returned by upload registration.
// It only lives for the single publish call that consumes it.
type AssetHandle string

// Ledger action types and results. These are wire values in the daily
// log files, so they must stay stable.
const (
	ActionPublish = "linkedin_post"

	ResultSuccess     = "success"
	ResultDryRun      = "dry_run"
	ResultRateLimited = "rate_limited"
)

// DryRunURN is the placeholder external id used for simulated publishes.
// Analytics must skip entries carrying it.
const DryRunURN = "dry-run-urn"

// ActionEntry is one row of the daily ledger file. Append-only.
type ActionEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	ActionType string         `json:"action_type"`
	Actor      string         `json:"actor"`
	Parameters map[string]any `json:"parameters"`
	PostURN    string         `json:"post_urn"`
	DryRun     bool           `json:"dry_run"`
	Result     string         `json:"result"`
}

// IsSuccessfulPublish reports whether this entry counts toward the daily quota.
func (e ActionEntry) IsSuccessfulPublish() bool {
	return e.ActionType == ActionPublish && e.Result == ResultSuccess
}

// Share is the fully composed payload handed to the publish endpoint.
type Share struct {
	Kind  PostKind
	Text  string
	Asset AssetHandle // empty for KindText
	Title string
}

// PostMetrics holds per-post engagement numbers for reporting.
type PostMetrics struct {
	SourceFile string
	Likes      int
	Comments   int
	Shares     int
}

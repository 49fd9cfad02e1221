package ports

import (
	"context"

	"postpilot/internal/core/domain"
)

// AuthProvider supplies credentials for the remote platform.
type AuthProvider interface {
	// Headers returns the request headers for authenticated API calls.
	Headers() (map[string]string, error)

	// AuthorURN resolves the posting author's URN, fetching it from the
	// platform when it is not configured locally.
	AuthorURN(ctx context.Context) (string, error)
}

// PublishAPI performs the remote publish call for a composed share.
type PublishAPI interface {
	// Publish submits the share and returns the external post URN.
	Publish(ctx context.Context, share domain.Share) (string, error)
}

// MediaUploader registers and transfers a local media file to the platform.
type MediaUploader interface {
	// Upload runs the two-phase protocol (register intent, transfer bytes)
	// and returns the opaque asset handle. No retries are attempted here.
	Upload(ctx context.Context, localPath string, kind domain.PostKind) (domain.AssetHandle, error)
}

// ActionLedger is the append-only daily audit log. It is the ledger of
// truth for quota enforcement and analytics.
type ActionLedger interface {
	// Append adds one entry to today's log file, creating it if absent.
	// Prior entries are always preserved.
	Append(ctx context.Context, entry domain.ActionEntry) error

	// CountToday counts today's entries matching the predicate.
	CountToday(ctx context.Context, pred func(domain.ActionEntry) bool) (int, error)

	// EntriesSince returns all entries from the last n calendar days,
	// today included, in insertion order.
	EntriesSince(ctx context.Context, days int) ([]domain.ActionEntry, error)
}

// Claim is a submission handed out by the queue. The holder owns it
// exclusively until Complete or Release is called.
type Claim struct {
	ID      string
	Name    string // original filename
	Content []byte
}

// SubmissionQueue models the inbox as a single-consumer job queue. It
// isolates the state machine from the notification mechanism, so tests
// can inject an in-memory implementation.
type SubmissionQueue interface {
	// ClaimNext blocks until a submission is available or ctx is done.
	ClaimNext(ctx context.Context) (*Claim, error)

	// Complete performs the terminal transition: StatusPublished moves
	// the file to the published area; StatusFailed renames it with an
	// error marker, appends note as an error section, and moves it to
	// the needs-action area.
	Complete(claim *Claim, state domain.SubmissionStatus, note string) error

	// Release leaves the submission pending. Used for rate-limited
	// submissions that should be retried after a restart.
	Release(claim *Claim) error

	// ArchiveMedia moves a published submission's media file into the
	// published area alongside the post file.
	ArchiveMedia(localPath string) error
}

// StatusBoard is the best-effort, display-only projection of outcomes.
type StatusBoard interface {
	// AppendRow inserts one activity row under the board's table header.
	// A missing board document is a no-op.
	AppendRow(topic, status, postURN string) error

	// SetSystemState rewrites the board's system state and last-updated
	// markers in place.
	SetSystemState(state string) error
}

// MetricsAPI fetches engagement numbers for published posts.
type MetricsAPI interface {
	// PostMetrics returns likes, comments and shares for a post URN.
	PostMetrics(ctx context.Context, postURN string) (domain.PostMetrics, error)

	// FollowerCount returns the author's current network size.
	FollowerCount(ctx context.Context, authorURN string) (int, error)
}

package ports

import (
	"context"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
)

// AnnouncementSource pulls the full announcement set for a date window
// from the exchange feed.
type AnnouncementSource interface {
	FetchAll(ctx context.Context, window domain.Window) ([]domain.Announcement, error)
}

// AttachmentResolver maps an announcement to its primary document URL.
type AttachmentResolver interface {
	ResolveAttachment(ctx context.Context, newsID, scripCode string) (string, error)
}

// Downloader fetches the attached document and owns the deterministic
// on-disk naming scheme used for idempotent re-discovery.
type Downloader interface {
	// Download retrieves the document and returns its local path. In
	// dry-run mode the URL is logged instead and the returned path is
	// empty.
	Download(ctx context.Context, ann domain.Announcement, url string) (string, error)
	// LocalPath re-derives the deterministic path a previous run would
	// have downloaded to, without touching the network.
	LocalPath(ann domain.Announcement) string
}

// ContentExtractor turns a downloaded document into page count and text.
// The extraction engine itself is an external collaborator.
type ContentExtractor interface {
	Extract(ctx context.Context, path string) (domain.ExtractedDocument, error)
}

// Summarizer is the AI summarization backend.
type Summarizer interface {
	// SummarizeText runs the analyst prompt over a full transcript.
	SummarizeText(ctx context.Context, transcript, company string) (domain.RawSummary, error)
	// SummarizeMedia uploads a local media file, waits for backend-side
	// processing, and summarizes it. The uploaded remote artifact is
	// deleted best-effort on every path.
	SummarizeMedia(ctx context.Context, path, company string) (domain.RawSummary, error)
	// ExtractCompanyName is a single-attempt, no-retry helper used when
	// the feed supplied no usable company name.
	ExtractCompanyName(ctx context.Context, text string) (string, error)
}

// Notifier delivers one formatted outbound message per outcome.
type Notifier interface {
	Notify(ctx context.Context, result domain.SummaryResult) error
}

// Scheduler drives a recurring job. A run returning an error pushes
// the next invocation out to the cooldown interval.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context) error) error
	Stop()
}

// StateStore is the persistent dedup/processing-status record. Only the
// orchestrator writes; reads are safe from any context.
type StateStore interface {
	IsProcessed(ctx context.Context, newsID string) (bool, error)
	NeedsSummarization(ctx context.Context, newsID string) (bool, error)
	RecordDownloaded(ctx context.Context, newsID, scripCode, companyName, resolvedURL string) error
	RecordSummaryOutcome(ctx context.Context, newsID string, result domain.SummaryResult, status domain.Status) error
	// ResolvedURL returns the attachment URL persisted at download time,
	// sparing resumed items a second resolver call.
	ResolvedURL(ctx context.Context, newsID string) (string, error)
	Close() error
}

package domain

import (
	"strings"
	"time"
)

// Announcement is a core entity describing one corporate disclosure event
// observed on the exchange feed.
type Announcement struct {
	NewsID      string
	ScripCode   string
	CompanyName string
	Category    string
	Subcategory string
	// AttachmentURL is set when the feed row (or a test harness) already
	// carries the document location; otherwise it is resolved separately.
	AttachmentURL string
	PublishedAt   time.Time
}

// Status enumerates the persisted processing milestones of an announcement.
// Transitions only move forward: NEW -> DOWNLOADED -> PROCESSED or
// ERROR_PROCESSING.
type Status string

const (
	StatusNew             Status = "NEW"
	StatusDownloaded      Status = "DOWNLOADED"
	StatusProcessed       Status = "PROCESSED"
	StatusErrorProcessing Status = "ERROR_PROCESSING"
)

// ProcessingRecord is the persisted per-announcement state used for
// deduplication and crash recovery.
type ProcessingRecord struct {
	NewsID       string
	ScripCode    string
	CompanyName  string
	Status       Status
	ResolvedURL  string
	DownloadedAt time.Time
}

// Window bounds one fetch of the announcement feed.
type Window struct {
	From time.Time
	To   time.Time
}

// SanitizeCompanyName strips every character that is neither alphanumeric
// nor a space, matching the deterministic file naming scheme.
func SanitizeCompanyName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == ' ' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// ShortID returns the first 8 characters of the feed identifier, used in
// deterministic artifact names.
func ShortID(newsID string) string {
	if len(newsID) > 8 {
		return newsID[:8]
	}
	return newsID
}

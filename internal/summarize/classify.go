// Package summarize holds the per-announcement core: classification of
// extracted document content and the dispatch state machine that turns
// content into exactly one SummaryResult.
package summarize

import (
	"regexp"
	"strings"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
)

// Size decides the document's nature before anything else: a large
// document is the transcript itself and its embedded links are ignored;
// a small one can only be a pointer at the real content.
const maxPointerPages = 3

var (
	urlPattern   = regexp.MustCompile(`https?://\S+|file://\S+|\bwww\.\S+`)
	mediaPattern = regexp.MustCompile(`(?i)\.(mp3|mp4|wav|m4a|pdf)\b`)
)

// Classify routes an extracted document to one of the three content
// variants.
func Classify(doc domain.ExtractedDocument) domain.ClassifiedContent {
	if doc.PageCount > maxPointerPages {
		return domain.TextContent(doc.Text)
	}

	if len(doc.Text) > 10 {
		if links := extractLinks(doc.Text); len(links) > 0 {
			return domain.LinkContent(links)
		}
	}

	return domain.ContentError("small document with insufficient content or no links found")
}

// extractLinks finds URLs in the text, healing links broken across line
// breaks, and tags each one as media or web.
func extractLinks(text string) []domain.Link {
	// URLs in link-pointer documents are often wrapped mid-line.
	stitched := strings.ReplaceAll(text, "\n", "")

	var links []domain.Link
	for _, raw := range urlPattern.FindAllString(stitched, -1) {
		cleaned := strings.TrimRight(raw, ".,;)")
		kind := domain.LinkWeb
		if mediaPattern.MatchString(cleaned) {
			kind = domain.LinkMedia
		}
		links = append(links, domain.Link{URL: cleaned, Kind: kind})
	}
	return links
}

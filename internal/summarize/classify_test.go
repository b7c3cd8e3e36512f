package summarize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
)

func TestClassifyLargeDocumentIsTranscript(t *testing.T) {
	doc := domain.ExtractedDocument{
		PageCount: 12,
		// Embedded links must not demote a transcript to a pointer.
		Text: "Q1 earnings call transcript. Webcast at https://example.com/call.mp3",
	}

	content := Classify(doc)
	body, ok := content.Text()
	require.True(t, ok)
	require.Equal(t, doc.Text, body)
}

func TestClassifySmallDocumentWithLinks(t *testing.T) {
	doc := domain.ExtractedDocument{
		PageCount: 1,
		Text: "The audio recording of the earnings call is available at\n" +
			"https://example.com/calls/q1-2026.mp3 and the investor page at\n" +
			"https://example.com/investors.",
	}

	content := Classify(doc)
	links, ok := content.Links()
	require.True(t, ok)
	require.Len(t, links, 2)
	require.Equal(t, domain.LinkMedia, links[0].Kind)
	require.Equal(t, "https://example.com/calls/q1-2026.mp3", links[0].URL)
	require.Equal(t, domain.LinkWeb, links[1].Kind)
}

func TestClassifySmallEmptyDocumentIsError(t *testing.T) {
	content := Classify(domain.ExtractedDocument{PageCount: 1, Text: "scanned"})
	_, ok := content.Err()
	require.True(t, ok)
}

func TestClassifyBoundaryPageCount(t *testing.T) {
	// Exactly three pages still counts as a pointer document.
	doc := domain.ExtractedDocument{
		PageCount: 3,
		Text:      "Refer to the recording at https://cdn.example.com/a.wav now.",
	}
	_, ok := Classify(doc).Links()
	require.True(t, ok)

	doc.PageCount = 4
	_, ok = Classify(doc).Text()
	require.True(t, ok)
}

func TestExtractLinksStitchesAndTrims(t *testing.T) {
	text := "Listen here: https://example.com/media/earn\nings_call.mp4, more at (https://example.com/page)."

	links := extractLinks(text)
	require.Len(t, links, 2)
	require.Equal(t, "https://example.com/media/earnings_call.mp4", links[0].URL)
	require.Equal(t, domain.LinkMedia, links[0].Kind)
	require.Equal(t, "https://example.com/page", links[1].URL)
	require.Equal(t, domain.LinkWeb, links[1].Kind)
}

func TestExtractLinksRecognizesFileAndWWW(t *testing.T) {
	links := extractLinks("see file:///data/call.pdf and www.example.com/ir")
	require.Len(t, links, 2)
	require.Equal(t, domain.LinkMedia, links[0].Kind)
	require.Equal(t, "www.example.com/ir", links[1].URL)
}

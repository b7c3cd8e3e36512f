package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/logging"
	"github.com/homeo-ai-official/bse-auto/pkg/retry"
)

type fakeSummarizer struct {
	textSummary  domain.RawSummary
	textErr      error
	mediaSummary domain.RawSummary
	mediaErr     error
	company      string
	companyErr   error

	mediaPaths []string
}

func (f *fakeSummarizer) SummarizeText(_ context.Context, _, _ string) (domain.RawSummary, error) {
	return f.textSummary, f.textErr
}

func (f *fakeSummarizer) SummarizeMedia(_ context.Context, path, _ string) (domain.RawSummary, error) {
	f.mediaPaths = append(f.mediaPaths, path)
	return f.mediaSummary, f.mediaErr
}

func (f *fakeSummarizer) ExtractCompanyName(_ context.Context, _ string) (string, error) {
	return f.company, f.companyErr
}

func newTestDispatcher(t *testing.T, s *fakeSummarizer) *Dispatcher {
	t.Helper()
	return NewDispatcher(s, t.TempDir(), nil, logging.Discard())
}

func TestSummarizeTextSuccess(t *testing.T) {
	fake := &fakeSummarizer{
		textSummary: domain.RawSummary{
			CompanyName: "Acme Industries Ltd",
			Sentiment:   "Moderately Bullish",
			Points:      []string{"Revenue grew 14 percent year on year."},
		},
	}
	d := newTestDispatcher(t, fake)

	result := d.Summarize(context.Background(), domain.TextContent("transcript body"), "Acme", "https://bse/orig.pdf")

	require.Equal(t, domain.KindSummary, result.Kind)
	require.Equal(t, "Acme Industries Ltd", result.CompanyName)
	require.Equal(t, "https://bse/orig.pdf", result.OriginalURL)
	require.Empty(t, result.InnerLinks)
}

func TestSummarizeTextFailureBecomesErrorResult(t *testing.T) {
	fake := &fakeSummarizer{textErr: fmt.Errorf("%w after 3 attempts: boom", retry.ErrExhausted)}
	d := newTestDispatcher(t, fake)

	result := d.Summarize(context.Background(), domain.TextContent("transcript"), "Acme", "u")

	require.Equal(t, domain.KindError, result.Kind)
	require.Equal(t, domain.ErrKindGeminiText, result.ErrorKind)
	require.Equal(t, domain.StatusErrorProcessing, result.Status())
}

func TestSummarizeMediaPreferredOverWeb(t *testing.T) {
	media := t.TempDir()
	local := filepath.Join(media, "call.mp3")
	require.NoError(t, os.WriteFile(local, []byte("audio"), 0o644))

	fake := &fakeSummarizer{
		mediaSummary: domain.RawSummary{Sentiment: "Neutral", Points: []string{"p"}},
	}
	d := newTestDispatcher(t, fake)

	content := domain.LinkContent([]domain.Link{
		{URL: "https://example.com/ir", Kind: domain.LinkWeb},
		{URL: "file://" + local, Kind: domain.LinkMedia},
	})
	result := d.Summarize(context.Background(), content, "Acme", "orig")

	require.Equal(t, domain.KindSummary, result.Kind)
	require.Equal(t, []string{local}, fake.mediaPaths)
	require.Len(t, result.InnerLinks, 1)
	require.Equal(t, domain.LinkMedia, result.InnerLinks[0].Kind)
	// Local files are used in place, never deleted.
	_, err := os.Stat(local)
	require.NoError(t, err)
}

func TestSummarizeWebLinksOnly(t *testing.T) {
	d := newTestDispatcher(t, &fakeSummarizer{})

	content := domain.LinkContent([]domain.Link{{URL: "https://example.com/ir", Kind: domain.LinkWeb}})
	result := d.Summarize(context.Background(), content, "Acme", "orig")

	require.Equal(t, domain.KindWebLink, result.Kind)
	require.Len(t, result.WebLinks, 1)
	require.Equal(t, domain.StatusProcessed, result.Status())
}

func TestSummarizeNoActionableLinks(t *testing.T) {
	d := newTestDispatcher(t, &fakeSummarizer{})

	result := d.Summarize(context.Background(), domain.LinkContent(nil), "Acme", "orig")

	require.Equal(t, domain.KindError, result.Kind)
	require.Equal(t, domain.ErrKindNoContent, result.ErrorKind)
}

func TestSummarizeContentError(t *testing.T) {
	d := newTestDispatcher(t, &fakeSummarizer{})

	result := d.Summarize(context.Background(), domain.ContentError("failed to read document"), "Acme", "orig")

	require.Equal(t, domain.KindError, result.Kind)
	require.Equal(t, domain.ErrKindProcessing, result.ErrorKind)
	require.Equal(t, "failed to read document", result.Message)
}

func TestSummarizeMediaRemoteDownloadAndCleanup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("media bytes"))
	}))
	defer srv.Close()

	fake := &fakeSummarizer{mediaErr: errors.New("upload rejected")}
	cache := t.TempDir()
	d := NewDispatcher(fake, cache, srv.Client(), logging.Discard())

	content := domain.LinkContent([]domain.Link{{URL: srv.URL + "/call.mp4", Kind: domain.LinkMedia}})
	result := d.Summarize(context.Background(), content, "Acme", "orig")

	require.Equal(t, domain.KindError, result.Kind)
	require.Equal(t, domain.ErrKindMediaPipeline, result.ErrorKind)
	// Scratch copy is removed even when summarization fails.
	entries, err := os.ReadDir(cache)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSummarizeMediaExhaustionMapsToGeminiError(t *testing.T) {
	media := t.TempDir()
	local := filepath.Join(media, "call.wav")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0o644))

	fake := &fakeSummarizer{mediaErr: fmt.Errorf("%w after 3 attempts: 503", retry.ErrExhausted)}
	d := newTestDispatcher(t, fake)

	content := domain.LinkContent([]domain.Link{{URL: "file://" + local, Kind: domain.LinkMedia}})
	result := d.Summarize(context.Background(), content, "Acme", "orig")

	require.Equal(t, domain.ErrKindGeminiMedia, result.ErrorKind)
}

func TestEnsureCompanyNameFallbacks(t *testing.T) {
	fake := &fakeSummarizer{company: "Extracted Ltd"}
	d := newTestDispatcher(t, fake)

	require.Equal(t, "Acme", d.ensureCompanyName(context.Background(), domain.TextContent("t"), " Acme "))
	require.Equal(t, "Extracted Ltd", d.ensureCompanyName(context.Background(), domain.TextContent("t"), "N/A"))

	fake.company = ""
	fake.companyErr = errors.New("backend down")
	require.Equal(t, unknownCompany, d.ensureCompanyName(context.Background(), domain.TextContent("t"), ""))
}

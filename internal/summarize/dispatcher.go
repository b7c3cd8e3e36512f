package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/ports"
	"github.com/homeo-ai-official/bse-auto/pkg/retry"
)

const unknownCompany = "Unknown Company"

// Dispatcher drives classification results through the correct
// summarization path and always terminates in exactly one SummaryResult.
type Dispatcher struct {
	summarizer ports.Summarizer
	mediaCache string
	client     *http.Client
	logger     *slog.Logger
}

// NewDispatcher wires the summarization backend and the scratch cache
// directory for remote media downloads.
func NewDispatcher(summarizer ports.Summarizer, mediaCache string, client *http.Client, logger *slog.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Dispatcher{
		summarizer: summarizer,
		mediaCache: mediaCache,
		client:     client,
		logger:     logger,
	}
}

// Summarize converts classified content into the per-item outcome. It
// never returns an error: every failure mode folds into the error
// variant of SummaryResult.
func (d *Dispatcher) Summarize(ctx context.Context, content domain.ClassifiedContent, company, originalURL string) domain.SummaryResult {
	company = d.ensureCompanyName(ctx, content, company)

	if body, ok := content.Text(); ok {
		return d.summarizeText(ctx, body, company, originalURL)
	}

	if _, ok := content.Links(); ok {
		if media := content.MediaLinks(); len(media) > 0 {
			return d.summarizeMedia(ctx, media[0].URL, company, originalURL)
		}
		if web := content.WebLinks(); len(web) > 0 {
			d.logger.Info("document pointed at web links", "company", company, "count", len(web))
			return domain.NewWebLink(company, web, originalURL)
		}
		d.logger.Warn("document had no actionable links", "company", company)
		return domain.NewSummaryError(domain.ErrKindNoContent,
			"document with no actionable media or web links", company, originalURL)
	}

	msg, _ := content.Err()
	return domain.NewSummaryError(domain.ErrKindProcessing, msg, company, originalURL)
}

// ensureCompanyName fills in a missing or placeholder company name with
// a single extraction attempt over the document head; any failure falls
// back to a literal rather than aborting the pipeline.
func (d *Dispatcher) ensureCompanyName(ctx context.Context, content domain.ClassifiedContent, company string) string {
	trimmed := strings.TrimSpace(company)
	if trimmed != "" && !strings.EqualFold(trimmed, "n/a") {
		return trimmed
	}

	body, _ := content.Text()
	name, err := d.summarizer.ExtractCompanyName(ctx, body)
	if err != nil || strings.TrimSpace(name) == "" {
		d.logger.Warn("company name extraction failed", "error", err)
		return unknownCompany
	}
	d.logger.Info("extracted company name", "company", name)
	return strings.TrimSpace(name)
}

func (d *Dispatcher) summarizeText(ctx context.Context, transcript, company, originalURL string) domain.SummaryResult {
	d.logger.Info("summarizing transcript", "company", company, "chars", len(transcript))

	raw, err := d.summarizer.SummarizeText(ctx, transcript, company)
	if err != nil {
		d.logger.Error("text summarization failed", "company", company, "error", err)
		return domain.NewSummaryError(domain.ErrKindGeminiText, err.Error(), company, originalURL)
	}
	return domain.NewSummary(pickCompany(raw.CompanyName, company), raw.Sentiment, raw.Points, originalURL, nil)
}

// summarizeMedia runs the two-stage path: fetch the media locally,
// upload and summarize it, and clean up the scratch copy on every exit.
func (d *Dispatcher) summarizeMedia(ctx context.Context, mediaURL, company, originalURL string) domain.SummaryResult {
	d.logger.Info("media link detected, starting stage-2 summarization", "company", company, "url", mediaURL)

	localPath, cleanup, err := d.fetchMedia(ctx, mediaURL)
	if err != nil {
		d.logger.Error("media fetch failed", "company", company, "url", mediaURL, "error", err)
		return domain.NewSummaryError(domain.ErrKindMediaPipeline, err.Error(), company, originalURL)
	}
	defer cleanup()

	raw, err := d.summarizer.SummarizeMedia(ctx, localPath, company)
	if err != nil {
		d.logger.Error("media summarization failed", "company", company, "error", err)
		kind := domain.ErrKindMediaPipeline
		if errors.Is(err, retry.ErrExhausted) {
			kind = domain.ErrKindGeminiMedia
		}
		return domain.NewSummaryError(kind, err.Error(), company, originalURL)
	}

	inner := []domain.Link{{URL: mediaURL, Kind: domain.LinkMedia}}
	return domain.NewSummary(pickCompany(raw.CompanyName, company), raw.Sentiment, raw.Points, originalURL, inner)
}

// fetchMedia resolves the media URL to a local file. Local file URIs are
// used in place; remote URLs are downloaded into the scratch cache and
// the returned cleanup removes the copy regardless of later outcome.
func (d *Dispatcher) fetchMedia(ctx context.Context, mediaURL string) (string, func(), error) {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid media url %s: %w", mediaURL, err)
	}

	if parsed.Scheme == "file" {
		if _, err := os.Stat(parsed.Path); err != nil {
			return "", nil, fmt.Errorf("local media file: %w", err)
		}
		return parsed.Path, func() {}, nil
	}

	if err := os.MkdirAll(d.mediaCache, 0o755); err != nil {
		return "", nil, fmt.Errorf("create media cache: %w", err)
	}
	dest := filepath.Join(d.mediaCache, path.Base(parsed.Path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("media download returned %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", nil, fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return "", nil, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return "", nil, fmt.Errorf("close %s: %w", dest, err)
	}

	cleanup := func() {
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("scratch media cleanup failed", "path", dest, "error", err)
		}
	}
	return dest, cleanup, nil
}

func pickCompany(candidate, fallback string) string {
	if strings.TrimSpace(candidate) != "" {
		return strings.TrimSpace(candidate)
	}
	return fallback
}

package bse

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/ports"
)

// Downloader fetches announcement documents to a local directory using a
// deterministic naming scheme, so a later run can re-discover a file
// downloaded before a crash.
type Downloader struct {
	dir        string
	urlLogPath string
	dryRun     bool
	client     *http.Client
	logger     *slog.Logger
}

var _ ports.Downloader = (*Downloader)(nil)

// NewDownloader wires the download directory. In dry-run mode documents
// are never fetched; their URLs are appended to the url log instead.
func NewDownloader(dir, urlLogPath string, dryRun bool, client *http.Client, logger *slog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Downloader{
		dir:        dir,
		urlLogPath: urlLogPath,
		dryRun:     dryRun,
		client:     client,
		logger:     logger,
	}
}

// LocalPath derives the deterministic on-disk location for the
// announcement's document: {scrip}_{sanitized company}_{id[:8]}.pdf.
func (d *Downloader) LocalPath(ann domain.Announcement) string {
	name := fmt.Sprintf("%s_%s_%s.pdf",
		ann.ScripCode,
		domain.SanitizeCompanyName(ann.CompanyName),
		domain.ShortID(ann.NewsID),
	)
	return filepath.Join(d.dir, name)
}

// Download fetches the document and returns its local path. file:// URIs
// are resolved locally without a network call. In dry-run mode the URL
// is logged and an empty path returned.
func (d *Downloader) Download(ctx context.Context, ann domain.Announcement, rawURL string) (string, error) {
	if d.dryRun {
		if err := d.logURL(ann, rawURL); err != nil {
			return "", err
		}
		d.logger.Info("dry run, logged document url", "company", ann.CompanyName, "url", rawURL)
		return "", nil
	}

	if local, ok := localFilePath(rawURL); ok {
		if _, err := os.Stat(local); err != nil {
			return "", fmt.Errorf("local document %s: %w", local, err)
		}
		d.logger.Info("using local document", "path", local)
		return local, nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range feedHeaders {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", ann.NewsID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", ann.NewsID, resp.Status)
	}

	dest := d.LocalPath(ann)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("close %s: %w", dest, err)
	}

	d.logger.Info("saved document", "company", ann.CompanyName, "path", dest)
	return dest, nil
}

func (d *Downloader) logURL(ann domain.Announcement, rawURL string) error {
	if err := os.MkdirAll(filepath.Dir(d.urlLogPath), 0o755); err != nil {
		return fmt.Errorf("create url log dir: %w", err)
	}
	f, err := os.OpenFile(d.urlLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open url log: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("%s | %s | %s\n", time.Now().Format(time.RFC3339), ann.CompanyName, rawURL)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append url log: %w", err)
	}
	return nil
}

// localFilePath converts a file:// URI into a filesystem path.
func localFilePath(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme != "file" {
		return "", false
	}
	return parsed.Path, true
}

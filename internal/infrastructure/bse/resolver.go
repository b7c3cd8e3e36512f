package bse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/homeo-ai-official/bse-auto/internal/ports"
)

// ErrNoAttachment is returned when the XBRL document carries no
// attachment URL element for the announcement.
var ErrNoAttachment = errors.New("no attachment url in xbrl response")

// Resolver maps an announcement to its document URL via the XBRL
// generation endpoint.
type Resolver struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.AttachmentResolver = (*Resolver)(nil)

// NewResolver wires the XBRL endpoint.
func NewResolver(baseURL string, client *http.Client, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Resolver{baseURL: baseURL, client: client, logger: logger}
}

// ResolveAttachment fetches the XBRL XML for the announcement and
// extracts the single AttachmentURL element, matching the tag with its
// namespace prefix stripped.
func (r *Resolver) ResolveAttachment(ctx context.Context, newsID, scripCode string) (string, error) {
	endpoint, err := r.buildURL(newsID, scripCode)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range feedHeaders {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request xbrl for %s: %w", newsID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("xbrl endpoint returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse xbrl for %s: %w", newsID, err)
	}

	attachment := findByLocalName(doc, "attachmenturl")
	if attachment == "" {
		r.logger.Warn("no attachment url in xbrl", "news_id", newsID)
		return "", ErrNoAttachment
	}
	return attachment, nil
}

// findByLocalName returns the text of the first element whose tag name,
// after stripping any namespace prefix, equals local.
func findByLocalName(doc *goquery.Document, local string) string {
	var found string
	doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name := goquery.NodeName(sel)
		if i := strings.Index(name, ":"); i >= 0 {
			name = name[i+1:]
		}
		if name != local {
			return true
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			found = text
			return false
		}
		return true
	})
	return found
}

func (r *Resolver) buildURL(newsID, scripCode string) (string, error) {
	parsed, err := url.Parse(r.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid xbrl url %s: %w", r.baseURL, err)
	}
	query := parsed.Query()
	query.Set("Bsenewid", newsID)
	query.Set("Scripcode", scripCode)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

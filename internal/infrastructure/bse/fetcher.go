// Package bse implements the exchange-facing adapters: the paged
// announcement feed, the XBRL attachment resolver, and the document
// downloader.
package bse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/homeo-ai-official/bse-auto/internal/config"
	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/ports"
	"github.com/homeo-ai-official/bse-auto/pkg/retry"
)

const dateFormat = "20060102"

// The feed rejects requests without browser-looking headers.
var feedHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Referer":    "https://www.bseindia.com/",
	"Origin":     "https://www.bseindia.com",
}

// Fetcher retrieves the full announcement set for a window using
// count-driven pagination.
type Fetcher struct {
	apiURL      string
	category    string
	subcategory string
	client      *http.Client
	policy      retry.Policy
	logger      *slog.Logger
}

var _ ports.AnnouncementSource = (*Fetcher)(nil)

// NewFetcher wires an HTTP client against the configured feed endpoint.
func NewFetcher(cfg config.FeedConfig, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{
		apiURL:      cfg.APIURL,
		category:    cfg.Category,
		subcategory: cfg.Subcategory,
		client:      client,
		policy:      retry.Pagination(),
		logger:      logger,
	}
}

type feedRow struct {
	NewsID      string      `json:"NEWSID"`
	ScripCode   json.Number `json:"SCRIP_CD"`
	CompanyName string      `json:"SLONGNAME"`
	NewsDate    string      `json:"NEWS_DT"`
}

type feedResponse struct {
	Table  []feedRow `json:"Table"`
	Table1 []struct {
		RowCount int `json:"ROWCNT"`
	} `json:"Table1"`
}

// FetchAll issues page 1, derives the page count from the total-row-count
// field, and walks the remaining pages sequentially. A page beyond the
// first that fails after retries ends the walk with a warning; the
// partial snapshot collected so far is still returned.
func (f *Fetcher) FetchAll(ctx context.Context, window domain.Window) ([]domain.Announcement, error) {
	first, err := f.fetchPage(ctx, window, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch page 1: %w", err)
	}

	totalRecords := 0
	if len(first.Table1) > 0 {
		totalRecords = first.Table1[0].RowCount
	}
	if totalRecords == 0 {
		f.logger.Info("no records for window",
			"from", window.From.Format(dateFormat), "to", window.To.Format(dateFormat))
		return nil, nil
	}

	announcements := convertRows(first.Table, f.category, f.subcategory)

	perPage := len(first.Table)
	if perPage == 0 {
		return announcements, nil
	}
	totalPages := (totalRecords + perPage - 1) / perPage
	f.logger.Info("feed window sized", "total_records", totalRecords, "pages", totalPages)

	for page := 2; page <= totalPages; page++ {
		data, err := f.fetchPage(ctx, window, page)
		if err != nil || len(data.Table) == 0 {
			f.logger.Warn("pagination stopped early, returning partial snapshot",
				"page", page, "total_pages", totalPages, "error", err)
			break
		}
		announcements = append(announcements, convertRows(data.Table, f.category, f.subcategory)...)
	}

	f.logger.Info("fetched announcements", "count", len(announcements))
	return announcements, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, window domain.Window, page int) (feedResponse, error) {
	return retry.Do(ctx, f.policy, func(ctx context.Context) (feedResponse, error) {
		pageURL, err := f.buildPageURL(window, page)
		if err != nil {
			return feedResponse{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return feedResponse{}, fmt.Errorf("build request: %w", err)
		}
		for k, v := range feedHeaders {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return feedResponse{}, fmt.Errorf("request page %d: %w", page, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return feedResponse{}, &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
		}

		var data feedResponse
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return feedResponse{}, fmt.Errorf("%w: page %d: %v", retry.ErrMalformedBody, page, err)
		}
		return data, nil
	})
}

func (f *Fetcher) buildPageURL(window domain.Window, page int) (string, error) {
	parsed, err := url.Parse(f.apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid feed url %s: %w", f.apiURL, err)
	}

	query := parsed.Query()
	query.Set("pageno", strconv.Itoa(page))
	query.Set("strCat", f.category)
	query.Set("subcategory", f.subcategory)
	query.Set("strPrevDate", window.From.Format(dateFormat))
	query.Set("strToDate", window.To.Format(dateFormat))
	query.Set("strScrip", "")
	query.Set("strSearch", "P")
	query.Set("strType", "C")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func convertRows(rows []feedRow, category, subcategory string) []domain.Announcement {
	out := make([]domain.Announcement, 0, len(rows))
	for _, row := range rows {
		if row.NewsID == "" {
			continue
		}
		ann := domain.Announcement{
			NewsID:      row.NewsID,
			ScripCode:   row.ScripCode.String(),
			CompanyName: row.CompanyName,
			Category:    category,
			Subcategory: subcategory,
		}
		if ts, err := time.Parse("2006-01-02T15:04:05", row.NewsDate); err == nil {
			ann.PublishedAt = ts
		}
		out = append(out, ann)
	}
	return out
}

// Package gemini talks to the Google generative-language API over plain
// HTTP: text summarization, the two-stage media path (upload, processing
// poll, summarize, delete), and company-name extraction.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/homeo-ai-official/bse-auto/internal/config"
	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/ports"
	"github.com/homeo-ai-official/bse-auto/pkg/retry"
)

const filePollInterval = 2 * time.Second

// Client implements ports.Summarizer against the Gemini REST API.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	policy  retry.Policy
	logger  *slog.Logger

	// pollSleep is swapped in tests.
	pollSleep func(ctx context.Context, d time.Duration) error
}

var _ ports.Summarizer = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.GeminiConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		client:    client,
		policy:    retry.Summarization(),
		logger:    logger,
		pollSleep: sleepContext,
	}
}

// SummarizeText runs the analyst prompt over the transcript, with the
// jittered summarization retry schedule.
func (c *Client) SummarizeText(ctx context.Context, transcript, company string) (domain.RawSummary, error) {
	prompt := textPrompt(transcript, company)
	return retry.Do(ctx, c.policy, func(ctx context.Context) (domain.RawSummary, error) {
		raw, err := c.generate(ctx, []part{{Text: prompt}})
		if err != nil {
			return domain.RawSummary{}, err
		}
		return parseSummaryJSON(raw)
	})
}

// SummarizeMedia uploads the local file, waits for backend processing,
// and summarizes it. The uploaded artifact is deleted on every path.
func (c *Client) SummarizeMedia(ctx context.Context, path, company string) (domain.RawSummary, error) {
	uploaded, err := c.uploadFile(ctx, path)
	if err != nil {
		return domain.RawSummary{}, fmt.Errorf("upload media: %w", err)
	}
	defer c.deleteFile(uploaded.Name)

	uploaded, err = c.waitProcessed(ctx, uploaded)
	if err != nil {
		return domain.RawSummary{}, err
	}

	prompt := mediaPrompt(company)
	return retry.Do(ctx, c.policy, func(ctx context.Context) (domain.RawSummary, error) {
		raw, err := c.generate(ctx, []part{
			{Text: prompt},
			{FileData: &fileData{MimeType: uploaded.MimeType, FileURI: uploaded.URI}},
		})
		if err != nil {
			return domain.RawSummary{}, err
		}
		return parseSummaryJSON(raw)
	})
}

// ExtractCompanyName issues a single, unretried extraction call over the
// head of the transcript. Failures fall back to "Unknown Company" at the
// call site.
func (c *Client) ExtractCompanyName(ctx context.Context, text string) (string, error) {
	raw, err := c.generate(ctx, []part{{Text: companyNamePrompt(text)}})
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: empty company name", retry.ErrMalformedBody)
	}
	return name, nil
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

// generate performs one generateContent call and returns the first
// candidate's text.
func (c *Client) generate(ctx context.Context, parts []part) (string, error) {
	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{{"role": "user", "parts": parts}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("gemini api error", "status", resp.StatusCode, "body", string(respBody))
		return "", &retry.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: %v", retry.ErrMalformedBody, err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates", retry.ErrMalformedBody)
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// parseSummaryJSON strips optional markdown fences and decodes the
// summary object. Empty or undecodable bodies classify as transient so
// the retry wrapper re-asks the model.
func parseSummaryJSON(raw string) (domain.RawSummary, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return domain.RawSummary{}, fmt.Errorf("%w: empty response body", retry.ErrMalformedBody)
	}

	var payload struct {
		CompanyName   string   `json:"company_name"`
		SummaryPoints []string `json:"summary_points"`
		Sentiment     string   `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return domain.RawSummary{}, fmt.Errorf("%w: %v", retry.ErrMalformedBody, err)
	}
	if len(payload.SummaryPoints) == 0 {
		return domain.RawSummary{}, fmt.Errorf("%w: no summary points", retry.ErrMalformedBody)
	}
	return domain.RawSummary{
		CompanyName: payload.CompanyName,
		Sentiment:   payload.Sentiment,
		Points:      payload.SummaryPoints,
	}, nil
}

type uploadedFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

func (c *Client) uploadFile(ctx context.Context, path string) (uploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("read media file: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	endpoint := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return uploadedFile{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")

	resp, err := c.client.Do(req)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("file upload failed", "status", resp.StatusCode, "body", string(respBody))
		return uploadedFile{}, fmt.Errorf("upload returned %s", resp.Status)
	}

	var result struct {
		File uploadedFile `json:"file"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return uploadedFile{}, fmt.Errorf("decode upload response: %w", err)
	}
	if result.File.MimeType == "" {
		result.File.MimeType = mimeType
	}
	c.logger.Info("media uploaded", "name", result.File.Name, "state", result.File.State)
	return result.File, nil
}

// waitProcessed polls the file until it leaves the in-flight state.
func (c *Client) waitProcessed(ctx context.Context, f uploadedFile) (uploadedFile, error) {
	for f.State == "PROCESSING" {
		if err := c.pollSleep(ctx, filePollInterval); err != nil {
			return f, err
		}
		current, err := c.getFile(ctx, f.Name)
		if err != nil {
			return f, fmt.Errorf("poll file %s: %w", f.Name, err)
		}
		// Name/URI are authoritative from the upload response.
		f.State = current.State
	}
	if f.State == "FAILED" {
		return f, fmt.Errorf("backend processing failed for %s", f.Name)
	}
	return f, nil
}

func (c *Client) getFile(ctx context.Context, name string) (uploadedFile, error) {
	endpoint := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return uploadedFile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uploadedFile{}, fmt.Errorf("file status returned %s", resp.Status)
	}

	var f uploadedFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return uploadedFile{}, fmt.Errorf("decode file status: %w", err)
	}
	return f, nil
}

// deleteFile removes the remote artifact; failures are logged only.
func (c *Client) deleteFile(name string) {
	if name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("remote media cleanup failed", "name", name, "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("remote media cleanup rejected", "name", name, "status", resp.Status)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

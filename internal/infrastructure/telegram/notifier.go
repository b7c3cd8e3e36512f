// Package telegram delivers formatted notifications through the bot
// API, routing summaries and link/error reports to separate chats.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/homeo-ai-official/bse-auto/internal/config"
	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/ports"
)

const (
	sendAttempts = 3
	parseModeMD2 = "MarkdownV2"
)

// Notifier sends messages to the two configured chats via bot API.
type Notifier struct {
	botToken        string
	summariesChatID string
	linksChatID     string
	apiBase         string
	client          *http.Client
	logger          *slog.Logger
	now             func() time.Time

	// sleep between send retries; swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifiers. With incomplete
// credentials the notifier is disabled and treats every send as a
// successful no-op.
func NewNotifier(cfg config.TelegramConfig, client *http.Client, logger *slog.Logger) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Notifier{
		botToken:        cfg.BotToken,
		summariesChatID: cfg.SummariesChatID,
		linksChatID:     cfg.LinksChatID,
		apiBase:         "https://api.telegram.org",
		client:          client,
		logger:          logger,
		now:             time.Now,
		sleep:           sleepContext,
	}
}

// Enabled reports whether credentials for both chats are present.
func (n *Notifier) Enabled() bool {
	return n.botToken != "" && n.summariesChatID != "" && n.linksChatID != ""
}

// Notify formats the outcome and delivers it to the matching chat:
// summaries go to the summaries chat, web links and errors to the
// links chat.
func (n *Notifier) Notify(ctx context.Context, result domain.SummaryResult) error {
	if !n.Enabled() {
		n.logger.Warn("notifier disabled, dropping message", "kind", string(result.Kind))
		return nil
	}

	switch result.Kind {
	case domain.KindSummary:
		return n.send(ctx, n.summariesChatID, formatSummary(result, n.now()), parseModeMD2)
	case domain.KindWebLink:
		return n.send(ctx, n.linksChatID, formatWebLink(result, n.now()), parseModeMD2)
	case domain.KindError:
		return n.send(ctx, n.linksChatID, formatError(result, n.now()), parseModeMD2)
	default:
		return fmt.Errorf("unknown summary kind %q", result.Kind)
	}
}

// send posts one message with bounded retries on timeouts. A 400 reply
// while rich formatting is on means broken markup; the same content is
// retransmitted once as plain text.
func (n *Notifier) send(ctx context.Context, chatID, message, parseMode string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)

	for attempt := 1; attempt <= sendAttempts; attempt++ {
		form := url.Values{}
		form.Set("chat_id", chatID)
		form.Set("text", message)
		form.Set("disable_web_page_preview", "true")
		if parseMode != "" {
			form.Set("parse_mode", parseMode)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := n.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := time.Duration(1<<attempt) * time.Second
			n.logger.Warn("send failed, backing off", "chat", chatID, "attempt", attempt, "wait", wait, "error", err)
			if attempt == sendAttempts {
				return fmt.Errorf("send to %s: %w", chatID, err)
			}
			if err := n.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			n.logger.Info("notification delivered", "chat", chatID)
			return nil
		case resp.StatusCode == http.StatusBadRequest && parseMode != "":
			// Rich-text syntax rejected; fall back to plain once.
			n.logger.Warn("formatting rejected, falling back to plain text", "chat", chatID)
			return n.send(ctx, chatID, message, "")
		default:
			return fmt.Errorf("telegram error %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}
	}

	return fmt.Errorf("send to %s: retries exhausted", chatID)
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

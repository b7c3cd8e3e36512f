package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/homeo-ai-official/bse-auto/internal/config"
	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/logging"
)

type sentMessage struct {
	chatID    string
	text      string
	parseMode string
}

func newTestNotifier(t *testing.T, handler http.HandlerFunc) (*Notifier, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewNotifier(config.TelegramConfig{
		BotToken:        "token",
		SummariesChatID: "111",
		LinksChatID:     "222",
	}, srv.Client(), logging.Discard())
	n.apiBase = srv.URL
	n.sleep = func(context.Context, time.Duration) error { return nil }
	return n, srv
}

func captureHandler(out *[]sentMessage, status func(int) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		*out = append(*out, sentMessage{
			chatID:    r.FormValue("chat_id"),
			text:      r.FormValue("text"),
			parseMode: r.FormValue("parse_mode"),
		})
		w.WriteHeader(status(len(*out)))
	}
}

func TestNotifyRoutesSummaryToSummariesChat(t *testing.T) {
	var sent []sentMessage
	n, _ := newTestNotifier(t, captureHandler(&sent, func(int) int { return http.StatusOK }))

	result := domain.NewSummary("Acme Ltd", "Neutral", []string{"Margins held steady."}, "https://bse/doc.pdf", nil)
	require.NoError(t, n.Notify(context.Background(), result))

	require.Len(t, sent, 1)
	require.Equal(t, "111", sent[0].chatID)
	require.Equal(t, parseModeMD2, sent[0].parseMode)
	require.Contains(t, sent[0].text, "Acme Ltd")
	require.Contains(t, sent[0].text, "Margins held steady\\.")
}

func TestNotifyRoutesLinksAndErrorsToLinksChat(t *testing.T) {
	var sent []sentMessage
	n, _ := newTestNotifier(t, captureHandler(&sent, func(int) int { return http.StatusOK }))

	link := domain.NewWebLink("Acme", []domain.Link{{URL: "https://x/ir", Kind: domain.LinkWeb}}, "orig")
	require.NoError(t, n.Notify(context.Background(), link))

	failure := domain.NewSummaryError(domain.ErrKindGeminiText, "backend down", "Acme", "orig")
	require.NoError(t, n.Notify(context.Background(), failure))

	require.Len(t, sent, 2)
	require.Equal(t, "222", sent[0].chatID)
	require.Equal(t, "222", sent[1].chatID)
	require.Contains(t, sent[1].text, "backend down")
}

func TestNotifyFallsBackToPlainTextOn400(t *testing.T) {
	var sent []sentMessage
	n, _ := newTestNotifier(t, captureHandler(&sent, func(count int) int {
		if count == 1 {
			return http.StatusBadRequest
		}
		return http.StatusOK
	}))

	result := domain.NewSummary("Acme", "Neutral", []string{"p"}, "u", nil)
	require.NoError(t, n.Notify(context.Background(), result))

	require.Len(t, sent, 2)
	require.Equal(t, parseModeMD2, sent[0].parseMode)
	require.Empty(t, sent[1].parseMode)
	// Same content both times, only the parse mode changes.
	require.Equal(t, sent[0].text, sent[1].text)
}

func TestNotifyDisabledIsNoOp(t *testing.T) {
	n := NewNotifier(config.TelegramConfig{}, nil, logging.Discard())
	require.False(t, n.Enabled())
	require.NoError(t, n.Notify(context.Background(), domain.NewSummary("A", "Neutral", nil, "", nil)))
}

func TestEscapeMD(t *testing.T) {
	require.Equal(t, `Q1 \(FY26\) results \- up 14% \!`, escapeMD("Q1 (FY26) results - up 14% !"))
}

func TestEscapeMDURL(t *testing.T) {
	require.Equal(t, "https://x/a%28b%29.pdf", escapeMDURL("https://x/a(b).pdf"))
}

func TestFormatSummaryLayout(t *testing.T) {
	ts := time.Date(2026, 8, 29, 4, 30, 0, 0, time.UTC)
	result := domain.NewSummary("Acme Ltd.", "Moderately Bullish",
		[]string{"Revenue grew."},
		"https://bse/doc(1).pdf",
		[]domain.Link{{URL: "https://cdn/call.mp3", Kind: domain.LinkMedia}})

	text := formatSummary(result, ts)

	require.Contains(t, text, `*Acme Ltd\.*`)
	// 04:30 UTC is 10:00 IST.
	require.Contains(t, text, "10:00 AM IST")
	require.Contains(t, text, "Moderately Bullish")
	require.Contains(t, text, "[Original PDF](https://bse/doc%281%29.pdf)")
	require.Contains(t, text, "[Inner Link \\(media\\)](https://cdn/call.mp3)")
}

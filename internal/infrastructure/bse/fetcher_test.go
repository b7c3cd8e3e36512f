package bse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/homeo-ai-official/bse-auto/internal/config"
	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/logging"
	"github.com/homeo-ai-official/bse-auto/pkg/retry"
)

func testWindow() domain.Window {
	return domain.Window{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
	}
}

func newTestFetcher(t *testing.T, srv *httptest.Server) *Fetcher {
	t.Helper()
	f := NewFetcher(config.FeedConfig{
		APIURL:      srv.URL,
		Category:    "Company Update",
		Subcategory: "Earnings Call Transcript",
	}, srv.Client(), logging.Discard())
	f.policy = f.policy.WithSleep(func(context.Context, time.Duration) error { return nil })
	return f
}

func feedPage(rowCount int, ids ...string) string {
	rows := ""
	for i, id := range ids {
		if i > 0 {
			rows += ","
		}
		rows += fmt.Sprintf(`{"NEWSID":%q,"SCRIP_CD":500325,"SLONGNAME":"Acme Ltd","NEWS_DT":"2026-08-01T10:0%d:00"}`, id, i)
	}
	return fmt.Sprintf(`{"Table":[%s],"Table1":[{"ROWCNT":%d}]}`, rows, rowCount)
}

func TestFetchAllWalksDerivedPageCount(t *testing.T) {
	pages := map[int]string{
		1: feedPage(5, "a1", "a2"),
		2: feedPage(5, "a3", "a4"),
		3: feedPage(5, "a5"),
	}
	var requested []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("pageno"))
		requested = append(requested, page)
		require.Equal(t, "20260801", r.URL.Query().Get("strPrevDate"))
		require.Equal(t, "20260802", r.URL.Query().Get("strToDate"))
		require.Equal(t, "P", r.URL.Query().Get("strSearch"))
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, pages[page])
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv)
	got, err := f.FetchAll(context.Background(), testWindow())

	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, requested)
	require.Len(t, got, 5)
	require.Equal(t, "a1", got[0].NewsID)
	require.Equal(t, "a5", got[4].NewsID)
	require.Equal(t, "500325", got[0].ScripCode)
	require.Equal(t, "Earnings Call Transcript", got[0].Subcategory)
	require.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), got[0].PublishedAt)
}

func TestFetchAllZeroRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"Table":[],"Table1":[{"ROWCNT":0}]}`)
	}))
	defer srv.Close()

	got, err := newTestFetcher(t, srv).FetchAll(context.Background(), testWindow())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFetchAllPartialSnapshotOnLaterPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageno") != "1" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, feedPage(6, "a1", "a2"))
	}))
	defer srv.Close()

	got, err := newTestFetcher(t, srv).FetchAll(context.Background(), testWindow())

	// Page 2 exhausts its retries but the run keeps page 1's rows.
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestFetchAllFirstPageFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t, srv).FetchAll(context.Background(), testWindow())
	require.ErrorIs(t, err, retry.ErrExhausted)
}

func TestFetchAllRetriesMalformedBody(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, "<html>rate limited</html>")
			return
		}
		fmt.Fprint(w, feedPage(1, "a1"))
	}))
	defer srv.Close()

	got, err := newTestFetcher(t, srv).FetchAll(context.Background(), testWindow())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 2, calls)
}

func TestConvertRowsSkipsBlankIDs(t *testing.T) {
	rows := []feedRow{
		{NewsID: "", CompanyName: "ghost"},
		{NewsID: "a1", ScripCode: "1", CompanyName: "Acme"},
	}
	out := convertRows(rows, "c", "s")
	require.Len(t, out, 1)
	require.Equal(t, "a1", out[0].NewsID)
}

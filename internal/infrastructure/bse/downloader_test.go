package bse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/logging"
)

func sampleAnnouncement() domain.Announcement {
	return domain.Announcement{
		NewsID:      "0a1b2c3d4e5f6789",
		ScripCode:   "500325",
		CompanyName: "Acme Industries Ltd.",
	}
}

func TestLocalPathIsDeterministic(t *testing.T) {
	d := NewDownloader("downloads", "", false, nil, logging.Discard())
	ann := sampleAnnouncement()

	// Punctuation drops out of the company segment, the id truncates.
	want := filepath.Join("downloads", "500325_Acme Industries Ltd_0a1b2c3d.pdf")
	require.Equal(t, want, d.LocalPath(ann))
	require.Equal(t, d.LocalPath(ann), d.LocalPath(ann))
}

func TestDownloadSavesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "%PDF-1.4 payload")
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, "", false, srv.Client(), logging.Discard())

	path, err := d.Download(context.Background(), sampleAnnouncement(), srv.URL+"/doc.pdf")

	require.NoError(t, err)
	require.Equal(t, d.LocalPath(sampleAnnouncement()), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 payload", string(data))
}

func TestDownloadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), "", false, srv.Client(), logging.Discard())
	_, err := d.Download(context.Background(), sampleAnnouncement(), srv.URL+"/doc.pdf")
	require.Error(t, err)
}

func TestDownloadLocalFileURI(t *testing.T) {
	src := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	d := NewDownloader(t.TempDir(), "", false, nil, logging.Discard())
	path, err := d.Download(context.Background(), sampleAnnouncement(), "file://"+src)

	require.NoError(t, err)
	require.Equal(t, src, path)
}

func TestDownloadDryRunLogsURL(t *testing.T) {
	urlLog := filepath.Join(t.TempDir(), "logs", "pdf_urls.log")
	d := NewDownloader(t.TempDir(), urlLog, true, nil, logging.Discard())

	path, err := d.Download(context.Background(), sampleAnnouncement(), "https://example.com/doc.pdf")

	require.NoError(t, err)
	require.Empty(t, path)
	data, err := os.ReadFile(urlLog)
	require.NoError(t, err)
	require.Contains(t, string(data), "Acme Industries Ltd.")
	require.Contains(t, string(data), "https://example.com/doc.pdf")
}

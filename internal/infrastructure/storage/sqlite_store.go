package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/ports"
)

// SQLiteStore persists per-announcement processing records for
// deduplication and crash recovery.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.StateStore = (*SQLiteStore)(nil)

// Open opens (creating if needed) the state database at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// Single logical writer; one connection avoids SQLITE_BUSY races.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS announcements (
		news_id TEXT PRIMARY KEY,
		scrip_code TEXT,
		company_name TEXT,
		status TEXT NOT NULL DEFAULT 'DOWNLOADED',
		resolved_url TEXT DEFAULT '',
		summary_json TEXT,
		download_timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_announcements_status ON announcements(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// IsProcessed reports whether the identifier has been seen at all. A row
// in any status means the item was already downloaded once.
func (s *SQLiteStore) IsProcessed(ctx context.Context, newsID string) (bool, error) {
	query, args, err := sq.Select("1").
		From("announcements").
		Where(sq.Eq{"news_id": newsID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query processed: %w", err)
	}
	return true, nil
}

// NeedsSummarization reports whether the identifier is stuck at
// DOWNLOADED, i.e. a crash-recovery candidate.
func (s *SQLiteStore) NeedsSummarization(ctx context.Context, newsID string) (bool, error) {
	query, args, err := sq.Select("1").
		From("announcements").
		Where(sq.Eq{"news_id": newsID, "status": string(domain.StatusDownloaded)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query needs summarization: %w", err)
	}
	return true, nil
}

// RecordDownloaded inserts the identifier at DOWNLOADED status. Repeat
// observation of a known identifier is a no-op.
func (s *SQLiteStore) RecordDownloaded(ctx context.Context, newsID, scripCode, companyName, resolvedURL string) error {
	query, args, err := sq.Insert("announcements").
		Columns("news_id", "scrip_code", "company_name", "status", "resolved_url").
		Values(newsID, scripCode, companyName, string(domain.StatusDownloaded), resolvedURL).
		Suffix("ON CONFLICT(news_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert announcement %s: %w", newsID, err)
	}
	return nil
}

// RecordSummaryOutcome stores the serialized outcome and the terminal
// status in one statement, so a crash can never leave them inconsistent.
func (s *SQLiteStore) RecordSummaryOutcome(ctx context.Context, newsID string, result domain.SummaryResult, status domain.Status) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal summary for %s: %w", newsID, err)
	}

	query, args, err := sq.Update("announcements").
		Set("summary_json", string(payload)).
		Set("status", string(status)).
		Where(sq.Eq{"news_id": newsID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update announcement %s: %w", newsID, err)
	}
	return nil
}

// ResolvedURL returns the attachment URL captured at download time, or
// empty when the row is absent.
func (s *SQLiteStore) ResolvedURL(ctx context.Context, newsID string) (string, error) {
	query, args, err := sq.Select("resolved_url").
		From("announcements").
		Where(sq.Eq{"news_id": newsID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var url string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&url)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query resolved url: %w", err)
	}
	return url, nil
}

// Record loads the full processing record, mainly for tests and tooling.
func (s *SQLiteStore) Record(ctx context.Context, newsID string) (*domain.ProcessingRecord, error) {
	query, args, err := sq.Select("news_id", "scrip_code", "company_name", "status", "resolved_url", "download_timestamp").
		From("announcements").
		Where(sq.Eq{"news_id": newsID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec domain.ProcessingRecord
	var status, downloadedAt string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.NewsID, &rec.ScripCode, &rec.CompanyName, &status, &rec.ResolvedURL, &downloadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	rec.Status = domain.Status(status)
	if ts, err := time.Parse("2006-01-02 15:04:05", downloadedAt); err == nil {
		rec.DownloadedAt = ts
	}
	return &rec, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps history in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite history database at path.
// Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", filepath.Dir(path), err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS subtitle_fetches (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id       TEXT NOT NULL,
		format         TEXT NOT NULL,
		language       TEXT NOT NULL DEFAULT '',
		subtitle_count INTEGER NOT NULL DEFAULT 0,
		success        INTEGER NOT NULL,
		error          TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS subtitle_fetches_video ON subtitle_fetches (video_id, id)`)
	return err
}

// Record inserts one fetch. An empty CreatedAt is set to the current UTC time.
func (s *SQLiteStore) Record(ctx context.Context, item engine.HistoryItem) error {
	if item.CreatedAt == "" {
		item.CreatedAt = now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subtitle_fetches (video_id, format, language, subtitle_count, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.VideoID, item.Format, item.Language, item.SubtitleCount, item.Success, item.Error, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent lists the newest fetches first.
func (s *SQLiteStore) Recent(ctx context.Context, videoID string, limit int) ([]engine.HistoryItem, int, error) {
	limit = ClampLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if videoID != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, video_id, format, language, subtitle_count, success, error, created_at
			 FROM subtitle_fetches WHERE video_id = ? ORDER BY id DESC LIMIT ?`,
			videoID, limit,
		)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, video_id, format, language, subtitle_count, success, error, created_at
			 FROM subtitle_fetches ORDER BY id DESC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	items := []engine.HistoryItem{}
	for rows.Next() {
		var it engine.HistoryItem
		if err := rows.Scan(&it.ID, &it.VideoID, &it.Format, &it.Language,
			&it.SubtitleCount, &it.Success, &it.Error, &it.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("history: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("history: rows: %w", err)
	}

	var total int
	if videoID != "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subtitle_fetches WHERE video_id = ?`, videoID).Scan(&total)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subtitle_fetches`).Scan(&total)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("history: count: %w", err)
	}
	return items, total, nil
}

func (s *SQLiteStore) Close() { s.db.Close() }

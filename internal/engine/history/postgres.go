package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS subtitle_fetches (
	id             BIGSERIAL PRIMARY KEY,
	video_id       TEXT NOT NULL,
	format         TEXT NOT NULL,
	language       TEXT NOT NULL DEFAULT '',
	subtitle_count INTEGER NOT NULL DEFAULT 0,
	success        BOOLEAN NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS subtitle_fetches_video ON subtitle_fetches (video_id, id DESC)`

// PostgresStore keeps history in PostgreSQL, shared across replicas.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool and ensures the schema exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history schema: %w", err)
	}

	slog.Info("history postgres connected", slog.String("addr", config.ConnConfig.Host))
	return &PostgresStore{pool: pool}, nil
}

// Record inserts one fetch. An empty CreatedAt uses the database clock.
func (p *PostgresStore) Record(ctx context.Context, item engine.HistoryItem) error {
	var createdAt any
	if item.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, item.CreatedAt); err == nil {
			createdAt = t
		}
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO subtitle_fetches (video_id, format, language, subtitle_count, success, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))`,
		item.VideoID, item.Format, item.Language, item.SubtitleCount, item.Success, item.Error, createdAt,
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent lists the newest fetches first.
func (p *PostgresStore) Recent(ctx context.Context, videoID string, limit int) ([]engine.HistoryItem, int, error) {
	limit = ClampLimit(limit)

	var (
		rows pgx.Rows
		err  error
	)
	if videoID != "" {
		rows, err = p.pool.Query(ctx,
			`SELECT id, video_id, format, language, subtitle_count, success, error, created_at
			 FROM subtitle_fetches WHERE video_id = $1 ORDER BY id DESC LIMIT $2`,
			videoID, limit,
		)
	} else {
		rows, err = p.pool.Query(ctx,
			`SELECT id, video_id, format, language, subtitle_count, success, error, created_at
			 FROM subtitle_fetches ORDER BY id DESC LIMIT $1`,
			limit,
		)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	items := []engine.HistoryItem{}
	for rows.Next() {
		var (
			it        engine.HistoryItem
			createdAt time.Time
		)
		if err := rows.Scan(&it.ID, &it.VideoID, &it.Format, &it.Language,
			&it.SubtitleCount, &it.Success, &it.Error, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("history: scan: %w", err)
		}
		it.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("history: rows: %w", err)
	}

	var total int
	if videoID != "" {
		err = p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subtitle_fetches WHERE video_id = $1`, videoID).Scan(&total)
	} else {
		err = p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subtitle_fetches`).Scan(&total)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("history: count: %w", err)
	}
	return items, total, nil
}

func (p *PostgresStore) Close() { p.pool.Close() }

// Package history records subtitle fetches so operators and agents can see
// what was requested and what failed. Backends: SQLite (local) and PostgreSQL (shared).
package history

import (
	"context"
	"time"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
)

// Store persists fetch records. Implementations are safe for concurrent use.
type Store interface {
	Record(ctx context.Context, item engine.HistoryItem) error
	// Recent returns the newest entries first, optionally filtered by video ID,
	// together with the total number of matching rows.
	Recent(ctx context.Context, videoID string, limit int) ([]engine.HistoryItem, int, error)
	Close()
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ClampLimit applies the default and maximum page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

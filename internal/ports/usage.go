package ports

import (
	"context"
	"time"
)

// UsageRecord is a single persisted observation of a theme being chosen.
type UsageRecord struct {
	PaletteID string
	Mode      string
	Context   string
	Timestamp time.Time
}

// UsageStore keeps an append-only, retention-bounded usage history.
// Append must drop the oldest records once maxEvents is exceeded, and Prune
// removes records older than the cutoff. List returns records oldest first.
type UsageStore interface {
	Append(ctx context.Context, record UsageRecord, maxEvents int) error
	List(ctx context.Context) ([]UsageRecord, error)
	Prune(ctx context.Context, before time.Time) (int, error)
}

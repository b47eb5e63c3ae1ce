package survey

import (
	"context"
	"time"
)

// Source fetches the raw bytes of a survey export.
type Source interface {
	Fetch(ctx context.Context, ref SourceRef) ([]byte, error)
}

// ScoreStore caches computed score views. Keys embed the table fingerprint,
// so entries for replaced data are never read again.
type ScoreStore interface {
	Get(ctx context.Context, key string) (ScoreView, bool, error)
	Save(ctx context.Context, key string, view ScoreView, ttl time.Duration) error
}

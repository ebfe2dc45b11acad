package discovery

import "context"

// HistoryStore persists finished analyses. It is never consulted to answer Analyze.
type HistoryStore interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, bool, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
}

package domain

import "context"

// ReviewStore is the sole writer of persisted review state. All mutation is
// funneled through Insert, SetModerationState, Reject and IncrementVote; it
// enforces the data invariants transactionally rather than trusting callers.
type ReviewStore interface {
	// Write paths
	Insert(ctx context.Context, d ReviewDraft) (int64, error)
	SetModerationState(ctx context.Context, id int64, approved, featured bool) (vpnSlug string, err error)
	Reject(ctx context.Context, id int64) (vpnSlug string, err error)
	IncrementVote(ctx context.Context, id int64, kind VoteKind) (newCount int64, vpnSlug string, err error)

	// Read paths
	ListApproved(ctx context.Context, vpnSlug string, limit int) ([]Review, error)
	ListPending(ctx context.Context, limit int) ([]Review, error)
}

// ProviderCatalog is the read-only view of the external VPN catalog; the
// pipeline only ever asks whether a slug exists.
type ProviderCatalog interface {
	Exists(ctx context.Context, slug string) (bool, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Invalidator marks a provider's rendered pages stale after a committed
// mutation. Best-effort: callers log failures and never roll back the write.
type Invalidator interface {
	MarkStale(ctx context.Context, vpnSlug string, locales []string) error
}

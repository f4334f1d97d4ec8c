package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vpn_reviews/internal/domain"
)

type QueryService struct {
	store    domain.ReviewStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(s domain.ReviewStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: s, cache: c, cacheTTL: ttl}
}

// ListApproved returns the public review list for a provider page:
// featured first, then newest-first, author emails stripped. Cached
// per (slug, locale, limit) — the locale does not change the rows, but it
// keys the rendered page the list is embedded in.
func (s *QueryService) ListApproved(ctx context.Context, vpnSlug, locale string, limit int) ([]domain.ReviewView, error) {
	key := fmt.Sprintf("reviews:%s:%s:%d", vpnSlug, locale, limit)
	var out []domain.ReviewView
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.store.ListApproved(ctx, vpnSlug, limit)
	if err != nil {
		return nil, err
	}
	out = make([]domain.ReviewView, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.View())
	}

	// size guard: never cache pathological payloads
	if b, _ := json.Marshal(out); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// ListPending is the moderation queue, oldest first. Deliberately uncached:
// moderators need to see fresh submissions immediately.
func (s *QueryService) ListPending(ctx context.Context, limit int) ([]domain.Review, error) {
	return s.store.ListPending(ctx, limit)
}

package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"vpn_reviews/internal/adapters/observability"
	"vpn_reviews/internal/domain"
)

// markStale fires the cache invalidation hook after a committed write.
// Best-effort: the store write is the source of truth, so a failed
// invalidation is logged and left to the revalidation queue, never
// surfaced to the caller.
func markStale(ctx context.Context, inv domain.Invalidator, slug string, locales []string) {
	if inv == nil {
		return
	}
	if err := inv.MarkStale(ctx, slug, locales); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("cache invalidation failed")
	}
}

type SubmissionService struct {
	store   domain.ReviewStore
	catalog domain.ProviderCatalog
	inv     domain.Invalidator
	locales []string
}

func NewSubmissionService(s domain.ReviewStore, c domain.ProviderCatalog, inv domain.Invalidator, locales []string) *SubmissionService {
	return &SubmissionService{store: s, catalog: c, inv: inv, locales: locales}
}

// Submit validates the draft up front (the store re-validates
// authoritatively) and inserts it in pending state. The invalidation after
// insert only refreshes moderation dashboards; public pages don't change
// until the review is approved.
func (s *SubmissionService) Submit(ctx context.Context, d domain.ReviewDraft) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	ok, err := s.catalog.Exists(ctx, d.VPNSlug)
	if err != nil {
		return 0, fmt.Errorf("catalog lookup for %q: %w", d.VPNSlug, err)
	}
	if !ok {
		return 0, domain.Invalid("unknown provider " + d.VPNSlug)
	}

	id, err := s.store.Insert(ctx, d)
	if err != nil {
		return 0, err
	}
	observability.ObserveReview("submitted")
	markStale(ctx, s.inv, d.VPNSlug, s.locales)
	return id, nil
}

type ModerationService struct {
	store   domain.ReviewStore
	inv     domain.Invalidator
	locales []string
}

func NewModerationService(s domain.ReviewStore, inv domain.Invalidator, locales []string) *ModerationService {
	return &ModerationService{store: s, inv: inv, locales: locales}
}

func (s *ModerationService) Approve(ctx context.Context, id int64) error {
	slug, err := s.store.SetModerationState(ctx, id, true, false)
	if err != nil {
		return err
	}
	observability.ObserveReview("approved")
	markStale(ctx, s.inv, slug, s.locales)
	return nil
}

// Feature requires a prior Approve; the store rejects the transition
// otherwise.
func (s *ModerationService) Feature(ctx context.Context, id int64) error {
	slug, err := s.store.SetModerationState(ctx, id, true, true)
	if err != nil {
		return err
	}
	observability.ObserveReview("featured")
	markStale(ctx, s.inv, slug, s.locales)
	return nil
}

// Reject is terminal: the review stays unapproved and no further transition
// is possible.
func (s *ModerationService) Reject(ctx context.Context, id int64) error {
	slug, err := s.store.Reject(ctx, id)
	if err != nil {
		return err
	}
	observability.ObserveReview("rejected")
	markStale(ctx, s.inv, slug, s.locales)
	return nil
}

type VotingService struct {
	store   domain.ReviewStore
	inv     domain.Invalidator
	locales []string
}

func NewVotingService(s domain.ReviewStore, inv domain.Invalidator, locales []string) *VotingService {
	return &VotingService{store: s, inv: inv, locales: locales}
}

// Vote bumps the helpful/unhelpful counter on an approved review and
// returns the new count. Repeat votes from the same visitor are not
// deduplicated.
func (s *VotingService) Vote(ctx context.Context, id int64, kind domain.VoteKind) (int64, error) {
	if !kind.Valid() {
		return 0, domain.Invalid("kind must be helpful or unhelpful")
	}
	count, slug, err := s.store.IncrementVote(ctx, id, kind)
	if err != nil {
		return 0, err
	}
	observability.ObserveReview("vote_" + string(kind))
	markStale(ctx, s.inv, slug, s.locales)
	return count, nil
}

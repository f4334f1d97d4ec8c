package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"vpn_reviews/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Exists implements domain.ProviderCatalog against the providers table,
// which this subsystem never writes.
func (r *Repo) Exists(ctx context.Context, slug string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, providerExistsSQL, slug).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert validates the draft authoritatively and creates the review in
// pending state (approved=0, featured=0, counters 0, created_at set by the
// database).
func (r *Repo) Insert(ctx context.Context, d domain.ReviewDraft) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	ok, err := r.Exists(ctx, d.VPNSlug)
	if err != nil {
		return 0, fmt.Errorf("check provider %q: %w", d.VPNSlug, err)
	}
	if !ok {
		return 0, domain.Invalid("unknown provider " + d.VPNSlug)
	}

	res, err := r.db.ExecContext(ctx, insertReviewSQL,
		d.VPNSlug,
		d.AuthorName,
		d.AuthorEmail,
		d.Rating,
		d.Title,
		d.Content,
		valStr(d.UsageType),
		valStr(d.UsagePeriod),
		jsonList(d.Pros),
		jsonList(d.Cons),
	)
	if err != nil {
		return 0, fmt.Errorf("insert review: %w", err)
	}
	return res.LastInsertId()
}

// SetModerationState applies an approve/feature decision. The featured flag
// is only legal on an approved review; the check runs here, under row lock,
// rather than trusting the caller.
func (r *Repo) SetModerationState(ctx context.Context, id int64, approved, featured bool) (string, error) {
	if featured && !approved {
		return "", &domain.InvariantError{Msg: "featured requires approved"}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	slug, curApproved, curFeatured, rejected, err := lockReview(ctx, tx, id)
	if err != nil {
		return "", err
	}
	if rejected {
		return "", &domain.InvariantError{Msg: "review is rejected"}
	}
	if featured && !curApproved {
		return "", &domain.InvariantError{Msg: "cannot feature a review that is not approved"}
	}
	// re-approving a featured review must not silently un-feature it;
	// there is no un-feature transition
	if approved && curFeatured {
		featured = true
	}

	if _, err := tx.ExecContext(ctx, setModerationSQL, approved, featured, id); err != nil {
		return "", fmt.Errorf("set moderation state: %w", err)
	}
	return slug, tx.Commit()
}

// Reject is terminal: no transition out of rejected, and an approved review
// cannot be rejected after the fact.
func (r *Repo) Reject(ctx context.Context, id int64) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	slug, approved, _, rejected, err := lockReview(ctx, tx, id)
	if err != nil {
		return "", err
	}
	if rejected {
		return "", &domain.InvariantError{Msg: "review already rejected"}
	}
	if approved {
		return "", &domain.InvariantError{Msg: "cannot reject an approved review"}
	}

	if _, err := tx.ExecContext(ctx, rejectSQL, id); err != nil {
		return "", fmt.Errorf("reject review: %w", err)
	}
	return slug, tx.Commit()
}

func lockReview(ctx context.Context, tx *sql.Tx, id int64) (slug string, approved, featured, rejected bool, err error) {
	var rejectedAt sql.NullTime
	err = tx.QueryRowContext(ctx, lockReviewSQL, id).Scan(&slug, &approved, &featured, &rejectedAt)
	if err == sql.ErrNoRows {
		return "", false, false, false, domain.ErrNotFound
	}
	if err != nil {
		return "", false, false, false, err
	}
	return slug, approved, featured, rejectedAt.Valid, nil
}

// IncrementVote bumps the counter atomically in the database. Zero rows
// affected means the id is unknown or the review is not approved; both
// surface as not-found to avoid leaking moderation state.
func (r *Repo) IncrementVote(ctx context.Context, id int64, kind domain.VoteKind) (int64, string, error) {
	if !kind.Valid() {
		return 0, "", domain.Invalid("unknown vote kind " + string(kind))
	}
	stmt := incrementHelpfulSQL
	if kind == domain.VoteUnhelpful {
		stmt = incrementUnhelpfulSQL
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, stmt, id)
	if err != nil {
		return 0, "", fmt.Errorf("increment vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, "", err
	}
	if n == 0 {
		return 0, "", domain.ErrNotFound
	}

	var helpful, unhelpful int64
	var slug string
	if err := tx.QueryRowContext(ctx, voteCountsSQL, id).Scan(&helpful, &unhelpful, &slug); err != nil {
		return 0, "", err
	}
	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	if kind == domain.VoteUnhelpful {
		return unhelpful, slug, nil
	}
	return helpful, slug, nil
}

func (r *Repo) ListApproved(ctx context.Context, vpnSlug string, limit int) ([]domain.Review, error) {
	return r.listReviews(ctx, listApprovedSQL, vpnSlug, limit)
}

func (r *Repo) ListPending(ctx context.Context, limit int) ([]domain.Review, error) {
	return r.listReviews(ctx, listPendingSQL, limit)
}

func (r *Repo) listReviews(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var (
			usageType   sql.NullString
			usagePeriod sql.NullString
			prosRaw     []byte
			consRaw     []byte
			rejectedAt  sql.NullTime
		)
		if err := rows.Scan(
			&rv.ID,
			&rv.VPNSlug,
			&rv.AuthorName,
			&rv.AuthorEmail,
			&rv.Rating,
			&rv.Title,
			&rv.Content,
			&usageType,
			&usagePeriod,
			&prosRaw,
			&consRaw,
			&rv.Approved,
			&rv.Featured,
			&rejectedAt,
			&rv.HelpfulCount,
			&rv.UnhelpfulCount,
			&rv.CreatedAt,
		); err != nil {
			return nil, err
		}
		if usageType.Valid {
			s := usageType.String
			rv.UsageType = &s
		}
		if usagePeriod.Valid {
			s := usagePeriod.String
			rv.UsagePeriod = &s
		}
		if rejectedAt.Valid {
			t := rejectedAt.Time
			rv.RejectedAt = &t
		}
		_ = json.Unmarshal(prosRaw, &rv.Pros)
		_ = json.Unmarshal(consRaw, &rv.Cons)
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

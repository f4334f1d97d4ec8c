package mysql

const insertReviewSQL = `
INSERT INTO reviews
  (vpn_slug, author_name, author_email, rating, title, content,
   usage_type, usage_period, pros, cons)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const providerExistsSQL = `SELECT 1 FROM providers WHERE slug = ?`

// Moderation reads the row under lock so concurrent decisions on the same
// review serialize at the store.
const lockReviewSQL = `
SELECT vpn_slug, approved, featured, rejected_at
FROM reviews
WHERE id = ?
FOR UPDATE
`

const setModerationSQL = `UPDATE reviews SET approved = ?, featured = ? WHERE id = ?`

const rejectSQL = `UPDATE reviews SET rejected_at = CURRENT_TIMESTAMP WHERE id = ?`

// Vote counters bump in a single statement; a read-modify-write from the
// caller would lose increments under concurrent votes on the same review.
// Unapproved reviews are not votable, hence the approved guard.
const incrementHelpfulSQL = `
UPDATE reviews SET helpful_count = helpful_count + 1
WHERE id = ? AND approved = 1
`

const incrementUnhelpfulSQL = `
UPDATE reviews SET unhelpful_count = unhelpful_count + 1
WHERE id = ? AND approved = 1
`

const voteCountsSQL = `
SELECT helpful_count, unhelpful_count, vpn_slug FROM reviews WHERE id = ?
`

const reviewColumns = `
  id, vpn_slug, author_name, author_email, rating, title, content,
  usage_type, usage_period, pros, cons,
  approved, featured, rejected_at, helpful_count, unhelpful_count, created_at`

// Featured reviews surface first, then newest-first.
const listApprovedSQL = `
SELECT` + reviewColumns + `
FROM reviews
WHERE vpn_slug = ? AND approved = 1
ORDER BY featured DESC, created_at DESC, id DESC
LIMIT ?
`

// Moderation queue: oldest first so early submitters are not starved.
const listPendingSQL = `
SELECT` + reviewColumns + `
FROM reviews
WHERE approved = 0 AND rejected_at IS NULL
ORDER BY created_at ASC, id ASC
LIMIT ?
`

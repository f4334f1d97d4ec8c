//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"vpn_reviews/internal/domain"
	mysqlrepo "vpn_reviews/internal/storage/mysql"
)

// ---------- small helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=vpnreviews",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "vpnreviews")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func seedProvider(t *testing.T, db *sql.DB, slug string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO providers (slug, name) VALUES (?, ?)`, slug, slug); err != nil {
		t.Fatalf("seed provider %s: %v", slug, err)
	}
}

func validDraft(slug string) domain.ReviewDraft {
	period := "6 months"
	return domain.ReviewDraft{
		VPNSlug:     slug,
		AuthorName:  "Ana",
		AuthorEmail: "ana@example.com",
		Rating:      5,
		Title:       "Fast and stable",
		Content:     "Great speeds",
		UsagePeriod: &period,
		Pros:        []string{"speed", "privacy"},
		Cons:        []string{"price"},
	}
}

// ---------- the tests ----------

func TestRepo_MySQL_ReviewLifecycle(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	seedProvider(t, db, "nordvpn")

	// validation runs in the store, not just the service
	bad := validDraft("nordvpn")
	bad.Rating = 6
	if _, err := repo.Insert(ctx, bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("rating 6: expected validation error, got %v", err)
	}
	if _, err := repo.Insert(ctx, validDraft("no-such-vpn")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown slug: expected validation error, got %v", err)
	}

	id, err := repo.Insert(ctx, validDraft("nordvpn"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// pending defaults
	pending, err := repo.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id || pending[0].Approved || pending[0].Featured {
		t.Fatalf("unexpected pending queue: %+v", pending)
	}
	if pending[0].HelpfulCount != 0 || pending[0].UnhelpfulCount != 0 {
		t.Fatalf("new review must have zero counts: %+v", pending[0])
	}
	if got := pending[0].Pros; len(got) != 2 || got[0] != "speed" {
		t.Fatalf("pros did not round-trip: %+v", got)
	}

	// not approved yet -> invisible publicly, not votable
	if out, _ := repo.ListApproved(ctx, "nordvpn", 10); len(out) != 0 {
		t.Fatalf("pending review leaked into approved list: %+v", out)
	}
	if _, _, err := repo.IncrementVote(ctx, id, domain.VoteHelpful); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("vote on pending: expected not found, got %v", err)
	}

	// feature before approve is an invariant violation
	if _, err := repo.SetModerationState(ctx, id, false, true); !errors.Is(err, domain.ErrInvariant) {
		t.Fatalf("featured without approved: expected invariant error, got %v", err)
	}
	if _, err := repo.SetModerationState(ctx, id, true, true); !errors.Is(err, domain.ErrInvariant) {
		t.Fatalf("feature of pending review: expected invariant error, got %v", err)
	}

	slug, err := repo.SetModerationState(ctx, id, true, false)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if slug != "nordvpn" {
		t.Fatalf("unexpected slug %q", slug)
	}

	out, err := repo.ListApproved(ctx, "nordvpn", 10)
	if err != nil || len(out) != 1 {
		t.Fatalf("ListApproved after approve: %+v err=%v", out, err)
	}

	// feature now works
	if _, err := repo.SetModerationState(ctx, id, true, true); err != nil {
		t.Fatalf("feature after approve: %v", err)
	}

	// re-approving keeps the featured flag
	if _, err := repo.SetModerationState(ctx, id, true, false); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	out, err = repo.ListApproved(ctx, "nordvpn", 10)
	if err != nil || len(out) != 1 || !out[0].Featured {
		t.Fatalf("re-approve dropped the featured flag: %+v err=%v", out, err)
	}

	// votes
	if n, _, err := repo.IncrementVote(ctx, id, domain.VoteHelpful); err != nil || n != 1 {
		t.Fatalf("first helpful vote: n=%d err=%v", n, err)
	}
	if n, _, err := repo.IncrementVote(ctx, id, domain.VoteHelpful); err != nil || n != 2 {
		t.Fatalf("second helpful vote: n=%d err=%v", n, err)
	}
	if n, _, err := repo.IncrementVote(ctx, id, domain.VoteUnhelpful); err != nil || n != 1 {
		t.Fatalf("unhelpful vote: n=%d err=%v", n, err)
	}
	if _, _, err := repo.IncrementVote(ctx, 999999, domain.VoteHelpful); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("vote on unknown id: expected not found, got %v", err)
	}

	// moderation is terminal for rejected rows
	id2, err := repo.Insert(ctx, validDraft("nordvpn"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := repo.Reject(ctx, id2); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := repo.SetModerationState(ctx, id2, true, false); !errors.Is(err, domain.ErrInvariant) {
		t.Fatalf("approve after reject: expected invariant error, got %v", err)
	}
	if pending, _ := repo.ListPending(ctx, 10); len(pending) != 0 {
		t.Fatalf("rejected review still pending: %+v", pending)
	}
}

func TestRepo_MySQL_ListApprovedOrdering(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	seedProvider(t, db, "surfshark")

	var ids []int64
	for i, name := range []string{"first", "second", "third"} {
		d := validDraft("surfshark")
		d.AuthorName = name
		id, err := repo.Insert(ctx, d)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		// distinct created_at per row so the newest-first ordering is deterministic
		if _, err := db.Exec(`UPDATE reviews SET created_at = TIMESTAMPADD(SECOND, ?, '2026-01-01 00:00:00') WHERE id = ?`, i, id); err != nil {
			t.Fatalf("backdate %d: %v", i, err)
		}
		if _, err := repo.SetModerationState(ctx, id, true, false); err != nil {
			t.Fatalf("approve %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	// feature the oldest; it must surface first despite its age
	if _, err := repo.SetModerationState(ctx, ids[0], true, true); err != nil {
		t.Fatalf("feature: %v", err)
	}

	out, err := repo.ListApproved(ctx, "surfshark", 10)
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(out))
	}
	if out[0].AuthorName != "first" || !out[0].Featured {
		t.Fatalf("featured review must come first: %+v", out[0])
	}
	if out[1].AuthorName != "third" || out[2].AuthorName != "second" {
		t.Fatalf("non-featured must be newest-first: %s, %s", out[1].AuthorName, out[2].AuthorName)
	}

	// pending queue is oldest-first
	d := validDraft("surfshark")
	d.AuthorName = "late"
	if _, err := repo.Insert(ctx, d); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d.AuthorName = "later"
	if _, err := repo.Insert(ctx, d); err != nil {
		t.Fatalf("insert: %v", err)
	}
	pending, err := repo.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 || pending[0].AuthorName != "late" {
		t.Fatalf("pending must be oldest-first: %+v", pending)
	}
}

func TestRepo_MySQL_ConcurrentVotesLossless(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	seedProvider(t, db, "nordvpn")
	id, err := repo.Insert(ctx, validDraft("nordvpn"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := repo.SetModerationState(ctx, id, true, false); err != nil {
		t.Fatalf("approve: %v", err)
	}

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := repo.IncrementVote(ctx, id, domain.VoteHelpful); err != nil {
				t.Errorf("vote: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int64
	if err := db.QueryRow(`SELECT helpful_count FROM reviews WHERE id = ?`, id).Scan(&count); err != nil {
		t.Fatalf("read count: %v", err)
	}
	if count != n {
		t.Fatalf("lost updates: expected %d, got %d", n, count)
	}
}

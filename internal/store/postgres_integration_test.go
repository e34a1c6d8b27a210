package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// testDB connects to the database named by PLANKAHUB_TEST_DATABASE_URL,
// resets the public schema and applies all migrations. Skips when the
// variable is unset.
func testDB(t *testing.T) (*sql.DB, context.Context) {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("PLANKAHUB_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("PLANKAHUB_TEST_DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db, ctx
}

func seedProject(t *testing.T, ctx context.Context, s *PostgresStore) string {
	t.Helper()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name) VALUES ('prj_test', 'Test project')
	`); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return "prj_test"
}

func TestInsertDebateAppendsPastMaxPostgres(t *testing.T) {
	db, ctx := testDB(t)
	s := NewPostgresStore(db)
	projectID := seedProject(t, ctx, s)

	first, err := s.InsertDebate(ctx, Debate{ID: "dbt_1", ProjectID: projectID, Title: "First", Status: DebateStatusActive}, nil)
	if err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if first.Position != 65536 {
		t.Fatalf("expected 65536, got %v", first.Position)
	}

	second, err := s.InsertDebate(ctx, Debate{ID: "dbt_2", ProjectID: projectID, Title: "Second", Status: DebateStatusActive}, nil)
	if err != nil {
		t.Fatalf("insert second: %v", err)
	}
	if second.Position != 131072 {
		t.Fatalf("expected 131072, got %v", second.Position)
	}

	// An explicit fractional position is stored as given and another
	// generated insert still appends past the maximum.
	explicit := 70000.5
	pinned, err := s.InsertDebate(ctx, Debate{ID: "dbt_3", ProjectID: projectID, Title: "Pinned", Status: DebateStatusActive}, &explicit)
	if err != nil {
		t.Fatalf("insert pinned: %v", err)
	}
	if pinned.Position != 70000.5 {
		t.Fatalf("expected 70000.5, got %v", pinned.Position)
	}

	third, err := s.InsertDebate(ctx, Debate{ID: "dbt_4", ProjectID: projectID, Title: "Third", Status: DebateStatusActive}, nil)
	if err != nil {
		t.Fatalf("insert third: %v", err)
	}
	if third.Position != 131072+65536 {
		t.Fatalf("expected %v, got %v", float64(131072+65536), third.Position)
	}

	items, err := s.ListDebates(ctx, projectID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"dbt_1", "dbt_3", "dbt_2", "dbt_4"}
	if len(items) != len(want) {
		t.Fatalf("expected %d debates, got %d", len(want), len(items))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("expected order %v, got %s at %d", want, items[i].ID, i)
		}
	}
}

func TestDeleteDebateCascadesRepliesPostgres(t *testing.T) {
	db, ctx := testDB(t)
	s := NewPostgresStore(db)
	projectID := seedProject(t, ctx, s)

	debate, err := s.InsertDebate(ctx, Debate{ID: "dbt_1", ProjectID: projectID, Title: "With replies", Status: DebateStatusActive}, nil)
	if err != nil {
		t.Fatalf("insert debate: %v", err)
	}
	if _, err := s.InsertDebateReply(ctx, DebateReply{ID: "rpl_1", DebateID: debate.ID, Body: "one"}); err != nil {
		t.Fatalf("insert reply: %v", err)
	}
	if _, err := s.InsertDebateReply(ctx, DebateReply{ID: "rpl_2", DebateID: debate.ID, Body: "two"}); err != nil {
		t.Fatalf("insert reply: %v", err)
	}

	reloaded, err := s.GetDebate(ctx, debate.ID)
	if err != nil {
		t.Fatalf("get debate: %v", err)
	}
	if reloaded.RepliesTotal != 2 {
		t.Fatalf("expected replies_total 2, got %d", reloaded.RepliesTotal)
	}

	if err := s.DeleteDebate(ctx, debate.ID); err != nil {
		t.Fatalf("delete debate: %v", err)
	}

	var replies int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM debate_replies WHERE debate_id = $1`, debate.ID).Scan(&replies); err != nil {
		t.Fatalf("count replies: %v", err)
	}
	if replies != 0 {
		t.Fatalf("expected replies removed with debate, got %d", replies)
	}

	if _, err := s.GetDebate(ctx, debate.ID); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeleteDebateIdempotencePostgres(t *testing.T) {
	db, ctx := testDB(t)
	s := NewPostgresStore(db)

	// Deleting an absent debate is a no-op at the store layer; the service
	// reports not-found from the preceding read.
	if err := s.DeleteDebate(ctx, "dbt_absent"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

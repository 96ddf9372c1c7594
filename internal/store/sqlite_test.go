package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/amishk599/jobfeed/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) model.JobRepository { return newTestStore(t) })
}

func TestSQLiteStore_ReopenKeepsJobs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "jobs.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if _, err := s.InsertBatch(ctx, []model.Job{sampleJob("persisted", "Engineer", "Remote")}); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	existing, err := s.FindExistingIDs(ctx, []string{"persisted"})
	if err != nil {
		t.Fatalf("FindExistingIDs: %v", err)
	}
	if _, ok := existing["persisted"]; !ok {
		t.Error("expected job to survive reopen")
	}
}

func TestSQLiteStore_LookupSpansChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var jobs []model.Job
	var ids []string
	for i := 0; i < sqliteLookupChunk+20; i++ {
		id := fmt.Sprintf("job-%04d", i)
		ids = append(ids, id)
		if i%2 == 0 {
			jobs = append(jobs, sampleJob(id, "Engineer", "Remote"))
		}
	}
	if _, err := s.InsertBatch(ctx, jobs); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	existing, err := s.FindExistingIDs(ctx, ids)
	if err != nil {
		t.Fatalf("FindExistingIDs: %v", err)
	}
	if len(existing) != len(jobs) {
		t.Errorf("existing = %d, want %d", len(existing), len(jobs))
	}
}

func TestSQLiteStore_DuplicateWithinBatchInsertedOnce(t *testing.T) {
	s := newTestStore(t)
	ids, err := s.InsertBatch(context.Background(), []model.Job{
		sampleJob("dup", "First", "Remote"),
		sampleJob("dup", "Second", "Remote"),
	})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if len(ids) != 1 || ids[0] != "dup" {
		t.Errorf("inserted = %v, want [dup]", ids)
	}
}

func TestSQLiteStore_BackfillsFoldColumnsOnOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	// Table layout from before the fold columns were added.
	if _, err := db.Exec(`CREATE TABLE jobs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT, id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL, location TEXT NOT NULL, employment_type TEXT NOT NULL,
		salary_range TEXT NOT NULL, company_name TEXT NOT NULL, company_website TEXT,
		years_experience INTEGER, industry TEXT NOT NULL, skills TEXT NOT NULL DEFAULT '[]',
		posted_at TEXT NOT NULL, imported_at DATETIME DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO jobs (id, title, location, employment_type, salary_range, company_name, industry, posted_at)
		VALUES ('old', 'École Manager', 'Zürich', 'N/A', 'N/A', 'N/A', 'N/A', '2025-03-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	db.Close()

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	jobs, total, err := s.QueryPage(context.Background(), model.PageQuery{Title: "ÉCOLE", Location: "zürich", Limit: 10})
	if err != nil {
		t.Fatalf("QueryPage: %v", err)
	}
	if total != 1 || jobs[0].ID != "old" {
		t.Errorf("total = %d, want the legacy row", total)
	}
}

func TestContainsPattern(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"go", "%go%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		if got := containsPattern(tt.in); got != tt.want {
			t.Errorf("containsPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

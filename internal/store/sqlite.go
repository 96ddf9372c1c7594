package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobfeed/internal/model"
)

// Ensure SQLiteStore implements model.JobRepository.
var _ model.JobRepository = (*SQLiteStore)(nil)

// sqliteLookupChunk keeps IN lists under SQLite's bound-parameter limit.
const sqliteLookupChunk = 500

const sqliteSchema = `CREATE TABLE IF NOT EXISTS jobs (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               TEXT NOT NULL UNIQUE,
	title            TEXT NOT NULL,
	location         TEXT NOT NULL,
	employment_type  TEXT NOT NULL,
	salary_range     TEXT NOT NULL,
	company_name     TEXT NOT NULL,
	company_website  TEXT,
	years_experience INTEGER,
	industry         TEXT NOT NULL,
	skills           TEXT NOT NULL DEFAULT '[]',
	posted_at        TEXT NOT NULL,
	title_fold       TEXT NOT NULL DEFAULT '',
	location_fold    TEXT NOT NULL DEFAULT '',
	imported_at      DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// The fold columns hold Go-lowercased copies of title and location. SQLite's
// lower() only folds ASCII, so matching runs against these instead.
var sqliteFoldColumns = []string{"title_fold", "location_fold"}

const sqliteInsert = `INSERT OR IGNORE INTO jobs (
	id, title, location, employment_type, salary_range, company_name,
	company_website, years_experience, industry, skills, posted_at,
	title_fold, location_fold
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const sqliteQueryPage = `SELECT id, title, location, employment_type, salary_range, company_name,
	company_website, years_experience, industry, skills, posted_at, COUNT(*) OVER() AS total
FROM jobs
WHERE (? = '' OR title_fold LIKE ? ESCAPE '\')
  AND (? = '' OR location_fold LIKE ? ESCAPE '\')
ORDER BY seq
LIMIT ? OFFSET ?`

// SQLiteStore persists canonical jobs in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// jobs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}
	if err := migrateFoldColumns(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// migrateFoldColumns adds the fold columns to databases created before they
// existed and fills them from the stored title and location.
func migrateFoldColumns(db *sql.DB) error {
	rows, err := db.Query("SELECT name FROM pragma_table_info('jobs')")
	if err != nil {
		return fmt.Errorf("reading jobs columns: %w", err)
	}
	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("reading jobs columns: %w", err)
		}
		columns[name] = true
	}
	rows.Close()

	added := false
	for _, col := range sqliteFoldColumns {
		if columns[col] {
			continue
		}
		if _, err := db.Exec("ALTER TABLE jobs ADD COLUMN " + col + " TEXT NOT NULL DEFAULT ''"); err != nil {
			return fmt.Errorf("adding %s column: %w", col, err)
		}
		added = true
	}
	if !added {
		return nil
	}

	type pending struct {
		seq             int64
		title, location string
	}
	var todo []pending
	rows, err = db.Query("SELECT seq, title, location FROM jobs")
	if err != nil {
		return fmt.Errorf("backfilling fold columns: %w", err)
	}
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.seq, &p.title, &p.location); err != nil {
			rows.Close()
			return fmt.Errorf("backfilling fold columns: %w", err)
		}
		todo = append(todo, p)
	}
	rows.Close()

	for _, p := range todo {
		if _, err := db.Exec("UPDATE jobs SET title_fold = ?, location_fold = ? WHERE seq = ?",
			fold(p.title), fold(p.location), p.seq); err != nil {
			return fmt.Errorf("backfilling fold columns: %w", err)
		}
	}
	return nil
}

// FindExistingIDs returns which of ids are already stored.
func (s *SQLiteStore) FindExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	for start := 0; start < len(ids); start += sqliteLookupChunk {
		chunk := ids[start:min(start+sqliteLookupChunk, len(ids))]

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		query := "SELECT id FROM jobs WHERE id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",") + ")"

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("looking up existing job ids: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning job id: %w", err)
			}
			existing[id] = struct{}{}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("looking up existing job ids: %w", err)
		}
	}
	return existing, nil
}

// InsertBatch writes jobs in one transaction. Rows whose id already exists
// are ignored, never updated.
func (s *SQLiteStore) InsertBatch(ctx context.Context, jobs []model.Job) ([]string, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteInsert)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var inserted []string
	for _, j := range jobs {
		skills, err := json.Marshal(nonNil(j.Skills))
		if err != nil {
			return nil, fmt.Errorf("encoding skills for %s: %w", j.ID, err)
		}
		res, err := stmt.ExecContext(ctx,
			j.ID, j.Title, j.Location, j.EmploymentType, j.SalaryRange, j.CompanyName,
			nullString(j.CompanyWebsite), nullInt(j.YearsExperience), j.Industry,
			string(skills), j.PostedAt.UTC().Format(time.RFC3339Nano),
			fold(j.Title), fold(j.Location),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting job %s: %w", j.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("inserting job %s: %w", j.ID, err)
		}
		if n > 0 {
			inserted = append(inserted, j.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}
	return inserted, nil
}

// QueryPage runs the filtered page query. Rows and total come from the same
// statement, so they always agree.
func (s *SQLiteStore) QueryPage(ctx context.Context, q model.PageQuery) ([]model.Job, int, error) {
	title := fold(q.Title)
	location := fold(q.Location)

	rows, err := s.db.QueryContext(ctx, sqliteQueryPage,
		title, containsPattern(title),
		location, containsPattern(location),
		q.Limit, q.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var (
		jobs  []model.Job
		total int
	)
	for rows.Next() {
		var (
			j        model.Job
			website  sql.NullString
			years    sql.NullInt64
			skills   string
			postedAt string
		)
		if err := rows.Scan(
			&j.ID, &j.Title, &j.Location, &j.EmploymentType, &j.SalaryRange, &j.CompanyName,
			&website, &years, &j.Industry, &skills, &postedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning job: %w", err)
		}
		if website.Valid {
			j.CompanyWebsite = &website.String
		}
		if years.Valid {
			y := int(years.Int64)
			j.YearsExperience = &y
		}
		if err := json.Unmarshal([]byte(skills), &j.Skills); err != nil {
			return nil, 0, fmt.Errorf("decoding skills for %s: %w", j.ID, err)
		}
		j.Skills = nonNil(j.Skills)
		if j.PostedAt, err = time.Parse(time.RFC3339Nano, postedAt); err != nil {
			return nil, 0, fmt.Errorf("parsing posted_at for %s: %w", j.ID, err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("querying jobs: %w", err)
	}
	return jobs, total, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

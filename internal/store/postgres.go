package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/jobfeed/internal/model"
)

// Ensure PostgresStore implements model.JobRepository.
var _ model.JobRepository = (*PostgresStore)(nil)

const postgresSchema = `CREATE TABLE IF NOT EXISTS jobs (
	seq              BIGSERIAL,
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	location         TEXT NOT NULL,
	employment_type  TEXT NOT NULL,
	salary_range     TEXT NOT NULL,
	company_name     TEXT NOT NULL,
	company_website  TEXT,
	years_experience INTEGER,
	industry         TEXT NOT NULL,
	skills           TEXT[] NOT NULL DEFAULT '{}',
	posted_at        TIMESTAMPTZ NOT NULL,
	imported_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE jobs ADD COLUMN IF NOT EXISTS title_fold TEXT;
ALTER TABLE jobs ADD COLUMN IF NOT EXISTS location_fold TEXT;
CREATE INDEX IF NOT EXISTS jobs_seq_idx ON jobs (seq)`

const postgresInsert = `INSERT INTO jobs (
	id, title, location, employment_type, salary_range, company_name,
	company_website, years_experience, industry, skills, posted_at,
	title_fold, location_fold
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO NOTHING`

const postgresQueryPage = `SELECT id, title, location, employment_type, salary_range, company_name,
	company_website, years_experience, industry, skills, posted_at, COUNT(*) OVER() AS total
FROM jobs
WHERE ($1::text = '' OR title_fold LIKE $2)
  AND ($3::text = '' OR location_fold LIKE $4)
ORDER BY seq
LIMIT $5 OFFSET $6`

// PostgresStore persists canonical jobs in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL, verifies the connection and
// ensures the jobs table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.backfillFolds(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// backfillFolds fills the fold columns for rows written before they existed.
// Folding happens in Go so it matches the filters regardless of the
// database's ctype.
func (s *PostgresStore) backfillFolds(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, `SELECT id, title, location FROM jobs WHERE title_fold IS NULL OR location_fold IS NULL`)
	if err != nil {
		return fmt.Errorf("backfilling fold columns: %w", err)
	}
	batch := &pgx.Batch{}
	for rows.Next() {
		var id, title, location string
		if err := rows.Scan(&id, &title, &location); err != nil {
			rows.Close()
			return fmt.Errorf("backfilling fold columns: %w", err)
		}
		batch.Queue(`UPDATE jobs SET title_fold = $2, location_fold = $3 WHERE id = $1`, id, fold(title), fold(location))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("backfilling fold columns: %w", err)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("backfilling fold columns: %w", err)
	}
	return nil
}

// FindExistingIDs returns which of ids are already stored, in one query.
func (s *PostgresStore) FindExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT id FROM jobs WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("looking up existing job ids: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("looking up existing job ids: %w", err)
	}
	for _, id := range found {
		existing[id] = struct{}{}
	}
	return existing, nil
}

// InsertBatch sends all inserts in a single batch inside one transaction.
// Conflicting ids are skipped, never updated.
func (s *PostgresStore) InsertBatch(ctx context.Context, jobs []model.Job) ([]string, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, j := range jobs {
		batch.Queue(postgresInsert,
			j.ID, j.Title, j.Location, j.EmploymentType, j.SalaryRange, j.CompanyName,
			j.CompanyWebsite, j.YearsExperience, j.Industry, nonNil(j.Skills), j.PostedAt,
			fold(j.Title), fold(j.Location),
		)
	}

	br := tx.SendBatch(ctx, batch)
	var inserted []string
	for _, j := range jobs {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return nil, fmt.Errorf("inserting job %s: %w", j.ID, err)
		}
		if tag.RowsAffected() > 0 {
			inserted = append(inserted, j.ID)
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("closing insert batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}
	return inserted, nil
}

// QueryPage runs the filtered page query against the folded columns.
func (s *PostgresStore) QueryPage(ctx context.Context, q model.PageQuery) ([]model.Job, int, error) {
	title := fold(q.Title)
	location := fold(q.Location)

	rows, err := s.pool.Query(ctx, postgresQueryPage,
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
		var j model.Job
		if err := rows.Scan(
			&j.ID, &j.Title, &j.Location, &j.EmploymentType, &j.SalaryRange, &j.CompanyName,
			&j.CompanyWebsite, &j.YearsExperience, &j.Industry, &j.Skills, &j.PostedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning job: %w", err)
		}
		j.Skills = nonNil(j.Skills)
		j.PostedAt = j.PostedAt.UTC()
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("querying jobs: %w", err)
	}
	return jobs, total, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

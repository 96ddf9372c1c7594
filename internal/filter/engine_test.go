package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobfeed/internal/model"
)

// sliceRepo answers QueryPage from an in-memory slice and records the last query.
type sliceRepo struct {
	jobs []model.Job
	last model.PageQuery
	err  error
}

func (r *sliceRepo) FindExistingIDs(context.Context, []string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (r *sliceRepo) InsertBatch(_ context.Context, jobs []model.Job) ([]string, error) {
	r.jobs = append(r.jobs, jobs...)
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids, nil
}

func (r *sliceRepo) QueryPage(_ context.Context, q model.PageQuery) ([]model.Job, int, error) {
	r.last = q
	if r.err != nil {
		return nil, 0, r.err
	}
	c := Criteria{Title: q.Title, Location: q.Location}
	var page []model.Job
	total := 0
	for _, j := range r.jobs {
		if !c.Match(j) {
			continue
		}
		if total >= q.Offset && len(page) < q.Limit {
			page = append(page, j)
		}
		total++
	}
	return page, total, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededRepo(n int) *sliceRepo {
	r := &sliceRepo{}
	for i := 0; i < n; i++ {
		r.jobs = append(r.jobs, model.Job{
			ID:       fmt.Sprintf("job-%02d", i),
			Title:    "Backend Engineer",
			Location: "Remote",
		})
	}
	return r
}

func TestEngine_PaginationArithmetic(t *testing.T) {
	e := NewEngine(seededRepo(25), 0, discardLogger())

	page, err := e.Query(context.Background(), Criteria{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Jobs, 10)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)

	page, err = e.Query(context.Background(), Criteria{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Jobs, 5)
	assert.Equal(t, "job-20", page.Jobs[0].ID)
	assert.Equal(t, 3, page.CurrentPage)
}

func TestEngine_PageBeyondEndIsNotFound(t *testing.T) {
	e := NewEngine(seededRepo(25), 0, discardLogger())

	_, err := e.Query(context.Background(), Criteria{Page: 4, PageSize: 10})
	assert.ErrorIs(t, err, model.ErrNoMatchingRecords)
}

func TestEngine_FiltersAreANDed(t *testing.T) {
	repo := &sliceRepo{jobs: []model.Job{
		{ID: "1", Title: "Backend Engineer", Location: "Seattle, WA"},
		{ID: "2", Title: "Backend Engineer", Location: "Austin, TX"},
		{ID: "3", Title: "Data Analyst", Location: "Seattle, WA"},
	}}
	e := NewEngine(repo, 0, discardLogger())

	page, err := e.Query(context.Background(), Criteria{Title: "BACKEND", Location: "seattle", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, "1", page.Jobs[0].ID)
	assert.Equal(t, 1, page.TotalPages)
}

func TestEngine_NoMatchesIsNotFound(t *testing.T) {
	e := NewEngine(seededRepo(3), 0, discardLogger())

	_, err := e.Query(context.Background(), Criteria{Title: "pilot", Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, model.ErrNoMatchingRecords)
}

func TestEngine_TrimsFiltersBeforeQuerying(t *testing.T) {
	repo := seededRepo(3)
	e := NewEngine(repo, 0, discardLogger())

	_, err := e.Query(context.Background(), Criteria{Title: "  engineer ", Location: "   ", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, model.PageQuery{Title: "engineer", Location: "", Offset: 2, Limit: 2}, repo.last)
}

func TestEngine_RejectsMalformedCriteria(t *testing.T) {
	e := NewEngine(seededRepo(3), 0, discardLogger())

	tests := []struct {
		name     string
		criteria Criteria
		message  string
	}{
		{"page zero", Criteria{Page: 0, PageSize: 10}, "Page number must be greater than or equal to 1."},
		{"negative page", Criteria{Page: -2, PageSize: 10}, "Page number must be greater than or equal to 1."},
		{"page size zero", Criteria{Page: 1, PageSize: 0}, "Page size must be greater than or equal to 1."},
		{"page size too large", Criteria{Page: 1, PageSize: 101}, "Page size must be less than or equal to 100."},
		{"offset overflows", Criteria{Page: 922337203685477582, PageSize: 10}, "Page number is too large."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Query(context.Background(), tt.criteria)
			require.ErrorIs(t, err, model.ErrMalformedCriteria)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestEngine_PageSizeBoundsAccepted(t *testing.T) {
	e := NewEngine(seededRepo(150), 0, discardLogger())

	page, err := e.Query(context.Background(), Criteria{Page: 1, PageSize: 100})
	require.NoError(t, err)
	assert.Len(t, page.Jobs, 100)
	assert.Equal(t, 2, page.TotalPages)

	page, err = e.Query(context.Background(), Criteria{Page: 150, PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, page.Jobs, 1)
	assert.Equal(t, 150, page.TotalPages)
}

func TestEngine_HugePageNeverReachesRepository(t *testing.T) {
	repo := seededRepo(2)
	e := NewEngine(repo, 0, discardLogger())

	_, err := e.Query(context.Background(), Criteria{Page: 922337203685477582, PageSize: 10})
	require.ErrorIs(t, err, model.ErrMalformedCriteria)
	assert.Equal(t, model.PageQuery{}, repo.last)

	// The largest page whose offset still fits is simply past the end.
	_, err = e.Query(context.Background(), Criteria{Page: math.MaxInt/10 + 1, PageSize: 10})
	assert.ErrorIs(t, err, model.ErrNoMatchingRecords)
}

func TestEngine_RepositoryFailureIsPersistenceError(t *testing.T) {
	repo := &sliceRepo{err: errors.New("database is locked")}
	e := NewEngine(repo, 0, discardLogger())

	_, err := e.Query(context.Background(), DefaultCriteria())
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.NotErrorIs(t, err, model.ErrNoMatchingRecords)
}

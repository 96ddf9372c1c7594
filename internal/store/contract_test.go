package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func sampleJob(id, title, location string) model.Job {
	return model.Job{
		ID:              id,
		Title:           title,
		Location:        location,
		EmploymentType:  "Full-Time",
		SalaryRange:     "$70k - $100k",
		CompanyName:     "Acme",
		CompanyWebsite:  strPtr("https://acme.example.com"),
		YearsExperience: intPtr(3),
		Industry:        "Tech",
		Skills:          []string{"Go", "SQL", "Go"},
		PostedAt:        time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

// runRepositoryContract exercises the behavior every JobRepository must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) model.JobRepository) {
	ctx := context.Background()

	t.Run("insert then find existing", func(t *testing.T) {
		repo := newRepo(t)
		ids, err := repo.InsertBatch(ctx, []model.Job{sampleJob("a", "Engineer", "Remote"), sampleJob("b", "Analyst", "Boston")})
		if err != nil {
			t.Fatalf("InsertBatch: %v", err)
		}
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Errorf("inserted = %v, want [a b]", ids)
		}

		existing, err := repo.FindExistingIDs(ctx, []string{"a", "c", "b"})
		if err != nil {
			t.Fatalf("FindExistingIDs: %v", err)
		}
		if len(existing) != 2 {
			t.Errorf("existing = %v, want a and b", existing)
		}
		if _, ok := existing["c"]; ok {
			t.Error("unexpected id c reported as existing")
		}
	})

	t.Run("find with no ids", func(t *testing.T) {
		repo := newRepo(t)
		existing, err := repo.FindExistingIDs(ctx, nil)
		if err != nil {
			t.Fatalf("FindExistingIDs: %v", err)
		}
		if len(existing) != 0 {
			t.Errorf("existing = %v, want empty", existing)
		}
	})

	t.Run("insert never overwrites", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.InsertBatch(ctx, []model.Job{sampleJob("a", "Original", "Remote")}); err != nil {
			t.Fatalf("InsertBatch: %v", err)
		}
		ids, err := repo.InsertBatch(ctx, []model.Job{sampleJob("a", "Replacement", "Remote"), sampleJob("b", "New", "Remote")})
		if err != nil {
			t.Fatalf("second InsertBatch: %v", err)
		}
		if len(ids) != 1 || ids[0] != "b" {
			t.Errorf("inserted = %v, want only [b]", ids)
		}

		jobs, total, err := repo.QueryPage(ctx, model.PageQuery{Limit: 10})
		if err != nil {
			t.Fatalf("QueryPage: %v", err)
		}
		if total != 2 || jobs[0].Title != "Original" {
			t.Errorf("got total=%d jobs=%+v, want the original record", total, jobs)
		}
	})

	t.Run("round trip keeps every field", func(t *testing.T) {
		repo := newRepo(t)
		want := sampleJob("full", "Engineer", "Remote")
		sparse := model.Job{ID: "sparse", Title: "Intern", Location: "N/A", Skills: []string{}, PostedAt: time.Unix(0, 0).UTC()}
		if _, err := repo.InsertBatch(ctx, []model.Job{want, sparse}); err != nil {
			t.Fatalf("InsertBatch: %v", err)
		}

		jobs, _, err := repo.QueryPage(ctx, model.PageQuery{Limit: 10})
		if err != nil {
			t.Fatalf("QueryPage: %v", err)
		}
		if len(jobs) != 2 {
			t.Fatalf("expected 2 jobs, got %d", len(jobs))
		}
		got := jobs[0]
		if got.CompanyWebsite == nil || *got.CompanyWebsite != *want.CompanyWebsite {
			t.Errorf("CompanyWebsite = %v", got.CompanyWebsite)
		}
		if got.YearsExperience == nil || *got.YearsExperience != 3 {
			t.Errorf("YearsExperience = %v", got.YearsExperience)
		}
		if len(got.Skills) != 3 || got.Skills[2] != "Go" {
			t.Errorf("Skills = %v", got.Skills)
		}
		if !got.PostedAt.Equal(want.PostedAt) {
			t.Errorf("PostedAt = %v, want %v", got.PostedAt, want.PostedAt)
		}
		if got.EmploymentType != want.EmploymentType || got.SalaryRange != want.SalaryRange || got.Industry != want.Industry {
			t.Errorf("text fields differ: %+v", got)
		}

		empty := jobs[1]
		if empty.CompanyWebsite != nil || empty.YearsExperience != nil {
			t.Errorf("nullable fields should stay null: %+v", empty)
		}
		if empty.Skills == nil || len(empty.Skills) != 0 {
			t.Errorf("Skills = %v, want empty", empty.Skills)
		}
	})

	t.Run("page in insertion order with total", func(t *testing.T) {
		repo := newRepo(t)
		var batch []model.Job
		for i := 0; i < 25; i++ {
			batch = append(batch, sampleJob(fmt.Sprintf("job-%02d", i), "Engineer", "Remote"))
		}
		if _, err := repo.InsertBatch(ctx, batch); err != nil {
			t.Fatalf("InsertBatch: %v", err)
		}

		jobs, total, err := repo.QueryPage(ctx, model.PageQuery{Offset: 20, Limit: 10})
		if err != nil {
			t.Fatalf("QueryPage: %v", err)
		}
		if total != 25 {
			t.Errorf("total = %d, want 25", total)
		}
		if len(jobs) != 5 || jobs[0].ID != "job-20" || jobs[4].ID != "job-24" {
			t.Errorf("page 3 = %d jobs starting %v", len(jobs), jobs)
		}
	})

	t.Run("case-insensitive substring filters combined", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.InsertBatch(ctx, []model.Job{
			sampleJob("1", "Backend Engineer", "Seattle, WA"),
			sampleJob("2", "Backend Engineer", "Austin, TX"),
			sampleJob("3", "Data Analyst", "Seattle, WA"),
		}); err != nil {
			t.Fatalf("InsertBatch: %v", err)
		}

		jobs, total, err := repo.QueryPage(ctx, model.PageQuery{Title: "backEND", Location: "SEATTLE", Limit: 10})
		if err != nil {
			t.Fatalf("QueryPage: %v", err)
		}
		if total != 1 || len(jobs) != 1 || jobs[0].ID != "1" {
			t.Errorf("got total=%d jobs=%v, want only job 1", total, jobs)
		}

		jobs, total, err = repo.QueryPage(ctx, model.PageQuery{Location: "seattle", Limit: 10})
		if err != nil {
			t.Fatalf("QueryPage: %v", err)
		}
		if total != 2 || len(jobs) != 2 {
			t.Errorf("location-only total = %d, want 2", total)
		}
	})

	t.Run("non-ASCII filters fold like ASCII", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.InsertBatch(ctx, []model.Job{
			sampleJob("1", "École Manager", "Zürich"),
			sampleJob("2", "Engineer", "Remote"),
		}); err != nil {
			t.Fatalf("InsertBatch: %v", err)
		}

		for _, q := range []model.PageQuery{
			{Title: "École", Limit: 10},
			{Title: "école", Limit: 10},
			{Title: "ÉCOLE", Limit: 10},
			{Location: "ZÜRICH", Limit: 10},
			{Title: "manager", Location: "zürich", Limit: 10},
		} {
			jobs, total, err := repo.QueryPage(ctx, q)
			if err != nil {
				t.Fatalf("QueryPage(%+v): %v", q, err)
			}
			if total != 1 || len(jobs) != 1 || jobs[0].ID != "1" {
				t.Errorf("QueryPage(%+v) total = %d, want only job 1", q, total)
			}
		}
	})

	t.Run("wildcards in filters are literal", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.InsertBatch(ctx, []model.Job{
			sampleJob("1", "100% Remote Engineer", "Remote"),
			sampleJob("2", "Engineer", "Remote"),
		}); err != nil {
			t.Fatalf("InsertBatch: %v", err)
		}

		jobs, total, err := repo.QueryPage(ctx, model.PageQuery{Title: "%", Limit: 10})
		if err != nil {
			t.Fatalf("QueryPage: %v", err)
		}
		if total != 1 || jobs[0].ID != "1" {
			t.Errorf("got total=%d, want only the title containing a percent sign", total)
		}

		_, total, err = repo.QueryPage(ctx, model.PageQuery{Title: "_", Limit: 10})
		if err != nil {
			t.Fatalf("QueryPage: %v", err)
		}
		if total != 0 {
			t.Errorf("underscore matched %d jobs, want 0", total)
		}
	})
}

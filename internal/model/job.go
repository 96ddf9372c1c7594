package model

import (
	"context"
	"errors"
	"time"
)

// NotAvailable is the sentinel stored for text fields a provider did not supply.
const NotAvailable = "N/A"

// Job is the canonical job listing every provider payload is normalized into.
type Job struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Location        string    `json:"location"`
	EmploymentType  string    `json:"employmentType"`
	SalaryRange     string    `json:"salaryRange"`
	CompanyName     string    `json:"companyName"`
	CompanyWebsite  *string   `json:"companyWebsite"`  // null when the provider omits it
	YearsExperience *int      `json:"yearsExperience"` // null when the provider omits it
	Industry        string    `json:"industry"`
	Skills          []string  `json:"skills"`
	PostedAt        time.Time `json:"postedAt"`
}

// Fields carries the raw values an adapter extracted for a single listing.
type Fields struct {
	ID              string
	Title           string
	Location        string
	EmploymentType  string
	SalaryRange     string
	CompanyName     string
	CompanyWebsite  *string
	YearsExperience *int
	Industry        string
	Skills          []string
	PostedAt        time.Time
}

var errMissingID = errors.New("job id is required")

// NewJob builds a Job from adapter output. Skills are copied and never nil.
func NewJob(f Fields) (Job, error) {
	if f.ID == "" {
		return Job{}, errMissingID
	}
	skills := make([]string, len(f.Skills))
	copy(skills, f.Skills)

	return Job{
		ID:              f.ID,
		Title:           f.Title,
		Location:        f.Location,
		EmploymentType:  f.EmploymentType,
		SalaryRange:     f.SalaryRange,
		CompanyName:     f.CompanyName,
		CompanyWebsite:  f.CompanyWebsite,
		YearsExperience: f.YearsExperience,
		Industry:        f.Industry,
		Skills:          skills,
		PostedAt:        f.PostedAt,
	}, nil
}

// Page is one page of query results together with the pagination totals.
type Page struct {
	Jobs        []Job `json:"data"`
	Total       int   `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

// PageQuery is what the query engine hands to a repository. Empty Title or
// Location means no restriction on that field.
type PageQuery struct {
	Title    string
	Location string
	Offset   int
	Limit    int
}

// RawFetcher retrieves a provider payload as raw bytes.
type RawFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// JobSource produces canonical jobs from one provider.
type JobSource interface {
	Name() string
	FetchJobs(ctx context.Context) ([]Job, error)
}

// JobRepository persists canonical jobs keyed by ID.
type JobRepository interface {
	// FindExistingIDs returns the subset of ids already stored.
	FindExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	// InsertBatch stores jobs, skipping any whose ID is already present, and
	// returns the ids it actually wrote in input order.
	InsertBatch(ctx context.Context, jobs []Job) ([]string, error)
	// QueryPage returns the matching jobs on the requested page and the total
	// number of matches, read in one pass.
	QueryPage(ctx context.Context, q PageQuery) ([]Job, int, error)
}

// Notifier announces newly imported jobs.
type Notifier interface {
	Notify(ctx context.Context, jobs []Job) error
}

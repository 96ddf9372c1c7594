package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amishk599/jobfeed/internal/model"
)

// ProviderOneName identifies the flat-list provider in routes, logs and metrics.
const ProviderOneName = "provider1"

// providerOneResponse is the top-level payload: {"jobs": [...]}.
type providerOneResponse struct {
	Jobs []providerOneJob `json:"jobs"`
}

type providerOneJob struct {
	JobID   flexString `json:"jobId"`
	Title   string     `json:"title"`
	Details struct {
		Location    *string `json:"location"`
		Type        *string `json:"type"`
		SalaryRange *string `json:"salaryRange"`
	} `json:"details"`
	Company struct {
		Name     *string `json:"name"`
		Industry *string `json:"industry"`
	} `json:"company"`
	Website    *string     `json:"website"`
	Experienc  optionalInt `json:"experienc"`
	Skills     []string    `json:"skills"`
	PostedDate *string     `json:"postedDate"`
}

// ProviderOne fetches and normalizes the flat job list.
type ProviderOne struct {
	fetcher model.RawFetcher
	url     string
}

// NewProviderOne creates a source reading from url through fetcher.
func NewProviderOne(fetcher model.RawFetcher, url string) *ProviderOne {
	return &ProviderOne{fetcher: fetcher, url: url}
}

func (p *ProviderOne) Name() string { return ProviderOneName }

// FetchJobs retrieves the payload and returns one Job per listing, in order.
func (p *ProviderOne) FetchJobs(ctx context.Context) ([]model.Job, error) {
	body, err := p.fetcher.Fetch(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrUpstreamUnavailable, ProviderOneName, err)
	}
	return ParseProviderOne(body)
}

// ParseProviderOne normalizes a raw provider one payload. An absent or empty
// jobs array fails with model.ErrEmptyUpstream.
func ParseProviderOne(body []byte) ([]model.Job, error) {
	var resp providerOneResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %w", model.ErrUpstreamUnavailable, ProviderOneName, err)
	}
	if len(resp.Jobs) == 0 {
		return nil, fmt.Errorf("%s: %w", ProviderOneName, model.ErrEmptyUpstream)
	}

	jobs := make([]model.Job, 0, len(resp.Jobs))
	for i, pj := range resp.Jobs {
		job, err := model.NewJob(model.Fields{
			ID:              pj.JobID.value,
			Title:           pj.Title,
			Location:        providerOnePolicy.value(fieldLocation, pj.Details.Location),
			EmploymentType:  providerOnePolicy.value(fieldEmploymentType, pj.Details.Type),
			SalaryRange:     providerOnePolicy.value(fieldSalaryRange, pj.Details.SalaryRange),
			CompanyName:     providerOnePolicy.value(fieldCompanyName, pj.Company.Name),
			CompanyWebsite:  providerOnePolicy.text(fieldCompanyWebsite, pj.Website),
			YearsExperience: pj.Experienc.value,
			Industry:        providerOnePolicy.value(fieldIndustry, pj.Company.Industry),
			Skills:          pj.Skills,
			PostedAt:        parsePostedAt(pj.PostedDate),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s listing %d: %w", model.ErrUpstreamUnavailable, ProviderOneName, i, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/amishk599/jobfeed/internal/model"
)

// ProviderTwoName identifies the keyed-map provider in routes, logs and metrics.
const ProviderTwoName = "provider2"

// providerTwoResponse is the top-level payload: {"data": {"jobsList": {<id>: {...}}}}.
type providerTwoResponse struct {
	Data struct {
		JobsList orderedListings `json:"jobsList"`
	} `json:"data"`
}

type providerTwoListing struct {
	Position string `json:"position"`
	Location struct {
		City   string     `json:"city"`
		State  string     `json:"state"`
		Remote strictTrue `json:"remote"`
	} `json:"location"`
	Compensation struct {
		Min flexString `json:"min"`
		Max flexString `json:"max"`
	} `json:"compensation"`
	Employer struct {
		CompanyName *string `json:"companyName"`
		Website     *string `json:"website"`
	} `json:"employer"`
	Requirements struct {
		Experience   optionalInt `json:"experience"`
		Technologies []string    `json:"technologies"`
	} `json:"requirements"`
	DatePosted *string `json:"datePosted"`
	Industry   *string `json:"industry"`
}

type keyedListing struct {
	key     string
	listing providerTwoListing
}

// orderedListings decodes a JSON object while keeping its keys in document
// order. A repeated key keeps its first position and its last value.
type orderedListings []keyedListing

func (o *orderedListings) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("jobsList: expected object, got %v", tok)
	}

	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("jobsList: unexpected token %v", tok)
		}
		var l providerTwoListing
		if err := dec.Decode(&l); err != nil {
			return fmt.Errorf("jobsList[%q]: %w", key, err)
		}
		if i, dup := index[key]; dup {
			(*o)[i].listing = l
			continue
		}
		index[key] = len(*o)
		*o = append(*o, keyedListing{key: key, listing: l})
	}
	_, err = dec.Token()
	return err
}

// ProviderTwo fetches and normalizes the keyed job map.
type ProviderTwo struct {
	fetcher model.RawFetcher
	url     string
}

// NewProviderTwo creates a source reading from url through fetcher.
func NewProviderTwo(fetcher model.RawFetcher, url string) *ProviderTwo {
	return &ProviderTwo{fetcher: fetcher, url: url}
}

func (p *ProviderTwo) Name() string { return ProviderTwoName }

// FetchJobs retrieves the payload and returns one Job per map key.
func (p *ProviderTwo) FetchJobs(ctx context.Context) ([]model.Job, error) {
	body, err := p.fetcher.Fetch(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrUpstreamUnavailable, ProviderTwoName, err)
	}
	return ParseProviderTwo(body)
}

// ParseProviderTwo normalizes a raw provider two payload. The map key becomes
// the job ID. An absent or empty jobsList fails with model.ErrEmptyUpstream.
func ParseProviderTwo(body []byte) ([]model.Job, error) {
	var resp providerTwoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %w", model.ErrUpstreamUnavailable, ProviderTwoName, err)
	}
	if len(resp.Data.JobsList) == 0 {
		return nil, fmt.Errorf("%s: %w", ProviderTwoName, model.ErrEmptyUpstream)
	}

	jobs := make([]model.Job, 0, len(resp.Data.JobsList))
	for _, kl := range resp.Data.JobsList {
		l := kl.listing

		employmentType := model.NotAvailable
		if l.Location.Remote {
			employmentType = "Remote"
		}

		job, err := model.NewJob(model.Fields{
			ID:              kl.key,
			Title:           l.Position,
			Location:        l.Location.City + "," + l.Location.State,
			EmploymentType:  employmentType,
			SalaryRange:     FormatSalary(l.Compensation.Min.value, l.Compensation.Max.value),
			CompanyName:     providerTwoPolicy.value(fieldCompanyName, l.Employer.CompanyName),
			CompanyWebsite:  providerTwoPolicy.text(fieldCompanyWebsite, l.Employer.Website),
			YearsExperience: l.Requirements.Experience.value,
			Industry:        providerTwoPolicy.value(fieldIndustry, l.Industry),
			Skills:          l.Requirements.Technologies,
			PostedAt:        parsePostedAt(l.DatePosted),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s listing %q: %w", model.ErrUpstreamUnavailable, ProviderTwoName, kl.key, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

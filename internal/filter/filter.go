package filter

import (
	"strings"

	"github.com/amishk599/jobfeed/internal/model"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Criteria selects stored jobs by title and location, one page at a time.
// Title and Location are case-insensitive substrings; a value that is empty
// after trimming places no restriction on its field. Both must match when set.
type Criteria struct {
	Title    string
	Location string
	Page     int `validate:"min=1"`
	PageSize int `validate:"min=1,max=100"`
}

// DefaultCriteria matches everything and returns the first page.
func DefaultCriteria() Criteria {
	return Criteria{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Normalized returns c with surrounding whitespace trimmed from the filters.
func (c Criteria) Normalized() Criteria {
	c.Title = strings.TrimSpace(c.Title)
	c.Location = strings.TrimSpace(c.Location)
	return c
}

// Offset is the number of matching records before the requested page.
func (c Criteria) Offset() int {
	return (c.Page - 1) * c.PageSize
}

// Match reports whether job satisfies the title and location filters.
// Pagination fields are ignored.
func (c Criteria) Match(job model.Job) bool {
	c = c.Normalized()
	return containsFold(job.Title, c.Title) && containsFold(job.Location, c.Location)
}

func containsFold(value, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(sub))
}

package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/amishk599/jobfeed/internal/model"
)

// Engine answers paginated title/location queries against a repository.
type Engine struct {
	repo     model.JobRepository
	validate *validator.Validate
	timeout  time.Duration
	logger   *slog.Logger
}

// NewEngine creates an engine reading from repo. A positive timeout bounds
// each repository call.
func NewEngine(repo model.JobRepository, timeout time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		repo:     repo,
		validate: validator.New(),
		timeout:  timeout,
		logger:   logger,
	}
}

// Query returns the requested page. It fails with model.ErrMalformedCriteria
// for out-of-range paging and model.ErrNoMatchingRecords when the page is empty.
func (e *Engine) Query(ctx context.Context, c Criteria) (model.Page, error) {
	c = c.Normalized()
	if err := e.Validate(c); err != nil {
		return model.Page{}, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	jobs, total, err := e.repo.QueryPage(ctx, model.PageQuery{
		Title:    c.Title,
		Location: c.Location,
		Offset:   c.Offset(),
		Limit:    c.PageSize,
	})
	if err != nil {
		return model.Page{}, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	if len(jobs) == 0 {
		return model.Page{}, model.ErrNoMatchingRecords
	}

	e.logger.Debug("jobs queried",
		"title", c.Title,
		"location", c.Location,
		"page", c.Page,
		"page_size", c.PageSize,
		"returned", len(jobs),
		"total", total,
	)

	return model.Page{
		Jobs:        jobs,
		Total:       total,
		TotalPages:  (total + c.PageSize - 1) / c.PageSize,
		CurrentPage: c.Page,
	}, nil
}

// Validate checks the paging bounds of c, including that the page offset
// fits in an int.
func (e *Engine) Validate(c Criteria) error {
	err := e.validate.Struct(c)
	if err == nil {
		if c.Page-1 > math.MaxInt/c.PageSize {
			return fmt.Errorf("%w: %s", model.ErrMalformedCriteria, msgPageTooLarge)
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", model.ErrMalformedCriteria, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, criteriaMessage(fe))
	}
	return fmt.Errorf("%w: %s", model.ErrMalformedCriteria, strings.Join(msgs, " "))
}

const msgPageTooLarge = "Page number is too large."

func criteriaMessage(fe validator.FieldError) string {
	switch fe.Field() + "." + fe.Tag() {
	case "Page.min":
		return "Page number must be greater than or equal to 1."
	case "PageSize.min":
		return "Page size must be greater than or equal to 1."
	case "PageSize.max":
		return fmt.Sprintf("Page size must be less than or equal to %d.", MaxPageSize)
	}
	return fe.Error()
}

package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobfeed/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly imported jobs to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each job with id, company, title, location and salary.
// Logging does not fail, so it always returns nil.
func (n *LogNotifier) Notify(ctx context.Context, jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{
			"id", j.ID,
			"company", j.CompanyName,
			"title", j.Title,
			"location", j.Location,
			"salary", j.SalaryRange,
		}
		if !isUnknownDate(j) {
			args = append(args, "posted_at", j.PostedAt)
		}
		n.logger.InfoContext(ctx, "new job", args...)
	}
	return nil
}

// isUnknownDate reports whether the provider gave no usable posting date.
func isUnknownDate(j model.Job) bool {
	return j.PostedAt.IsZero() || j.PostedAt.Unix() == 0
}

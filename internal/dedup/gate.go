// Package dedup admits only records whose id has never been stored.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/amishk599/jobfeed/internal/model"
)

// Gate filters candidate jobs against the repository and persists the new ones.
// It never updates a stored record.
type Gate struct {
	repo    model.JobRepository
	timeout time.Duration
	logger  *slog.Logger
}

// NewGate returns a gate over repo. A zero timeout leaves the caller's
// context deadline in charge.
func NewGate(repo model.JobRepository, timeout time.Duration, logger *slog.Logger) *Gate {
	return &Gate{repo: repo, timeout: timeout, logger: logger}
}

// Save stores every candidate whose id is not already present and returns the
// saved subset in input order. When a candidate id repeats within the batch the
// first occurrence wins.
func (g *Gate) Save(ctx context.Context, candidates []model.Job) ([]model.Job, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	ids := lo.Uniq(lo.Map(candidates, func(j model.Job, _ int) string { return j.ID }))
	existing, err := g.repo.FindExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: looking up %d ids: %w", model.ErrPersistence, len(ids), err)
	}

	toSave := lo.UniqBy(lo.Filter(candidates, func(j model.Job, _ int) bool {
		_, seen := existing[j.ID]
		return !seen
	}), func(j model.Job) string { return j.ID })

	if len(toSave) == 0 {
		g.logger.Debug("no new jobs", "candidates", len(candidates))
		return nil, nil
	}

	written, err := g.repo.InsertBatch(ctx, toSave)
	if err != nil {
		return nil, fmt.Errorf("%w: inserting %d jobs: %w", model.ErrPersistence, len(toSave), err)
	}
	saved := toSave
	if len(written) < len(toSave) {
		// Another writer stored some of these ids between lookup and insert.
		g.logger.Warn("insert skipped conflicting ids",
			"expected", len(toSave),
			"inserted", len(written),
		)
		ok := lo.SliceToMap(written, func(id string) (string, struct{}) { return id, struct{}{} })
		saved = lo.Filter(toSave, func(j model.Job, _ int) bool {
			_, w := ok[j.ID]
			return w
		})
	}

	g.logger.Debug("saved jobs",
		"candidates", len(candidates),
		"existing", len(existing),
		"saved", len(saved),
	)
	if len(saved) == 0 {
		return nil, nil
	}
	return saved, nil
}

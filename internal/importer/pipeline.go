// Package importer runs the import: fetch every provider, merge, dedup, store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/amishk599/jobfeed/internal/lock"
	"github.com/amishk599/jobfeed/internal/metrics"
	"github.com/amishk599/jobfeed/internal/model"
)

const (
	msgImported = "Successfully imported %d jobs."
	msgNoJobs   = "No jobs found to import."
)

// Outcome is the user-visible result of one import run.
type Outcome struct {
	Imported int    `json:"imported"`
	Message  string `json:"message"`
}

// Saver persists candidates and returns the subset that was new.
type Saver interface {
	Save(ctx context.Context, candidates []model.Job) ([]model.Job, error)
}

// Pipeline owns one import: fetch all sources → merge in source order →
// dedup → store → notify.
type Pipeline struct {
	sources  []model.JobSource
	saver    Saver
	guard    lock.Guard
	notifier model.Notifier
	timeout  time.Duration
	logger   *slog.Logger

	group singleflight.Group
}

// NewPipeline creates a pipeline wired with all its dependencies. Sources are
// merged in the order given.
func NewPipeline(
	sources []model.JobSource,
	saver Saver,
	guard lock.Guard,
	notifier model.Notifier,
	timeout time.Duration,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sources:  sources,
		saver:    saver,
		guard:    guard,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run performs one import. Callers that arrive while a run is in flight in
// this process share its result. A run held by another process fails with
// model.ErrImportInProgress. The run itself is detached from ctx cancellation
// and bounded by the pipeline timeout instead.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	v, err, shared := p.group.Do("import", func() (any, error) {
		return p.run(ctx)
	})
	if shared {
		p.logger.Debug("joined in-flight import")
	}
	if err != nil {
		return Outcome{}, err
	}
	return v.(Outcome), nil
}

func (p *Pipeline) run(ctx context.Context) (Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	logger := p.logger.With("run_id", uuid.NewString())

	unlock, err := p.guard.TryLock(ctx)
	if err != nil {
		if errors.Is(err, model.ErrImportInProgress) {
			metrics.ImportsSkipped.Inc()
			logger.Info("import skipped, another run holds the lock")
		}
		return Outcome{}, err
	}
	defer unlock()

	start := time.Now()
	defer func() { metrics.ImportDuration.Observe(time.Since(start).Seconds()) }()

	candidates, err := p.fetchAll(ctx, logger)
	if err != nil {
		metrics.ImportRuns.WithLabelValues(metrics.OutcomeFailure).Inc()
		logger.Error("import failed", "stage", "fetch", "error", err)
		return Outcome{}, err
	}

	if len(candidates) == 0 {
		metrics.ImportRuns.WithLabelValues(metrics.OutcomeEmpty).Inc()
		logger.Info("import finished", "fetched", 0, "imported", 0)
		return Outcome{Message: msgNoJobs}, nil
	}

	saved, err := p.saver.Save(ctx, candidates)
	if err != nil {
		metrics.ImportRuns.WithLabelValues(metrics.OutcomeFailure).Inc()
		logger.Error("import failed", "stage", "save", "error", err)
		return Outcome{}, err
	}

	metrics.ImportRuns.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.JobsImported.Add(float64(len(saved)))

	if len(saved) > 0 {
		if err := p.notifier.Notify(ctx, saved); err != nil {
			logger.Warn("notification failed", "jobs", len(saved), "error", err)
		}
	}

	logger.Info("import finished",
		"fetched", len(candidates),
		"imported", len(saved),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return Outcome{Imported: len(saved), Message: fmt.Sprintf(msgImported, len(saved))}, nil
}

// fetchAll fetches every source concurrently and concatenates the results in
// source order. A source with no listings contributes nothing; any other
// failure fails the whole fetch.
func (p *Pipeline) fetchAll(ctx context.Context, logger *slog.Logger) ([]model.Job, error) {
	results := make([][]model.Job, len(p.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range p.sources {
		g.Go(func() error {
			jobs, err := src.FetchJobs(gctx)
			switch {
			case errors.Is(err, model.ErrEmptyUpstream):
				logger.Info("provider returned no listings", "provider", src.Name())
				return nil
			case err != nil:
				metrics.ProviderFetchErrors.WithLabelValues(src.Name()).Inc()
				if !errors.Is(err, model.ErrUpstreamUnavailable) {
					err = fmt.Errorf("%w: %s: %w", model.ErrUpstreamUnavailable, src.Name(), err)
				}
				return err
			}
			logger.Debug("fetched provider", "provider", src.Name(), "jobs", len(jobs))
			results[i] = jobs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobfeed/internal/importer"
	"github.com/amishk599/jobfeed/internal/model"
)

// parser accepts standard 5-field expressions, 6-field expressions with a
// leading seconds field, and descriptors such as "@every 10s".
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Runner performs one import.
type Runner interface {
	Run(ctx context.Context) (importer.Outcome, error)
}

// Scheduler triggers the import on a cron schedule. A tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	runner     Runner
	spec       string
	schedule   cron.Schedule
	runOnStart bool
	logger     *slog.Logger
}

// NewScheduler validates spec and returns a scheduler for runner.
func NewScheduler(runner Runner, spec string, runOnStart bool, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid import schedule %q: %w", spec, err)
	}
	return &Scheduler{
		runner:     runner,
		spec:       spec,
		schedule:   schedule,
		runOnStart: runOnStart,
		logger:     logger,
	}, nil
}

// Run starts the cron loop and blocks until ctx is cancelled. It waits for an
// in-flight import to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(cron.WithParser(parser), cron.WithLogger(cl))

	job := cron.NewChain(cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() { s.runOnce(ctx) }))
	c.Schedule(s.schedule, job)

	s.logger.Info("starting scheduler", "schedule", s.spec, "run_on_start", s.runOnStart)
	c.Start()

	var wg sync.WaitGroup
	if s.runOnStart {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
	}

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	out, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, model.ErrImportInProgress):
		s.logger.Info("scheduled import skipped, another instance is importing")
	case err != nil:
		s.logger.Error("scheduled import failed", "error", err)
	default:
		s.logger.Info(out.Message, "imported", out.Imported)
	}
}

// cronLogger routes robfig/cron's logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

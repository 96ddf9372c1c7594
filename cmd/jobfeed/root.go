package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/adapter"
	"github.com/amishk599/jobfeed/internal/archive"
	"github.com/amishk599/jobfeed/internal/config"
	"github.com/amishk599/jobfeed/internal/dedup"
	"github.com/amishk599/jobfeed/internal/importer"
	"github.com/amishk599/jobfeed/internal/lock"
	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/notifier"
	"github.com/amishk599/jobfeed/internal/ratelimit"
	"github.com/amishk599/jobfeed/internal/retry"
	"github.com/amishk599/jobfeed/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobfeed",
	Short: "Job listing aggregator",
	Long:  "jobfeed imports job listings from upstream providers, stores them once and serves them over HTTP.",
	// Default to `serve` so that `jobfeed` with no args runs the service.
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvConfigPath+" env var or ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// app lazily builds the components a command needs and closes them in
// reverse order.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	redis   *redis.Client
	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &app{cfg: cfg, logger: cfg.NewLogger(os.Stdout, debug)}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := lock.NewRedisClient(ctx, a.cfg.Lock.RedisURL)
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.closers = append(a.closers, client.Close)
	return client, nil
}

func (a *app) store(ctx context.Context) (model.JobRepository, error) {
	switch a.cfg.Store.Driver {
	case "postgres":
		s, err := store.NewPostgresStore(ctx, a.cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		a.logger.Info("using postgres store")
		return s, nil
	case "memory":
		a.logger.Warn("using in-memory store, jobs are lost on exit")
		return store.NewMemoryStore(), nil
	default:
		s, err := store.NewSQLiteStore(a.cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		a.logger.Info("using sqlite store", "path", a.cfg.Store.DSN)
		return s, nil
	}
}

func (a *app) archiver(ctx context.Context) (archive.Archiver, error) {
	ac := a.cfg.Archive
	if !ac.Enabled() {
		return archive.NopArchiver{}, nil
	}
	arch, err := archive.NewS3Archiver(ctx, archive.S3Config{
		Bucket:          ac.Bucket,
		Region:          ac.Region,
		Endpoint:        ac.Endpoint,
		AccessKeyID:     ac.AccessKeyID,
		SecretAccessKey: ac.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("archiving provider payloads", "bucket", ac.Bucket, "prefix", ac.Prefix)
	return arch, nil
}

// sources builds both provider adapters behind the shared fetch chain:
// rate limit, then retry, then archive of successful payloads.
func (a *app) sources(ctx context.Context) ([]model.JobSource, error) {
	pc := a.cfg.Providers
	arch, err := a.archiver(ctx)
	if err != nil {
		return nil, err
	}

	base := adapter.NewHTTPFetcher(&http.Client{Timeout: pc.Timeout})
	limiter := ratelimit.NewProviderLimiter(pc.RequestsPerSecond, 1)
	chain := func(provider string) model.RawFetcher {
		var f model.RawFetcher = ratelimit.NewRateLimitedFetcher(base, limiter, provider)
		f = retry.NewRetryFetcher(f, pc.MaxRetries, pc.RetryBaseDelay, a.logger)
		if a.cfg.Archive.Enabled() {
			f = archive.NewArchivingFetcher(f, arch, a.cfg.Archive.Prefix, provider, a.logger)
		}
		return f
	}

	return []model.JobSource{
		adapter.NewProviderOne(chain(adapter.ProviderOneName), pc.OneURL),
		adapter.NewProviderTwo(chain(adapter.ProviderTwoName), pc.TwoURL),
	}, nil
}

// readSources wraps sources with a short-lived cache for the per-provider
// read endpoints. Imports always fetch fresh.
func (a *app) readSources(sources []model.JobSource) []model.JobSource {
	if a.cfg.Providers.CacheTTL <= 0 {
		return sources
	}
	cached := make([]model.JobSource, len(sources))
	for i, s := range sources {
		cached[i] = adapter.NewCachedSource(s, a.cfg.Providers.CacheTTL)
	}
	return cached
}

func (a *app) notifier(ctx context.Context) (model.Notifier, error) {
	nc := a.cfg.Notification
	switch nc.Type {
	case "slack":
		a.logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(nc.WebhookURL, &http.Client{Timeout: 30 * time.Second}, a.logger), nil
	case "redis":
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		a.logger.Info("using redis notifier", "channel", nc.Channel)
		return notifier.NewRedisNotifier(client, nc.Channel, a.logger), nil
	default:
		return notifier.NewLogNotifier(a.logger), nil
	}
}

func (a *app) guard(ctx context.Context) (lock.Guard, error) {
	if a.cfg.Lock.RedisURL == "" {
		return lock.NewLocalGuard(), nil
	}
	client, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Info("using redis import lock", "key", a.cfg.Lock.Key, "ttl", a.cfg.Lock.TTL.String())
	return lock.NewRedisGuard(client, a.cfg.Lock.Key, a.cfg.Lock.TTL, a.logger), nil
}

func (a *app) pipeline(ctx context.Context, sources []model.JobSource, repo model.JobRepository, n model.Notifier) (*importer.Pipeline, error) {
	g, err := a.guard(ctx)
	if err != nil {
		return nil, err
	}
	gate := dedup.NewGate(repo, a.cfg.Store.Timeout, a.logger)
	return importer.NewPipeline(sources, gate, g, n, a.cfg.Import.Timeout, a.logger), nil
}

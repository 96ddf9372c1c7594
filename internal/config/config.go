package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names the variable consulted when no --config flag is given.
	EnvConfigPath = "JOBFEED_CONFIG"
	// DefaultPath is read when present; its absence is not an error.
	DefaultPath = "config.yaml"

	defaultProviderOneURL = "https://assignment.devotel.io/api/provider1/jobs"
	defaultProviderTwoURL = "https://assignment.devotel.io/api/provider2/jobs"
)

// Config is the root configuration for the jobfeed service. Every field can
// be overridden from the environment after the YAML file is applied.
type Config struct {
	Server       ServerConfig
	Providers    ProvidersConfig
	Import       ImportConfig
	Store        StoreConfig
	Lock         LockConfig
	Notification NotificationConfig
	Archive      ArchiveConfig
	Log          LogConfig
}

type ServerConfig struct {
	Port            int           `env:"PORT_NUMBER, overwrite" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, overwrite" validate:"gt=0"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS, overwrite"`
}

type ProvidersConfig struct {
	OneURL            string        `env:"URL_PROVIDER_ONE, overwrite" validate:"required,url"`
	TwoURL            string        `env:"URL_PROVIDER_TWO, overwrite" validate:"required,url"`
	Timeout           time.Duration `env:"PROVIDER_TIMEOUT, overwrite" validate:"gt=0"`
	MaxRetries        int           `env:"PROVIDER_MAX_RETRIES, overwrite" validate:"min=0,max=10"`
	RetryBaseDelay    time.Duration `env:"PROVIDER_RETRY_BASE_DELAY, overwrite" validate:"min=0"`
	RequestsPerSecond float64       `env:"PROVIDER_REQUESTS_PER_SECOND, overwrite" validate:"min=0"` // 0 disables limiting
	CacheTTL          time.Duration `env:"PROVIDER_CACHE_TTL, overwrite" validate:"min=0"`           // 0 disables caching
}

type ImportConfig struct {
	Schedule   string        `env:"JOB_IMPORT_CRON, overwrite" validate:"required"`
	Timeout    time.Duration `env:"IMPORT_TIMEOUT, overwrite" validate:"gt=0"`
	RunOnStart bool          `env:"IMPORT_RUN_ON_START, overwrite"`
}

type StoreConfig struct {
	Driver  string        `env:"DATABASE_DRIVER, overwrite" validate:"oneof=sqlite postgres memory"`
	DSN     string        `env:"DATABASE_URL, overwrite" validate:"required_unless=Driver memory"`
	Timeout time.Duration `env:"STORE_TIMEOUT, overwrite" validate:"gt=0"`
}

// LockConfig selects the import guard. An empty RedisURL keeps the guard
// local to the process.
type LockConfig struct {
	RedisURL string        `env:"REDIS_URL, overwrite" validate:"omitempty,url"`
	Key      string        `env:"LOCK_KEY, overwrite" validate:"required"`
	TTL      time.Duration `env:"LOCK_TTL, overwrite" validate:"gt=0"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `env:"NOTIFICATION_TYPE, overwrite" validate:"oneof=log slack redis"`
	WebhookURL string `env:"SLACK_WEBHOOK_URL, overwrite" validate:"omitempty,url"`
	Channel    string `env:"NOTIFICATION_CHANNEL, overwrite" validate:"required_if=Type redis"`
}

// ArchiveConfig enables raw payload archiving when Bucket is set.
type ArchiveConfig struct {
	Bucket          string `env:"S3_BUCKET, overwrite"`
	Region          string `env:"S3_REGION, overwrite" validate:"required_with=Bucket"`
	Endpoint        string `env:"S3_ENDPOINT, overwrite" validate:"omitempty,url"`
	Prefix          string `env:"S3_PREFIX, overwrite"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID, overwrite"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY, overwrite"`
}

// Enabled reports whether payloads should be archived.
func (a ArchiveConfig) Enabled() bool { return a.Bucket != "" }

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, overwrite" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT, overwrite" validate:"oneof=text json"`
}

// Default returns the configuration used when neither file nor environment
// sets a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Providers: ProvidersConfig{
			OneURL:            defaultProviderOneURL,
			TwoURL:            defaultProviderTwoURL,
			Timeout:           15 * time.Second,
			MaxRetries:        2,
			RetryBaseDelay:    2 * time.Second,
			RequestsPerSecond: 2,
			CacheTTL:          30 * time.Second,
		},
		Import: ImportConfig{
			Schedule:   "@every 10s",
			Timeout:    time.Minute,
			RunOnStart: true,
		},
		Store: StoreConfig{
			Driver:  "sqlite",
			DSN:     "jobs.db",
			Timeout: 10 * time.Second,
		},
		Lock: LockConfig{
			Key: "jobfeed:import",
			TTL: 2 * time.Minute,
		},
		Notification: NotificationConfig{
			Type:    "log",
			Channel: "jobfeed:imported",
		},
		Archive: ArchiveConfig{Prefix: "raw"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Server struct {
		Port            int      `yaml:"port"`
		ShutdownTimeout string   `yaml:"shutdown_timeout"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Providers struct {
		One               rawProvider `yaml:"one"`
		Two               rawProvider `yaml:"two"`
		Timeout           string      `yaml:"timeout"`
		MaxRetries        *int        `yaml:"max_retries"`
		RetryBaseDelay    string      `yaml:"retry_base_delay"`
		RequestsPerSecond *float64    `yaml:"requests_per_second"`
		CacheTTL          string      `yaml:"cache_ttl"`
	} `yaml:"providers"`
	Import struct {
		Schedule   string `yaml:"schedule"`
		Timeout    string `yaml:"timeout"`
		RunOnStart *bool  `yaml:"run_on_start"`
	} `yaml:"import"`
	Store struct {
		Driver  string `yaml:"driver"`
		DSN     string `yaml:"dsn"`
		Timeout string `yaml:"timeout"`
	} `yaml:"store"`
	Lock struct {
		RedisURL string `yaml:"redis_url"`
		Key      string `yaml:"key"`
		TTL      string `yaml:"ttl"`
	} `yaml:"lock"`
	Notification struct {
		Type       string `yaml:"type"`
		WebhookURL string `yaml:"webhook_url"`
		Channel    string `yaml:"channel"`
	} `yaml:"notification"`
	Archive struct {
		Bucket   string `yaml:"bucket"`
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"archive"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

type rawProvider struct {
	URL string `yaml:"url"`
}

// Load builds the configuration in three layers: defaults, then the YAML
// file, then environment variables. The file path comes from path, else
// JOBFEED_CONFIG, else ./config.yaml. Only the last may be missing.
func Load(ctx context.Context, path string) (*Config, error) {
	required := true
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path, required = DefaultPath, false
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := applyYAML(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyYAML(cfg *Config, data []byte) error {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if raw.Server.Port != 0 {
		cfg.Server.Port = raw.Server.Port
	}
	if raw.Server.AllowedOrigins != nil {
		cfg.Server.AllowedOrigins = raw.Server.AllowedOrigins
	}
	setString(&cfg.Providers.OneURL, raw.Providers.One.URL)
	setString(&cfg.Providers.TwoURL, raw.Providers.Two.URL)
	if raw.Providers.MaxRetries != nil {
		cfg.Providers.MaxRetries = *raw.Providers.MaxRetries
	}
	if raw.Providers.RequestsPerSecond != nil {
		cfg.Providers.RequestsPerSecond = *raw.Providers.RequestsPerSecond
	}
	setString(&cfg.Import.Schedule, raw.Import.Schedule)
	if raw.Import.RunOnStart != nil {
		cfg.Import.RunOnStart = *raw.Import.RunOnStart
	}
	setString(&cfg.Store.Driver, raw.Store.Driver)
	setString(&cfg.Store.DSN, raw.Store.DSN)
	setString(&cfg.Lock.RedisURL, raw.Lock.RedisURL)
	setString(&cfg.Lock.Key, raw.Lock.Key)
	setString(&cfg.Notification.Type, raw.Notification.Type)
	setString(&cfg.Notification.WebhookURL, raw.Notification.WebhookURL)
	setString(&cfg.Notification.Channel, raw.Notification.Channel)
	setString(&cfg.Archive.Bucket, raw.Archive.Bucket)
	setString(&cfg.Archive.Region, raw.Archive.Region)
	setString(&cfg.Archive.Endpoint, raw.Archive.Endpoint)
	setString(&cfg.Archive.Prefix, raw.Archive.Prefix)
	setString(&cfg.Log.Level, raw.Log.Level)
	setString(&cfg.Log.Format, raw.Log.Format)

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.shutdown_timeout", raw.Server.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		{"providers.timeout", raw.Providers.Timeout, &cfg.Providers.Timeout},
		{"providers.retry_base_delay", raw.Providers.RetryBaseDelay, &cfg.Providers.RetryBaseDelay},
		{"providers.cache_ttl", raw.Providers.CacheTTL, &cfg.Providers.CacheTTL},
		{"import.timeout", raw.Import.Timeout, &cfg.Import.Timeout},
		{"store.timeout", raw.Store.Timeout, &cfg.Store.Timeout},
		{"lock.ttl", raw.Lock.TTL, &cfg.Lock.TTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", d.name, d.raw, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			msgs = append(msgs, fmt.Sprintf("%s fails %s", strings.TrimPrefix(fe.Namespace(), "Config."), rule))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	if c.Notification.Type == "slack" && !strings.HasPrefix(c.Notification.WebhookURL, "https://hooks.slack.com/") {
		return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
	}
	if c.Notification.Type == "redis" && c.Lock.RedisURL == "" {
		return fmt.Errorf("notification type \"redis\" requires lock.redis_url (REDIS_URL)")
	}
	// The lease must outlive the longest run or a second instance can start
	// importing while the first is still going.
	if c.Lock.RedisURL != "" && c.Lock.TTL <= c.Import.Timeout {
		return fmt.Errorf("lock.ttl (%s) must be greater than import.timeout (%s)", c.Lock.TTL, c.Import.Timeout)
	}
	return nil
}

// NewLogger creates a structured logger from the log settings. debug forces
// the debug level.
func (c *Config) NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := parseLogLevel(c.Log.Level)
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package archive keeps a copy of every raw provider payload so adapter
// changes can be replayed against real responses.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/amishk599/jobfeed/internal/model"
)

// Archiver stores a payload under key.
type Archiver interface {
	Put(ctx context.Context, key string, body []byte) error
}

// S3Config holds the configuration for S3 archiving.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string // optional
	SecretAccessKey string // optional
}

// S3Archiver writes payloads to an S3 bucket.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	configOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
	}, nil
}

func (a *S3Archiver) Put(ctx context.Context, key string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to s3: %w", key, err)
	}
	return nil
}

// NopArchiver discards payloads. Used when no bucket is configured.
type NopArchiver struct{}

func (NopArchiver) Put(context.Context, string, []byte) error { return nil }

// ArchivingFetcher decorates a RawFetcher and archives every successful
// response. Archive failures are logged and never fail the fetch.
type ArchivingFetcher struct {
	inner    model.RawFetcher
	archiver Archiver
	prefix   string
	provider string
	logger   *slog.Logger
	now      func() time.Time
}

func NewArchivingFetcher(inner model.RawFetcher, archiver Archiver, prefix, provider string, logger *slog.Logger) *ArchivingFetcher {
	return &ArchivingFetcher{
		inner:    inner,
		archiver: archiver,
		prefix:   prefix,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

func (f *ArchivingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := f.inner.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	key := f.key()
	if err := f.archiver.Put(ctx, key, body); err != nil {
		f.logger.Warn("failed to archive payload", "provider", f.provider, "key", key, "error", err)
	}
	return body, nil
}

// key is <prefix>/<provider>/<utc timestamp>-<uuid>.json.
func (f *ArchivingFetcher) key() string {
	name := fmt.Sprintf("%s-%s.json", f.now().UTC().Format("20060102T150405Z"), uuid.NewString())
	return path.Join(f.prefix, f.provider, name)
}

package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobfeed/internal/model"
)

// releaseScript deletes the key only while it still holds our token, so an
// instance whose lease expired cannot release a lock someone else now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard is a lease-based lock shared by all instances using the same key.
// The TTL bounds how long a crashed holder can block other instances.
type RedisGuard struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisGuard(client redis.UniversalClient, key string, ttl time.Duration, logger *slog.Logger) *RedisGuard {
	return &RedisGuard{client: client, key: key, ttl: ttl, logger: logger}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (g *RedisGuard) TryLock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", g.key, err)
	}
	if !ok {
		return nil, model.ErrImportInProgress
	}

	unlock := func() {
		// The caller's context may already be done when the run finishes.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{g.key}, token).Err(); err != nil {
			g.logger.Warn("failed to release import lock", "key", g.key, "error", err)
		}
	}
	return unlock, nil
}

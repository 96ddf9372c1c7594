package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobfeed/internal/model"
)

// Ensure RedisNotifier implements model.Notifier.
var _ model.Notifier = (*RedisNotifier)(nil)

// ImportedEvent is the message published for each import that stored jobs.
type ImportedEvent struct {
	Count int         `json:"count"`
	Jobs  []model.Job `json:"jobs"`
}

// RedisNotifier publishes newly imported jobs to a Redis pub/sub channel.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

func NewRedisNotifier(client redis.UniversalClient, channel string, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel, logger: logger}
}

func (n *RedisNotifier) Notify(ctx context.Context, jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	payload, err := json.Marshal(ImportedEvent{Count: len(jobs), Jobs: jobs})
	if err != nil {
		return fmt.Errorf("marshal imported event: %w", err)
	}

	receivers, err := n.client.Publish(ctx, n.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	n.logger.Debug("published imported jobs", "channel", n.channel, "jobs", len(jobs), "receivers", receivers)
	return nil
}

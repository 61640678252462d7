package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/alfanzaky/proofanchor/pkg/metrics"
	"github.com/go-redis/redis/v8"
)

// Default queue keys
const (
	DefaultQueueKey      = "verify_jobs"
	DefaultProcessingKey = "verify_jobs:processing"
	delayedKeySuffix     = ":delayed"

	promoteBatchSize = 100
)

// promoteScript moves due members of the delayed set onto the queue tail in
// one atomic step so two workers never promote the same payload.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, member in ipairs(due) do
	redis.call('ZREM', KEYS[1], member)
	redis.call('LPUSH', KEYS[2], member)
end
return #due
`)

// QueueKeys names the Redis keys of one logical queue.
type QueueKeys struct {
	Queue      string
	Processing string
	Delayed    string
}

// withDefaults fills blank keys.
func (k QueueKeys) withDefaults() QueueKeys {
	if k.Queue == "" {
		k.Queue = DefaultQueueKey
	}
	if k.Processing == "" {
		k.Processing = k.Queue + ":processing"
	}
	if k.Delayed == "" {
		k.Delayed = k.Queue + delayedKeySuffix
	}
	return k
}

type queueRepository struct {
	client *redis.Client
	keys   QueueKeys
}

var _ domain.QueueRepository = (*queueRepository)(nil)

// NewQueueRepository creates a Redis list backed queue repository.
// Producers push on the left, the consumer claims from the right.
func NewQueueRepository(client *redis.Client, keys QueueKeys) *queueRepository {
	return &queueRepository{client: client, keys: keys.withDefaults()}
}

// Keys returns the resolved key names.
func (r *queueRepository) Keys() QueueKeys {
	return r.keys
}

func (r *queueRepository) Enqueue(ctx context.Context, payload string) error {
	err := r.client.LPush(ctx, r.keys.Queue, payload).Err()
	if err != nil {
		metrics.RecordRedisOperation("lpush", "error")
		logger.Error("Failed to enqueue job",
			logger.String("queue", r.keys.Queue),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	metrics.RecordRedisOperation("lpush", "ok")

	logger.Debug("Job enqueued", logger.String("queue", r.keys.Queue))

	return nil
}

func (r *queueRepository) Claim(ctx context.Context, timeout time.Duration) (string, bool, error) {
	payload, err := r.client.BRPopLPush(ctx, r.keys.Queue, r.keys.Processing, timeout).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil // Nothing queued within timeout
		}
		metrics.RecordRedisOperation("brpoplpush", "error")
		return "", false, fmt.Errorf("failed to claim job: %w", err)
	}
	metrics.RecordRedisOperation("brpoplpush", "ok")

	return payload, true, nil
}

func (r *queueRepository) Complete(ctx context.Context, payload string) error {
	removed, err := r.client.LRem(ctx, r.keys.Processing, 1, payload).Result()
	if err != nil {
		metrics.RecordRedisOperation("lrem", "error")
		return fmt.Errorf("failed to remove job from processing: %w", err)
	}
	metrics.RecordRedisOperation("lrem", "ok")

	if removed == 0 {
		logger.Warn("Job was not present in processing list",
			logger.String("processing", r.keys.Processing),
		)
	}

	return nil
}

func (r *queueRepository) RecoverOne(ctx context.Context) (bool, error) {
	err := r.client.RPopLPush(ctx, r.keys.Processing, r.keys.Queue).Err()
	if err != nil {
		if err == redis.Nil {
			return false, nil // Processing list drained
		}
		metrics.RecordRedisOperation("rpoplpush", "error")
		return false, fmt.Errorf("failed to recover orphaned job: %w", err)
	}
	metrics.RecordRedisOperation("rpoplpush", "ok")

	return true, nil
}

func (r *queueRepository) Schedule(ctx context.Context, payload string, readyAt time.Time) error {
	err := r.client.ZAdd(ctx, r.keys.Delayed, &redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: payload,
	}).Err()
	if err != nil {
		metrics.RecordRedisOperation("zadd", "error")
		return fmt.Errorf("failed to schedule job: %w", err)
	}
	metrics.RecordRedisOperation("zadd", "ok")

	logger.Debug("Job scheduled for retry",
		logger.String("delayed", r.keys.Delayed),
		logger.String("ready_at", readyAt.UTC().Format(time.RFC3339Nano)),
	)

	return nil
}

func (r *queueRepository) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	moved, err := promoteScript.Run(ctx, r.client,
		[]string{r.keys.Delayed, r.keys.Queue},
		strconv.FormatInt(now.UnixMilli(), 10), promoteBatchSize,
	).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		metrics.RecordRedisOperation("promote", "error")
		return 0, fmt.Errorf("failed to promote delayed jobs: %w", err)
	}
	metrics.RecordRedisOperation("promote", "ok")

	if moved > 0 {
		logger.Debug("Delayed jobs promoted", logger.Int("count", moved))
	}

	return moved, nil
}

func (r *queueRepository) Stats(ctx context.Context) (*domain.QueueStats, error) {
	pipe := r.client.Pipeline()
	queued := pipe.LLen(ctx, r.keys.Queue)
	processing := pipe.LLen(ctx, r.keys.Processing)
	delayed := pipe.ZCard(ctx, r.keys.Delayed)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Failed to read queue stats", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}

	return &domain.QueueStats{
		Queued:     queued.Val(),
		Processing: processing.Val(),
		Delayed:    delayed.Val(),
	}, nil
}

// Ping checks the Redis connection.
func (r *queueRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

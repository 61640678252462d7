package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*queueRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueueRepository(client, QueueKeys{Queue: "jobs"}), mr
}

func TestQueueKeysDefaults(t *testing.T) {
	keys := QueueKeys{}.withDefaults()
	assert.Equal(t, DefaultQueueKey, keys.Queue)
	assert.Equal(t, DefaultProcessingKey, keys.Processing)
	assert.Equal(t, "verify_jobs:delayed", keys.Delayed)

	keys = QueueKeys{Queue: "q", Processing: "p"}.withDefaults()
	assert.Equal(t, "p", keys.Processing)
	assert.Equal(t, "q:delayed", keys.Delayed)
}

func TestClaim_MovesOldestJobToProcessing(t *testing.T) {
	repo, mr := newTestQueue(t)
	ctx := context.Background()

	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Enqueue(ctx, p))
	}

	payload, ok, err := repo.Claim(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", payload)

	processing, err := mr.List("jobs:processing")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, processing)

	queued, err := mr.List("jobs")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, queued)
}

func TestClaim_TimesOutOnEmptyQueue(t *testing.T) {
	repo, _ := newTestQueue(t)

	payload, ok, err := repo.Claim(context.Background(), time.Second)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, payload)
}

func TestComplete_RemovesSingleOccurrence(t *testing.T) {
	repo, mr := newTestQueue(t)
	ctx := context.Background()

	_, err := mr.Lpush("jobs:processing", "dup")
	require.NoError(t, err)
	_, err = mr.Lpush("jobs:processing", "dup")
	require.NoError(t, err)

	require.NoError(t, repo.Complete(ctx, "dup"))
	processing, err := mr.List("jobs:processing")
	require.NoError(t, err)
	assert.Equal(t, []string{"dup"}, processing)

	// Completing an absent payload is not an error
	require.NoError(t, repo.Complete(ctx, "ghost"))
}

func TestRecoverOne_PushesOrphanBehindQueuedWork(t *testing.T) {
	repo, mr := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "queued"))
	_, err := mr.Lpush("jobs:processing", "orphan")
	require.NoError(t, err)

	ok, err := repo.RecoverOne(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RecoverOne(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	first, _, err := repo.Claim(ctx, time.Second)
	require.NoError(t, err)
	second, _, err := repo.Claim(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"queued", "orphan"}, []string{first, second})
}

func TestScheduleAndPromoteDue(t *testing.T) {
	repo, mr := newTestQueue(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Schedule(ctx, "due", now.Add(-time.Second)))
	require.NoError(t, repo.Schedule(ctx, "later", now.Add(time.Hour)))

	moved, err := repo.PromoteDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	queued, err := mr.List("jobs")
	require.NoError(t, err)
	assert.Equal(t, []string{"due"}, queued)

	delayed, err := mr.ZMembers("jobs:delayed")
	require.NoError(t, err)
	assert.Equal(t, []string{"later"}, delayed)

	moved, err = repo.PromoteDue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestStats(t *testing.T) {
	repo, mr := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "a"))
	require.NoError(t, repo.Enqueue(ctx, "b"))
	_, err := mr.Lpush("jobs:processing", "c")
	require.NoError(t, err)
	require.NoError(t, repo.Schedule(ctx, "d", time.Now().Add(time.Minute)))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Queued)
	assert.Equal(t, int64(1), stats.Processing)
	assert.Equal(t, int64(1), stats.Delayed)
}

func TestPing(t *testing.T) {
	repo, _ := newTestQueue(t)
	require.NoError(t, repo.Ping(context.Background()))
}

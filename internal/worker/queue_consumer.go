package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/alfanzaky/proofanchor/pkg/metrics"
	"github.com/alfanzaky/proofanchor/pkg/observability"
	"github.com/alfanzaky/proofanchor/pkg/utils"
)

// DelayMode selects how requeue delays are honoured.
type DelayMode string

const (
	// DelayModeSleep waits inside the consume loop before pushing the job
	// back. Every other queued job waits too.
	DelayModeSleep DelayMode = "sleep"
	// DelayModeScheduled parks the job in a delayed set and keeps consuming.
	DelayModeScheduled DelayMode = "scheduled"
)

const (
	defaultRecoverMax   = 5000
	defaultBlockTimeout = 5 * time.Second
	defaultErrorBackoff = time.Second
	payloadLogLimit     = 256
)

// QueueConsumerConfig defines runtime options for the consumer.
type QueueConsumerConfig struct {
	QueueName    string
	RecoverMax   int
	BlockTimeout time.Duration
	ErrorBackoff time.Duration
	DelayMode    DelayMode
}

// QueueConsumer delivers queued payloads to a handler at least once.
// A claimed payload stays in the processing list until the handler's result
// has been applied, so a crash leaves it there for RecoverOrphanedJobs.
type QueueConsumer struct {
	queue domain.QueueRepository
	cfg   QueueConsumerConfig

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewQueueConsumer builds a consumer over the given queue repository.
func NewQueueConsumer(queue domain.QueueRepository, cfg QueueConsumerConfig) *QueueConsumer {
	if cfg.QueueName == "" {
		cfg.QueueName = "default"
	}
	if cfg.RecoverMax <= 0 {
		cfg.RecoverMax = defaultRecoverMax
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = defaultBlockTimeout
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = defaultErrorBackoff
	}
	if cfg.DelayMode != DelayModeScheduled {
		cfg.DelayMode = DelayModeSleep
	}

	return &QueueConsumer{
		queue: queue,
		cfg:   cfg,
		sleep: sleepContext,
		now:   time.Now,
	}
}

// RecoverOrphanedJobs moves up to limit payloads from the processing list back
// onto the queue, stopping early once the processing list is empty.
// It must only run while no other consumer is working the same lists.
func (c *QueueConsumer) RecoverOrphanedJobs(ctx context.Context, limit int) (int, error) {
	moved := 0
	for moved < limit {
		ok, err := c.queue.RecoverOne(ctx)
		if err != nil {
			metrics.RecordOrphansRecovered(c.cfg.QueueName, moved)
			return moved, err
		}
		if !ok {
			break
		}
		moved++
	}

	metrics.RecordOrphansRecovered(c.cfg.QueueName, moved)
	logger.Info("Orphaned jobs recovered",
		logger.String("queue", c.cfg.QueueName),
		logger.Int("moved", moved),
		logger.Int("limit", limit),
	)

	return moved, nil
}

// Run recovers orphaned jobs and then consumes the queue until ctx is
// cancelled. It only returns an error for a missing handler.
func (c *QueueConsumer) Run(ctx context.Context, handler domain.JobHandler) error {
	if handler == nil {
		return errors.New("queue consumer requires a handler")
	}

	if _, err := c.RecoverOrphanedJobs(ctx, c.cfg.RecoverMax); err != nil {
		logger.Error("Failed to recover orphaned jobs",
			logger.String("queue", c.cfg.QueueName),
			logger.ErrorField(err),
		)
	}

	logger.Info("Queue consumer started",
		logger.String("queue", c.cfg.QueueName),
		logger.String("delay_mode", string(c.cfg.DelayMode)),
	)

	for {
		if err := ctx.Err(); err != nil {
			logger.Info("Queue consumer stopping", logger.ErrorField(err))
			return nil
		}
		c.processNext(ctx, handler)
	}
}

func (c *QueueConsumer) processNext(ctx context.Context, handler domain.JobHandler) {
	if c.cfg.DelayMode == DelayModeScheduled {
		if _, err := c.queue.PromoteDue(ctx, c.now()); err != nil && ctx.Err() == nil {
			logger.Error("Failed to promote delayed jobs", logger.ErrorField(err))
		}
	}

	payload, ok, err := c.queue.Claim(ctx, c.cfg.BlockTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.RecordSystemError("claim_failed", "queue_consumer")
		logger.Error("Failed to claim job", logger.ErrorField(err))
		_ = c.sleep(ctx, c.cfg.ErrorBackoff)
		return
	}
	if !ok {
		// Nothing queued within the block timeout
		return
	}

	// Results are applied even when shutdown starts mid-job.
	applyCtx := context.WithoutCancel(ctx)
	traceID := utils.GenerateUUID()
	jobCtx := observability.WithTraceID(ctx, traceID)

	start := time.Now()
	result, err := c.invoke(jobCtx, handler, payload)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordSystemError("handler_failed", "queue_consumer")
		metrics.RecordQueueProcessing(c.cfg.QueueName, "error", duration.Seconds())
		logger.Error("Job handler failed, removing job from processing",
			logger.String("trace_id", traceID),
			logger.String("payload", utils.Truncate(payload, payloadLogLimit)),
			logger.Duration("duration", duration),
			logger.ErrorField(err),
		)
		if rmErr := c.queue.Complete(applyCtx, payload); rmErr != nil {
			logger.Error("Failed to remove failed job from processing",
				logger.String("trace_id", traceID),
				logger.ErrorField(rmErr),
			)
		}
		c.refreshQueueSize(applyCtx)
		return
	}

	if err := c.apply(ctx, applyCtx, payload, result); err != nil {
		metrics.RecordSystemError("apply_failed", "queue_consumer")
		logger.Error("Failed to apply job result",
			logger.String("trace_id", traceID),
			logger.String("action", string(result.Action)),
			logger.ErrorField(err),
		)
	}

	metrics.RecordQueueProcessing(c.cfg.QueueName, string(result.Action), duration.Seconds())
	logger.Info("Job processed",
		logger.String("trace_id", traceID),
		logger.String("action", string(result.Action)),
		logger.Duration("duration", duration),
	)
	c.refreshQueueSize(applyCtx)
}

func (c *QueueConsumer) invoke(ctx context.Context, handler domain.JobHandler, payload string) (result domain.JobProcessResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panic: %v", r)
		}
	}()
	return handler(ctx, payload)
}

// apply carries out the handler's verdict. ctx governs the requeue delay,
// applyCtx the store writes.
func (c *QueueConsumer) apply(ctx, applyCtx context.Context, payload string, result domain.JobProcessResult) error {
	switch result.Action {
	case domain.JobActionAck, domain.JobActionDrop:
		return c.queue.Complete(applyCtx, payload)
	case domain.JobActionRequeue:
		return c.requeue(ctx, applyCtx, payload, result)
	default:
		logger.Warn("Unknown job action, dropping job",
			logger.String("action", string(result.Action)),
		)
		return c.queue.Complete(applyCtx, payload)
	}
}

func (c *QueueConsumer) requeue(ctx, applyCtx context.Context, original string, result domain.JobProcessResult) error {
	next := result.Payload
	if next == "" {
		next = original
	}

	if c.cfg.DelayMode == DelayModeScheduled && result.Delay > 0 {
		if err := c.queue.Schedule(applyCtx, next, c.now().Add(result.Delay)); err != nil {
			return err
		}
		return c.queue.Complete(applyCtx, original)
	}

	if err := c.queue.Complete(applyCtx, original); err != nil {
		return err
	}

	if result.Delay > 0 {
		if err := c.sleep(ctx, result.Delay); err != nil {
			logger.Warn("Requeue delay interrupted, pushing job back early",
				logger.Duration("delay", result.Delay),
			)
		}
	}

	return c.queue.Enqueue(applyCtx, next)
}

func (c *QueueConsumer) refreshQueueSize(ctx context.Context) {
	stats, err := c.queue.Stats(ctx)
	if err != nil {
		return
	}
	metrics.SetQueueSize(c.cfg.QueueName, float64(stats.Queued))
	metrics.SetQueueSize(c.cfg.QueueName+":processing", float64(stats.Processing))
	metrics.SetQueueSize(c.cfg.QueueName+":delayed", float64(stats.Delayed))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

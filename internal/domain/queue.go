package domain

import (
	"context"
	"time"
)

// QueueStats is a point-in-time view of the work queue.
type QueueStats struct {
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
	Delayed    int64 `json:"delayed"`
}

// QueueRepository is the list-based queue store behind the reliable
// consumer. Every method maps to one atomic store command (or script).
type QueueRepository interface {
	// Enqueue pushes a payload onto the tail of the queue.
	Enqueue(ctx context.Context, payload string) error
	// Claim atomically moves the oldest queued payload to the processing
	// list, waiting up to timeout. It returns ok=false on timeout.
	Claim(ctx context.Context, timeout time.Duration) (payload string, ok bool, err error)
	// Complete removes one occurrence of payload from the processing list.
	Complete(ctx context.Context, payload string) error
	// RecoverOne moves one payload from the processing list back onto the
	// queue's tail. It returns ok=false when processing is empty.
	RecoverOne(ctx context.Context) (ok bool, err error)
	// Schedule parks a payload in the delayed set until readyAt.
	Schedule(ctx context.Context, payload string, readyAt time.Time) error
	// PromoteDue moves every delayed payload ready at now onto the queue.
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	// Stats reports list lengths.
	Stats(ctx context.Context) (*QueueStats, error)
}

// JobHandler interprets one claimed payload.
type JobHandler func(ctx context.Context, payload string) (JobProcessResult, error)

package domain

import "context"

// AnchorStats combines queue depth with record counts per status.
type AnchorStats struct {
	Queue   *QueueStats      `json:"queue"`
	Records map[string]int64 `json:"records"`
}

// AnchorUsecase is the producer side of the pipeline.
type AnchorUsecase interface {
	Submit(ctx context.Context, savedParlayID, dataHash string) (*VerificationRecord, error)
	Get(ctx context.Context, recordID string) (*VerificationRecord, error)
	Enqueue(ctx context.Context, recordID, savedParlayID string) (*VerificationJob, error)
	Stats(ctx context.Context) (*AnchorStats, error)
}

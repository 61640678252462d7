package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/alfanzaky/proofanchor/pkg/utils"
)

var _ domain.AnchorUsecase = (*AnchorUsecase)(nil)

// AnchorUsecase is the producer side of the pipeline: it creates pending
// verification records and enqueues the jobs that anchor them.
type AnchorUsecase struct {
	records domain.VerificationRecordStore
	queue   domain.QueueRepository
	now     func() time.Time
}

// NewAnchorUsecase creates a new anchor producer.
func NewAnchorUsecase(records domain.VerificationRecordStore, queue domain.QueueRepository) *AnchorUsecase {
	return &AnchorUsecase{
		records: records,
		queue:   queue,
		now:     time.Now,
	}
}

// SubmitData hashes data with sha-256 and submits the digest.
func (uc *AnchorUsecase) SubmitData(ctx context.Context, savedParlayID string, data []byte) (*domain.VerificationRecord, error) {
	return uc.Submit(ctx, savedParlayID, utils.SHA256Hex(data))
}

// Submit creates a pending record for dataHash and enqueues its job.
func (uc *AnchorUsecase) Submit(ctx context.Context, savedParlayID, dataHash string) (*domain.VerificationRecord, error) {
	hash := strings.ToLower(strings.TrimSpace(dataHash))
	if !domain.ValidDataHash(hash) {
		return nil, domain.ErrInvalidDataHash
	}

	// Postgres keeps microseconds; truncate so the stored value round-trips.
	now := uc.now().UTC().Truncate(time.Microsecond)
	record := &domain.VerificationRecord{
		ID:        utils.GenerateUUID(),
		DataHash:  hash,
		Status:    domain.VerificationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if id := strings.TrimSpace(savedParlayID); id != "" {
		record.SavedParlayID = &id
	}

	if err := uc.records.Create(ctx, record); err != nil {
		return nil, err
	}

	if _, err := uc.enqueueJob(ctx, record.ID, savedParlayID); err != nil {
		return nil, fmt.Errorf("record %s created but not enqueued: %w", record.ID, err)
	}

	return record, nil
}

// Get returns the record with the given id.
func (uc *AnchorUsecase) Get(ctx context.Context, recordID string) (*domain.VerificationRecord, error) {
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return nil, domain.ErrRecordNotFound
	}
	return uc.records.GetByID(ctx, recordID)
}

// Enqueue pushes a fresh verification job for a pending record, e.g. one
// whose job was lost. Terminal records yield ErrRecordTerminal. A blank
// savedParlayID falls back to the record's own.
func (uc *AnchorUsecase) Enqueue(ctx context.Context, recordID, savedParlayID string) (*domain.VerificationJob, error) {
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return nil, fmt.Errorf("record id is required")
	}

	record, err := uc.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.IsTerminal() {
		return nil, fmt.Errorf("%w: record %s is %s", domain.ErrRecordTerminal, recordID, record.Status)
	}

	if strings.TrimSpace(savedParlayID) == "" && record.SavedParlayID != nil {
		savedParlayID = *record.SavedParlayID
	}

	return uc.enqueueJob(ctx, record.ID, savedParlayID)
}

func (uc *AnchorUsecase) enqueueJob(ctx context.Context, recordID, savedParlayID string) (*domain.VerificationJob, error) {
	job := &domain.VerificationJob{
		JobName:              domain.JobNameVerifySavedParlay,
		JobID:                utils.GenerateUUID(),
		VerificationRecordID: recordID,
		SavedParlayID:        strings.TrimSpace(savedParlayID),
		EnqueuedAt:           utils.FormatTime(uc.now()),
	}

	payload, err := job.Encode()
	if err != nil {
		return nil, err
	}

	if err := uc.queue.Enqueue(ctx, payload); err != nil {
		return nil, err
	}

	logger.Info("Verification job enqueued",
		logger.String("job_id", job.JobID),
		logger.String("record_id", recordID),
	)

	return job, nil
}

// Stats reports queue depth and record counts.
func (uc *AnchorUsecase) Stats(ctx context.Context) (*domain.AnchorStats, error) {
	queueStats, err := uc.queue.Stats(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := uc.records.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.AnchorStats{Queue: queueStats, Records: counts}, nil
}

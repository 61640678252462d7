package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/alfanzaky/proofanchor/pkg/metrics"
	"github.com/alfanzaky/proofanchor/pkg/observability"
	"github.com/alfanzaky/proofanchor/pkg/utils"
	"go.uber.org/zap"
)

const lastErrorLimit = 1000

// VerificationConfig defines retry behavior for verification jobs.
// MaxAttempts below 1 allows a single attempt.
type VerificationConfig struct {
	MaxAttempts int
}

// VerificationUsecase turns verify_saved_parlay payloads into on-chain
// proofs. The persisted record status is the only guard against submitting
// the same proof twice, so it is read fresh on every delivery.
type VerificationUsecase struct {
	records domain.VerificationRecordRepository
	proofs  domain.ProofClient
	cfg     VerificationConfig
}

// NewVerificationUsecase creates a new verification job handler.
func NewVerificationUsecase(
	records domain.VerificationRecordRepository,
	proofs domain.ProofClient,
	cfg VerificationConfig,
) *VerificationUsecase {
	return &VerificationUsecase{
		records: records,
		proofs:  proofs,
		cfg:     cfg,
	}
}

// Handle processes one queue payload. A returned error means the job could
// not be judged at all; the consumer removes it and moves on.
func (uc *VerificationUsecase) Handle(ctx context.Context, payload string) (domain.JobProcessResult, error) {
	traceID := observability.GetTraceIDFromContext(ctx)

	job, err := domain.ParseVerificationJob(payload)
	if err != nil {
		metrics.RecordVerificationOutcome("invalid_payload")
		logger.Warn("Dropping malformed verification job",
			logger.String("trace_id", traceID),
			logger.ErrorField(err),
		)
		return domain.Drop(), nil
	}

	log := logger.WithFields(
		logger.String("trace_id", traceID),
		logger.String("job_id", job.JobID),
	)

	recordID := strings.TrimSpace(job.VerificationRecordID)
	if recordID == "" {
		metrics.RecordVerificationOutcome("invalid_payload")
		log.Warn("Dropping verification job without record id")
		return domain.Drop(), nil
	}

	record, err := uc.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			metrics.RecordVerificationOutcome("record_not_found")
			log.Warn("Dropping verification job for unknown record",
				logger.String("record_id", recordID),
			)
			return domain.Drop(), nil
		}
		return domain.JobProcessResult{}, fmt.Errorf("failed to load verification record %s: %w", recordID, err)
	}

	switch record.Status {
	case domain.VerificationStatusConfirmed:
		metrics.RecordVerificationOutcome("already_confirmed")
		log.Info("Verification record already confirmed, skipping",
			logger.String("record_id", recordID),
		)
		return domain.Ack(), nil
	case domain.VerificationStatusFailed:
		metrics.RecordVerificationOutcome("already_failed")
		log.Info("Verification record already failed, skipping",
			logger.String("record_id", recordID),
		)
		return domain.Drop(), nil
	}

	// The payload's counter is untrusted; clamp it so next never overflows.
	attempt := min(job.CurrentAttempt(), uc.maxAttempts())
	nextAttempt := attempt + 1

	// Neither the chain call nor the writes that record its outcome are
	// abandoned when shutdown starts.
	writeCtx := context.WithoutCancel(ctx)

	proof, err := uc.proofs.CreateProof(writeCtx, record.DataHash, utils.EpochSeconds(record.CreatedAt))
	if err != nil {
		return uc.handleFailure(writeCtx, log, payload, recordID, attempt, nextAttempt, err)
	}

	if err := uc.records.MarkConfirmed(writeCtx, recordID, proof.TxDigest, proof.ObjectID); err != nil {
		return domain.JobProcessResult{}, fmt.Errorf("proof %s created but record %s not confirmed: %w", proof.TxDigest, recordID, err)
	}

	metrics.RecordVerificationOutcome("confirmed")
	log.Info("Verification record confirmed",
		logger.String("record_id", recordID),
		logger.String("tx_digest", proof.TxDigest),
		logger.String("object_id", proof.ObjectID),
		logger.Int("attempt", nextAttempt),
	)

	return domain.Ack(), nil
}

func (uc *VerificationUsecase) maxAttempts() int {
	return max(1, uc.cfg.MaxAttempts)
}

func (uc *VerificationUsecase) handleFailure(
	ctx context.Context,
	log *zap.Logger,
	payload, recordID string,
	attempt, nextAttempt int,
	proofErr error,
) (domain.JobProcessResult, error) {
	message := utils.Truncate(proofErr.Error(), lastErrorLimit)

	if err := uc.records.SetLastError(ctx, recordID, message); err != nil {
		log.Warn("Failed to record last error",
			logger.String("record_id", recordID),
			logger.ErrorField(err),
		)
	}

	maxAttempts := uc.maxAttempts()
	if nextAttempt >= maxAttempts {
		if err := uc.records.MarkFailed(ctx, recordID, message); err != nil {
			return domain.JobProcessResult{}, fmt.Errorf("failed to mark record %s failed: %w", recordID, err)
		}

		metrics.RecordVerificationOutcome("failed")
		log.Error("Verification failed permanently",
			logger.String("record_id", recordID),
			logger.Int("attempt", nextAttempt),
			logger.Int("max_attempts", maxAttempts),
			logger.String("error_kind", string(domain.ProofErrorKindOf(proofErr))),
			logger.ErrorField(proofErr),
		)
		return domain.Drop(), nil
	}

	retryPayload, err := domain.WithAttempt(payload, nextAttempt)
	if err != nil {
		return domain.JobProcessResult{}, fmt.Errorf("failed to rewrite payload attempt: %w", err)
	}

	delay := Backoff(attempt)
	metrics.RecordVerificationOutcome("retry")
	log.Warn("Proof creation failed, retrying",
		logger.String("record_id", recordID),
		logger.Int("attempt", nextAttempt),
		logger.Int("max_attempts", maxAttempts),
		logger.Duration("delay", delay),
		logger.String("error_kind", string(domain.ProofErrorKindOf(proofErr))),
		logger.ErrorField(proofErr),
	)

	return domain.Requeue(retryPayload, delay), nil
}

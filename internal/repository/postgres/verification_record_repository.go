package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/jmoiron/sqlx"
)

const verificationRecordColumns = `
	id, saved_parlay_id, data_hash, status, last_error, tx_digest,
	proof_object_id, created_at, updated_at`

type verificationRecordRepository struct {
	db *sqlx.DB
}

// NewVerificationRecordRepository creates a new verification record repository
func NewVerificationRecordRepository(db *sqlx.DB) domain.VerificationRecordStore {
	return &verificationRecordRepository{db: db}
}

// Create inserts a new pending record
func (r *verificationRecordRepository) Create(ctx context.Context, record *domain.VerificationRecord) error {
	query := `
		INSERT INTO verification_records (id, saved_parlay_id, data_hash, status, created_at, updated_at)
		VALUES (:id, :saved_parlay_id, :data_hash, :status, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		logger.Error("Failed to create verification record",
			logger.String("record_id", record.ID),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to create verification record: %w", err)
	}

	logger.Info("Verification record created",
		logger.String("record_id", record.ID),
	)

	return nil
}

// GetByID retrieves a verification record by ID
func (r *verificationRecordRepository) GetByID(ctx context.Context, id string) (*domain.VerificationRecord, error) {
	query := `SELECT` + verificationRecordColumns + ` FROM verification_records WHERE id = $1`

	var record domain.VerificationRecord
	err := r.db.GetContext(ctx, &record, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		logger.Error("Failed to get verification record",
			logger.String("record_id", id),
			logger.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to get verification record: %w", err)
	}

	return &record, nil
}

// MarkConfirmed stores the on-chain proof identity and closes the record
func (r *verificationRecordRepository) MarkConfirmed(ctx context.Context, id, txDigest, objectID string) error {
	query := `
		UPDATE verification_records SET
			status = $2, tx_digest = $3, proof_object_id = $4, last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`

	return r.exec(ctx, "mark confirmed", id, query, id, domain.VerificationStatusConfirmed, txDigest, objectID)
}

// MarkFailed closes the record after retries are exhausted
func (r *verificationRecordRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE verification_records SET
			status = $2, last_error = $3, updated_at = NOW()
		WHERE id = $1 AND status <> $4
	`

	return r.exec(ctx, "mark failed", id, query, id, domain.VerificationStatusFailed, errorMessage, domain.VerificationStatusConfirmed)
}

// SetLastError records the latest failure without changing status
func (r *verificationRecordRepository) SetLastError(ctx context.Context, id, errorMessage string) error {
	query := `UPDATE verification_records SET last_error = $2, updated_at = NOW() WHERE id = $1`

	return r.exec(ctx, "set last error", id, query, id, errorMessage)
}

// CountByStatus returns the number of records per status
func (r *verificationRecordRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	query := `SELECT status, COUNT(*) AS count FROM verification_records GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		Count  int64  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		logger.Error("Failed to count verification records", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to count verification records: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

func (r *verificationRecordRepository) exec(ctx context.Context, op, id, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to update verification record",
			logger.String("op", op),
			logger.String("record_id", id),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		logger.Warn("Verification record update matched no rows",
			logger.String("op", op),
			logger.String("record_id", id),
		)
	}

	return nil
}

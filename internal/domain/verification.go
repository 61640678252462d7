package domain

import (
	"context"
	"regexp"
	"time"
)

// Verification record statuses
const (
	VerificationStatusPending   = "pending"
	VerificationStatusConfirmed = "confirmed"
	VerificationStatusFailed    = "failed"
)

var dataHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// VerificationRecord is the durable record of one anchoring request.
// DataHash and CreatedAt never change after creation; the remaining state is
// written only by the verification job handler.
type VerificationRecord struct {
	ID            string    `json:"id" db:"id"`
	SavedParlayID *string   `json:"saved_parlay_id" db:"saved_parlay_id"`
	DataHash      string    `json:"data_hash" db:"data_hash"`
	Status        string    `json:"status" db:"status"`
	LastError     *string   `json:"last_error" db:"last_error"`
	TxDigest      *string   `json:"tx_digest" db:"tx_digest"`
	ProofObjectID *string   `json:"proof_object_id" db:"proof_object_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// IsConfirmed reports whether the record already has an on-chain proof.
func (r *VerificationRecord) IsConfirmed() bool {
	return r.Status == VerificationStatusConfirmed
}

// IsTerminal reports whether the record reached confirmed or failed.
func (r *VerificationRecord) IsTerminal() bool {
	return r.IsConfirmed() || r.Status == VerificationStatusFailed
}

// ValidDataHash reports whether hash is a 32-byte digest in lowercase hex.
func ValidDataHash(hash string) bool {
	return dataHashPattern.MatchString(hash)
}

// VerificationRecordRepository is the persistence contract used by the
// verification pipeline. GetByID returns ErrRecordNotFound for unknown ids.
type VerificationRecordRepository interface {
	GetByID(ctx context.Context, id string) (*VerificationRecord, error)
	MarkConfirmed(ctx context.Context, id, txDigest, objectID string) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
	SetLastError(ctx context.Context, id, errorMessage string) error
}

// VerificationRecordStore extends the pipeline contract with the producer
// and operator operations.
type VerificationRecordStore interface {
	VerificationRecordRepository
	Create(ctx context.Context, record *VerificationRecord) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

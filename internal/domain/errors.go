package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned when a verification record does not exist.
	ErrRecordNotFound = errors.New("verification record not found")

	// ErrRecordTerminal is returned when a confirmed or failed record is
	// enqueued again; the worker would skip the job.
	ErrRecordTerminal = errors.New("verification record is already confirmed or failed")

	// ErrInvalidPayload is returned when a queue payload cannot be interpreted.
	ErrInvalidPayload = errors.New("invalid job payload")

	// ErrInvalidDataHash is returned when a data hash is not 64 lowercase hex characters.
	ErrInvalidDataHash = errors.New("data hash must be 64 lowercase hex characters")
)

// ProofErrorKind classifies proof creation failures.
type ProofErrorKind string

const (
	ProofErrorValidation   ProofErrorKind = "validation"
	ProofErrorSigner       ProofErrorKind = "signer"
	ProofErrorNetwork      ProofErrorKind = "network"
	ProofErrorChain        ProofErrorKind = "chain"
	ProofErrorIncompatible ProofErrorKind = "incompatible"
)

// ProofError is returned by proof clients. Callers branch on Kind, never on
// the message text of the underlying SDK error.
type ProofError struct {
	Kind ProofErrorKind
	Op   string
	Err  error
}

func (e *ProofError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("proof %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("proof %s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *ProofError) Unwrap() error {
	return e.Err
}

// NewProofError wraps err with a kind and the failing operation.
func NewProofError(kind ProofErrorKind, op string, err error) error {
	return &ProofError{Kind: kind, Op: op, Err: err}
}

// ProofErrorKindOf extracts the kind of a proof error, or "unknown".
func ProofErrorKindOf(err error) ProofErrorKind {
	var pe *ProofError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return "unknown"
}

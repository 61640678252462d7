package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// JobNameVerifySavedParlay is the only job name the verification worker accepts.
const JobNameVerifySavedParlay = "verify_saved_parlay"

// VerificationJob is the queue payload that asks the worker to anchor one
// verification record on chain.
type VerificationJob struct {
	JobName              string `json:"job_name"`
	JobID                string `json:"job_id"`
	VerificationRecordID string `json:"verificationRecordId"`
	SavedParlayID        string `json:"savedParlayId"`
	Attempt              *int   `json:"attempt,omitempty"`
	EnqueuedAt           string `json:"enqueued_at,omitempty"`
}

// CurrentAttempt returns the attempt counter, treating an absent or negative
// value as zero.
func (j *VerificationJob) CurrentAttempt() int {
	if j.Attempt == nil || *j.Attempt < 0 {
		return 0
	}
	return *j.Attempt
}

// UnmarshalJSON accepts any JSON number for attempt. Fractions are
// truncated and values beyond the int range saturate.
func (j *VerificationJob) UnmarshalJSON(data []byte) error {
	type plain VerificationJob
	aux := struct {
		*plain
		Attempt *json.Number `json:"attempt,omitempty"`
	}{plain: (*plain)(j)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	j.Attempt = nil
	if aux.Attempt != nil {
		attempt, err := attemptFromNumber(*aux.Attempt)
		if err != nil {
			return fmt.Errorf("invalid attempt %q: %w", aux.Attempt.String(), err)
		}
		j.Attempt = &attempt
	}

	return nil
}

func attemptFromNumber(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(min(max(i, math.MinInt), math.MaxInt)), nil
	}

	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	switch {
	case f >= math.MaxInt:
		return math.MaxInt, nil
	case f <= math.MinInt:
		return math.MinInt, nil
	}
	return int(f), nil
}

// ParseVerificationJob decodes a raw queue payload. Anything that is not a
// JSON object with the expected field types, or carries another job name,
// yields ErrInvalidPayload.
func ParseVerificationJob(payload string) (*VerificationJob, error) {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: not a json object", ErrInvalidPayload)
	}

	var job VerificationJob
	if err := json.Unmarshal([]byte(trimmed), &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if job.JobName != JobNameVerifySavedParlay {
		return nil, fmt.Errorf("%w: unexpected job name %q", ErrInvalidPayload, job.JobName)
	}

	return &job, nil
}

// WithAttempt returns payload with its attempt field replaced. Every other
// field, including ones this worker does not know about, is kept as is.
func WithAttempt(payload string, attempt int) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if fields == nil {
		return "", fmt.Errorf("%w: not a json object", ErrInvalidPayload)
	}

	raw, err := json.Marshal(attempt)
	if err != nil {
		return "", fmt.Errorf("failed to marshal attempt: %w", err)
	}
	fields["attempt"] = raw

	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	return string(data), nil
}

// Encode serializes the job into a queue payload.
func (j *VerificationJob) Encode() (string, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("failed to marshal verification job: %w", err)
	}
	return string(data), nil
}

package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerificationJob(t *testing.T) {
	job, err := ParseVerificationJob(`{"job_name":"verify_saved_parlay","job_id":"j1","verificationRecordId":"r1","savedParlayId":"p1","attempt":2}`)
	require.NoError(t, err)
	assert.Equal(t, "r1", job.VerificationRecordID)
	assert.Equal(t, "p1", job.SavedParlayID)
	assert.Equal(t, 2, job.CurrentAttempt())

	job, err = ParseVerificationJob(`{"job_name":"verify_saved_parlay","verificationRecordId":"r1"}`)
	require.NoError(t, err)
	assert.Equal(t, 0, job.CurrentAttempt())
}

func TestParseVerificationJob_AttemptNumbers(t *testing.T) {
	tests := []struct {
		attempt string
		want    int
	}{
		{attempt: "1.0", want: 1},
		{attempt: "2.9", want: 2},
		{attempt: "3e0", want: 3},
		{attempt: "-1.5", want: 0},
		{attempt: "9223372036854775808", want: math.MaxInt},
		{attempt: "1e300", want: math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.attempt, func(t *testing.T) {
			job, err := ParseVerificationJob(`{"job_name":"verify_saved_parlay","verificationRecordId":"r1","attempt":` + tt.attempt + `}`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, job.CurrentAttempt())
			assert.Equal(t, "r1", job.VerificationRecordID)
		})
	}
}

func TestParseVerificationJob_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "hello"},
		{name: "json array", payload: `["verify_saved_parlay"]`},
		{name: "json string", payload: `"verify_saved_parlay"`},
		{name: "wrong job name", payload: `{"job_name":"send_email","verificationRecordId":"r1"}`},
		{name: "wrong field type", payload: `{"job_name":"verify_saved_parlay","attempt":"two"}`},
		{name: "attempt out of float range", payload: `{"job_name":"verify_saved_parlay","attempt":1e400}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVerificationJob(tt.payload)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestCurrentAttempt_NegativeIsZero(t *testing.T) {
	n := -4
	job := VerificationJob{Attempt: &n}
	assert.Equal(t, 0, job.CurrentAttempt())
}

func TestWithAttempt_PreservesUnknownFields(t *testing.T) {
	out, err := WithAttempt(`{"job_name":"verify_saved_parlay","verificationRecordId":"r1","trace":{"source":"api"}}`, 3)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	assert.Equal(t, float64(3), fields["attempt"])
	assert.Equal(t, "r1", fields["verificationRecordId"])
	assert.Equal(t, map[string]any{"source": "api"}, fields["trace"])

	_, err = WithAttempt("null", 1)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestValidDataHash(t *testing.T) {
	valid := "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	assert.True(t, ValidDataHash(valid))
	assert.False(t, ValidDataHash(valid[:63]))
	assert.False(t, ValidDataHash("9F86D081884C7D659A2FEAA0C55AD015A3BF4F1B2B0B822CD15D6C15B0F00A08"))
}

func TestProofErrorKindOf(t *testing.T) {
	err := NewProofError(ProofErrorNetwork, "execute transaction", assert.AnError)
	assert.Equal(t, ProofErrorNetwork, ProofErrorKindOf(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "execute transaction")
	assert.Equal(t, ProofErrorKind("unknown"), ProofErrorKindOf(assert.AnError))
}

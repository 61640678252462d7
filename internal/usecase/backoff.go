package usecase

import "time"

const (
	backoffBase        = time.Second
	backoffCap         = 60 * time.Second
	backoffMaxExponent = 10
)

// Backoff returns the delay before retrying a job that has already failed
// attempt times: 1s doubling per attempt, capped at 60s. The exponent is
// clamped to [0, 10] so large attempt counts cannot overflow.
func Backoff(attempt int) time.Duration {
	exponent := min(max(attempt, 0), backoffMaxExponent)
	return min(backoffCap, backoffBase*time.Duration(1<<exponent))
}

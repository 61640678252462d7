package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", SHA256Hex([]byte("test")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	// "é" is two bytes; cutting inside it backs off to the rune start
	assert.Equal(t, "a...", Truncate("aéb", 2))
}

func TestEpochSeconds(t *testing.T) {
	assert.Equal(t, uint64(1700000000), EpochSeconds(time.Unix(1700000000, 999_000_000)))
	assert.Equal(t, uint64(0), EpochSeconds(time.Unix(-5, 0)))
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	assert.Equal(t, "2026-01-01T00:00:00Z", FormatTime(time.Date(2026, 1, 1, 7, 0, 0, 0, loc)))
}

func TestGenerateUUID(t *testing.T) {
	_, err := uuid.Parse(GenerateUUID())
	assert.NoError(t, err)
}

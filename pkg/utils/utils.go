package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// SHA256Hex returns the lowercase hex sha-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Truncate shortens s to at most length bytes without splitting a rune.
func Truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	cut := length
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// EpochSeconds converts t to whole seconds since the Unix epoch, clamping
// times before the epoch to zero.
func EpochSeconds(t time.Time) uint64 {
	secs := t.Unix()
	if secs < 0 {
		return 0
	}
	return uint64(secs)
}

// FormatTime formats t in RFC 3339 UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

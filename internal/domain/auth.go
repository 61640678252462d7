package domain

import (
	"slices"
	"time"
)

// Service token scopes
const (
	ScopeAnchorsRead  = "anchors:read"
	ScopeAnchorsWrite = "anchors:write"
)

// AuthClaims represents validated service token claims
type AuthClaims struct {
	Subject   string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasScope reports whether the token grants scope.
func (c *AuthClaims) HasScope(scope string) bool {
	return c != nil && slices.Contains(c.Scopes, scope)
}

// AuthService issues and validates the service tokens callers present to the
// anchor API.
type AuthService interface {
	GenerateServiceToken(subject string, scopes []string, ttl time.Duration) (string, error)
	ValidateToken(token string) (*AuthClaims, error)
}

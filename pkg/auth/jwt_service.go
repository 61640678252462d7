package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alfanzaky/proofanchor/config"
	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/pkg/utils"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrNotConfigured  = errors.New("token secret is not configured")
	ErrInvalidSubject = errors.New("token subject is required")
)

type serviceClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// JWTAuthService implements domain.AuthService with HS256 service tokens.
// Scopes travel space separated in the "scope" claim.
type JWTAuthService struct {
	cfg config.AuthConfig
	now func() time.Time
}

var _ domain.AuthService = (*JWTAuthService)(nil)

// NewJWTAuthService creates a new auth service instance
func NewJWTAuthService(cfg config.AuthConfig) *JWTAuthService {
	return &JWTAuthService{cfg: cfg, now: time.Now}
}

func (s *JWTAuthService) defaultTTL() time.Duration {
	if s.cfg.TokenTTL <= 0 {
		return 24 * time.Hour
	}
	return s.cfg.TokenTTL
}

// GenerateServiceToken signs a token for subject. A non-positive ttl uses the
// configured default.
func (s *JWTAuthService) GenerateServiceToken(subject string, scopes []string, ttl time.Duration) (string, error) {
	if s.cfg.TokenSecret == "" {
		return "", ErrNotConfigured
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrInvalidSubject
	}
	if ttl <= 0 {
		ttl = s.defaultTTL()
	}

	now := s.now()
	claims := &serviceClaims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        utils.GenerateUUID(),
		},
	}
	if audience := strings.TrimSpace(s.cfg.Audience); audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a service token and returns its claims
func (s *JWTAuthService) ValidateToken(token string) (*domain.AuthClaims, error) {
	if token == "" || s.cfg.TokenSecret == "" {
		return nil, ErrInvalidToken
	}

	claims := &serviceClaims{}
	options := []jwt.ParserOption{
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(s.now),
	}
	if iss := strings.TrimSpace(s.cfg.Issuer); iss != "" {
		options = append(options, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(s.cfg.Audience); aud != "" {
		options = append(options, jwt.WithAudience(aud))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.TokenSecret), nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &domain.AuthClaims{
		Subject:   claims.Subject,
		Scopes:    strings.Fields(claims.Scope),
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

package service

import (
	"fmt"
	"time"

	"github.com/contactdesk/backend/config"
	"github.com/contactdesk/backend/internal/constants"
	domerrors "github.com/contactdesk/backend/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and parses the two JWT families used by the API:
// short-lived access tokens and long-lived refresh tokens, told apart by
// their scope claim.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	method := jwt.GetSigningMethod(cfg.SigningAlgorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown JWT signing algorithm %q", cfg.SigningAlgorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("JWT signing algorithm %q is not an HMAC method", cfg.SigningAlgorithm)
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// IssueAccessToken creates a signed access token for the subject. Extra
// claims are merged in, but the issuer claims (sub, iat, exp, scope)
// always take precedence over caller-supplied values.
func (s *TokenService) IssueAccessToken(subject string, extra jwt.MapClaims) (string, error) {
	return s.issue(subject, constants.ScopeAccessToken, s.accessTTL, extra)
}

// IssueRefreshToken creates a signed refresh token for the subject.
func (s *TokenService) IssueRefreshToken(subject string, extra jwt.MapClaims) (string, error) {
	return s.issue(subject, constants.ScopeRefreshToken, s.refreshTTL, extra)
}

func (s *TokenService) issue(subject, scope string, ttl time.Duration, extra jwt.MapClaims) (string, error) {
	now := s.now().UTC()

	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	claims["scope"] = scope

	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of a token and returns its
// claims. Every failure collapses into the same authentication error so
// clients cannot tell a bad signature from an expired token.
func (s *TokenService) Parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil || !token.Valid {
		return nil, domerrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domerrors.ErrInvalidToken
	}

	return claims, nil
}

// Scope extracts the scope claim, or an empty string when absent.
func Scope(claims jwt.MapClaims) string {
	if scope, ok := claims["scope"].(string); ok {
		return scope
	}
	return ""
}

// Subject extracts the sub claim, or an empty string when absent.
func Subject(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

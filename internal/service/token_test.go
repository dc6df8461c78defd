package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/contactdesk/backend/config"
	"github.com/contactdesk/backend/internal/constants"
	domerrors "github.com/contactdesk/backend/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(config.JWTConfig{
		Secret:           "test-secret",
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       7 * 24 * time.Hour,
		SigningAlgorithm: "HS256",
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestIssueAccessTokenClaims(t *testing.T) {
	ts := newTestTokenService(t)
	issued := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return issued }

	token, err := ts.IssueAccessToken("alice@example.com", nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	ts.now = func() time.Time { return issued.Add(time.Minute) }
	claims, err := ts.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if Subject(claims) != "alice@example.com" {
		t.Errorf("Expected subject alice@example.com, got %q", Subject(claims))
	}
	if Scope(claims) != constants.ScopeAccessToken {
		t.Errorf("Expected access scope, got %q", Scope(claims))
	}

	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)
	if int64(exp)-int64(iat) != int64((15 * time.Minute).Seconds()) {
		t.Errorf("Expected 15 minute lifetime, got %d seconds", int64(exp)-int64(iat))
	}
}

func TestIssueRefreshTokenScope(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueRefreshToken("alice@example.com", nil)
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	claims, err := ts.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if Scope(claims) != constants.ScopeRefreshToken {
		t.Errorf("Expected refresh scope, got %q", Scope(claims))
	}
}

func TestIssuerClaimsTakePrecedence(t *testing.T) {
	ts := newTestTokenService(t)
	issued := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return issued }

	// Caller tries to smuggle its own scope and expiry
	token, err := ts.IssueAccessToken("alice@example.com", jwt.MapClaims{
		"scope": "admin",
		"exp":   issued.Add(100 * 24 * time.Hour).Unix(),
		"role":  "tester",
	})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	claims, err := ts.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if Scope(claims) != constants.ScopeAccessToken {
		t.Errorf("Issuer scope must win, got %q", Scope(claims))
	}
	exp, _ := claims["exp"].(float64)
	if int64(exp) != issued.Add(15*time.Minute).Unix() {
		t.Errorf("Issuer expiry must win, got %d", int64(exp))
	}
	// Harmless extra claims survive the merge
	if role, _ := claims["role"].(string); role != "tester" {
		t.Errorf("Expected extra claim to survive, got %q", role)
	}
}

func TestParseExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)
	issued := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return issued }

	token, err := ts.IssueAccessToken("alice@example.com", nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	ts.now = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := ts.Parse(token); !errors.Is(err, domerrors.ErrInvalidToken) {
		t.Errorf("Expected invalid token error for expired token, got %v", err)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueAccessToken("alice@example.com", nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"flipped signature", token[:len(token)-2] + "xx"},
		{"wrong secret", signWithSecret(t, "other-secret")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Parse(tt.token); !errors.Is(err, domerrors.ErrInvalidToken) {
				t.Errorf("Expected invalid token error, got %v", err)
			}
		})
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	ts := newTestTokenService(t)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":   "alice@example.com",
		"scope": constants.ScopeAccessToken,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	if _, err := ts.Parse(token); !errors.Is(err, domerrors.ErrInvalidToken) {
		t.Errorf("Expected invalid token error for alg=none, got %v", err)
	}
}

func TestNewTokenServiceRejectsNonHMAC(t *testing.T) {
	_, err := NewTokenService(config.JWTConfig{
		Secret:           "test-secret",
		SigningAlgorithm: "RS256",
	})
	if err == nil || !strings.Contains(err.Error(), "HMAC") {
		t.Errorf("Expected HMAC rejection, got %v", err)
	}

	_, err = NewTokenService(config.JWTConfig{
		Secret:           "test-secret",
		SigningAlgorithm: "bogus",
	})
	if err == nil {
		t.Error("Expected error for unknown algorithm")
	}
}

func signWithSecret(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "alice@example.com",
		"scope": constants.ScopeAccessToken,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

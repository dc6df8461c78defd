package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contactdesk/backend/config"
	"github.com/contactdesk/backend/internal/middleware"
	"github.com/contactdesk/backend/internal/model"
	"github.com/contactdesk/backend/internal/service"
	"github.com/contactdesk/backend/pkg/mailer"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDirectory struct {
	users  map[string]*model.User
	nextID uint
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{users: make(map[string]*model.User), nextID: 1}
}

func (m *memoryDirectory) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, nil
}

func (m *memoryDirectory) GetByVerificationToken(_ context.Context, token string) (*model.User, error) {
	for _, u := range m.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memoryDirectory) GetByID(_ context.Context, id uint) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memoryDirectory) Create(_ context.Context, user *model.User) error {
	user.ID = m.nextID
	m.nextID++
	m.users[user.Username] = user
	return nil
}

func (m *memoryDirectory) Save(_ context.Context, user *model.User) error {
	m.users[user.Username] = user
	return nil
}

type noopMailQueue struct{}

func (noopMailQueue) Enqueue(mailer.VerificationMail) {}

func newTestServer(t *testing.T) (*gin.Engine, *memoryDirectory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := service.NewTokenService(config.JWTConfig{
		Secret:           "test-secret",
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       7 * 24 * time.Hour,
		SigningAlgorithm: "HS256",
	})
	require.NoError(t, err)

	dir := newMemoryDirectory()
	cfg := &config.Config{App: config.AppConfig{PublicURL: "http://localhost:8080"}}
	authService := service.NewAuthService(dir, tokens, noopMailQueue{}, nil, cfg)

	authHandler := NewAuthHandler(authService)
	jwtMw := middleware.NewJWTMiddleware(authService)

	r := gin.New()
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/verify/:token", authHandler.VerifyEmail)

		protected := auth.Group("")
		protected.Use(jwtMw.RequireAuth())
		{
			protected.POST("/logout", authHandler.Logout)
		}
	}

	r.GET("/api/v1/protected", jwtMw.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	return r, dir
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupLifecycleOverHTTP(t *testing.T) {
	r, dir := newTestServer(t)

	// signup creates the account unverified
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", gin.H{
		"username": "alice@example.com",
		"password": "pw1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID         uint   `json:"id"`
		Username   string `json:"username"`
		IsVerified bool   `json:"is_verified"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "alice@example.com", created.Username)
	assert.False(t, created.IsVerified)

	// the hash never leaves the server
	assert.NotContains(t, w.Body.String(), "password")

	// a second signup for the same username conflicts
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", gin.H{
		"username": "alice@example.com",
		"password": "pw2",
	}, "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Account already exists")

	// login before verification is forbidden
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "alice@example.com",
		"password": "pw1",
	}, "")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Email not verified")

	// verify via the mailed token
	token := *dir.users["alice@example.com"].VerificationToken
	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/verify/"+token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	// the token was consumed
	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/verify/"+token, nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid verification token")

	// login now succeeds with a token pair
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "alice@example.com",
		"password": "pw1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)

	// the access token opens protected routes
	w = doJSON(t, r, http.MethodGet, "/api/v1/protected", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	// but the refresh token does not
	w = doJSON(t, r, http.MethodGet, "/api/v1/protected", nil, pair.RefreshToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "refresh tokens may not authenticate requests")

	// logout revokes the session
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	// the unexpired access token is now rejected
	w = doJSON(t, r, http.MethodGet, "/api/v1/protected", nil, pair.AccessToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "session not active")
}

func TestSignupEmptyFieldsConflict(t *testing.T) {
	r, _ := newTestServer(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"empty username", gin.H{"username": "", "password": "pw"}},
		{"empty password", gin.H{"username": "bob@example.com", "password": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", tt.body, "")
			assert.Equal(t, http.StatusConflict, w.Code)
		})
	}
}

func TestProtectedRouteRejectsBadHeaders(t *testing.T) {
	r, _ := newTestServer(t)

	tests := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{"no header", func(*http.Request) {}},
		{"not bearer", func(req *http.Request) { req.Header.Set("Authorization", "Basic abc") }},
		{"garbage token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRefreshEndpoint(t *testing.T) {
	r, dir := newTestServer(t)

	doJSON(t, r, http.MethodPost, "/api/v1/auth/signup", gin.H{
		"username": "alice@example.com", "password": "pw1",
	}, "")
	token := *dir.users["alice@example.com"].VerificationToken
	doJSON(t, r, http.MethodGet, "/api/v1/auth/verify/"+token, nil, "")

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "alice@example.com", "password": "pw1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))

	// a valid refresh token rotates the pair
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": pair.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var rotated struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// the consumed refresh token is dead
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": pair.RefreshToken,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// missing body field fails binding
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

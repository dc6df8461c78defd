package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/contactdesk/backend/config"
	"github.com/contactdesk/backend/internal/constants"
	domerrors "github.com/contactdesk/backend/internal/errors"
	"github.com/contactdesk/backend/internal/model"
	"github.com/contactdesk/backend/pkg/logger"
	"github.com/contactdesk/backend/pkg/mailer"
	"github.com/google/uuid"
)

// UserDirectory is the persistence surface the auth flows need. Lookups
// return nil without an error when no user matches.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Save(ctx context.Context, user *model.User) error
}

// MailQueue schedules verification mail for asynchronous delivery.
type MailQueue interface {
	Enqueue(mail mailer.VerificationMail)
}

// AvatarStore persists avatar bytes and returns the public URL they are
// served under.
type AvatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type AuthService struct {
	users   UserDirectory
	tokens  *TokenService
	mail    MailQueue
	avatars AvatarStore

	publicURL string
}

func NewAuthService(users UserDirectory, tokens *TokenService, mail MailQueue, avatars AvatarStore, cfg *config.Config) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		mail:      mail,
		avatars:   avatars,
		publicURL: strings.TrimRight(cfg.App.PublicURL, "/"),
	}
}

// Signup registers a new account and queues the verification mail. Empty
// credentials and taken usernames are all rejected as conflicts.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*model.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, domerrors.ErrInvalidUsername
	}
	if password == "" {
		return nil, domerrors.ErrInvalidPassword
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}
	if existing != nil {
		return nil, domerrors.ErrAccountExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}

	verificationToken := uuid.NewString()
	user := &model.User{
		Username:          username,
		Password:          hash,
		IsVerified:        false,
		VerificationToken: &verificationToken,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}

	s.mail.Enqueue(mailer.VerificationMail{
		To:         username,
		Username:   username,
		VerifyLink: fmt.Sprintf("%s/api/v1/auth/verify/%s", s.publicURL, verificationToken),
	})

	logger.InfoWithContext(ctx, "User signed up").
		Uint("user_id", user.ID).
		String("username", username).
		Log()

	return user, nil
}

// VerifyEmail consumes a verification token. The token is cleared
// atomically with setting the verified flag, so a second verify with the
// same token no longer matches and fails.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		return domerrors.WrapError(domerrors.ErrInternal, err)
	}
	if user == nil {
		return domerrors.ErrUnknownVerifyToken
	}

	user.IsVerified = true
	user.VerificationToken = nil
	if err := s.users.Save(ctx, user); err != nil {
		return domerrors.WrapError(domerrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Email verified").
		Uint("user_id", user.ID).
		Log()

	return nil
}

// Login checks the credentials and issues a fresh token pair. The new
// refresh token overwrites any previous one, so concurrent logins race
// with last-writer-wins semantics and only the newest refresh token
// survives.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, string, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", "", domerrors.WrapError(domerrors.ErrInternal, err)
	}
	if user == nil || !VerifyPassword(password, user.Password) {
		return nil, "", "", domerrors.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, "", "", domerrors.ErrEmailNotVerified
	}

	accessToken, err := s.tokens.IssueAccessToken(user.Username, nil)
	if err != nil {
		return nil, "", "", domerrors.WrapError(domerrors.ErrInternal, err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.Username, nil)
	if err != nil {
		return nil, "", "", domerrors.WrapError(domerrors.ErrInternal, err)
	}

	user.RefreshToken = &refreshToken
	if err := s.users.Save(ctx, user); err != nil {
		return nil, "", "", domerrors.WrapError(domerrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User logged in").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Log()

	return user, accessToken, refreshToken, nil
}

// Logout clears the stored refresh token, which revokes the session: every
// outstanding access token fails resolution until the next login, even
// though the tokens themselves stay cryptographically valid.
func (s *AuthService) Logout(ctx context.Context, user *model.User) error {
	user.RefreshToken = nil
	if err := s.users.Save(ctx, user); err != nil {
		return domerrors.WrapError(domerrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User logged out").
		Uint("user_id", user.ID).
		Log()

	return nil
}

// Refresh exchanges a refresh-scoped token for a new token pair. The
// presented token must match the stored one byte for byte; rotation then
// replaces it, so each refresh token is usable once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, string, string, error) {
	claims, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return nil, "", "", err
	}

	if scope := Scope(claims); scope != constants.ScopeRefreshToken {
		return nil, "", "", domerrors.ErrUnknownScope
	}

	subject := Subject(claims)
	if subject == "" {
		return nil, "", "", domerrors.ErrInvalidSubject
	}

	user, err := s.users.GetByUsername(ctx, subject)
	if err != nil {
		return nil, "", "", domerrors.WrapError(domerrors.ErrInternal, err)
	}
	if user == nil {
		return nil, "", "", domerrors.ErrNoSuchUser
	}
	if user.RefreshToken == nil {
		return nil, "", "", domerrors.ErrSessionNotActive
	}
	if *user.RefreshToken != refreshToken {
		return nil, "", "", domerrors.ErrRefreshMismatch
	}

	accessToken, err := s.tokens.IssueAccessToken(user.Username, nil)
	if err != nil {
		return nil, "", "", domerrors.WrapError(domerrors.ErrInternal, err)
	}
	newRefresh, err := s.tokens.IssueRefreshToken(user.Username, nil)
	if err != nil {
		return nil, "", "", domerrors.WrapError(domerrors.ErrInternal, err)
	}

	user.RefreshToken = &newRefresh
	if err := s.users.Save(ctx, user); err != nil {
		return nil, "", "", domerrors.WrapError(domerrors.ErrInternal, err)
	}

	return user, accessToken, newRefresh, nil
}

// Resolve turns a bearer token into the user it identifies.
//
// The steps run in a fixed order: signature and expiry, then scope, then
// subject, then directory lookup, then the session-revocation check. A
// user whose stored refresh token is NULL has logged out, and every
// access token issued before that fails here regardless of its own
// expiry.
func (s *AuthService) Resolve(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, err
	}

	switch Scope(claims) {
	case constants.ScopeAccessToken:
	case constants.ScopeRefreshToken:
		return nil, domerrors.ErrRefreshScope
	default:
		return nil, domerrors.ErrUnknownScope
	}

	subject := Subject(claims)
	if subject == "" {
		return nil, domerrors.ErrInvalidSubject
	}

	user, err := s.users.GetByUsername(ctx, subject)
	if err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}
	if user == nil {
		return nil, domerrors.ErrNoSuchUser
	}

	if user.RefreshToken == nil {
		return nil, domerrors.ErrSessionNotActive
	}

	return user, nil
}

// UploadAvatar stores the image bytes and records the resulting URL on
// the authenticated user. Only JPEG and PNG are accepted.
func (s *AuthService) UploadAvatar(ctx context.Context, user *model.User, r io.Reader, size int64, contentType string) (string, error) {
	var ext string
	switch contentType {
	case constants.ContentTypeJPEG:
		ext = "jpg"
	case constants.ContentTypePNG:
		ext = "png"
	default:
		return "", domerrors.ErrUnsupportedFileType
	}

	if s.avatars == nil {
		return "", domerrors.ErrServiceUnavailable
	}

	key := fmt.Sprintf("avatars/%s.%s", uuid.NewString(), ext)
	url, err := s.avatars.Upload(ctx, key, r, size, contentType)
	if err != nil {
		return "", domerrors.WrapError(domerrors.ErrInternal, err)
	}

	user.AvatarURL = &url
	if err := s.users.Save(ctx, user); err != nil {
		return "", domerrors.WrapError(domerrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Avatar updated").
		Uint("user_id", user.ID).
		String("avatar_url", url).
		Log()

	return url, nil
}

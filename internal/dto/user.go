package dto

import (
	"time"

	"github.com/contactdesk/backend/internal/model"
)

// SignupRequest deliberately has no required bindings: empty fields must
// reach the service layer, which rejects them with a conflict response
// rather than a generic validation error.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse is the token pair returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type UserResponse struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	IsVerified bool      `json:"is_verified"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		IsVerified: user.IsVerified,
		AvatarURL:  user.AvatarURL,
		CreatedAt:  user.CreatedAt,
	}
}

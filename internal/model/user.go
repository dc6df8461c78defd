package model

import (
	"gorm.io/gorm"
)

// User is an account in the system. The username doubles as the e-mail
// address used for verification mail.
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	// Password holds the bcrypt hash, never the plaintext.
	Password string `gorm:"not null" json:"-"`
	// RefreshToken stores the most recently issued refresh token. A NULL
	// value means the user has no active session and access tokens are
	// rejected until the next login.
	RefreshToken      *string `gorm:"type:text" json:"-"`
	IsVerified        bool    `gorm:"not null;default:false" json:"is_verified"`
	VerificationToken *string `gorm:"uniqueIndex" json:"-"`
	AvatarURL         *string `json:"avatar_url,omitempty"`

	Contacts []Contact `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

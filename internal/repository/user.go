package repository

import (
	"context"
	"errors"
	"time"

	"github.com/contactdesk/backend/internal/model"
	ctxutil "github.com/contactdesk/backend/pkg/context"
	"github.com/contactdesk/backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUsername returns the user with the given username, or nil when no
// such user exists.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "GetByUsername")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var user model.User
	result := r.db.WithContext(ctx).Where("username = ?", username).First(&user)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to get user by username").
			String("username", username).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "GetByID")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	result := r.db.WithContext(ctx).First(&user, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to get user by ID").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

// GetByVerificationToken resolves the user that owns a pending
// verification token. Verified users have the token cleared, so a
// consumed token no longer matches anyone.
func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "GetByVerificationToken")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	result := r.db.WithContext(ctx).Where("verification_token = ?", token).First(&user)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to get user by verification token").
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithScope(ctx, "repository", "Create")

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("username", user.Username).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "User created").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Duration(time.Since(start)).
		Log()

	return nil
}

// Save persists all fields of an existing user, including NULLed columns
// such as a cleared refresh token.
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithScope(ctx, "repository", "Save")

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to save user").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		return err
	}

	return nil
}

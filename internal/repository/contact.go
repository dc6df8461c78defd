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

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// List returns one page of the user's contacts plus the total count.
func (r *ContactRepository) List(ctx context.Context, userID uint, limit, offset int) ([]model.Contact, int64, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "List")

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	var contacts []model.Contact
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Contact{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count contacts").
			Uint("owner_id", userID).
			Err(err).
			Log()
		return nil, 0, err
	}

	if err := query.Order("id").Limit(limit).Offset(offset).Find(&contacts).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to list contacts").
			Uint("owner_id", userID).
			Int("limit", limit).
			Int("offset", offset).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, err
	}

	return contacts, total, nil
}

// GetByID returns the contact only when it belongs to the given user.
func (r *ContactRepository) GetByID(ctx context.Context, userID, contactID uint) (*model.Contact, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "GetByID")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var contact model.Contact
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, contactID).
		First(&contact)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to get contact").
			Uint("owner_id", userID).
			Uint("contact_id", contactID).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &contact, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	ctx = ctxutil.WithScope(ctx, "repository", "Create")

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to create contact").
			Uint("owner_id", contact.UserID).
			Err(err).
			Log()
		return err
	}

	return nil
}

func (r *ContactRepository) Save(ctx context.Context, contact *model.Contact) error {
	ctx = ctxutil.WithScope(ctx, "repository", "Save")

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Save(contact).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to save contact").
			Uint("contact_id", contact.ID).
			Err(err).
			Log()
		return err
	}

	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, contact *model.Contact) error {
	ctx = ctxutil.WithScope(ctx, "repository", "Delete")

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Delete(contact).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to delete contact").
			Uint("contact_id", contact.ID).
			Err(err).
			Log()
		return err
	}

	return nil
}

// Search finds the user's contacts matching any provided field exactly.
// Empty fields are skipped; all queries stay scoped to the owner.
func (r *ContactRepository) Search(ctx context.Context, userID uint, name, surname, email string) ([]model.Contact, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "Search")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	var matchers *gorm.DB
	if name != "" {
		matchers = r.db.Where("name = ?", name)
	}
	if surname != "" {
		cond := r.db.Where("surname = ?", surname)
		if matchers == nil {
			matchers = cond
		} else {
			matchers = matchers.Or(cond)
		}
	}
	if email != "" {
		cond := r.db.Where("email = ?", email)
		if matchers == nil {
			matchers = cond
		} else {
			matchers = matchers.Or(cond)
		}
	}
	if matchers != nil {
		query = query.Where(matchers)
	}

	var contacts []model.Contact
	if err := query.Order("id").Find(&contacts).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to search contacts").
			Uint("owner_id", userID).
			Err(err).
			Log()
		return nil, err
	}

	return contacts, nil
}

// UpcomingBirthdays returns the user's contacts whose birthday falls on one
// of the given month/day pairs. Matching on (month, day) keeps the query
// correct across year boundaries.
func (r *ContactRepository) UpcomingBirthdays(ctx context.Context, userID uint, days [][2]int) ([]model.Contact, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "UpcomingBirthdays")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(days) == 0 {
		return nil, nil
	}

	matchers := r.db.Where(
		"EXTRACT(MONTH FROM date_of_birth) = ? AND EXTRACT(DAY FROM date_of_birth) = ?",
		days[0][0], days[0][1],
	)
	for _, d := range days[1:] {
		matchers = matchers.Or(
			"EXTRACT(MONTH FROM date_of_birth) = ? AND EXTRACT(DAY FROM date_of_birth) = ?",
			d[0], d[1],
		)
	}

	var contacts []model.Contact
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(matchers).
		Order("id").
		Find(&contacts).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to query upcoming birthdays").
			Uint("owner_id", userID).
			Err(err).
			Log()
		return nil, err
	}

	return contacts, nil
}

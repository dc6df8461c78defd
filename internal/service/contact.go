package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contactdesk/backend/internal/constants"
	"github.com/contactdesk/backend/internal/dto"
	domerrors "github.com/contactdesk/backend/internal/errors"
	"github.com/contactdesk/backend/internal/model"
	"github.com/contactdesk/backend/pkg/logger"
	"github.com/contactdesk/backend/pkg/redis"
)

const contactCacheTTL = 5 * time.Minute

// ContactStore is the persistence surface of the contact flows. Lookups
// return nil without an error when nothing matches.
type ContactStore interface {
	List(ctx context.Context, userID uint, limit, offset int) ([]model.Contact, int64, error)
	GetByID(ctx context.Context, userID, contactID uint) (*model.Contact, error)
	Create(ctx context.Context, contact *model.Contact) error
	Save(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, contact *model.Contact) error
	Search(ctx context.Context, userID uint, name, surname, email string) ([]model.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID uint, days [][2]int) ([]model.Contact, error)
}

type ContactService struct {
	contacts ContactStore
	cache    redis.Client

	// now is swappable so the birthday window can be pinned in tests.
	now func() time.Time
}

func NewContactService(contacts ContactStore, cache redis.Client) *ContactService {
	return &ContactService{
		contacts: contacts,
		cache:    cache,
		now:      time.Now,
	}
}

type cachedPage struct {
	Contacts []dto.ContactResponse `json:"contacts"`
	Total    int64                 `json:"total"`
}

func (s *ContactService) listCacheKey(userID uint, limit, offset int) string {
	return fmt.Sprintf("%s%d:%d:%d", constants.CacheKeyContacts, userID, limit, offset)
}

func (s *ContactService) ownerCachePattern(userID uint) string {
	return fmt.Sprintf("%s%d:*", constants.CacheKeyContacts, userID)
}

// invalidate drops every cached page for the owner after a mutation.
func (s *ContactService) invalidate(ctx context.Context, userID uint) {
	if err := s.cache.DeleteByPattern(ctx, s.ownerCachePattern(userID)); err != nil {
		logger.WarnWithContext(ctx, "Failed to invalidate contact cache").
			Uint("owner_id", userID).
			Err(err).
			Log()
	}
}

// List returns one page of the owner's contacts, served from cache when a
// fresh page is available.
func (s *ContactService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.ContactResponse, int64, error) {
	key := s.listCacheKey(userID, limit, offset)

	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var page cachedPage
		if json.Unmarshal([]byte(raw), &page) == nil {
			logger.DebugWithContext(ctx, "Contact list served from cache").
				Uint("owner_id", userID).
				Log()
			return page.Contacts, page.Total, nil
		}
	}

	contacts, total, err := s.contacts.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, domerrors.WrapError(domerrors.ErrInternal, err)
	}

	responses := dto.ToContactResponses(contacts)

	if raw, err := json.Marshal(cachedPage{Contacts: responses, Total: total}); err == nil {
		_ = s.cache.Set(ctx, key, string(raw), contactCacheTTL)
	}

	return responses, total, nil
}

func (s *ContactService) GetByID(ctx context.Context, userID, contactID uint) (*dto.ContactResponse, error) {
	contact, err := s.contacts.GetByID(ctx, userID, contactID)
	if err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}
	if contact == nil {
		return nil, domerrors.ErrContactNotFound
	}

	resp := dto.ToContactResponse(contact)
	return &resp, nil
}

func (s *ContactService) Create(ctx context.Context, userID uint, req dto.CreateContactRequest) (*dto.ContactResponse, error) {
	dob, err := dto.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInvalidInput, err)
	}

	contact := &model.Contact{
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		DateOfBirth: dob,
		Description: req.Description,
		UserID:      userID,
	}

	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}

	s.invalidate(ctx, userID)

	resp := dto.ToContactResponse(contact)
	return &resp, nil
}

// Update applies a partial update; fields left out of the request keep
// their current values.
func (s *ContactService) Update(ctx context.Context, userID, contactID uint, req dto.UpdateContactRequest) (*dto.ContactResponse, error) {
	contact, err := s.contacts.GetByID(ctx, userID, contactID)
	if err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}
	if contact == nil {
		return nil, domerrors.ErrContactNotFound
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Surname != nil {
		contact.Surname = *req.Surname
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		contact.PhoneNumber = *req.PhoneNumber
	}
	if req.DateOfBirth != nil {
		dob, err := dto.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, domerrors.WrapError(domerrors.ErrInvalidInput, err)
		}
		contact.DateOfBirth = dob
	}
	if req.Description != nil {
		contact.Description = *req.Description
	}

	if err := s.contacts.Save(ctx, contact); err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}

	s.invalidate(ctx, userID)

	resp := dto.ToContactResponse(contact)
	return &resp, nil
}

func (s *ContactService) Delete(ctx context.Context, userID, contactID uint) error {
	contact, err := s.contacts.GetByID(ctx, userID, contactID)
	if err != nil {
		return domerrors.WrapError(domerrors.ErrInternal, err)
	}
	if contact == nil {
		return domerrors.ErrContactNotFound
	}

	if err := s.contacts.Delete(ctx, contact); err != nil {
		return domerrors.WrapError(domerrors.ErrInternal, err)
	}

	s.invalidate(ctx, userID)

	return nil
}

func (s *ContactService) Search(ctx context.Context, userID uint, req dto.SearchContactRequest) ([]dto.ContactResponse, error) {
	contacts, err := s.contacts.Search(ctx, userID, req.Name, req.Surname, req.Email)
	if err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}
	return dto.ToContactResponses(contacts), nil
}

// UpcomingBirthdays returns the owner's contacts with a birthday in the
// next seven days, today included.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID uint) ([]dto.ContactResponse, error) {
	today := s.now().UTC()
	days := make([][2]int, 0, 7)
	for i := 0; i < 7; i++ {
		d := today.AddDate(0, 0, i)
		days = append(days, [2]int{int(d.Month()), d.Day()})
	}

	contacts, err := s.contacts.UpcomingBirthdays(ctx, userID, days)
	if err != nil {
		return nil, domerrors.WrapError(domerrors.ErrInternal, err)
	}
	return dto.ToContactResponses(contacts), nil
}

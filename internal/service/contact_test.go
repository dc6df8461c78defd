package service

import (
	"context"
	"testing"
	"time"

	"github.com/contactdesk/backend/config"
	"github.com/contactdesk/backend/internal/dto"
	domerrors "github.com/contactdesk/backend/internal/errors"
	"github.com/contactdesk/backend/internal/model"
	"github.com/contactdesk/backend/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeContactStore is an in-memory ContactStore.
type fakeContactStore struct {
	contacts []model.Contact
	nextID   uint
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{nextID: 1}
}

func (f *fakeContactStore) List(_ context.Context, userID uint, limit, offset int) ([]model.Contact, int64, error) {
	var owned []model.Contact
	for _, c := range f.contacts {
		if c.UserID == userID {
			owned = append(owned, c)
		}
	}
	total := int64(len(owned))
	if offset >= len(owned) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

func (f *fakeContactStore) GetByID(_ context.Context, userID, contactID uint) (*model.Contact, error) {
	for i := range f.contacts {
		if f.contacts[i].ID == contactID && f.contacts[i].UserID == userID {
			return &f.contacts[i], nil
		}
	}
	return nil, nil
}

func (f *fakeContactStore) Create(_ context.Context, contact *model.Contact) error {
	contact.ID = f.nextID
	f.nextID++
	f.contacts = append(f.contacts, *contact)
	return nil
}

func (f *fakeContactStore) Save(_ context.Context, contact *model.Contact) error {
	for i := range f.contacts {
		if f.contacts[i].ID == contact.ID {
			f.contacts[i] = *contact
			return nil
		}
	}
	return nil
}

func (f *fakeContactStore) Delete(_ context.Context, contact *model.Contact) error {
	for i := range f.contacts {
		if f.contacts[i].ID == contact.ID {
			f.contacts = append(f.contacts[:i], f.contacts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeContactStore) Search(_ context.Context, userID uint, name, surname, email string) ([]model.Contact, error) {
	var matches []model.Contact
	for _, c := range f.contacts {
		if c.UserID != userID {
			continue
		}
		if (name != "" && c.Name == name) ||
			(surname != "" && c.Surname == surname) ||
			(email != "" && c.Email == email) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func (f *fakeContactStore) UpcomingBirthdays(_ context.Context, userID uint, days [][2]int) ([]model.Contact, error) {
	var matches []model.Contact
	for _, c := range f.contacts {
		if c.UserID != userID {
			continue
		}
		dob := time.Time(c.DateOfBirth)
		for _, d := range days {
			if int(dob.Month()) == d[0] && dob.Day() == d[1] {
				matches = append(matches, c)
				break
			}
		}
	}
	return matches, nil
}

func newTestContactService(t *testing.T) (*ContactService, *fakeContactStore) {
	t.Helper()
	store := newFakeContactStore()
	// Redis disabled in config yields the in-process cache client
	cache, err := redis.NewClient(&config.Config{})
	require.NoError(t, err)
	return NewContactService(store, cache), store
}

func withID(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

func createContact(t *testing.T, svc *ContactService, userID uint, name, dob string) *dto.ContactResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), userID, dto.CreateContactRequest{
		Name:        name,
		Surname:     "Tester",
		Email:       name + "@example.com",
		PhoneNumber: "+100000000",
		DateOfBirth: dob,
	})
	require.NoError(t, err)
	return resp
}

func TestContactCreateAndGet(t *testing.T) {
	svc, _ := newTestContactService(t)
	ctx := context.Background()

	created := createContact(t, svc, 1, "Alice", "1990-06-15")
	assert.Equal(t, "1990-06-15", created.DateOfBirth)

	got, err := svc.GetByID(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestContactCreateRejectsBadDate(t *testing.T) {
	svc, _ := newTestContactService(t)

	_, err := svc.Create(context.Background(), 1, dto.CreateContactRequest{
		Name:        "Alice",
		Surname:     "Tester",
		Email:       "alice@example.com",
		PhoneNumber: "+100000000",
		DateOfBirth: "15/06/1990",
	})
	assert.ErrorIs(t, err, domerrors.ErrInvalidInput)
}

func TestContactOwnershipIsolation(t *testing.T) {
	svc, _ := newTestContactService(t)
	ctx := context.Background()

	created := createContact(t, svc, 1, "Alice", "1990-06-15")

	// Another user cannot see, update, or delete the contact
	_, err := svc.GetByID(ctx, 2, created.ID)
	assert.ErrorIs(t, err, domerrors.ErrContactNotFound)

	name := "Hijacked"
	_, err = svc.Update(ctx, 2, created.ID, dto.UpdateContactRequest{Name: &name})
	assert.ErrorIs(t, err, domerrors.ErrContactNotFound)

	err = svc.Delete(ctx, 2, created.ID)
	assert.ErrorIs(t, err, domerrors.ErrContactNotFound)
}

func TestContactPartialUpdate(t *testing.T) {
	svc, _ := newTestContactService(t)
	ctx := context.Background()

	created := createContact(t, svc, 1, "Alice", "1990-06-15")

	phone := "+200000000"
	updated, err := svc.Update(ctx, 1, created.ID, dto.UpdateContactRequest{PhoneNumber: &phone})
	require.NoError(t, err)

	// Untouched fields keep their values
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "+200000000", updated.PhoneNumber)
	assert.Equal(t, "1990-06-15", updated.DateOfBirth)
}

func TestContactListPagination(t *testing.T) {
	svc, _ := newTestContactService(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		createContact(t, svc, 1, name, "1990-01-01")
	}

	page, total, err := svc.List(ctx, 1, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "C", page[0].Name)
}

func TestContactSearchScopedToOwner(t *testing.T) {
	svc, _ := newTestContactService(t)
	ctx := context.Background()

	createContact(t, svc, 1, "Alice", "1990-06-15")
	createContact(t, svc, 2, "Alice", "1985-03-02")

	results, err := svc.Search(ctx, 1, dto.SearchContactRequest{Name: "Alice"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alice@example.com", results[0].Email)
}

func TestUpcomingBirthdaysWindow(t *testing.T) {
	svc, store := newTestContactService(t)
	ctx := context.Background()

	today := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return today }

	store.contacts = []model.Contact{
		{Model: withID(1), Name: "Today", UserID: 1, DateOfBirth: datatypes.Date(time.Date(1990, 8, 28, 0, 0, 0, 0, time.UTC))},
		{Model: withID(2), Name: "InSixDays", UserID: 1, DateOfBirth: datatypes.Date(time.Date(1985, 9, 3, 0, 0, 0, 0, time.UTC))},
		{Model: withID(3), Name: "InEightDays", UserID: 1, DateOfBirth: datatypes.Date(time.Date(1985, 9, 5, 0, 0, 0, 0, time.UTC))},
		{Model: withID(4), Name: "OtherOwner", UserID: 2, DateOfBirth: datatypes.Date(time.Date(1990, 8, 28, 0, 0, 0, 0, time.UTC))},
	}

	results, err := svc.UpcomingBirthdays(ctx, 1)
	require.NoError(t, err)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{"Today", "InSixDays"}, names)
}

func TestUpcomingBirthdaysAcrossYearBoundary(t *testing.T) {
	svc, store := newTestContactService(t)
	ctx := context.Background()

	today := time.Date(2026, 12, 30, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return today }

	store.contacts = []model.Contact{
		{Model: withID(1), Name: "NewYear", UserID: 1, DateOfBirth: datatypes.Date(time.Date(1992, 1, 2, 0, 0, 0, 0, time.UTC))},
	}

	results, err := svc.UpcomingBirthdays(ctx, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "NewYear", results[0].Name)
}

package dto

import (
	"time"

	"github.com/contactdesk/backend/internal/model"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

type CreateContactRequest struct {
	Name        string `json:"name" binding:"required"`
	Surname     string `json:"surname" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	DateOfBirth string `json:"date_of_birth" binding:"required"`
	Description string `json:"description"`
}

// UpdateContactRequest uses pointers so a partial update can tell an
// omitted field from an explicit zero value.
type UpdateContactRequest struct {
	Name        *string `json:"name"`
	Surname     *string `json:"surname"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,phone"`
	DateOfBirth *string `json:"date_of_birth"`
	Description *string `json:"description"`
}

type SearchContactRequest struct {
	Name    string `form:"name"`
	Surname string `form:"surname"`
	Email   string `form:"email"`
}

type ContactResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	DateOfBirth string `json:"date_of_birth"`
	Description string `json:"description"`
}

// ParseDate parses a contact date in the wire format.
func ParseDate(value string) (datatypes.Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

func ToContactResponse(contact *model.Contact) ContactResponse {
	return ContactResponse{
		ID:          contact.ID,
		Name:        contact.Name,
		Surname:     contact.Surname,
		Email:       contact.Email,
		PhoneNumber: contact.PhoneNumber,
		DateOfBirth: time.Time(contact.DateOfBirth).Format(dateLayout),
		Description: contact.Description,
	}
}

func ToContactResponses(contacts []model.Contact) []ContactResponse {
	responses := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		responses = append(responses, ToContactResponse(&contacts[i]))
	}
	return responses
}

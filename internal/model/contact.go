package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Contact belongs to exactly one user; every query against contacts is
// scoped by UserID.
type Contact struct {
	gorm.Model
	Name        string         `gorm:"not null;index" json:"name"`
	Surname     string         `gorm:"not null;index" json:"surname"`
	Email       string         `gorm:"not null;index" json:"email"`
	PhoneNumber string         `gorm:"not null" json:"phone_number"`
	DateOfBirth datatypes.Date `gorm:"not null" json:"date_of_birth"`
	Description string         `json:"description"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
}

func (Contact) TableName() string {
	return "contacts"
}

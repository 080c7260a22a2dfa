package handler

import (
	"time"

	"github.com/okrainets/contactbook/internal/domain"
)

const birthdayFormat = "2006-01-02"

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Confirmed: u.Confirmed,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// ContactDTO is the JSON representation of a contact.
type ContactDTO struct {
	ID          int64   `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phoneNumber"`
	Birthday    *string `json:"birthday"`
	Notes       string  `json:"notes,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toContactDTO(c *domain.Contact) ContactDTO {
	dto := ContactDTO{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
	if c.Birthday != nil {
		b := c.Birthday.Format(birthdayFormat)
		dto.Birthday = &b
	}
	return dto
}

func toContactDTOs(contacts []domain.Contact) []ContactDTO {
	dtos := make([]ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = toContactDTO(&contacts[i])
	}
	return dtos
}

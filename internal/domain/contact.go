package domain

import (
	"context"
	"time"
)

// Contact is an address book entry owned by a single user.
type Contact struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Birthday    *time.Time
	Notes       string
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContactRepository defines persistence operations for contacts. All reads
// and writes are scoped to the owning user.
type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	GetByID(ctx context.Context, ownerID, id int64) (*Contact, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Contact, error)
	Update(ctx context.Context, contact *Contact) error
	Delete(ctx context.Context, ownerID, id int64) error

	// Search returns the owner's contacts whose first name, last name, or
	// email contains the query substring (case-insensitive).
	Search(ctx context.Context, ownerID int64, query string) ([]Contact, error)
}

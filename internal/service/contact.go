package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okrainets/contactbook/internal/domain"
)

// ContactService manages a user's address book entries.
type ContactService struct {
	contacts domain.ContactRepository
}

// NewContactService creates a new ContactService.
func NewContactService(contacts domain.ContactRepository) *ContactService {
	return &ContactService{contacts: contacts}
}

// Create validates and stores a new contact for the owner.
func (s *ContactService) Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if err := validateContact(contact); err != nil {
		return nil, err
	}

	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

// Get returns one of the owner's contacts by id.
func (s *ContactService) Get(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	return s.contacts.GetByID(ctx, ownerID, id)
}

// List returns all of the owner's contacts.
func (s *ContactService) List(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	return s.contacts.ListByOwner(ctx, ownerID)
}

// Update validates and persists changes to one of the owner's contacts.
func (s *ContactService) Update(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if err := validateContact(contact); err != nil {
		return nil, err
	}

	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Delete removes one of the owner's contacts by id.
func (s *ContactService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.contacts.Delete(ctx, ownerID, id)
}

// Search returns the owner's contacts matching the query by first name,
// last name, or email.
func (s *ContactService) Search(ctx context.Context, ownerID int64, query string) ([]domain.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidInput)
	}
	return s.contacts.Search(ctx, ownerID, query)
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls within
// the next seven days, including occurrences that wrap into the next
// calendar year.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	contacts, err := s.contacts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	today := truncateToDate(time.Now())
	weekLater := today.AddDate(0, 0, 7)

	var upcoming []domain.Contact
	for _, contact := range contacts {
		if contact.Birthday == nil {
			continue
		}
		next := nextBirthday(*contact.Birthday, today)
		if !next.After(weekLater) {
			upcoming = append(upcoming, contact)
		}
	}
	return upcoming, nil
}

// nextBirthday returns the first occurrence of the birthday's month and day
// on or after today. A February 29 birthday is observed on March 1 in
// non-leap years.
func nextBirthday(birthday, today time.Time) time.Time {
	next := time.Date(today.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, today.Location())
	if next.Before(today) {
		next = time.Date(today.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, today.Location())
	}
	return next
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func validateContact(contact *domain.Contact) error {
	if strings.TrimSpace(contact.FirstName) == "" || strings.TrimSpace(contact.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(contact.Email) == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okrainets/contactbook/internal/domain"
)

// ContactRepository implements domain.ContactRepository using SQLite.
type ContactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new SQLite-backed ContactRepository.
func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{db: db.SqlDB}
}

const contactColumns = `id, first_name, last_name, email, phone_number, birthday, notes, owner_id, created_at, updated_at`

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (first_name, last_name, email, phone_number, birthday, notes, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.FirstName, contact.LastName, contact.Email, contact.PhoneNumber,
		contact.Birthday, contact.Notes, contact.OwnerID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	contact.ID = id
	contact.CreatedAt = now
	contact.UpdatedAt = now
	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ? AND owner_id = ?`, id, ownerID)

	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query contact by id: %w", err)
	}
	return contact, nil
}

func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE owner_id = ? ORDER BY last_name, first_name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query contacts by owner: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE contacts
		 SET first_name = ?, last_name = ?, email = ?, phone_number = ?, birthday = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		contact.FirstName, contact.LastName, contact.Email, contact.PhoneNumber,
		contact.Birthday, contact.Notes, now, contact.ID, contact.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	contact.UpdatedAt = now
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM contacts WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ContactRepository) Search(ctx context.Context, ownerID int64, query string) ([]domain.Contact, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE owner_id = ?
		   AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)
		 ORDER BY last_name, first_name`,
		ownerID, pattern, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	contact := &domain.Contact{}
	var birthday sql.NullTime
	err := row.Scan(
		&contact.ID, &contact.FirstName, &contact.LastName, &contact.Email,
		&contact.PhoneNumber, &birthday, &contact.Notes, &contact.OwnerID,
		&contact.CreatedAt, &contact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if birthday.Valid {
		t := birthday.Time
		contact.Birthday = &t
	}
	return contact, nil
}

func collectContacts(rows *sql.Rows) ([]domain.Contact, error) {
	var contacts []domain.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/okrainets/contactbook/internal/domain"
	"github.com/okrainets/contactbook/internal/service"
)

// ContactHandler handles address book HTTP requests. Every route requires an
// authenticated user and operates only on that user's contacts.
type ContactHandler struct {
	contacts *service.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contacts *service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

type contactRequest struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phoneNumber"`
	Birthday    *string `json:"birthday"`
	Notes       string  `json:"notes"`
}

func (req *contactRequest) toDomain(ownerID int64) (*domain.Contact, error) {
	contact := &domain.Contact{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Notes:       req.Notes,
		OwnerID:     ownerID,
	}
	if req.Birthday != nil && *req.Birthday != "" {
		birthday, err := time.Parse(birthdayFormat, *req.Birthday)
		if err != nil {
			return nil, err
		}
		contact.Birthday = &birthday
	}
	return contact, nil
}

// HandleCreate creates a contact for the authenticated user.
// POST /api/contacts
func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req contactRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	contact, err := req.toDomain(user.ID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Birthday must be in YYYY-MM-DD format.")
		return
	}

	created, err := h.contacts.Create(r.Context(), contact)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("create contact", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"contact": toContactDTO(created)})
}

// HandleList returns all contacts of the authenticated user.
// GET /api/contacts
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	contacts, err := h.contacts.List(r.Context(), user.ID)
	if err != nil {
		slog.Error("list contacts", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"contacts": toContactDTOs(contacts)})
}

// HandleGet returns a single contact by id.
// GET /api/contacts/{id}
func (h *ContactHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := contactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contact id.")
		return
	}

	contact, err := h.contacts.Get(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contact not found.")
			return
		}
		slog.Error("get contact", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"contact": toContactDTO(contact)})
}

// HandleUpdate updates a contact by id.
// PUT /api/contacts/{id}
func (h *ContactHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := contactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contact id.")
		return
	}

	var req contactRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	contact, err := req.toDomain(user.ID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Birthday must be in YYYY-MM-DD format.")
		return
	}
	contact.ID = id

	updated, err := h.contacts.Update(r.Context(), contact)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Contact not found.")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.Error("update contact", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"contact": toContactDTO(updated)})
}

// HandleDelete deletes a contact by id.
// DELETE /api/contacts/{id}
func (h *ContactHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := contactID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contact id.")
		return
	}

	if err := h.contacts.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contact not found.")
			return
		}
		slog.Error("delete contact", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Contact deleted."})
}

// HandleSearch searches the user's contacts by name or email.
// GET /api/contacts/search?q=...
func (h *ContactHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	contacts, err := h.contacts.Search(r.Context(), user.ID, r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "Search query is required.")
			return
		}
		slog.Error("search contacts", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"contacts": toContactDTOs(contacts)})
}

// HandleBirthdays lists contacts with birthdays in the next seven days.
// GET /api/contacts/birthdays
func (h *ContactHandler) HandleBirthdays(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	contacts, err := h.contacts.UpcomingBirthdays(r.Context(), user.ID)
	if err != nil {
		slog.Error("list upcoming birthdays", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"contacts": toContactDTOs(contacts)})
}

func contactID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

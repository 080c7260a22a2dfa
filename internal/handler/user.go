package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/okrainets/contactbook/internal/domain"
	"github.com/okrainets/contactbook/internal/service"
)

// UserHandler handles profile-related HTTP requests.
type UserHandler struct {
	avatars *service.AvatarService
}

// NewUserHandler creates a new UserHandler. The avatar service may be nil
// when object storage is not configured.
func NewUserHandler(avatars *service.AvatarService) *UserHandler {
	return &UserHandler{avatars: avatars}
}

// HandleMe returns the currently authenticated user's profile.
// GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}

// HandleUpdateAvatar stores an uploaded avatar image and updates the user's
// avatar URL.
// PATCH /api/users/me/avatar (multipart form, field "file")
func (h *UserHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	if h.avatars == nil {
		writeError(w, http.StatusServiceUnavailable, "Avatar storage is not configured.")
		return
	}

	if err := r.ParseMultipartForm(service.MaxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file was provided.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxAvatarBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded file.")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	updated, err := h.avatars.UpdateAvatar(r.Context(), user, data, contentType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("update avatar", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(updated)})
}

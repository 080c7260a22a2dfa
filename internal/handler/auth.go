package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/okrainets/contactbook/internal/domain"
	"github.com/okrainets/contactbook/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleSignup processes a JSON registration request.
// POST /api/auth/signup
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}, "detail": "..."}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Account already exists.")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("register user", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":   toUserDTO(user),
		"detail": "User successfully created. Check your email for confirmation.",
	})
}

// HandleLogin verifies credentials and returns a token pair.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"access_token":"...","refresh_token":"...","token_type":"bearer"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidEmail):
			writeError(w, http.StatusUnauthorized, "Invalid email.")
		case errors.Is(err, domain.ErrEmailNotConfirmed):
			writeError(w, http.StatusUnauthorized, "Email not confirmed.")
		case errors.Is(err, domain.ErrInvalidPassword):
			writeError(w, http.StatusUnauthorized, "Invalid password.")
		default:
			slog.Error("login user", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	writeTokenPair(w, pair)
}

// HandleRefresh rotates a refresh token and returns a new token pair.
// POST /api/auth/refresh
// Request:  {"refresh_token":"..."}
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid refresh token.")
			return
		}
		slog.Error("refresh token", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeTokenPair(w, pair)
}

// HandleConfirmEmail confirms the email address embedded in the token.
// GET /api/auth/confirm/{token}
func (h *AuthHandler) HandleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	result, err := h.auth.ConfirmEmail(r.Context(), r.PathValue("token"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnprocessableToken):
			writeError(w, http.StatusUnprocessableEntity, "Invalid token for email verification.")
		case errors.Is(err, domain.ErrVerification):
			writeError(w, http.StatusBadRequest, "Verification error.")
		default:
			slog.Error("confirm email", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	message := "Email confirmed."
	if result == service.AlreadyConfirmed {
		message = "Your email is already confirmed."
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// HandleRequestConfirmation re-sends the confirmation email.
// POST /api/auth/request-confirmation
// Request: {"email":"..."}
func (h *AuthHandler) HandleRequestConfirmation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	result, err := h.auth.RequestConfirmation(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Do not reveal whether the address has an account.
			writeJSON(w, http.StatusOK, map[string]string{"message": "Check your email for confirmation."})
			return
		}
		slog.Error("request confirmation", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	message := "Check your email for confirmation."
	if result == service.AlreadyConfirmed {
		message = "Your email is already confirmed."
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func writeTokenPair(w http.ResponseWriter, pair *service.TokenPair) {
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	})
}

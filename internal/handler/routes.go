package handler

import (
	"net/http"

	"github.com/okrainets/contactbook/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. The avatar
// service may be nil when object storage is not configured.
func RegisterRoutes(
	mux *http.ServeMux,
	authService *service.AuthService,
	contactService *service.ContactService,
	avatarService *service.AvatarService,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(avatarService)
	contactHandler := NewContactHandler(contactService)

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.HandleFunc("GET /{$}", HandleHome)

	mux.HandleFunc("POST /api/auth/signup", authHandler.HandleSignup)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.HandleRefresh)
	mux.HandleFunc("GET /api/auth/confirm/{token}", authHandler.HandleConfirmEmail)
	mux.HandleFunc("POST /api/auth/request-confirmation", authHandler.HandleRequestConfirmation)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(authService, h)
	}

	mux.Handle("GET /api/users/me", requireAuth(userHandler.HandleMe))
	mux.Handle("PATCH /api/users/me/avatar", requireAuth(userHandler.HandleUpdateAvatar))

	mux.Handle("POST /api/contacts", requireAuth(contactHandler.HandleCreate))
	mux.Handle("GET /api/contacts", requireAuth(contactHandler.HandleList))
	mux.Handle("GET /api/contacts/search", requireAuth(contactHandler.HandleSearch))
	mux.Handle("GET /api/contacts/birthdays", requireAuth(contactHandler.HandleBirthdays))
	mux.Handle("GET /api/contacts/{id}", requireAuth(contactHandler.HandleGet))
	mux.Handle("PUT /api/contacts/{id}", requireAuth(contactHandler.HandleUpdate))
	mux.Handle("DELETE /api/contacts/{id}", requireAuth(contactHandler.HandleDelete))
}

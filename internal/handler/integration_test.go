package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/okrainets/contactbook/internal/handler"
	"github.com/okrainets/contactbook/internal/repository/sqlite"
	"github.com/okrainets/contactbook/internal/service"
)

const testJWTSecret = "test-secret-key-for-http-tests-0123456789"

type sentMail struct {
	recipient string
	token     string
}

// fakeMailer captures confirmation dispatches so tests can follow the
// confirmation link.
type fakeMailer struct {
	sent chan sentMail
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 16)}
}

func (m *fakeMailer) SendConfirmation(ctx context.Context, recipient, token string) error {
	m.sent <- sentMail{recipient: recipient, token: token}
	return nil
}

func (m *fakeMailer) waitForSend(t *testing.T) sentMail {
	t.Helper()
	select {
	case mail := <-m.sent:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for confirmation email dispatch")
		return sentMail{}
	}
}

// fakeAvatarStore serves uploads from a fixed URL base.
type fakeAvatarStore struct{}

func (fakeAvatarStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeMailer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mail := newFakeMailer()
	tokens := service.NewTokenService(testJWTSecret, 15*time.Minute)
	authService := service.NewAuthService(db.Users(), service.NewPasswordHasher(4), tokens, mail)
	contactService := service.NewContactService(db.Contacts())
	avatarService := service.NewAvatarService(db.Users(), fakeAvatarStore{})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, contactService, avatarService)

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv, mail
}

// doJSON sends a JSON request and decodes the JSON response body into a map.
func doJSON(t *testing.T, method, url, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return resp.StatusCode, decoded
}

// signupAndLogin registers a user, confirms the email through the link from
// the captured mail, logs in, and returns the access token.
func signupAndLogin(t *testing.T, srv *httptest.Server, mail *fakeMailer, email, password string) string {
	t.Helper()

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "",
		map[string]string{"email": email, "password": password})
	if status != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", status)
	}

	sent := mail.waitForSend(t)
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/api/auth/confirm/"+sent.token, "", nil)
	if status != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d", status)
	}

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
		map[string]string{"email": email, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", status)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatal("expected a non-empty access token")
	}
	return token
}

func TestAPI_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestAPI_SecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected DENY, got %q", got)
	}
}

func TestAPI_SignupFlow(t *testing.T) {
	srv, mail := newTestServer(t)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "",
		map[string]string{"email": "bob@x.com", "password": "secret123"})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", status, body)
	}
	user, _ := body["user"].(map[string]any)
	if user == nil || user["email"] != "bob@x.com" {
		t.Fatalf("unexpected user payload: %v", body)
	}
	if user["confirmed"] != false {
		t.Fatal("expected a new user to be unconfirmed")
	}

	sent := mail.waitForSend(t)
	if sent.recipient != "bob@x.com" {
		t.Fatalf("expected mail to bob@x.com, got %s", sent.recipient)
	}

	// Login before confirmation is rejected.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
		map[string]string{"email": "bob@x.com", "password": "secret123"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 before confirmation, got %d", status)
	}
	if body["error"] != "Email not confirmed." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}

	// Confirm via the emailed token.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/auth/confirm/"+sent.token, "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on confirm, got %d", status)
	}
	if body["message"] != "Email confirmed." {
		t.Fatalf("unexpected confirm message: %v", body["message"])
	}

	// Confirming again is a friendly no-op.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/auth/confirm/"+sent.token, "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on repeat confirm, got %d", status)
	}
	if body["message"] != "Your email is already confirmed." {
		t.Fatalf("unexpected repeat confirm message: %v", body["message"])
	}

	// Login now succeeds and returns a token pair.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
		map[string]string{"email": "bob@x.com", "password": "secret123"})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d", status)
	}
	if body["access_token"] == "" || body["refresh_token"] == "" {
		t.Fatalf("expected token pair, got %v", body)
	}
	if body["token_type"] != "bearer" {
		t.Fatalf("expected token_type bearer, got %v", body["token_type"])
	}
}

func TestAPI_SignupDuplicate(t *testing.T) {
	srv, mail := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "",
		map[string]string{"email": "dup@x.com", "password": "secret123"})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	mail.waitForSend(t)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "",
		map[string]string{"email": "dup@x.com", "password": "secret123"})
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if body["error"] != "Account already exists." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestAPI_SignupWeakPassword(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "",
		map[string]string{"email": "weak@x.com", "password": "short"})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
}

func TestAPI_ConfirmBadToken(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := doJSON(t, http.MethodGet, srv.URL+"/api/auth/confirm/garbage", "", nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for garbage token, got %d", status)
	}
}

func TestAPI_RefreshRotation(t *testing.T) {
	srv, mail := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "",
		map[string]string{"email": "rot@x.com", "password": "secret123"})
	if status != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", status)
	}
	sent := mail.waitForSend(t)
	doJSON(t, http.MethodGet, srv.URL+"/api/auth/confirm/"+sent.token, "", nil)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
		map[string]string{"email": "rot@x.com", "password": "secret123"})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", status)
	}
	oldRefresh, _ := body["refresh_token"].(string)

	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "",
		map[string]string{"refresh_token": oldRefresh})
	if status != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", status)
	}
	newRefresh, _ := body["refresh_token"].(string)
	if newRefresh == "" || newRefresh == oldRefresh {
		t.Fatal("expected the refresh token to be rotated")
	}

	// The superseded token is rejected.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "",
		map[string]string{"refresh_token": oldRefresh})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a superseded refresh token, got %d", status)
	}
}

func TestAPI_RequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		bearer string
	}{
		{"no token", ""},
		{"malformed token", "not-a-jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/users/me", nil)
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("do request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.StatusCode)
			}
			if resp.Header.Get("WWW-Authenticate") != "Bearer" {
				t.Fatal("expected WWW-Authenticate: Bearer header")
			}
		})
	}
}

func TestAPI_Me(t *testing.T) {
	srv, mail := newTestServer(t)
	token := signupAndLogin(t, srv, mail, "me@x.com", "secret123")

	status, body := doJSON(t, http.MethodGet, srv.URL+"/api/users/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	user, _ := body["user"].(map[string]any)
	if user == nil || user["email"] != "me@x.com" {
		t.Fatalf("unexpected user payload: %v", body)
	}
	if user["confirmed"] != true {
		t.Fatal("expected user to be confirmed")
	}
}

func TestAPI_ContactLifecycle(t *testing.T) {
	srv, mail := newTestServer(t)
	token := signupAndLogin(t, srv, mail, "crud@x.com", "secret123")

	// Create.
	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/contacts", token,
		map[string]any{
			"firstName":   "Alice",
			"lastName":    "Smith",
			"email":       "alice@x.com",
			"phoneNumber": "+380501112233",
			"birthday":    "1990-06-15",
		})
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %v", status, body)
	}
	contact, _ := body["contact"].(map[string]any)
	if contact == nil {
		t.Fatalf("expected a contact payload, got %v", body)
	}
	id := int64(contact["id"].(float64))
	if got, _ := contact["birthday"].(string); got != "1990-06-15" {
		t.Fatalf("expected birthday 1990-06-15, got %q", got)
	}

	// Get.
	status, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/contacts/%d", srv.URL, id), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", status)
	}

	// Update.
	status, body = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/contacts/%d", srv.URL, id), token,
		map[string]any{
			"firstName":   "Alice",
			"lastName":    "Johnson",
			"email":       "alice.j@x.com",
			"phoneNumber": "+380501112233",
		})
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %v", status, body)
	}
	contact, _ = body["contact"].(map[string]any)
	if contact["lastName"] != "Johnson" {
		t.Fatalf("expected updated last name, got %v", contact["lastName"])
	}

	// List.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/contacts", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	contacts, _ := body["contacts"].([]any)
	if len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(contacts))
	}

	// Search.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/contacts/search?q=johnson", token, nil)
	if status != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", status)
	}
	contacts, _ = body["contacts"].([]any)
	if len(contacts) != 1 {
		t.Fatalf("expected 1 search result, got %d", len(contacts))
	}

	status, _ = doJSON(t, http.MethodGet, srv.URL+"/api/contacts/search", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing query, got %d", status)
	}

	// Delete.
	status, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/contacts/%d", srv.URL, id), token, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/contacts/%d", srv.URL, id), token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestAPI_ContactValidation(t *testing.T) {
	srv, mail := newTestServer(t)
	token := signupAndLogin(t, srv, mail, "val@x.com", "secret123")

	// Missing required fields.
	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/contacts", token,
		map[string]any{"firstName": "Only"})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing fields, got %d", status)
	}

	// Malformed birthday.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/contacts", token,
		map[string]any{
			"firstName": "Bad",
			"lastName":  "Date",
			"email":     "bd@x.com",
			"birthday":  "15/06/1990",
		})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for malformed birthday, got %d", status)
	}
}

func TestAPI_ContactIsolationBetweenUsers(t *testing.T) {
	srv, mail := newTestServer(t)
	aliceToken := signupAndLogin(t, srv, mail, "alice@x.com", "secret123")
	bobToken := signupAndLogin(t, srv, mail, "bob@x.com", "secret123")

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/contacts", aliceToken,
		map[string]any{"firstName": "Secret", "lastName": "Friend", "email": "sf@x.com"})
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", status)
	}
	contact, _ := body["contact"].(map[string]any)
	id := int64(contact["id"].(float64))

	status, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/contacts/%d", srv.URL, id), bobToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's contact, got %d", status)
	}

	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/contacts", bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", status)
	}
	contacts, _ := body["contacts"].([]any)
	if len(contacts) != 0 {
		t.Fatalf("expected no contacts for bob, got %d", len(contacts))
	}
}

func TestAPI_UpcomingBirthdays(t *testing.T) {
	srv, mail := newTestServer(t)
	token := signupAndLogin(t, srv, mail, "bd@x.com", "secret123")

	soon := time.Now().AddDate(-30, 0, 3).Format("2006-01-02")
	far := time.Now().AddDate(-30, 0, 60).Format("2006-01-02")

	for _, c := range []map[string]any{
		{"firstName": "Soon", "lastName": "Birthday", "email": "soon@x.com", "birthday": soon},
		{"firstName": "Far", "lastName": "Birthday", "email": "far@x.com", "birthday": far},
	} {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/contacts", token, c)
		if status != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d", status)
		}
	}

	status, body := doJSON(t, http.MethodGet, srv.URL+"/api/contacts/birthdays", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	contacts, _ := body["contacts"].([]any)
	if len(contacts) != 1 {
		t.Fatalf("expected 1 upcoming birthday, got %d", len(contacts))
	}
	first, _ := contacts[0].(map[string]any)
	if first["firstName"] != "Soon" {
		t.Fatalf("expected Soon, got %v", first["firstName"])
	}
}

func TestAPI_AvatarUpload(t *testing.T) {
	srv, mail := newTestServer(t)
	token := signupAndLogin(t, srv, mail, "ava@x.com", "secret123")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="avatar.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("fake png bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/api/users/me/avatar", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	user, _ := body["user"].(map[string]any)
	avatarURL, _ := user["avatarUrl"].(string)
	if avatarURL == "" {
		t.Fatal("expected a non-empty avatar URL")
	}

	// The new URL shows up on the profile.
	status, body := doJSON(t, http.MethodGet, srv.URL+"/api/users/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", status)
	}
	user, _ = body["user"].(map[string]any)
	if user["avatarUrl"] != avatarURL {
		t.Fatalf("expected persisted avatar URL %s, got %v", avatarURL, user["avatarUrl"])
	}
}

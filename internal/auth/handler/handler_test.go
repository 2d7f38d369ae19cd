package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"workspace-kit/internal/audit"
	authdomain "workspace-kit/internal/auth/domain"
	"workspace-kit/internal/auth/service"
	"workspace-kit/internal/security"
	"workspace-kit/internal/server/cookies"
	userdomain "workspace-kit/internal/user/domain"
	workspacedomain "workspace-kit/internal/workspace/domain"
)

// mockAuthStore backs both the auth and user repository interfaces.
type mockAuthStore struct {
	mu            sync.Mutex
	users         map[string]*userdomain.User
	verifications map[string]*authdomain.EmailVerification
	resets        map[string]*authdomain.PasswordReset
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{
		users:         make(map[string]*userdomain.User),
		verifications: make(map[string]*authdomain.EmailVerification),
		resets:        make(map[string]*authdomain.PasswordReset),
	}
}

func (m *mockAuthStore) CreateUser(ctx context.Context, u *userdomain.User, v *authdomain.EmailVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.verifications[v.Token] = v
	return nil
}

func (m *mockAuthStore) GetEmailVerification(ctx context.Context, token string) (*authdomain.EmailVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifications[token], nil
}

func (m *mockAuthStore) MarkEmailVerified(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.EmailVerified = true
	}
	return nil
}

func (m *mockAuthStore) SavePasswordReset(ctx context.Context, reset *authdomain.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[reset.Token] = reset
	return nil
}

func (m *mockAuthStore) GetPasswordReset(ctx context.Context, token string) (*authdomain.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[token], nil
}

func (m *mockAuthStore) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Password = passwordHash
	}
	return nil
}

func (m *mockAuthStore) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *mockAuthStore) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type nopMailer struct{}

func (nopMailer) SendVerification(context.Context, string, string, string) error { return nil }
func (nopMailer) SendWelcome(context.Context, string, string) error              { return nil }
func (nopMailer) SendPasswordReset(context.Context, string, string, string) error {
	return nil
}
func (nopMailer) SendEmailChange(context.Context, string, string, string) error { return nil }

type nilResolver struct {
	access *workspacedomain.Access
}

func (r *nilResolver) ResolveAccess(ctx context.Context, userID, workspaceID string) (*workspacedomain.Access, error) {
	return r.access, nil
}

func newTestHandler(store *mockAuthStore, resolver AccessResolver) http.Handler {
	hasher := security.NewHasher(4)
	tokens := security.NewTokenProvider([]byte("test-secret"), time.Hour)
	svc := service.NewAuthService(store, store, hasher, tokens, nopMailer{})
	h := NewHandler(svc, resolver, audit.NopLogger{}, "", time.Hour)
	r := mux.NewRouter()
	h.Register(r.PathPrefix("/auth").Subrouter())
	return r
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegister_Created(t *testing.T) {
	store := newMockAuthStore()
	h := newTestHandler(store, &nilResolver{})

	rec := postJSON(t, h, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"password123","passwordConfirm":"password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(store.users) != 1 {
		t.Fatalf("users = %d, want 1", len(store.users))
	}
}

func TestRegister_PasswordMismatch_BadRequest(t *testing.T) {
	store := newMockAuthStore()
	h := newTestHandler(store, &nilResolver{})

	rec := postJSON(t, h, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"password123","passwordConfirm":"other"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegister_DuplicateEmail_Conflict(t *testing.T) {
	store := newMockAuthStore()
	h := newTestHandler(store, &nilResolver{})

	first := postJSON(t, h, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"password123","passwordConfirm":"password123"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d", first.Code)
	}
	rec := postJSON(t, h, "/auth/register", `{"name":"Other","email":"alice@example.com","password":"password456","passwordConfirm":"password456"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "EmailExists") {
		t.Fatalf("body = %s, want EmailExists", rec.Body.String())
	}
}

func TestLogin_WrongPassword_BadRequest(t *testing.T) {
	store := newMockAuthStore()
	h := newTestHandler(store, &nilResolver{})
	postJSON(t, h, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"password123","passwordConfirm":"password123"}`)

	rec := postJSON(t, h, "/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "WrongCredentials") {
		t.Fatalf("body = %s, want WrongCredentials", rec.Body.String())
	}
}

func TestLogin_UnknownEmail_SameAsWrongPassword(t *testing.T) {
	store := newMockAuthStore()
	h := newTestHandler(store, &nilResolver{})

	rec := postJSON(t, h, "/auth/login", `{"email":"nobody@example.com","password":"password123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "WrongCredentials") {
		t.Fatalf("body = %s, want WrongCredentials", rec.Body.String())
	}
}

func TestLogin_Success_SetsSessionCookie(t *testing.T) {
	store := newMockAuthStore()
	access := &workspacedomain.Access{
		Workspace: workspacedomain.Workspace{ID: "11111111-1111-1111-1111-111111111111", Name: "Acme", IsDefault: true},
		RoleName:  "Admin",
	}
	h := newTestHandler(store, &nilResolver{access: access})
	postJSON(t, h, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"password123","passwordConfirm":"password123"}`)

	rec := postJSON(t, h, "/auth/login", `{"email":"alice@example.com","password":"password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
		Token  string `json:"token"`
		Data   struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
			Workspace *struct {
				Workspace struct {
					Name string `json:"name"`
				} `json:"workspace"`
			} `json:"workspace"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("no token in response")
	}
	if resp.Data.User.Email != "alice@example.com" {
		t.Fatalf("email = %q", resp.Data.User.Email)
	}
	if resp.Data.Workspace == nil || resp.Data.Workspace.Workspace.Name != "Acme" {
		t.Fatalf("workspace = %+v, want Acme", resp.Data.Workspace)
	}

	var session, workspace bool
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case cookies.SessionName:
			session = c.Value != ""
		case cookies.WorkspaceName:
			workspace = c.Value != ""
		}
	}
	if !session {
		t.Fatal("session cookie not set")
	}
	if !workspace {
		t.Fatal("workspace cookie not set")
	}
}

func TestLogin_NoMembership_NilWorkspace(t *testing.T) {
	store := newMockAuthStore()
	h := newTestHandler(store, &nilResolver{})
	postJSON(t, h, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"password123","passwordConfirm":"password123"}`)

	rec := postJSON(t, h, "/auth/login", `{"email":"alice@example.com","password":"password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Workspace *json.RawMessage `json:"workspace"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Workspace != nil && string(*resp.Data.Workspace) != "null" {
		t.Fatalf("workspace = %s, want null", string(*resp.Data.Workspace))
	}
}

func TestVerify_RedeemsTokenAndIssuesSession(t *testing.T) {
	store := newMockAuthStore()
	h := newTestHandler(store, &nilResolver{})
	postJSON(t, h, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"password123","passwordConfirm":"password123"}`)

	var token string
	for tok := range store.verifications {
		token = tok
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/verify?token="+token, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	for _, u := range store.users {
		if !u.EmailVerified {
			t.Fatal("user not marked verified")
		}
	}
	var session bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookies.SessionName && c.Value != "" {
			session = true
		}
	}
	if !session {
		t.Fatal("session cookie not set after verification")
	}
}

func TestVerify_MalformedToken_BadRequest(t *testing.T) {
	store := newMockAuthStore()
	h := newTestHandler(store, &nilResolver{})

	req := httptest.NewRequest(http.MethodGet, "/auth/verify?token=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestResetPassword_RoundTrip(t *testing.T) {
	store := newMockAuthStore()
	h := newTestHandler(store, &nilResolver{})
	postJSON(t, h, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"password123","passwordConfirm":"password123"}`)

	if rec := postJSON(t, h, "/auth/forgot-password", `{"email":"alice@example.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("forgot: status = %d: %s", rec.Code, rec.Body.String())
	}
	var token string
	for tok := range store.resets {
		token = tok
	}
	if rec := postJSON(t, h, "/auth/reset-password", `{"token":"`+token+`","password":"newpassword","passwordConfirm":"newpassword"}`); rec.Code != http.StatusOK {
		t.Fatalf("reset: status = %d: %s", rec.Code, rec.Body.String())
	}

	if rec := postJSON(t, h, "/auth/login", `{"email":"alice@example.com","password":"newpassword"}`); rec.Code != http.StatusOK {
		t.Fatalf("login with new password: status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := postJSON(t, h, "/auth/login", `{"email":"alice@example.com","password":"password123"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("login with old password: status = %d, want 400", rec.Code)
	}
}

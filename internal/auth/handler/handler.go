// Package handler exposes the authentication flows over HTTP: registration,
// login, email verification and password recovery.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"workspace-kit/internal/audit"
	"workspace-kit/internal/auth/service"
	"workspace-kit/internal/db"
	"workspace-kit/internal/httperr"
	"workspace-kit/internal/server/cookies"
	userdomain "workspace-kit/internal/user/domain"
	workspacedomain "workspace-kit/internal/workspace/domain"
	workspacehandler "workspace-kit/internal/workspace/handler"
)

// AccessResolver resolves the workspace context attached to a fresh session.
type AccessResolver interface {
	ResolveAccess(ctx context.Context, userID, workspaceID string) (*workspacedomain.Access, error)
}

// UserBody is the caller-facing shape of a user account.
type UserBody struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserBody strips the credential fields off a user record.
func NewUserBody(u *userdomain.User) UserBody {
	return UserBody{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Verified:  u.EmailVerified,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type loginData struct {
	User      UserBody                     `json:"user"`
	Workspace *workspacehandler.AccessBody `json:"workspace"`
}

type loginResponse struct {
	Status string    `json:"status"`
	Token  string    `json:"token"`
	Data   loginData `json:"data"`
}

// Handler serves the /auth routes.
type Handler struct {
	auth            *service.AuthService
	workspaces      AccessResolver
	auditor         audit.Logger
	frontendBaseURL string
	cookieTTL       time.Duration
}

// NewHandler returns an auth handler. frontendBaseURL is where verified users
// are redirected after following the verification link.
func NewHandler(auth *service.AuthService, workspaces AccessResolver, auditor audit.Logger, frontendBaseURL string, cookieTTL time.Duration) *Handler {
	return &Handler{
		auth:            auth,
		workspaces:      workspaces,
		auditor:         auditor,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
		cookieTTL:       cookieTTL,
	}
}

// Register mounts the auth routes on r. All of them are public.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/verify", h.verify).Methods(http.MethodGet)
	r.HandleFunc("/forgot-password", h.forgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", h.resetPassword).Methods(http.MethodPost)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid request body"))
		return
	}
	if strings.TrimSpace(body.Name) == "" || body.Email == "" || body.Password == "" {
		httperr.Write(w, httperr.BadRequest("Name, email and password are required"))
		return
	}
	if body.Password != body.PasswordConfirm {
		httperr.Write(w, httperr.BadRequest("Passwords do not match"))
		return
	}

	if err := h.auth.Register(r.Context(), body.Name, body.Email, body.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyRegistered) || db.IsUniqueViolation(err):
			httperr.Write(w, httperr.Conflict(httperr.MsgEmailExists))
		case errors.Is(err, service.ErrVerificationMail):
			httperr.Write(w, httperr.ServerError("We were unable to send your verification email. Please try again later"))
		case errors.Is(err, service.ErrInvalidEmail):
			httperr.Write(w, httperr.BadRequest("Invalid email address"))
		default:
			httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		}
		return
	}
	h.auditor.LogEvent(r.Context(), "", "", "auth.register", map[string]string{"email": strings.ToLower(strings.TrimSpace(body.Email))})
	httperr.WriteMessage(w, http.StatusCreated, "Registration successful. Please check your email to verify your account")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid request body"))
		return
	}

	token, user, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httperr.Write(w, httperr.BadRequest(httperr.MsgWrongCredentials))
			return
		}
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	cookies.SetSession(w, token, h.cookieTTL)
	h.auditor.LogEvent(r.Context(), user.ID, "", "auth.login", nil)

	resp := loginResponse{Status: "success", Token: token}
	resp.Data.User = NewUserBody(user)
	// Default workspace context is best effort. A user without any membership
	// still logs in with a nil workspace.
	if access, err := h.workspaces.ResolveAccess(r.Context(), user.ID, ""); err == nil && access != nil {
		cookies.SetWorkspace(w, access.Workspace.ID, h.cookieTTL)
		body := workspacehandler.NewAccessBody(access)
		resp.Data.Workspace = &body
	}
	httperr.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	sessionToken, user, err := h.auth.VerifyEmail(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			httperr.Write(w, httperr.BadRequest("Invalid verification token"))
		case errors.Is(err, service.ErrTokenExpired):
			httperr.Write(w, httperr.BadRequest("Verification token has expired"))
		default:
			httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		}
		return
	}
	cookies.SetSession(w, sessionToken, h.cookieTTL)
	h.auditor.LogEvent(r.Context(), user.ID, "", "auth.verify_email", nil)

	if h.frontendBaseURL != "" {
		if target, err := url.Parse(h.frontendBaseURL); err == nil {
			http.Redirect(w, r, target.String(), http.StatusSeeOther)
			return
		}
	}
	httperr.WriteMessage(w, http.StatusOK, "Email verified successfully")
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid request body"))
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), body.Email); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httperr.Write(w, httperr.BadRequest(httperr.MsgWrongCredentials))
			return
		}
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	httperr.WriteMessage(w, http.StatusOK, "Password reset email sent")
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid request body"))
		return
	}
	if body.Password == "" {
		httperr.Write(w, httperr.BadRequest("Password is required"))
		return
	}
	if body.Password != body.PasswordConfirm {
		httperr.Write(w, httperr.BadRequest("Passwords do not match"))
		return
	}
	if err := h.auth.ResetPassword(r.Context(), body.Token, body.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			httperr.Write(w, httperr.BadRequest("Invalid reset token"))
		case errors.Is(err, service.ErrTokenExpired):
			httperr.Write(w, httperr.BadRequest("Reset token has expired"))
		default:
			httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		}
		return
	}
	httperr.WriteMessage(w, http.StatusOK, "Password reset successfully")
}

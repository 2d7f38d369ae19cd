// Package handler exposes account self-service: profile read, password
// change and the two-step email change.
package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"workspace-kit/internal/audit"
	"workspace-kit/internal/db"
	"workspace-kit/internal/httperr"
	"workspace-kit/internal/mail"
	"workspace-kit/internal/security"
	"workspace-kit/internal/server/middleware"
	"workspace-kit/internal/user/repository"
)

const emailChangeValidity = 24 * time.Hour

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type userBody struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type meResponse struct {
	Status string `json:"status"`
	Data   struct {
		User userBody `json:"user"`
	} `json:"data"`
}

// Handler serves the /users routes.
type Handler struct {
	repo    repository.Repository
	hasher  *security.Hasher
	mailer  mail.Sender
	auditor audit.Logger
}

// NewHandler returns a user handler.
func NewHandler(repo repository.Repository, hasher *security.Hasher, mailer mail.Sender, auditor audit.Logger) *Handler {
	return &Handler{repo: repo, hasher: hasher, mailer: mailer, auditor: auditor}
}

// Register mounts the account routes on r. Everything except the email change
// confirmation link requires an authenticated user.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/me", h.me).Methods(http.MethodGet)
	r.HandleFunc("/update-password", h.updatePassword).Methods(http.MethodPut)
	r.HandleFunc("/change-email", h.changeEmail).Methods(http.MethodPut)
}

// RegisterPublic mounts the routes that must work without a session. The
// email change confirmation is followed from a mail client.
func (h *Handler) RegisterPublic(r *mux.Router) {
	r.HandleFunc("/verify-email-change", h.verifyEmailChange).Methods(http.MethodGet)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.Unauthorized(httperr.MsgTokenNotProvided))
		return
	}
	resp := meResponse{Status: "success"}
	resp.Data.User = userBody{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Verified:  user.EmailVerified,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	httperr.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.Unauthorized(httperr.MsgTokenNotProvided))
		return
	}
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid request body"))
		return
	}
	if body.NewPassword == "" {
		httperr.Write(w, httperr.BadRequest("New password is required"))
		return
	}
	if body.NewPassword != body.ConfirmPassword {
		httperr.Write(w, httperr.BadRequest("Passwords do not match"))
		return
	}
	if !h.hasher.Verify(body.CurrentPassword, user.Password) {
		httperr.Write(w, httperr.Unauthorized("Current password is incorrect"))
		return
	}

	hashed, err := h.hasher.Hash(body.NewPassword)
	if err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	if err := h.repo.UpdatePassword(r.Context(), user.ID, hashed); err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.auditor.LogEvent(r.Context(), user.ID, "", "user.update_password", nil)
	httperr.WriteMessage(w, http.StatusOK, "Password updated successfully")
}

func (h *Handler) changeEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.Unauthorized(httperr.MsgTokenNotProvided))
		return
	}
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid request body"))
		return
	}
	email := strings.TrimSpace(strings.ToLower(body.Email))
	if !emailRe.MatchString(email) {
		httperr.Write(w, httperr.BadRequest("Invalid email address"))
		return
	}
	if email == user.Email {
		httperr.Write(w, httperr.BadRequest("New email matches the current one"))
		return
	}

	token := uuid.New().String()
	updated, err := h.repo.RequestEmailChange(r.Context(), user.ID, email, token, time.Now().UTC().Add(emailChangeValidity))
	if err != nil {
		if db.IsUniqueViolation(err) {
			httperr.Write(w, httperr.Conflict(httperr.MsgEmailExists))
			return
		}
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	if updated == nil {
		httperr.Write(w, httperr.Unauthorized(httperr.MsgUserNoLongerExists))
		return
	}

	// The confirmation link goes to the address being claimed, proving the
	// requester controls it.
	if err := h.mailer.SendEmailChange(r.Context(), email, user.Name, token); err != nil {
		httperr.Write(w, httperr.ServerError("We were unable to send your email change request. Please try again later"))
		return
	}
	h.auditor.LogEvent(r.Context(), user.ID, "", "user.change_email_requested", map[string]string{"pending_email": email})
	httperr.WriteMessage(w, http.StatusOK, "Confirmation email sent to the new address")
}

func (h *Handler) verifyEmailChange(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if _, err := uuid.Parse(token); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid email change token"))
		return
	}
	changed, err := h.repo.ConfirmEmailChange(r.Context(), token)
	if err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	if !changed {
		httperr.Write(w, httperr.BadRequest("Invalid email change token"))
		return
	}
	h.auditor.LogEvent(r.Context(), "", "", "user.change_email_confirmed", nil)
	httperr.WriteMessage(w, http.StatusOK, "Email changed successfully")
}

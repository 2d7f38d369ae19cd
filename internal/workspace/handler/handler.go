// Package handler exposes workspace CRUD, listing and the shared workspace
// access payload over HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"workspace-kit/internal/audit"
	"workspace-kit/internal/db"
	"workspace-kit/internal/httperr"
	"workspace-kit/internal/permission"
	"workspace-kit/internal/server/cookies"
	"workspace-kit/internal/server/middleware"
	"workspace-kit/internal/workspace/domain"
	"workspace-kit/internal/workspace/repository"
)

// WorkspaceBody is the JSON shape of a workspace in responses.
type WorkspaceBody struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID string    `json:"owner_user_id"`
	InviteCode  string    `json:"invite_code"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AccessBody is the caller's resolved view of a workspace: the workspace,
// their role in it and the permission names that role grants.
type AccessBody struct {
	Workspace   WorkspaceBody `json:"workspace"`
	RoleID      string        `json:"role_id"`
	RoleName    string        `json:"role_name"`
	Permissions []string      `json:"permissions"`
}

// NewAccessBody converts a resolved access into its response shape. The
// admin role reports the full catalog.
func NewAccessBody(a *domain.Access) AccessBody {
	return AccessBody{
		Workspace: WorkspaceBody{
			ID:          a.Workspace.ID,
			Name:        a.Workspace.Name,
			OwnerUserID: a.Workspace.OwnerUserID,
			InviteCode:  a.Workspace.InviteCode,
			IsDefault:   a.Workspace.IsDefault,
			CreatedAt:   a.Workspace.CreatedAt,
			UpdatedAt:   a.Workspace.UpdatedAt,
		},
		RoleID:      a.RoleID,
		RoleName:    a.RoleName,
		Permissions: a.Grant.Names(),
	}
}

type accessResponse struct {
	Status string     `json:"status"`
	Data   AccessBody `json:"data"`
}

type summaryBody struct {
	WorkspaceID   string    `json:"workspace_id"`
	WorkspaceName string    `json:"workspace_name"`
	InviteCode    string    `json:"invite_code"`
	IsDefault     bool      `json:"is_default"`
	RoleName      string    `json:"role_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type listResponse struct {
	Status string `json:"status"`
	Data   struct {
		Workspaces []summaryBody `json:"workspaces"`
	} `json:"data"`
}

// Handler serves the workspace routes.
type Handler struct {
	repo      repository.Repository
	workspace *middleware.WorkspaceMiddleware
	auditor   audit.Logger
	cookieTTL time.Duration
}

// NewHandler returns a workspace handler.
func NewHandler(repo repository.Repository, workspace *middleware.WorkspaceMiddleware, auditor audit.Logger, cookieTTL time.Duration) *Handler {
	return &Handler{repo: repo, workspace: workspace, auditor: auditor, cookieTTL: cookieTTL}
}

// Register mounts the workspace routes on r. The caller has already applied
// the auth middleware.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/create", h.create).Methods(http.MethodPost)
	r.Handle("/update", h.workspace.RequirePermission(permission.UpdateWorkspace)(http.HandlerFunc(h.update))).Methods(http.MethodPut)
	r.Handle("/delete", h.workspace.RequirePermission(permission.DeleteWorkspace)(http.HandlerFunc(h.delete))).Methods(http.MethodDelete)
	r.HandleFunc("", h.list).Methods(http.MethodGet)
	r.HandleFunc("/{workspace_id}", h.getByID).Methods(http.MethodGet)
}

// writeAccess renders the access payload and refreshes the workspace cookie,
// making the returned workspace the active one.
func (h *Handler) writeAccess(w http.ResponseWriter, access *domain.Access) {
	cookies.SetWorkspace(w, access.Workspace.ID, h.cookieTTL)
	httperr.WriteJSON(w, http.StatusOK, accessResponse{Status: "success", Data: NewAccessBody(access)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.Unauthorized(httperr.MsgTokenNotProvided))
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid request body"))
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		httperr.Write(w, httperr.BadRequest("Workspace name is required"))
		return
	}

	ws, err := h.repo.Create(r.Context(), body.Name, user.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			httperr.Write(w, httperr.Conflict("Workspace with the same name already exists"))
			return
		}
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.auditor.LogEvent(r.Context(), user.ID, ws.ID, "workspace.create", map[string]string{"name": ws.Name})

	access, err := h.repo.ResolveAccess(r.Context(), user.ID, ws.ID)
	if err != nil || access == nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.writeAccess(w, access)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	access, ok := middleware.AccessFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid request body"))
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if len(body.Name) < 3 {
		httperr.Write(w, httperr.BadRequest("Workspace name must be at least 3 characters long"))
		return
	}

	if err := h.repo.UpdateName(r.Context(), access.Workspace.ID, body.Name); err != nil {
		if db.IsUniqueViolation(err) {
			httperr.Write(w, httperr.Conflict("Workspace with the same name already exists"))
			return
		}
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.auditor.LogEvent(r.Context(), user.ID, access.Workspace.ID, "workspace.update", map[string]string{"name": body.Name})
	httperr.WriteMessage(w, http.StatusOK, "Workspace updated successfully")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	access, ok := middleware.AccessFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	if err := h.repo.Delete(r.Context(), access.Workspace.ID); err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.auditor.LogEvent(r.Context(), user.ID, access.Workspace.ID, "workspace.delete", nil)
	httperr.WriteMessage(w, http.StatusOK, "Workspace deleted successfully")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.Unauthorized(httperr.MsgTokenNotProvided))
		return
	}
	summaries, err := h.repo.ListForUser(r.Context(), user.ID)
	if err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	resp := listResponse{Status: "success"}
	resp.Data.Workspaces = make([]summaryBody, 0, len(summaries))
	for _, s := range summaries {
		resp.Data.Workspaces = append(resp.Data.Workspaces, summaryBody{
			WorkspaceID:   s.ID,
			WorkspaceName: s.Name,
			InviteCode:    s.InviteCode,
			IsDefault:     s.IsDefault,
			RoleName:      s.RoleName,
			CreatedAt:     s.CreatedAt,
			UpdatedAt:     s.UpdatedAt,
		})
	}
	httperr.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.Unauthorized(httperr.MsgTokenNotProvided))
		return
	}
	workspaceID := mux.Vars(r)["workspace_id"]
	if _, err := uuid.Parse(workspaceID); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid workspace id"))
		return
	}
	access, err := h.repo.ResolveAccess(r.Context(), user.ID, workspaceID)
	if err != nil || access == nil {
		// A missing workspace and a non-membership read the same.
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.writeAccess(w, access)
}

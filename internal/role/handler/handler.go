// Package handler exposes workspace role management over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"workspace-kit/internal/audit"
	"workspace-kit/internal/db"
	"workspace-kit/internal/httperr"
	"workspace-kit/internal/permission"
	"workspace-kit/internal/role/domain"
	"workspace-kit/internal/role/repository"
	"workspace-kit/internal/server/middleware"
)

type roleBody struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type listResponse struct {
	Status string     `json:"status"`
	Roles  []roleBody `json:"roles"`
}

// Handler serves the /roles routes.
type Handler struct {
	repo      repository.Repository
	workspace *middleware.WorkspaceMiddleware
	auditor   audit.Logger
}

// NewHandler returns a role handler.
func NewHandler(repo repository.Repository, workspace *middleware.WorkspaceMiddleware, auditor audit.Logger) *Handler {
	return &Handler{repo: repo, workspace: workspace, auditor: auditor}
}

// Register mounts the role routes on r. Reads need view_roles, writes need
// manage_roles; both are resolved against the active workspace cookie.
func (h *Handler) Register(r *mux.Router) {
	r.Handle("", h.workspace.RequirePermission(permission.ViewRoles)(http.HandlerFunc(h.list))).Methods(http.MethodGet)
	r.Handle("", h.workspace.RequirePermission(permission.ManageRoles)(http.HandlerFunc(h.create))).Methods(http.MethodPost)
	r.Handle("/{role_id}", h.workspace.RequirePermission(permission.ManageRoles)(http.HandlerFunc(h.update))).Methods(http.MethodPut)
	r.Handle("/{role_id}", h.workspace.RequirePermission(permission.ManageRoles)(http.HandlerFunc(h.delete))).Methods(http.MethodDelete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	access, ok := middleware.AccessFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	roles, err := h.repo.ListWithPermissions(r.Context(), access.Workspace.ID)
	if err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	resp := listResponse{Status: "success", Roles: make([]roleBody, 0, len(roles))}
	for _, role := range roles {
		resp.Roles = append(resp.Roles, roleBody{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			Permissions: role.Permissions,
		})
	}
	httperr.WriteJSON(w, http.StatusOK, resp)
}

type rolePayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func decodeRole(r *http.Request) (*rolePayload, *httperr.Error) {
	var body rolePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, httperr.BadRequest("Invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)
	if len(body.Name) < 3 {
		return nil, httperr.BadRequest("Role name must be at least 3 characters long")
	}
	return &body, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	access, ok := middleware.AccessFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	body, herr := decodeRole(r)
	if herr != nil {
		httperr.Write(w, herr)
		return
	}
	role := &domain.Role{
		ID:          uuid.New().String(),
		WorkspaceID: access.Workspace.ID,
		Name:        body.Name,
		Description: body.Description,
		Permissions: body.Permissions,
	}
	if err := role.Validate(); err != nil {
		httperr.Write(w, httperr.BadRequest(err.Error()))
		return
	}
	if err := h.repo.Create(r.Context(), role); err != nil {
		if db.IsUniqueViolation(err) {
			httperr.Write(w, httperr.Conflict("Role with the same name already exists"))
			return
		}
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.auditor.LogEvent(r.Context(), user.ID, access.Workspace.ID, "role.create", map[string]string{"name": role.Name})
	httperr.WriteMessage(w, http.StatusCreated, "Role created successfully")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	access, ok := middleware.AccessFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	roleID := mux.Vars(r)["role_id"]
	if _, err := uuid.Parse(roleID); err != nil {
		httperr.Write(w, httperr.NotFound("Role not found"))
		return
	}
	body, herr := decodeRole(r)
	if herr != nil {
		httperr.Write(w, herr)
		return
	}
	role := &domain.Role{
		ID:          roleID,
		WorkspaceID: access.Workspace.ID,
		Name:        body.Name,
		Description: body.Description,
		Permissions: body.Permissions,
	}
	if err := role.Validate(); err != nil {
		httperr.Write(w, httperr.BadRequest(err.Error()))
		return
	}
	if err := h.repo.Update(r.Context(), role); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoleNotFound):
			httperr.Write(w, httperr.NotFound("Role not found"))
		case db.IsUniqueViolation(err):
			httperr.Write(w, httperr.Conflict("Role with the same name already exists"))
		default:
			httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		}
		return
	}
	h.auditor.LogEvent(r.Context(), user.ID, access.Workspace.ID, "role.update", map[string]string{"role_id": roleID, "name": role.Name})
	httperr.WriteMessage(w, http.StatusOK, "Role updated successfully")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	access, ok := middleware.AccessFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	roleID := mux.Vars(r)["role_id"]
	if _, err := uuid.Parse(roleID); err != nil {
		httperr.Write(w, httperr.NotFound("Role not found"))
		return
	}
	if err := h.repo.Delete(r.Context(), access.Workspace.ID, roleID); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoleNotFound):
			httperr.Write(w, httperr.NotFound("Role not found"))
		case db.IsForeignKeyViolation(err):
			httperr.Write(w, httperr.Conflict("Role is still assigned to members"))
		default:
			httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		}
		return
	}
	h.auditor.LogEvent(r.Context(), user.ID, access.Workspace.ID, "role.delete", map[string]string{"role_id": roleID})
	httperr.WriteMessage(w, http.StatusOK, "Role deleted successfully")
}

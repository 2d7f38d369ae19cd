// Package handler exposes workspace membership over HTTP: invite-code joins,
// member listing, removal and role assignment.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"workspace-kit/internal/audit"
	"workspace-kit/internal/httperr"
	"workspace-kit/internal/membership/service"
	"workspace-kit/internal/permission"
	"workspace-kit/internal/server/cookies"
	"workspace-kit/internal/server/middleware"
	workspacedomain "workspace-kit/internal/workspace/domain"
	workspacehandler "workspace-kit/internal/workspace/handler"
)

// AccessResolver resolves the workspace context returned after a join.
type AccessResolver interface {
	ResolveAccess(ctx context.Context, userID, workspaceID string) (*workspacedomain.Access, error)
}

// RoleResolver maps a role name to its id within a workspace.
type RoleResolver interface {
	ResolveIDByName(ctx context.Context, workspaceID, name string) (string, error)
}

type memberBody struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	RoleName  string `json:"role_name"`
}

type listResponse struct {
	Status string `json:"status"`
	Data   struct {
		Users []memberBody `json:"users"`
	} `json:"data"`
}

type accessResponse struct {
	Status string                      `json:"status"`
	Data   workspacehandler.AccessBody `json:"data"`
}

// Handler serves the /workspace-users routes.
type Handler struct {
	members    *service.MembershipService
	workspaces AccessResolver
	roles      RoleResolver
	workspace  *middleware.WorkspaceMiddleware
	auditor    audit.Logger
	cookieTTL  time.Duration
}

// NewHandler returns a membership handler.
func NewHandler(members *service.MembershipService, workspaces AccessResolver, roles RoleResolver, workspace *middleware.WorkspaceMiddleware, auditor audit.Logger, cookieTTL time.Duration) *Handler {
	return &Handler{
		members:    members,
		workspaces: workspaces,
		roles:      roles,
		workspace:  workspace,
		auditor:    auditor,
		cookieTTL:  cookieTTL,
	}
}

// Register mounts the membership routes on r. Joining only needs a session;
// the rest is gated on the active workspace's permissions.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/invite/{invite_code}", h.join).Methods(http.MethodGet)
	r.Handle("", h.workspace.RequirePermission(permission.ViewMembers)(http.HandlerFunc(h.list))).Methods(http.MethodGet)
	r.Handle("/remove/{user_id}", h.workspace.RequirePermission(permission.RemoveMembers)(http.HandlerFunc(h.remove))).Methods(http.MethodDelete)
	r.Handle("/{user_id}", h.workspace.RequirePermission(permission.AssignRolesToMembers)(http.HandlerFunc(h.assignRole))).Methods(http.MethodPatch)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.Unauthorized(httperr.MsgTokenNotProvided))
		return
	}
	inviteCode := mux.Vars(r)["invite_code"]
	workspaceID, err := h.members.Join(r.Context(), user.ID, inviteCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInviteCode) {
			httperr.Write(w, httperr.BadRequest("Invalid invite code"))
			return
		}
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.auditor.LogEvent(r.Context(), user.ID, workspaceID, "membership.join", nil)

	access, err := h.workspaces.ResolveAccess(r.Context(), user.ID, workspaceID)
	if err != nil || access == nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	cookies.SetWorkspace(w, access.Workspace.ID, h.cookieTTL)
	httperr.WriteJSON(w, http.StatusOK, accessResponse{Status: "success", Data: workspacehandler.NewAccessBody(access)})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	access, ok := middleware.AccessFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	members, err := h.members.ListMembers(r.Context(), access.Workspace.ID)
	if err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	resp := listResponse{Status: "success"}
	resp.Data.Users = make([]memberBody, 0, len(members))
	for _, m := range members {
		resp.Data.Users = append(resp.Data.Users, memberBody{
			UserID:    m.UserID,
			UserName:  m.Name,
			UserEmail: m.Email,
			RoleName:  m.RoleName,
		})
	}
	httperr.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())
	access, ok := middleware.AccessFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	userID := mux.Vars(r)["user_id"]
	if _, err := uuid.Parse(userID); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid user id"))
		return
	}
	if err := h.members.Remove(r.Context(), access.Workspace.ID, userID); err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.auditor.LogEvent(r.Context(), actor.ID, access.Workspace.ID, "membership.remove", map[string]string{"user_id": userID})
	httperr.WriteMessage(w, http.StatusOK, "User removed from workspace")
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())
	access, ok := middleware.AccessFrom(r.Context())
	if !ok {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	userID := mux.Vars(r)["user_id"]
	if _, err := uuid.Parse(userID); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid user id"))
		return
	}
	var body struct {
		RoleName string `json:"role_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperr.Write(w, httperr.BadRequest("Invalid request body"))
		return
	}
	body.RoleName = strings.TrimSpace(body.RoleName)
	if body.RoleName == "" {
		httperr.Write(w, httperr.BadRequest("Role name is required"))
		return
	}

	roleID, err := h.roles.ResolveIDByName(r.Context(), access.Workspace.ID, body.RoleName)
	if err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	if roleID == "" {
		httperr.Write(w, httperr.NotFound("Role not found"))
		return
	}
	if err := h.members.AssignRole(r.Context(), access.Workspace.ID, userID, roleID); err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	h.auditor.LogEvent(r.Context(), actor.ID, access.Workspace.ID, "membership.assign_role", map[string]string{"user_id": userID, "role_name": body.RoleName})
	httperr.WriteMessage(w, http.StatusOK, "Role assigned successfully")
}

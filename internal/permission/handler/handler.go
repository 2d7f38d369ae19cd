// Package handler exposes the permission catalog over HTTP.
package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"workspace-kit/internal/httperr"
	"workspace-kit/internal/permission"
	"workspace-kit/internal/permission/repository"
	"workspace-kit/internal/server/middleware"
)

type permissionBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type listResponse struct {
	Status string `json:"status"`
	Data   struct {
		Permissions []permissionBody `json:"permissions"`
	} `json:"data"`
}

// Handler serves the /permissions routes.
type Handler struct {
	repo      repository.Repository
	workspace *middleware.WorkspaceMiddleware
}

// NewHandler returns a permission handler.
func NewHandler(repo repository.Repository, workspace *middleware.WorkspaceMiddleware) *Handler {
	return &Handler{repo: repo, workspace: workspace}
}

// Register mounts the permission routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.Handle("", h.workspace.RequirePermission(permission.ViewPermissions)(http.HandlerFunc(h.list))).Methods(http.MethodGet)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.List(r.Context())
	if err != nil {
		httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
		return
	}
	resp := listResponse{Status: "success"}
	resp.Data.Permissions = make([]permissionBody, 0, len(entries))
	for _, e := range entries {
		resp.Data.Permissions = append(resp.Data.Permissions, permissionBody{Name: e.Name, Description: e.Description})
	}
	httperr.WriteJSON(w, http.StatusOK, resp)
}

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"workspace-kit/internal/httperr"
	"workspace-kit/internal/permission"
	"workspace-kit/internal/server/cookies"
	workspacedomain "workspace-kit/internal/workspace/domain"
)

// Workspace-cookie failure messages. Wire values, matched by clients.
const (
	MsgWorkspaceIDNotFound = "Workspace id not found"
	MsgInvalidWorkspaceID  = "Invalid workspace id"
)

// AccessResolver resolves a user's membership, role and grant in a workspace.
type AccessResolver interface {
	ResolveAccess(ctx context.Context, userID, workspaceID string) (*workspacedomain.Access, error)
}

// DecisionRecorder observes authorization decisions, for metrics. May be nil.
type DecisionRecorder interface {
	Record(ctx context.Context, required string, allowed bool)
}

// WorkspaceMiddleware gates routes on a workspace permission. It reads the
// workspace id from the `workspace` cookie, resolves the caller's access and
// denies unless the grant allows the required permission.
type WorkspaceMiddleware struct {
	resolver  AccessResolver
	decisions DecisionRecorder
}

// NewWorkspaceMiddleware returns a WorkspaceMiddleware using the given
// resolver. decisions may be nil.
func NewWorkspaceMiddleware(resolver AccessResolver, decisions DecisionRecorder) *WorkspaceMiddleware {
	return &WorkspaceMiddleware{resolver: resolver, decisions: decisions}
}

// RequirePermission wraps next, letting the request through only when the
// caller's role grants required. A failed resolution is reported as a
// server error; whether the workspace is missing or the caller is not a
// member is deliberately not distinguishable.
func (m *WorkspaceMiddleware) RequirePermission(required permission.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFrom(r.Context())
			if !ok {
				httperr.Write(w, httperr.Unauthorized(httperr.MsgTokenNotProvided))
				return
			}
			cookie, err := r.Cookie(cookies.WorkspaceName)
			if err != nil || cookie.Value == "" {
				httperr.Write(w, httperr.Unauthorized(MsgWorkspaceIDNotFound))
				return
			}
			if _, err := uuid.Parse(cookie.Value); err != nil {
				httperr.Write(w, httperr.Unauthorized(MsgInvalidWorkspaceID))
				return
			}
			access, err := m.resolver.ResolveAccess(r.Context(), user.ID, cookie.Value)
			if err != nil {
				httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
				return
			}
			if access == nil {
				httperr.Write(w, httperr.ServerError(httperr.MsgServerError))
				return
			}
			allowed := access.Grant.Allows(required)
			if m.decisions != nil {
				m.decisions.Record(r.Context(), string(required), allowed)
			}
			if !allowed {
				httperr.Write(w, httperr.Unauthorized(httperr.MsgPermissionDenied))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccess(r.Context(), access)))
		})
	}
}

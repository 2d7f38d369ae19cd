package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"workspace-kit/internal/httperr"
	"workspace-kit/internal/security"
	"workspace-kit/internal/server/cookies"
	userdomain "workspace-kit/internal/user/domain"
)

// UserGetter is the minimal user lookup the auth middleware needs.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// AuthMiddleware authenticates requests from the session cookie or a bearer
// header and loads the user into the request context.
type AuthMiddleware struct {
	tokens *security.TokenProvider
	users  UserGetter
}

// NewAuthMiddleware returns an AuthMiddleware using the given verifier and
// user lookup.
func NewAuthMiddleware(tokens *security.TokenProvider, users UserGetter) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handler wraps next with authentication. The token comes from the `token`
// cookie, falling back to `Authorization: Bearer`. The subject must be a
// valid user id and the user must still exist.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			httperr.Write(w, httperr.Unauthorized(httperr.MsgTokenNotProvided))
			return
		}
		subject, err := m.tokens.Verify(token)
		if err != nil {
			httperr.Write(w, httperr.Unauthorized(httperr.MsgInvalidToken))
			return
		}
		if _, err := uuid.Parse(subject); err != nil {
			httperr.Write(w, httperr.Unauthorized(httperr.MsgInvalidToken))
			return
		}
		user, err := m.users.GetByID(r.Context(), subject)
		if err != nil {
			httperr.Write(w, httperr.Unauthorized(httperr.MsgInvalidToken))
			return
		}
		if user == nil {
			httperr.Write(w, httperr.Unauthorized(httperr.MsgUserNoLongerExists))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(cookies.SessionName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

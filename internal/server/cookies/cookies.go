// Package cookies sets the session and workspace cookies with the attributes
// every authenticated flow shares.
package cookies

import (
	"net/http"
	"time"
)

const (
	// SessionName is the cookie carrying the signed session token.
	SessionName = "token"
	// WorkspaceName is the cookie carrying the active workspace id.
	WorkspaceName = "workspace"
)

func set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
	})
}

// SetSession writes the session token cookie. Its lifetime equals the token's.
func SetSession(w http.ResponseWriter, token string, ttl time.Duration) {
	set(w, SessionName, token, ttl)
}

// SetWorkspace writes the active workspace cookie with the same lifetime as
// the session token.
func SetWorkspace(w http.ResponseWriter, workspaceID string, ttl time.Duration) {
	set(w, WorkspaceName, workspaceID, ttl)
}

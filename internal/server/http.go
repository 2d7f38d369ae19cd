// Package server assembles the HTTP API: routing, authentication, CORS,
// request logging and tracing.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	authhandler "workspace-kit/internal/auth/handler"
	"workspace-kit/internal/httperr"
	membershiphandler "workspace-kit/internal/membership/handler"
	permissionhandler "workspace-kit/internal/permission/handler"
	rolehandler "workspace-kit/internal/role/handler"
	"workspace-kit/internal/server/middleware"
	userhandler "workspace-kit/internal/user/handler"
	workspacehandler "workspace-kit/internal/workspace/handler"
)

// Pinger reports store reachability for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds the handlers and middleware the router mounts.
type Deps struct {
	Auth        *authhandler.Handler
	Users       *userhandler.Handler
	Workspaces  *workspacehandler.Handler
	Roles       *rolehandler.Handler
	Permissions *permissionhandler.Handler
	Members     *membershiphandler.Handler
	AuthMW      *middleware.AuthMiddleware
	Logger      *logrus.Logger
	// DB is pinged by /api/health. If nil the store check is skipped.
	DB Pinger
	// AllowedOrigins is the CORS allowlist. Empty means same-origin only.
	AllowedOrigins []string
}

// NewRouter builds the API router.
//
// Route → handler mapping:
//   - /api/auth             → internal/auth/handler (public)
//   - /api/users            → internal/user/handler
//   - /api/workspaces       → internal/workspace/handler
//   - /api/roles            → internal/role/handler
//   - /api/permissions      → internal/permission/handler
//   - /api/workspace-users  → internal/membership/handler
func NewRouter(deps Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger(deps.Logger))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthHandler(deps.DB)).Methods(http.MethodGet)

	deps.Auth.Register(api.PathPrefix("/auth").Subrouter())
	// The email change confirmation link is opened from a mail client without
	// a session, so it mounts before the authenticated /users subtree.
	deps.Users.RegisterPublic(api.PathPrefix("/users").Subrouter())

	authed := func(prefix string) *mux.Router {
		sub := api.PathPrefix(prefix).Subrouter()
		sub.Use(deps.AuthMW.Handler)
		return sub
	}
	deps.Users.Register(authed("/users"))
	deps.Workspaces.Register(authed("/workspaces"))
	deps.Roles.Register(authed("/roles"))
	deps.Permissions.Register(authed("/permissions"))
	deps.Members.Register(authed("/workspace-users"))

	c := cors.New(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return otelhttp.NewHandler(c.Handler(r), "http.server")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Info("request")
		})
	}
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				httperr.Write(w, httperr.ServerError("Database unreachable"))
				return
			}
		}
		httperr.WriteMessage(w, http.StatusOK, "ok")
	}
}

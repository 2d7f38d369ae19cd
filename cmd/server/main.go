package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"workspace-kit/internal/audit"
	auditrepo "workspace-kit/internal/audit/repository"
	authhandler "workspace-kit/internal/auth/handler"
	authrepo "workspace-kit/internal/auth/repository"
	authservice "workspace-kit/internal/auth/service"
	"workspace-kit/internal/config"
	"workspace-kit/internal/db"
	"workspace-kit/internal/mail"
	membershiphandler "workspace-kit/internal/membership/handler"
	membershiprepo "workspace-kit/internal/membership/repository"
	membershipservice "workspace-kit/internal/membership/service"
	permissionhandler "workspace-kit/internal/permission/handler"
	permissionrepo "workspace-kit/internal/permission/repository"
	rolehandler "workspace-kit/internal/role/handler"
	rolerepo "workspace-kit/internal/role/repository"
	"workspace-kit/internal/security"
	"workspace-kit/internal/server"
	"workspace-kit/internal/server/middleware"
	"workspace-kit/internal/telemetry"
	userhandler "workspace-kit/internal/user/handler"
	userrepo "workspace-kit/internal/user/repository"
	workspacehandler "workspace-kit/internal/workspace/handler"
	workspacerepo "workspace-kit/internal/workspace/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Env == "development" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	providers, err := telemetry.NewProviders(ctx, cfg.OTLPEndpoint, "workspace-kit", cfg.OTLPInsecure)
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("telemetry shutdown")
		}
	}()
	authzMetrics, err := telemetry.NewAuthzMetrics(providers.MeterProvider.Meter("workspace-kit"))
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}

	var mailClient mail.Client
	if cfg.MailFromAddress != "" {
		mailClient, err = mail.NewSESClient(ctx, cfg.MailAWSRegion, cfg.MailFromAddress, cfg.MailAWSAccessKey, cfg.MailAWSSecretKey)
		if err != nil {
			logger.Fatalf("mail: %v", err)
		}
	} else {
		logger.Warn("MAIL_FROM_ADDRESS not set, mail delivery disabled")
		mailClient = mail.NewLogClient(logger)
	}
	mailer, err := mail.NewMailer(mailClient, cfg.FrontendBaseURL, cfg.BackendBaseURL)
	if err != nil {
		logger.Fatalf("mail: %v", err)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.TokenTTL())

	users := userrepo.NewPostgresRepository(conn)
	auths := authrepo.NewPostgresRepository(conn)
	workspaces := workspacerepo.NewPostgresRepository(conn)
	roles := rolerepo.NewPostgresRepository(conn)
	permissions := permissionrepo.NewPostgresRepository(conn)
	memberships := membershiprepo.NewPostgresRepository(conn)
	auditor := audit.NewStoreLogger(auditrepo.NewPostgresRepository(conn), logger)

	authService := authservice.NewAuthService(auths, users, hasher, tokens, mailer)
	membershipService := membershipservice.NewMembershipService(memberships)

	authMW := middleware.NewAuthMiddleware(tokens, users)
	workspaceMW := middleware.NewWorkspaceMiddleware(workspaces, authzMetrics)

	ttl := cfg.TokenTTL()
	router := server.NewRouter(server.Deps{
		Auth:           authhandler.NewHandler(authService, workspaces, auditor, cfg.FrontendBaseURL, ttl),
		Users:          userhandler.NewHandler(users, hasher, mailer, auditor),
		Workspaces:     workspacehandler.NewHandler(workspaces, workspaceMW, auditor, ttl),
		Roles:          rolehandler.NewHandler(roles, workspaceMW, auditor),
		Permissions:    permissionhandler.NewHandler(permissions, workspaceMW),
		Members:        membershiphandler.NewHandler(membershipService, workspaces, roles, workspaceMW, auditor, ttl),
		AuthMW:         authMW,
		Logger:         logger,
		DB:             conn,
		AllowedOrigins: []string{cfg.FrontendBaseURL},
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	logger.Info("HTTP server stopped")
}

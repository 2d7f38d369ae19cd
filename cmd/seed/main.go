// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	authdomain "workspace-kit/internal/auth/domain"
	authrepo "workspace-kit/internal/auth/repository"
	"workspace-kit/internal/config"
	"workspace-kit/internal/db"
	membershiprepo "workspace-kit/internal/membership/repository"
	"workspace-kit/internal/permission"
	roledomain "workspace-kit/internal/role/domain"
	rolerepo "workspace-kit/internal/role/repository"
	"workspace-kit/internal/security"
	userdomain "workspace-kit/internal/user/domain"
	userrepo "workspace-kit/internal/user/repository"
	workspacerepo "workspace-kit/internal/workspace/repository"
)

const (
	devUserEmail = "dev@example.com"
	memberEmail  = "member@example.com"
	devPassword  = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	auths := authrepo.NewPostgresRepository(conn)
	workspaces := workspacerepo.NewPostgresRepository(conn)
	roles := rolerepo.NewPostgresRepository(conn)
	memberships := membershiprepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	owner := createVerifiedUser(ctx, auths, "Dev User", devUserEmail, passwordHash)
	member := createVerifiedUser(ctx, auths, "Member User", memberEmail, passwordHash)

	ws, err := workspaces.Create(ctx, "Acme Dev", owner.ID)
	if err != nil {
		log.Fatalf("create workspace: %v", err)
	}

	editor := &roledomain.Role{
		ID:          uuid.New().String(),
		WorkspaceID: ws.ID,
		Name:        "Editor",
		Description: "Manages roles and members",
		Permissions: []string{
			string(permission.ViewRoles),
			string(permission.ViewMembers),
			string(permission.ViewPermissions),
			string(permission.ManageRoles),
			string(permission.AssignRolesToMembers),
		},
	}
	if err := roles.Create(ctx, editor); err != nil {
		log.Fatalf("create editor role: %v", err)
	}
	viewer := &roledomain.Role{
		ID:          uuid.New().String(),
		WorkspaceID: ws.ID,
		Name:        "Viewer",
		Description: "Read-only access",
		Permissions: []string{
			string(permission.ViewRoles),
			string(permission.ViewMembers),
			string(permission.ViewPermissions),
		},
	}
	if err := roles.Create(ctx, viewer); err != nil {
		log.Fatalf("create viewer role: %v", err)
	}

	if _, err := memberships.AddMember(ctx, ws.ID, member.ID, editor.ID); err != nil {
		log.Fatalf("add member: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s\n", devUserEmail, devPassword)
	fmt.Printf("Member login: %s / %s\n", memberEmail, devPassword)
	fmt.Printf("Invite code: %s\n", ws.InviteCode)
}

func createVerifiedUser(ctx context.Context, auths *authrepo.PostgresRepository, name, email, passwordHash string) *userdomain.User {
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	verification := &authdomain.EmailVerification{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := auths.CreateUser(ctx, user, verification); err != nil {
		log.Fatalf("create user %s: %v", email, err)
	}
	if err := auths.MarkEmailVerified(ctx, user.ID); err != nil {
		log.Fatalf("verify user %s: %v", email, err)
	}
	return user
}

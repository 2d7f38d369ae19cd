// Package service implements registration, login, email verification and
// credential recovery on top of the auth and user repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	authdomain "workspace-kit/internal/auth/domain"
	"workspace-kit/internal/mail"
	"workspace-kit/internal/security"
	userdomain "workspace-kit/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP responses.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidEmail           = errors.New("email is invalid")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidToken           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token expired")
	// ErrVerificationMail means the account exists but the verification mail
	// could not be delivered.
	ErrVerificationMail = errors.New("verification mail delivery failed")
)

const tokenValidity = 24 * time.Hour

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthRepo is the minimal auth repository needed by the service.
type AuthRepo interface {
	CreateUser(ctx context.Context, u *userdomain.User, verification *authdomain.EmailVerification) error
	GetEmailVerification(ctx context.Context, token string) (*authdomain.EmailVerification, error)
	MarkEmailVerified(ctx context.Context, userID string) error
	SavePasswordReset(ctx context.Context, reset *authdomain.PasswordReset) error
	GetPasswordReset(ctx context.Context, token string) (*authdomain.PasswordReset, error)
	ResetPassword(ctx context.Context, userID, passwordHash string) error
}

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// AuthService implements register, login, verify and password recovery.
type AuthService struct {
	authRepo AuthRepo
	userRepo UserRepo
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	mailer   mail.Sender
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(authRepo AuthRepo, userRepo UserRepo, hasher *security.Hasher, tokens *security.TokenProvider, mailer mail.Sender) *AuthService {
	return &AuthService{
		authRepo: authRepo,
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
	}
}

// Register creates an unverified user and mails the verification link.
func (s *AuthService) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return errors.New("name is required")
	}
	if !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailAlreadyRegistered
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return err
	}
	verification := &authdomain.EmailVerification{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: now.Add(tokenValidity),
	}
	if err := s.authRepo.CreateUser(ctx, user, verification); err != nil {
		return err
	}

	if err := s.mailer.SendVerification(ctx, user.Email, user.Name, verification.Token); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationMail, err)
	}
	return nil
}

// Login authenticates with email and password and returns a session token
// together with the user. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *userdomain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.Password) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyEmail redeems a verification token, mails the welcome note and
// returns a session token with the verified user.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, *userdomain.User, error) {
	if _, err := uuid.Parse(token); err != nil {
		return "", nil, ErrInvalidToken
	}
	verification, err := s.authRepo.GetEmailVerification(ctx, token)
	if err != nil {
		return "", nil, err
	}
	if verification == nil {
		return "", nil, ErrInvalidToken
	}
	if verification.Expired(time.Now().UTC()) {
		return "", nil, ErrTokenExpired
	}
	if err := s.authRepo.MarkEmailVerified(ctx, verification.UserID); err != nil {
		return "", nil, err
	}
	user, err := s.userRepo.GetByID(ctx, verification.UserID)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidToken
	}
	if err := s.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
		return "", nil, err
	}
	sessionToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return sessionToken, user, nil
}

// ForgotPassword stores a reset token for the account and mails the link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}
	reset := &authdomain.PasswordReset{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().UTC().Add(tokenValidity),
	}
	if err := s.authRepo.SavePasswordReset(ctx, reset); err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, user.Email, user.Name, reset.Token)
}

// ResetPassword redeems a reset token and replaces the account password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if _, err := uuid.Parse(token); err != nil {
		return ErrInvalidToken
	}
	reset, err := s.authRepo.GetPasswordReset(ctx, token)
	if err != nil {
		return err
	}
	if reset == nil {
		return ErrInvalidToken
	}
	if reset.Expired(time.Now().UTC()) {
		return ErrTokenExpired
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.authRepo.ResetPassword(ctx, reset.UserID, hashed)
}

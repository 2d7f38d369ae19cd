package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	authdomain "workspace-kit/internal/auth/domain"
	"workspace-kit/internal/security"
	userdomain "workspace-kit/internal/user/domain"
)

type fakeAuthRepo struct {
	mu            sync.Mutex
	users         map[string]*userdomain.User
	verifications map[string]*authdomain.EmailVerification
	resets        map[string]*authdomain.PasswordReset
	verified      map[string]bool
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		users:         map[string]*userdomain.User{},
		verifications: map[string]*authdomain.EmailVerification{},
		resets:        map[string]*authdomain.PasswordReset{},
		verified:      map[string]bool{},
	}
}

func (f *fakeAuthRepo) CreateUser(_ context.Context, u *userdomain.User, v *authdomain.EmailVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	vcp := *v
	f.verifications[v.Token] = &vcp
	return nil
}

func (f *fakeAuthRepo) GetEmailVerification(_ context.Context, token string) (*authdomain.EmailVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.verifications[token]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakeAuthRepo) MarkEmailVerified(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified[userID] = true
	for token, v := range f.verifications {
		if v.UserID == userID {
			delete(f.verifications, token)
		}
	}
	return nil
}

func (f *fakeAuthRepo) SavePasswordReset(_ context.Context, r *authdomain.PasswordReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.resets[r.Token] = &cp
	return nil
}

func (f *fakeAuthRepo) GetPasswordReset(_ context.Context, token string) (*authdomain.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resets[token]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeAuthRepo) ResetPassword(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.Password = passwordHash
	}
	for token, r := range f.resets {
		if r.UserID == userID {
			delete(f.resets, token)
		}
	}
	return nil
}

type fakeUserRepo struct {
	repo *fakeAuthRepo
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*userdomain.User, error) {
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	u, ok := f.repo.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	for _, u := range f.repo.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeMailer struct {
	mu            sync.Mutex
	verifications []string
	welcomes      []string
	resets        []string
	changes       []string
	failNext      bool
}

func (f *fakeMailer) fail() error {
	if f.failNext {
		f.failNext = false
		return errors.New("smtp down")
	}
	return nil
}

func (f *fakeMailer) SendVerification(_ context.Context, to, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	f.verifications = append(f.verifications, to+":"+token)
	return nil
}

func (f *fakeMailer) SendWelcome(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	f.welcomes = append(f.welcomes, to)
	return nil
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	f.resets = append(f.resets, to+":"+token)
	return nil
}

func (f *fakeMailer) SendEmailChange(_ context.Context, to, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	f.changes = append(f.changes, to+":"+token)
	return nil
}

func newTestService(t *testing.T) (*AuthService, *fakeAuthRepo, *fakeMailer) {
	t.Helper()
	repo := newFakeAuthRepo()
	mailer := &fakeMailer{}
	hasher := security.NewHasher(4)
	tokens := security.NewTokenProvider([]byte("test-secret"), time.Hour)
	svc := NewAuthService(repo, &fakeUserRepo{repo: repo}, hasher, tokens, mailer)
	return svc, repo, mailer
}

func TestRegister_CreatesUserAndSendsVerification(t *testing.T) {
	svc, repo, mailer := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("users = %d, want 1", len(repo.users))
	}
	if len(mailer.verifications) != 1 {
		t.Fatalf("verification mails = %d, want 1", len(mailer.verifications))
	}
	for _, u := range repo.users {
		if u.Password == "password123" {
			t.Error("password stored as plaintext")
		}
		if u.EmailVerified {
			t.Error("new user should not be verified")
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := svc.Register(ctx, "Other Alice", "alice@example.com", "password456")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrEmailAlreadyRegistered", err)
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.Register(context.Background(), "Alice", "not-an-email", "password123"); err == nil {
		t.Fatal("expected error for invalid email")
	}
}

func TestRegister_MailFailureSurfaces(t *testing.T) {
	svc, repo, mailer := newTestService(t)
	mailer.failNext = true

	err := svc.Register(context.Background(), "Alice", "alice@example.com", "password123")
	if !errors.Is(err, ErrVerificationMail) {
		t.Fatalf("err = %v, want ErrVerificationMail", err)
	}
	// The account still exists so verification can be retried.
	if len(repo.users) != 1 {
		t.Errorf("users = %d, want 1", len(repo.users))
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, user, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if user == nil || user.Email != "alice@example.com" {
		t.Errorf("user = %+v, want alice", user)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyEmail_Success(t *testing.T) {
	svc, repo, mailer := newTestService(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	var token string
	for tok := range repo.verifications {
		token = tok
	}

	sessionToken, user, err := svc.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if sessionToken == "" {
		t.Error("expected a session token")
	}
	if !repo.verified[user.ID] {
		t.Error("user should be marked verified")
	}
	if len(mailer.welcomes) != 1 {
		t.Errorf("welcome mails = %d, want 1", len(mailer.welcomes))
	}
	if len(repo.verifications) != 0 {
		t.Error("verification token should be consumed")
	}
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, _, err := svc.VerifyEmail(context.Background(), uuid.New().String()); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyEmail_MalformedToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, _, err := svc.VerifyEmail(context.Background(), "not-a-uuid"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	for _, v := range repo.verifications {
		v.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	}
	var token string
	for tok := range repo.verifications {
		token = tok
	}

	if _, _, err := svc.VerifyEmail(ctx, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestResetPassword_RoundTrip(t *testing.T) {
	svc, repo, mailer := newTestService(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if len(mailer.resets) != 1 {
		t.Fatalf("reset mails = %d, want 1", len(mailer.resets))
	}
	var token string
	for tok := range repo.resets {
		token = tok
	}

	if err := svc.ResetPassword(ctx, token, "new-password-456"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password should no longer work")
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "new-password-456"); err != nil {
		t.Errorf("new password should work, got %v", err)
	}
	if len(repo.resets) != 0 {
		t.Error("reset token should be consumed")
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.ForgotPassword(context.Background(), "ghost@example.com"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	for _, r := range repo.resets {
		r.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	}
	var token string
	for tok := range repo.resets {
		token = tok
	}

	if err := svc.ResetPassword(ctx, token, "new-password-456"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

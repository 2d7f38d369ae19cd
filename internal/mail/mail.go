// Package mail renders and delivers transactional email.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender delivers the transactional mails the auth and user flows produce.
type Sender interface {
	SendVerification(ctx context.Context, to, name, token string) error
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
	SendEmailChange(ctx context.Context, to, name, token string) error
}

// Client delivers a rendered HTML message. Implemented by the SES client and
// by the log sender used in development.
type Client interface {
	SendHTML(ctx context.Context, to []string, subject, htmlBody string) error
}

// Mailer renders embedded templates and sends them through a Client.
type Mailer struct {
	client          Client
	frontendBaseURL string
	backendBaseURL  string
	templates       *template.Template
}

// NewMailer parses the embedded templates and returns a Mailer.
func NewMailer(client Client, frontendBaseURL, backendBaseURL string) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail templates: %w", err)
	}
	return &Mailer{
		client:          client,
		frontendBaseURL: frontendBaseURL,
		backendBaseURL:  backendBaseURL,
		templates:       tmpl,
	}, nil
}

type templateData struct {
	Name string
	Link string
}

func (m *Mailer) send(ctx context.Context, to, subject, templateName string, data templateData) error {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}
	return m.client.SendHTML(ctx, []string{to}, subject, buf.String())
}

// SendVerification mails the account verification link. The link points at
// the API so the redeem redirects back to the web app.
func (m *Mailer) SendVerification(ctx context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/auth/verify?token=%s", m.backendBaseURL, token)
	return m.send(ctx, to, "Verify your email address", "verification.html", templateData{Name: name, Link: link})
}

// SendWelcome mails the post-verification welcome note.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.send(ctx, to, "Welcome aboard", "welcome.html", templateData{Name: name, Link: m.frontendBaseURL})
}

// SendPasswordReset mails the password reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.frontendBaseURL, token)
	return m.send(ctx, to, "Reset your password", "reset_password.html", templateData{Name: name, Link: link})
}

// SendEmailChange mails the confirmation link for a pending address change to
// the new address.
func (m *Mailer) SendEmailChange(ctx context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/users/verify-email-change?token=%s", m.backendBaseURL, token)
	return m.send(ctx, to, "Confirm your new email address", "email_change.html", templateData{Name: name, Link: link})
}

// Package audit records security-relevant events. Writes are best-effort and
// never fail the request that produced them.
package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"workspace-kit/internal/audit/domain"
	auditrepo "workspace-kit/internal/audit/repository"
)

// Logger writes a single audit event with an explicit action. Used by the
// auth, workspace, role and membership code paths.
type Logger interface {
	LogEvent(ctx context.Context, actorID, workspaceID, action string, details map[string]string)
}

// StoreLogger implements Logger using the audit repository.
type StoreLogger struct {
	repo auditrepo.Repository
	log  *logrus.Logger
}

// NewStoreLogger returns a Logger that persists to repo and reports write
// failures through log.
func NewStoreLogger(repo auditrepo.Repository, log *logrus.Logger) *StoreLogger {
	return &StoreLogger{repo: repo, log: log}
}

// LogEvent writes one audit entry. Errors are logged and not returned.
func (l *StoreLogger) LogEvent(ctx context.Context, actorID, workspaceID, action string, details map[string]string) {
	if l.repo == nil {
		return
	}
	entry := &domain.Entry{
		ActorID:     actorID,
		WorkspaceID: workspaceID,
		Action:      action,
		Details:     details,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.WithError(err).WithField("action", action).Warn("audit write failed")
	}
}

// NopLogger discards every event. Used in tests.
type NopLogger struct{}

func (NopLogger) LogEvent(context.Context, string, string, string, map[string]string) {}

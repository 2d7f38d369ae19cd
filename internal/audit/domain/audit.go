package domain

import "time"

// Entry is one recorded audit event. Details is a JSON object with
// action-specific fields.
type Entry struct {
	ActorID     string
	WorkspaceID string
	Action      string
	Details     map[string]string
	CreatedAt   time.Time
}

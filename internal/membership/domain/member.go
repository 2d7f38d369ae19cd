package domain

// Member is a workspace member joined with the role they hold.
type Member struct {
	UserID   string
	Name     string
	Email    string
	RoleName string
}

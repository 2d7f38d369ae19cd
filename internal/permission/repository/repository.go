package repository

import "context"

// Entry is one catalog permission with its human description.
type Entry struct {
	Name        string
	Description string
}

// Repository reads the permission catalog.
type Repository interface {
	List(ctx context.Context) ([]Entry, error)
}

package activity

import (
	"context"
	"time"
)

type ListFilter struct {
	UserID string
	ItemID string
	Type   Type
	Before time.Time
	Limit  int
	Offset int
}

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	// List returns matching entries newest first, plus the total count
	// before pagination.
	List(ctx context.Context, filter ListFilter) ([]*Entry, int, error)
	// Delete exists for retention only.
	Delete(ctx context.Context, id string) error
}

package notification

import "context"

type ListFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	// List returns matching notifications newest first, plus the total
	// count before pagination.
	List(ctx context.Context, filter ListFilter) ([]*Notification, int, error)
	Update(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id string) error
}

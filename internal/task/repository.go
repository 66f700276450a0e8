package task

import "context"

// ListFilter narrows List. UserID matches either side of the task.
type ListFilter struct {
	UserID          string
	SenderID        string
	ReceiverID      string
	Status          Status
	IncludeArchived bool
	Limit           int
	Offset          int
}

func (f ListFilter) Match(t *Task) bool {
	if f.UserID != "" && t.SenderID != f.UserID && t.ReceiverID != f.UserID {
		return false
	}
	if f.SenderID != "" && t.SenderID != f.SenderID {
		return false
	}
	if f.ReceiverID != "" && t.ReceiverID != f.ReceiverID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return f.IncludeArchived || t.ArchivedAt == nil
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	// List returns matching tasks newest first and the total before paging.
	List(ctx context.Context, f ListFilter) ([]*Task, int, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
}

package collaboration

import "context"

// ListFilter narrows List. UserID matches members and invitees.
type ListFilter struct {
	UserID  string
	Status  Status
	Urgency Urgency
	Limit   int
	Offset  int
}

func (f ListFilter) Match(c *Collaboration) bool {
	if f.UserID != "" && !c.IsMember(f.UserID) && !c.IsInvited(f.UserID) {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return f.Urgency == "" || c.Urgency == f.Urgency
}

type Repository interface {
	Create(ctx context.Context, c *Collaboration) error
	Get(ctx context.Context, id string) (*Collaboration, error)
	List(ctx context.Context, f ListFilter) ([]*Collaboration, int, error)
	Update(ctx context.Context, c *Collaboration) error
	Delete(ctx context.Context, id string) error
}

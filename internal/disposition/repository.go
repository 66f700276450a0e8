package disposition

import "context"

// ListFilter narrows List. Inactive dispositions are skipped unless
// IncludeInactive is set.
type ListFilter struct {
	UserID          string
	Period          Period
	Status          Status
	IncludeInactive bool
	Limit           int
	Offset          int
}

func (f ListFilter) Match(d *Disposition) bool {
	if f.UserID != "" && !d.Involves(f.UserID) {
		return false
	}
	if f.Period != "" && d.Period != f.Period {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	return f.IncludeInactive || d.IsActive
}

type Repository interface {
	Create(ctx context.Context, d *Disposition) error
	Get(ctx context.Context, id string) (*Disposition, error)
	List(ctx context.Context, f ListFilter) ([]*Disposition, int, error)
	Update(ctx context.Context, d *Disposition) error
	Delete(ctx context.Context, id string) error
}

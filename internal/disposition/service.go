package disposition

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/verification"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

type Service struct {
	repo   Repository
	engine *lifecycle.Engine
	dir    lifecycle.Directory
}

func NewService(repo Repository, engine *lifecycle.Engine, dir lifecycle.Directory) *Service {
	return &Service{repo: repo, engine: engine, dir: dir}
}

// Input is Fields before givers and receivers are resolved.
type Input struct {
	Title       string
	Description string
	GiverIDs    []string
	ReceiverIDs []string
	Period      Period
	Link        string
	Notes       string
}

func (s *Service) resolve(ctx context.Context, in Input) (Fields, error) {
	f := Fields{
		Title:       in.Title,
		Description: in.Description,
		Period:      in.Period,
		Link:        in.Link,
		Notes:       in.Notes,
	}
	var err error
	if f.Givers, err = s.lookupAll(ctx, "giverIds", in.GiverIDs); err != nil {
		return Fields{}, err
	}
	if f.Receivers, err = s.lookupAll(ctx, "receiverIds", in.ReceiverIDs); err != nil {
		return Fields{}, err
	}
	return f, nil
}

func (s *Service) lookupAll(ctx context.Context, field string, ids []string) ([]lifecycle.Actor, error) {
	actors := make([]lifecycle.Actor, 0, len(ids))
	for _, id := range ids {
		a, err := s.dir.Lookup(ctx, id)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				return nil, lifecycle.Validation(lifecycle.ErrValidation, field, "unknown user "+id)
			}
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, nil
}

func lockKey(id string) string {
	return "disposition/" + id
}

func changed(d *Disposition) lifecycle.Change {
	return lifecycle.Change{
		Event:      eventbus.TypeDispositionChanged,
		ResourceID: d.ID,
		Metadata: map[string]string{
			"status":              string(d.Status),
			"verification_status": string(d.Verification.Status),
		},
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Disposition, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lifecycle.MapNotFound(kind, id, err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Disposition, int, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Add(ctx context.Context, a lifecycle.Actor, in Input) (*Disposition, error) {
	f, err := s.resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	id := ulid.Make().String()
	var created *Disposition
	err = s.engine.Commit(ctx, lockKey(id), a, func(ctx context.Context, now time.Time) (lifecycle.Change, error) {
		d, eff, err := New(id, a, f, now)
		if err != nil {
			return lifecycle.Change{}, err
		}
		if err := s.repo.Create(ctx, &d); err != nil {
			return lifecycle.Change{}, err
		}
		created = &d
		c := changed(&d)
		c.Effects = eff
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type transition func(d Disposition, now time.Time) (Disposition, lifecycle.Effects, error)

func (s *Service) apply(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64, fn transition) (*Disposition, error) {
	var updated *Disposition
	err := s.engine.Commit(ctx, lockKey(id), a, func(ctx context.Context, now time.Time) (lifecycle.Change, error) {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return lifecycle.Change{}, err
		}
		if err := lifecycle.CheckVersion(kind, id, expectedVersion, cur.Version); err != nil {
			return lifecycle.Change{}, err
		}
		next, eff, err := fn(*cur, now)
		if err != nil {
			return lifecycle.Change{}, err
		}
		next.Version = cur.Version + 1
		next.UpdatedAt = now
		if err := s.repo.Update(ctx, &next); err != nil {
			return lifecycle.Change{}, err
		}
		updated = &next
		c := changed(&next)
		c.Effects = eff
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Edit(ctx context.Context, a lifecycle.Actor, id string, in Input, expectedVersion int64) (*Disposition, error) {
	f, err := s.resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, a, id, expectedVersion, func(d Disposition, _ time.Time) (Disposition, lifecycle.Effects, error) {
		return d.Edit(a, f)
	})
}

func (s *Service) ToggleActive(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Disposition, error) {
	return s.apply(ctx, a, id, expectedVersion, func(d Disposition, _ time.Time) (Disposition, lifecycle.Effects, error) {
		return d.ToggleActive(a)
	})
}

func (s *Service) SetStatus(ctx context.Context, a lifecycle.Actor, id string, status Status, expectedVersion int64) (*Disposition, error) {
	return s.apply(ctx, a, id, expectedVersion, func(d Disposition, _ time.Time) (Disposition, lifecycle.Effects, error) {
		return d.SetStatus(status)
	})
}

func (s *Service) Complete(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Disposition, error) {
	return s.apply(ctx, a, id, expectedVersion, func(d Disposition, now time.Time) (Disposition, lifecycle.Effects, error) {
		return d.Complete(a, now)
	})
}

func (s *Service) Verify(ctx context.Context, a lifecycle.Actor, id string, decision verification.Decision, note string, expectedVersion int64) (*Disposition, error) {
	if err := a.RequireAdmin("verifying dispositions"); err != nil {
		return nil, err
	}
	return s.apply(ctx, a, id, expectedVersion, func(d Disposition, now time.Time) (Disposition, lifecycle.Effects, error) {
		return d.Verify(a, decision, note, now)
	})
}

func (s *Service) Resubmit(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Disposition, error) {
	return s.apply(ctx, a, id, expectedVersion, func(d Disposition, _ time.Time) (Disposition, lifecycle.Effects, error) {
		return d.Resubmit(a)
	})
}

func (s *Service) Remove(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) error {
	return s.engine.Commit(ctx, lockKey(id), a, func(ctx context.Context, _ time.Time) (lifecycle.Change, error) {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return lifecycle.Change{}, err
		}
		if err := lifecycle.CheckVersion(kind, id, expectedVersion, cur.Version); err != nil {
			return lifecycle.Change{}, err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return lifecycle.Change{}, err
		}
		return lifecycle.Change{
			Effects:    cur.Remove(),
			Event:      eventbus.TypeDispositionDeleted,
			ResourceID: id,
		}, nil
	})
}

package task

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/lifecycle"
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

func lockKey(id string) string {
	return "task/" + id
}

func changed(t *Task) lifecycle.Change {
	return lifecycle.Change{
		Event:      eventbus.TypeTaskChanged,
		ResourceID: t.ID,
		Metadata: map[string]string{
			"status":      string(t.Status),
			"sender_id":   t.SenderID,
			"receiver_id": t.ReceiverID,
		},
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lifecycle.MapNotFound(kind, id, err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Task, int, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Create(ctx context.Context, sender lifecycle.Actor, receiverID string, f Fields) (*Task, error) {
	receiver, err := s.dir.Lookup(ctx, receiverID)
	if err != nil {
		if !cerr.IsCode(err, cerr.NotFound) {
			return nil, err
		}
		receiver = lifecycle.Actor{}
	}
	id := ulid.Make().String()
	var created *Task
	err = s.engine.Commit(ctx, lockKey(id), sender, func(ctx context.Context, now time.Time) (lifecycle.Change, error) {
		t, eff, err := New(id, sender, receiver, f, now)
		if err != nil {
			return lifecycle.Change{}, err
		}
		if err := s.repo.Create(ctx, &t); err != nil {
			return lifecycle.Change{}, err
		}
		created = &t
		c := changed(&t)
		c.Effects = eff
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type transition func(t Task, now time.Time) (Task, lifecycle.Effects, error)

// apply loads the task under its lock, runs fn and stores the result with a
// bumped version. A failing fn leaves the stored task untouched.
func (s *Service) apply(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64, fn transition) (*Task, error) {
	var updated *Task
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

func (s *Service) Accept(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Task, error) {
	return s.apply(ctx, a, id, expectedVersion, func(t Task, _ time.Time) (Task, lifecycle.Effects, error) {
		return t.Accept(a)
	})
}

func (s *Service) Decline(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Task, error) {
	return s.apply(ctx, a, id, expectedVersion, func(t Task, _ time.Time) (Task, lifecycle.Effects, error) {
		return t.Decline(a)
	})
}

func (s *Service) RequestRevision(ctx context.Context, a lifecycle.Actor, id, reason string, expectedVersion int64) (*Task, error) {
	return s.apply(ctx, a, id, expectedVersion, func(t Task, _ time.Time) (Task, lifecycle.Effects, error) {
		return t.RequestRevision(a, reason)
	})
}

func (s *Service) Resume(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Task, error) {
	return s.apply(ctx, a, id, expectedVersion, func(t Task, _ time.Time) (Task, lifecycle.Effects, error) {
		return t.Resume(a)
	})
}

func (s *Service) Complete(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Task, error) {
	return s.apply(ctx, a, id, expectedVersion, func(t Task, now time.Time) (Task, lifecycle.Effects, error) {
		return t.Complete(a, now)
	})
}

func (s *Service) UpdateProgress(ctx context.Context, a lifecycle.Actor, id string, value int, expectedVersion int64) (*Task, error) {
	return s.apply(ctx, a, id, expectedVersion, func(t Task, _ time.Time) (Task, lifecycle.Effects, error) {
		return t.UpdateProgress(value)
	})
}

func (s *Service) Edit(ctx context.Context, a lifecycle.Actor, id string, f Fields, expectedVersion int64) (*Task, error) {
	return s.apply(ctx, a, id, expectedVersion, func(t Task, _ time.Time) (Task, lifecycle.Effects, error) {
		return t.Edit(f)
	})
}

func (s *Service) Delete(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) error {
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
		c := changed(cur)
		c.Event = eventbus.TypeTaskDeleted
		c.Effects = cur.Delete(a)
		return c, nil
	})
}

// ArchiveTerminal archives completed and declined tasks whose last update
// is before cutoff. It returns how many tasks were archived.
func (s *Service) ArchiveTerminal(ctx context.Context, cutoff time.Time) (int, error) {
	tasks, _, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return 0, err
	}
	archived := 0
	for _, t := range tasks {
		if !t.Status.Terminal() || !t.UpdatedAt.Before(cutoff) {
			continue
		}
		_, err := s.apply(ctx, lifecycle.System, t.ID, t.Version, func(t Task, now time.Time) (Task, lifecycle.Effects, error) {
			return t.Archive(now)
		})
		if errors.Is(err, lifecycle.ErrVersionConflict) || errors.Is(err, lifecycle.ErrNotFound) {
			continue
		}
		if err != nil {
			return archived, err
		}
		archived++
	}
	return archived, nil
}

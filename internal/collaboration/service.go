package collaboration

import (
	"context"
	"strconv"
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

func lockKey(id string) string {
	return "collaboration/" + id
}

func changed(c *Collaboration) lifecycle.Change {
	return lifecycle.Change{
		Event:      eventbus.TypeCollaborationChanged,
		ResourceID: c.ID,
		Metadata: map[string]string{
			"status":              string(c.Status),
			"verification_status": string(c.Verification.Status),
			"progress":            strconv.Itoa(c.CompletionPercentage()),
		},
	}
}

// lookup resolves a user for membership changes. Unknown users come back as
// the zero Actor so the transition reports the validation error.
func (s *Service) lookup(ctx context.Context, id string) (lifecycle.Actor, error) {
	a, err := s.dir.Lookup(ctx, id)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return lifecycle.Actor{}, nil
		}
		return lifecycle.Actor{}, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Collaboration, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lifecycle.MapNotFound(kind, id, err)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Collaboration, int, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Create(ctx context.Context, a lifecycle.Actor, f Fields, inviteeIDs []string) (*Collaboration, error) {
	invitees := make([]lifecycle.Actor, 0, len(inviteeIDs))
	for _, id := range inviteeIDs {
		invitee, err := s.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		invitees = append(invitees, invitee)
	}
	id := ulid.Make().String()
	var created *Collaboration
	err := s.engine.Commit(ctx, lockKey(id), a, func(ctx context.Context, now time.Time) (lifecycle.Change, error) {
		c, eff, err := New(id, a, f, invitees, now)
		if err != nil {
			return lifecycle.Change{}, err
		}
		if err := s.repo.Create(ctx, &c); err != nil {
			return lifecycle.Change{}, err
		}
		created = &c
		ch := changed(&c)
		ch.Effects = eff
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type transition func(c Collaboration, now time.Time) (Collaboration, lifecycle.Effects, error)

func (s *Service) apply(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64, fn transition) (*Collaboration, error) {
	var updated *Collaboration
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
		ch := changed(&next)
		ch.Effects = eff
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Edit(ctx context.Context, a lifecycle.Actor, id string, f Fields, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.Edit(f)
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
		return lifecycle.Change{
			Effects:    cur.Delete(),
			Event:      eventbus.TypeCollaborationDeleted,
			ResourceID: id,
		}, nil
	})
}

func (s *Service) Invite(ctx context.Context, a lifecycle.Actor, id, userID string, expectedVersion int64) (*Collaboration, error) {
	invitee, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.Invite(a, invitee)
	})
}

func (s *Service) AcceptInvite(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.AcceptInvite(a)
	})
}

func (s *Service) DeclineInvite(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.DeclineInvite(a)
	})
}

func (s *Service) RemoveMember(ctx context.Context, a lifecycle.Actor, id, userID string, expectedVersion int64) (*Collaboration, error) {
	member, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member.ID == "" {
		member = lifecycle.Actor{ID: userID, Name: userID}
	}
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.RemoveMember(a, member)
	})
}

func (s *Service) AddSubtask(ctx context.Context, a lifecycle.Actor, id string, f SubtaskFields, expectedVersion int64) (*Collaboration, error) {
	subtaskID := ulid.Make().String()
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.AddSubtask(subtaskID, f)
	})
}

func (s *Service) EditSubtask(ctx context.Context, a lifecycle.Actor, id, subtaskID string, f SubtaskFields, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.EditSubtask(subtaskID, f)
	})
}

func (s *Service) DeleteSubtask(ctx context.Context, a lifecycle.Actor, id, subtaskID string, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.DeleteSubtask(subtaskID)
	})
}

func (s *Service) MoveSubtask(ctx context.Context, a lifecycle.Actor, id, subtaskID string, to SubtaskStatus, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.MoveSubtask(subtaskID, to)
	})
}

func (s *Service) SetProgressOverride(ctx context.Context, a lifecycle.Actor, id string, value int, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.SetProgressOverride(value)
	})
}

func (s *Service) ClearProgressOverride(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.ClearProgressOverride()
	})
}

func (s *Service) Complete(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, now time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.Complete(a, now)
	})
}

func (s *Service) Reopen(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.Reopen()
	})
}

func (s *Service) Verify(ctx context.Context, a lifecycle.Actor, id string, decision verification.Decision, note string, expectedVersion int64) (*Collaboration, error) {
	if err := a.RequireAdmin("verifying collaborations"); err != nil {
		return nil, err
	}
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, now time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.Verify(a, decision, note, now)
	})
}

func (s *Service) Resubmit(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Collaboration, error) {
	return s.apply(ctx, a, id, expectedVersion, func(c Collaboration, _ time.Time) (Collaboration, lifecycle.Effects, error) {
		return c.Resubmit(a)
	})
}

package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

// usersKey serializes every user mutation so username uniqueness holds.
const usersKey = "users"

var _ lifecycle.Directory = (*Service)(nil)

type Service struct {
	repo   Repository
	engine *lifecycle.Engine
}

func NewService(repo Repository, engine *lifecycle.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lifecycle.MapNotFound("user", id, err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]*User, error) {
	return s.repo.List(ctx, includeInactive)
}

// Lookup implements lifecycle.Directory.
func (s *Service) Lookup(ctx context.Context, id string) (lifecycle.Actor, error) {
	if id == lifecycle.System.ID {
		return lifecycle.System, nil
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return lifecycle.Actor{}, err
	}
	return lifecycle.Actor{ID: u.ID, Name: u.Name, Admin: u.IsAdmin(), Active: u.IsActive}, nil
}

func (s *Service) DisplayName(ctx context.Context, id string) (string, error) {
	a, err := s.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Name, nil
}

type CreateInput struct {
	Username   string
	Name       string
	Role       Role
	Department string
	Position   string
	WorkStatus WorkStatus
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return lifecycle.Validation(lifecycle.ErrEmptyRequiredField, "username", "username is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return lifecycle.Validation(lifecycle.ErrEmptyRequiredField, "name", "name is required")
	}
	if !in.Role.Valid() {
		return lifecycle.Validation(lifecycle.ErrValidation, "role", "role must be admin or user")
	}
	if in.WorkStatus != "" && !in.WorkStatus.Valid() {
		return lifecycle.Validation(lifecycle.ErrValidation, "workStatus", "unknown work status")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor lifecycle.Actor, in CreateInput) (*User, error) {
	if err := actor.RequireAdmin("creating users"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var created *User
	err := s.engine.Commit(ctx, usersKey, actor, func(ctx context.Context, now time.Time) (lifecycle.Change, error) {
		if err := s.ensureUsernameFree(ctx, in.Username, ""); err != nil {
			return lifecycle.Change{}, err
		}
		u := newUser(in, now)
		if err := s.repo.Create(ctx, u); err != nil {
			return lifecycle.Change{}, err
		}
		created = u
		var eff lifecycle.Effects
		eff.Log(activity.TypeUser, activity.ActionCreated, u.ID, fmt.Sprintf("created user %s (%s)", u.Username, u.Role))
		return lifecycle.Change{Effects: eff, Event: eventbus.TypeUserChanged, ResourceID: u.ID}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func newUser(in CreateInput, now time.Time) *User {
	ws := in.WorkStatus
	if ws == "" {
		ws = WorkStatusAvailable
	}
	return &User{
		ID:         ulid.Make().String(),
		Username:   strings.TrimSpace(in.Username),
		Name:       strings.TrimSpace(in.Name),
		Role:       in.Role,
		Department: in.Department,
		Position:   in.Position,
		IsActive:   true,
		WorkStatus: ws,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}
}

func (s *Service) ensureUsernameFree(ctx context.Context, username, selfID string) error {
	existing, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return cerr.NewError(cerr.AlreadyExists, fmt.Sprintf("username %q is taken", username), nil)
}

// UpdateInput leaves nil fields unchanged.
type UpdateInput struct {
	Username        *string
	Name            *string
	Role            *Role
	Department      *string
	Position        *string
	WorkStatus      *WorkStatus
	ExpectedVersion int64
}

func (in UpdateInput) adminOnly() bool {
	return in.Username != nil || in.Role != nil
}

// Update lets admins edit any field of anyone and users edit their own
// profile fields.
func (s *Service) Update(ctx context.Context, actor lifecycle.Actor, id string, in UpdateInput) (*User, error) {
	if !actor.Admin {
		if actor.ID != id {
			return nil, lifecycle.PermissionDenied("users may only edit their own profile")
		}
		if in.adminOnly() {
			return nil, lifecycle.PermissionDenied("changing username or role requires the admin role")
		}
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, lifecycle.Validation(lifecycle.ErrEmptyRequiredField, "name", "name is required")
	}
	if in.Username != nil && strings.TrimSpace(*in.Username) == "" {
		return nil, lifecycle.Validation(lifecycle.ErrEmptyRequiredField, "username", "username is required")
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, lifecycle.Validation(lifecycle.ErrValidation, "role", "role must be admin or user")
	}
	if in.WorkStatus != nil && !in.WorkStatus.Valid() {
		return nil, lifecycle.Validation(lifecycle.ErrValidation, "workStatus", "unknown work status")
	}

	return s.mutate(ctx, actor, id, in.ExpectedVersion, func(ctx context.Context, u *User) (activity.Action, string, error) {
		if in.Username != nil {
			if err := s.ensureUsernameFree(ctx, *in.Username, u.ID); err != nil {
				return "", "", err
			}
			u.Username = strings.TrimSpace(*in.Username)
		}
		if in.Name != nil {
			u.Name = strings.TrimSpace(*in.Name)
		}
		if in.Role != nil {
			u.Role = *in.Role
		}
		if in.Department != nil {
			u.Department = *in.Department
		}
		if in.Position != nil {
			u.Position = *in.Position
		}
		if in.WorkStatus != nil {
			u.WorkStatus = *in.WorkStatus
		}
		return activity.ActionEdited, "edited user " + u.Username, nil
	})
}

func (s *Service) SetActive(ctx context.Context, actor lifecycle.Actor, id string, active bool, expectedVersion int64) (*User, error) {
	if err := actor.RequireAdmin("activating or deactivating users"); err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, expectedVersion, func(_ context.Context, u *User) (activity.Action, string, error) {
		u.IsActive = active
		if active {
			return activity.ActionActivated, "activated user " + u.Username, nil
		}
		return activity.ActionDeactivated, "deactivated user " + u.Username, nil
	})
}

func (s *Service) mutate(ctx context.Context, actor lifecycle.Actor, id string, expectedVersion int64, apply func(ctx context.Context, u *User) (activity.Action, string, error)) (*User, error) {
	var updated *User
	err := s.engine.Commit(ctx, usersKey, actor, func(ctx context.Context, now time.Time) (lifecycle.Change, error) {
		u, err := s.Get(ctx, id)
		if err != nil {
			return lifecycle.Change{}, err
		}
		if err := lifecycle.CheckVersion("user", id, expectedVersion, u.Version); err != nil {
			return lifecycle.Change{}, err
		}
		action, description, err := apply(ctx, u)
		if err != nil {
			return lifecycle.Change{}, err
		}
		u.UpdatedAt = now
		u.Version++
		if err := s.repo.Update(ctx, u); err != nil {
			return lifecycle.Change{}, err
		}
		updated = u
		var eff lifecycle.Effects
		eff.Log(activity.TypeUser, action, u.ID, description)
		return lifecycle.Change{Effects: eff, Event: eventbus.TypeUserChanged, ResourceID: u.ID}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove hard-deletes a user. Work items keep the id for history.
func (s *Service) Remove(ctx context.Context, actor lifecycle.Actor, id string) error {
	if err := actor.RequireAdmin("removing users"); err != nil {
		return err
	}
	if actor.ID == id {
		return lifecycle.Validation(lifecycle.ErrValidation, "id", "admins cannot remove themselves")
	}
	return s.engine.Commit(ctx, usersKey, actor, func(ctx context.Context, _ time.Time) (lifecycle.Change, error) {
		u, err := s.Get(ctx, id)
		if err != nil {
			return lifecycle.Change{}, err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return lifecycle.Change{}, err
		}
		var eff lifecycle.Effects
		eff.Log(activity.TypeUser, activity.ActionDeleted, id, "removed user "+u.Username)
		return lifecycle.Change{Effects: eff, Event: eventbus.TypeUserDeleted, ResourceID: id}, nil
	})
}

// Bootstrap creates the first admin when the store has none, so a fresh
// deployment can be administered.
func (s *Service) Bootstrap(ctx context.Context, username, name string) (*User, bool, error) {
	users, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, false, err
	}
	for _, u := range users {
		if u.IsAdmin() {
			return u, false, nil
		}
	}
	u, err := s.Create(ctx, lifecycle.System, CreateInput{Username: username, Name: name, Role: RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

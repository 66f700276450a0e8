package lifecycle

import (
	"context"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

// Actor is the user performing an operation, as the engine sees it.
type Actor struct {
	ID     string
	Name   string
	Admin  bool
	Active bool
}

// System performs roster sync, bootstrap and retention.
var System = Actor{ID: actor.SystemID, Name: "System", Admin: true, Active: true}

// Directory resolves user ids. It is implemented by the identity store.
type Directory interface {
	Lookup(ctx context.Context, userID string) (Actor, error)
}

// RequireAdmin enforces role tagging on admin-only operations.
func (a Actor) RequireAdmin(operation string) error {
	if !a.Admin {
		return PermissionDenied(operation + " requires the admin role")
	}
	return nil
}

// ResolveActor looks the calling user of ctx up in dir.
func ResolveActor(ctx context.Context, dir Directory) (Actor, error) {
	id, err := actor.Require(ctx)
	if err != nil {
		return Actor{}, err
	}
	a, err := dir.Lookup(ctx, id)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return Actor{}, cerr.NewError(cerr.Unauthenticated, "unknown actor", err)
		}
		return Actor{}, err
	}
	return a, nil
}

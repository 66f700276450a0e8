package repositoryimpl

import (
	"context"
	"strings"

	"github.com/damwatch/taskdesk/internal/user"
	"github.com/damwatch/taskdesk/pkg/cerr"
	"github.com/damwatch/taskdesk/pkg/storage"
	"github.com/damwatch/taskdesk/pkg/yamlstore"
)

// YAMLRepository stores users as users/<id>.yaml. The roster is small, so
// username lookups scan.
type YAMLRepository struct {
	*yamlstore.Collection[user.User]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{yamlstore.New(s, "users", "user", func(u *user.User) string { return u.ID })}
}

func (r *YAMLRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	found, err := r.Scan(ctx, func(u *user.User) bool { return strings.EqualFold(u.Username, username) })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	return found[0], nil
}

// List returns users in id order, which for ULIDs is creation order.
func (r *YAMLRepository) List(ctx context.Context, includeInactive bool) ([]*user.User, error) {
	return r.Scan(ctx, func(u *user.User) bool { return includeInactive || u.IsActive })
}

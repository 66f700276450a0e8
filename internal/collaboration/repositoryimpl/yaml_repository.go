package repositoryimpl

import (
	"context"
	"time"

	"github.com/damwatch/taskdesk/internal/collaboration"
	"github.com/damwatch/taskdesk/pkg/storage"
	"github.com/damwatch/taskdesk/pkg/yamlstore"
)

// YAMLRepository stores collaborations as collaborations/<id>.yaml.
type YAMLRepository struct {
	*yamlstore.Collection[collaboration.Collaboration]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{yamlstore.New(s, "collaborations", "collaboration", collaborationID)}
}

func collaborationID(c *collaboration.Collaboration) string { return c.ID }

func collaborationCreated(c *collaboration.Collaboration) time.Time { return c.CreatedAt }

func (r *YAMLRepository) List(ctx context.Context, f collaboration.ListFilter) ([]*collaboration.Collaboration, int, error) {
	all, err := r.Scan(ctx, f.Match)
	if err != nil {
		return nil, 0, err
	}
	yamlstore.SortNewest(all, collaborationCreated, collaborationID)
	page, total := yamlstore.Page(all, f.Offset, f.Limit)
	return page, total, nil
}

package repositoryimpl

import (
	"context"
	"time"

	"github.com/damwatch/taskdesk/internal/disposition"
	"github.com/damwatch/taskdesk/pkg/storage"
	"github.com/damwatch/taskdesk/pkg/yamlstore"
)

// YAMLRepository stores dispositions as dispositions/<id>.yaml.
type YAMLRepository struct {
	*yamlstore.Collection[disposition.Disposition]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{yamlstore.New(s, "dispositions", "disposition", dispositionID)}
}

func dispositionID(d *disposition.Disposition) string { return d.ID }

func dispositionCreated(d *disposition.Disposition) time.Time { return d.CreatedAt }

func (r *YAMLRepository) List(ctx context.Context, f disposition.ListFilter) ([]*disposition.Disposition, int, error) {
	all, err := r.Scan(ctx, f.Match)
	if err != nil {
		return nil, 0, err
	}
	yamlstore.SortNewest(all, dispositionCreated, dispositionID)
	page, total := yamlstore.Page(all, f.Offset, f.Limit)
	return page, total, nil
}

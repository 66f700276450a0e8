package repositoryimpl

import (
	"context"
	"time"

	"github.com/damwatch/taskdesk/internal/task"
	"github.com/damwatch/taskdesk/pkg/storage"
	"github.com/damwatch/taskdesk/pkg/yamlstore"
)

// YAMLRepository stores direct tasks as tasks/<id>.yaml.
type YAMLRepository struct {
	*yamlstore.Collection[task.Task]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{yamlstore.New(s, "tasks", "task", taskID)}
}

func taskID(t *task.Task) string { return t.ID }

func taskCreated(t *task.Task) time.Time { return t.CreatedAt }

func (r *YAMLRepository) List(ctx context.Context, f task.ListFilter) ([]*task.Task, int, error) {
	all, err := r.Scan(ctx, f.Match)
	if err != nil {
		return nil, 0, err
	}
	yamlstore.SortNewest(all, taskCreated, taskID)
	page, total := yamlstore.Page(all, f.Offset, f.Limit)
	return page, total, nil
}

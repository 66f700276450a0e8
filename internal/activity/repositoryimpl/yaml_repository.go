package repositoryimpl

import (
	"context"
	"time"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/pkg/storage"
	"github.com/damwatch/taskdesk/pkg/yamlstore"
)

// YAMLRepository is append-only apart from retention deletes, so it
// exposes no Update.
type YAMLRepository struct {
	entries *yamlstore.Collection[activity.Entry]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{entries: yamlstore.New(s, "activity", "activity entry", entryID)}
}

func entryID(e *activity.Entry) string { return e.ID }

func (r *YAMLRepository) Append(ctx context.Context, e *activity.Entry) error {
	return r.entries.Create(ctx, e)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	return r.entries.Delete(ctx, id)
}

func matches(f activity.ListFilter, e *activity.Entry) bool {
	switch {
	case f.UserID != "" && e.UserID != f.UserID:
		return false
	case f.ItemID != "" && e.ItemID != f.ItemID:
		return false
	case f.Type != "" && e.Type != f.Type:
		return false
	case !f.Before.IsZero() && !e.Timestamp.Before(f.Before):
		return false
	}
	return true
}

func (r *YAMLRepository) List(ctx context.Context, f activity.ListFilter) ([]*activity.Entry, int, error) {
	all, err := r.entries.Scan(ctx, func(e *activity.Entry) bool { return matches(f, e) })
	if err != nil {
		return nil, 0, err
	}
	yamlstore.SortNewest(all, func(e *activity.Entry) time.Time { return e.Timestamp }, entryID)
	page, total := yamlstore.Page(all, f.Offset, f.Limit)
	return page, total, nil
}

package repositoryimpl

import (
	"context"
	"time"

	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/pkg/storage"
	"github.com/damwatch/taskdesk/pkg/yamlstore"
)

type YAMLRepository struct {
	*yamlstore.Collection[notification.Notification]
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{yamlstore.New(s, "notifications", "notification",
		func(n *notification.Notification) string { return n.ID })}
}

func (r *YAMLRepository) List(ctx context.Context, filter notification.ListFilter) ([]*notification.Notification, int, error) {
	all, err := r.Scan(ctx, func(n *notification.Notification) bool {
		return (filter.UserID == "" || n.UserID == filter.UserID) && !(filter.UnreadOnly && n.IsRead)
	})
	if err != nil {
		return nil, 0, err
	}
	yamlstore.SortNewest(all,
		func(n *notification.Notification) time.Time { return n.CreatedAt },
		func(n *notification.Notification) string { return n.ID })
	page, total := yamlstore.Page(all, filter.Offset, filter.Limit)
	return page, total, nil
}

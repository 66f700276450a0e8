package notification

import (
	"context"
	"time"

	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

// BatchRunner groups storage writes into one apply.
type BatchRunner interface {
	RunBatch(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service owns the only mutation notifications allow: flipping IsRead.
type Service struct {
	repo     Repository
	batch    BatchRunner
	eventBus *eventbus.Bus
	now      func() time.Time
}

func NewService(repo Repository, batch BatchRunner, eventBus *eventbus.Bus, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, batch: batch, eventBus: eventBus, now: now}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Notification, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) MarkAsRead(ctx context.Context, actorID, id string) (*Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != actorID {
		return nil, cerr.NewError(cerr.PermissionDenied, "notification belongs to another user", nil)
	}
	if n.IsRead {
		return n, nil
	}
	now := s.now()
	n.IsRead = true
	n.ReadAt = &now
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(eventbus.TypeNotificationRead, n.ID, map[string]string{"user_id": n.UserID})
	return n, nil
}

// MarkAllAsRead marks every unread notification of userID and returns how
// many changed.
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	var marked []*Notification
	err := s.batch.RunBatch(ctx, func(ctx context.Context) error {
		unread, _, err := s.repo.List(ctx, ListFilter{UserID: userID, UnreadOnly: true})
		if err != nil {
			return err
		}
		now := s.now()
		for _, n := range unread {
			n.IsRead = true
			n.ReadAt = &now
			if err := s.repo.Update(ctx, n); err != nil {
				return err
			}
		}
		marked = unread
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, n := range marked {
		s.eventBus.PublishNew(eventbus.TypeNotificationRead, n.ID, map[string]string{"user_id": n.UserID})
	}
	return len(marked), nil
}

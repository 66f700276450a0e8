package lifecycle

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/pkg/keylock"
	"github.com/damwatch/taskdesk/pkg/storage"
)

// Renderer turns a notice into the stored notification message.
type Renderer interface {
	Render(typ notification.Type, payload notification.Payload) string
}

// Engine is the single writer of work items. Every mutation goes through
// Commit, which serializes writers per item and stores the item together
// with its notifications and activity entry.
type Engine struct {
	store         *storage.Batching
	locks         *keylock.KeyLock
	notifications notification.Repository
	activities    activity.Repository
	eventBus      *eventbus.Bus
	renderer      Renderer
	now           func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(
	store *storage.Batching,
	notifications notification.Repository,
	activities activity.Repository,
	eventBus *eventbus.Bus,
	renderer Renderer,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:         store,
		locks:         keylock.New(),
		notifications: notifications,
		activities:    activities,
		eventBus:      eventBus,
		renderer:      renderer,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) RunBatch(ctx context.Context, fn func(ctx context.Context) error) error {
	return e.store.RunBatch(ctx, fn)
}

// Change is what a mutation reports back to Commit.
type Change struct {
	Effects    Effects
	Event      eventbus.Type
	ResourceID string
	Metadata   map[string]string
}

// Commit runs fn while holding the lock for key. Everything fn writes, plus
// the notifications and activity entry in the returned Effects, is applied
// as one storage batch; if fn fails nothing is applied. Events are
// published only after the batch is stored.
func (e *Engine) Commit(ctx context.Context, key string, actor Actor, fn func(ctx context.Context, now time.Time) (Change, error)) error {
	unlock := e.locks.Lock(key)
	defer unlock()

	now := e.now()
	var (
		change  Change
		created []*notification.Notification
	)
	err := e.store.RunBatch(ctx, func(ctx context.Context) error {
		c, err := fn(ctx, now)
		if err != nil {
			return err
		}
		change = c
		created, err = e.emit(ctx, actor, now, c.Effects)
		return err
	})
	if err != nil {
		return err
	}

	if change.Event != "" {
		e.eventBus.PublishNew(change.Event, change.ResourceID, change.Metadata)
	}
	for _, n := range created {
		e.eventBus.PublishNew(eventbus.TypeNotificationCreated, n.ID, map[string]string{
			"user_id": n.UserID,
			"type":    string(n.Type),
		})
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, actor Actor, now time.Time, effects Effects) ([]*notification.Notification, error) {
	created := make([]*notification.Notification, 0, len(effects.Notices))
	for _, notice := range effects.Notices {
		n := &notification.Notification{
			ID:        ulid.Make().String(),
			UserID:    notice.UserID,
			Type:      notice.Type,
			Message:   e.renderer.Render(notice.Type, notice.Payload),
			TaskID:    notice.TaskID,
			Payload:   notice.Payload,
			CreatedAt: now,
		}
		if err := e.notifications.Create(ctx, n); err != nil {
			return nil, err
		}
		created = append(created, n)
	}
	if r := effects.Record; r != nil {
		entry := &activity.Entry{
			ID:          ulid.Make().String(),
			Type:        r.Type,
			Action:      r.Action,
			UserID:      actor.ID,
			UserName:    actor.Name,
			ItemID:      r.ItemID,
			Description: r.Description,
			Details:     r.Details,
			Timestamp:   now,
		}
		if err := e.activities.Append(ctx, entry); err != nil {
			return nil, err
		}
	}
	return created, nil
}

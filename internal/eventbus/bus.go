package eventbus

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

type Type string

const (
	TypeTaskChanged          Type = "task.changed"
	TypeTaskDeleted          Type = "task.deleted"
	TypeDispositionChanged   Type = "disposition.changed"
	TypeDispositionDeleted   Type = "disposition.deleted"
	TypeCollaborationChanged Type = "collaboration.changed"
	TypeCollaborationDeleted Type = "collaboration.deleted"
	TypeUserChanged          Type = "user.changed"
	TypeUserDeleted          Type = "user.deleted"
	TypeNotificationCreated  Type = "notification.created"
	TypeNotificationRead     Type = "notification.read"
	TypeActivityRecorded     Type = "activity.recorded"
)

type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	ResourceID string            `json:"resourceId"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Bus fans events out to subscribers without ever blocking the publisher.
// A subscriber whose buffer is full misses the event; Dropped counts those
// misses.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
	dropped     atomic.Uint64
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
			slog.Warn("eventbus: subscriber buffer full, event dropped",
				"subscriber", id, "type", event.Type, "resource_id", event.ResourceID)
		}
	}
}

func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Bus) PublishNew(eventType Type, resourceID string, metadata map[string]string) {
	b.Publish(&Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		ResourceID: resourceID,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	})
}

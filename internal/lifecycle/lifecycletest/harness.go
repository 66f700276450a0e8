// Package lifecycletest wires an Engine over memory storage with a
// controllable clock for tests of the work-item services.
package lifecycletest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/activity"
	activityrepo "github.com/damwatch/taskdesk/internal/activity/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/i18n"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/notification"
	notificationrepo "github.com/damwatch/taskdesk/internal/notification/repositoryimpl"
	"github.com/damwatch/taskdesk/pkg/cerr"
	"github.com/damwatch/taskdesk/pkg/storage"
)

// Start is the initial time of every harness clock.
var Start = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type Harness struct {
	Mem           *storage.MemoryStorage
	Store         *storage.Batching
	Notifications *notificationrepo.YAMLRepository
	Activity      *activityrepo.YAMLRepository
	Bus           *eventbus.Bus
	Clock         *Clock
	Engine        *lifecycle.Engine
}

func New(t testing.TB) *Harness {
	t.Helper()
	tr, err := i18n.New(i18n.LanguageEn)
	require.NoError(t, err)

	mem := storage.NewMemoryStorage()
	store := storage.NewBatching(mem)
	h := &Harness{
		Mem:           mem,
		Store:         store,
		Notifications: notificationrepo.NewYAMLRepository(store),
		Activity:      activityrepo.NewYAMLRepository(store),
		Bus:           eventbus.New(),
		Clock:         &Clock{now: Start},
	}
	h.Engine = lifecycle.NewEngine(store, h.Notifications, h.Activity, h.Bus, tr, lifecycle.WithClock(h.Clock.Now))
	return h
}

// NotificationsFor returns userID's notifications oldest first.
func (h *Harness) NotificationsFor(t testing.TB, userID string) []*notification.Notification {
	t.Helper()
	list, _, err := h.Notifications.List(context.Background(), notification.ListFilter{UserID: userID})
	require.NoError(t, err)
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list
}

// AllNotifications returns every notification oldest first.
func (h *Harness) AllNotifications(t testing.TB) []*notification.Notification {
	return h.NotificationsFor(t, "")
}

// Types lists the notification types of ns in order.
func Types(ns []*notification.Notification) []notification.Type {
	out := make([]notification.Type, len(ns))
	for i, n := range ns {
		out[i] = n.Type
	}
	return out
}

// ActivityFor returns the entries for itemID oldest first.
func (h *Harness) ActivityFor(t testing.TB, itemID string) []*activity.Entry {
	t.Helper()
	list, _, err := h.Activity.List(context.Background(), activity.ListFilter{ItemID: itemID})
	require.NoError(t, err)
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list
}

// Directory is an in-memory lifecycle.Directory.
type Directory struct {
	mu     sync.RWMutex
	actors map[string]lifecycle.Actor
}

func NewDirectory(actors ...lifecycle.Actor) *Directory {
	d := &Directory{actors: make(map[string]lifecycle.Actor)}
	for _, a := range actors {
		d.actors[a.ID] = a
	}
	return d
}

func (d *Directory) Put(a lifecycle.Actor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actors[a.ID] = a
}

func (d *Directory) Lookup(_ context.Context, id string) (lifecycle.Actor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.actors[id]
	if !ok {
		return lifecycle.Actor{}, cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	return a, nil
}

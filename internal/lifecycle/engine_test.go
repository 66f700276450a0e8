package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/activity"
	activityrepo "github.com/damwatch/taskdesk/internal/activity/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/notification"
	notificationrepo "github.com/damwatch/taskdesk/internal/notification/repositoryimpl"
	"github.com/damwatch/taskdesk/pkg/cerr"
	"github.com/damwatch/taskdesk/pkg/storage"
)

type plainRenderer struct{}

func (plainRenderer) Render(typ notification.Type, _ notification.Payload) string {
	return string(typ)
}

var fixedNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type harness struct {
	mem      *storage.MemoryStorage
	store    *storage.Batching
	notifs   *notificationrepo.YAMLRepository
	activity *activityrepo.YAMLRepository
	bus      *eventbus.Bus
	engine   *Engine
}

func newHarness() *harness {
	mem := storage.NewMemoryStorage()
	store := storage.NewBatching(mem)
	h := &harness{
		mem:      mem,
		store:    store,
		notifs:   notificationrepo.NewYAMLRepository(store),
		activity: activityrepo.NewYAMLRepository(store),
		bus:      eventbus.New(),
	}
	h.engine = NewEngine(store, h.notifs, h.activity, h.bus, plainRenderer{}, WithClock(func() time.Time { return fixedNow }))
	return h
}

var alice = Actor{ID: "u-alice", Name: "Alice", Active: true}

func TestEngine_CommitAppliesItemAndEffectsTogether(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	subID, events := h.bus.Subscribe(8)
	defer h.bus.Unsubscribe(subID)

	err := h.engine.Commit(ctx, "item/1", alice, func(ctx context.Context, now time.Time) (Change, error) {
		assert.Equal(t, fixedNow, now)
		require.NoError(t, h.store.Write(ctx, "items/1.yaml", []byte("v1")))
		var eff Effects
		eff.Notify(alice.ID, notification.TypeTaskRequest, "1", notification.TaskPayload{Title: "X"}, "u-bob", alice.ID, "u-bob")
		eff.Log(activity.TypeTask, activity.ActionCreated, "1", "created X")
		return Change{Effects: eff, Event: eventbus.TypeTaskChanged, ResourceID: "1"}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"items/1.yaml"}, h.mem.Paths("items/"))

	notifs, total, err := h.notifs.List(ctx, notification.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "u-bob", notifs[0].UserID)
	assert.Equal(t, "task-request", notifs[0].Message)
	assert.Equal(t, notification.TaskPayload{Title: "X"}, notifs[0].Payload)

	entries, _, err := h.activity.List(ctx, activity.ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, alice.ID, entries[0].UserID)
	assert.Equal(t, "Alice", entries[0].UserName)
	assert.Equal(t, fixedNow, entries[0].Timestamp)

	first := <-events
	assert.Equal(t, eventbus.TypeTaskChanged, first.Type)
	second := <-events
	assert.Equal(t, eventbus.TypeNotificationCreated, second.Type)
	assert.Equal(t, "u-bob", second.Metadata["user_id"])
}

func TestEngine_FailedCommitAppliesNothing(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	boom := errors.New("boom")

	err := h.engine.Commit(ctx, "item/1", alice, func(ctx context.Context, _ time.Time) (Change, error) {
		require.NoError(t, h.store.Write(ctx, "items/1.yaml", []byte("v1")))
		require.NoError(t, h.notifs.Create(ctx, &notification.Notification{ID: "n1", UserID: "u-bob"}))
		return Change{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, h.mem.Paths(""))
}

func TestEngine_CommitSerializesSameKey(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	require.NoError(t, h.mem.Write(ctx, "counter", []byte{0}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := h.engine.Commit(ctx, "counter", alice, func(ctx context.Context, _ time.Time) (Change, error) {
				data, err := h.store.Read(ctx, "counter")
				if err != nil {
					return Change{}, err
				}
				return Change{}, h.store.Write(ctx, "counter", []byte{data[0] + 1})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := h.mem.Read(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, byte(20), data[0])
}

func TestErrors(t *testing.T) {
	err := Validation(ErrEmptyTitle, "title", "title is required")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	err = CheckVersion("task", "t1", 2, 3)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.True(t, cerr.IsCode(err, cerr.Aborted))
	assert.NoError(t, CheckVersion("task", "t1", 0, 3))
	assert.NoError(t, CheckVersion("task", "t1", 3, 3))

	err = MapNotFound("task", "t1", cerr.NewError(cerr.NotFound, "task not found", storage.ErrNotFound))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, InvalidTransition("task", "t1", "accept", "completed"), ErrInvalidTransition)
	assert.ErrorIs(t, AlreadyVerified("disposition", "d1"), ErrAlreadyVerified)
	assert.ErrorIs(t, Actor{}.RequireAdmin("verify"), ErrPermissionDenied)
	assert.NoError(t, System.RequireAdmin("verify"))
}

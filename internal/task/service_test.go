package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/lifecycle/lifecycletest"
	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/internal/task"
	"github.com/damwatch/taskdesk/internal/task/repositoryimpl"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

var (
	sari = lifecycle.Actor{ID: "u1", Name: "Sari", Active: true}
	budi = lifecycle.Actor{ID: "u2", Name: "Budi", Active: true}
	eko  = lifecycle.Actor{ID: "u3", Name: "Eko"}
)

func newService(t *testing.T) (*task.Service, *lifecycletest.Harness) {
	t.Helper()
	h := lifecycletest.New(t)
	dir := lifecycletest.NewDirectory(sari, budi, eko)
	return task.NewService(repositoryimpl.NewYAMLRepository(h.Store), h.Engine, dir), h
}

func TestService_CreateAcceptCompleteScenario(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, sari, budi.ID, task.Fields{Title: "Cek pintu air"})
	require.NoError(t, err)
	assert.Equal(t, []notification.Type{notification.TypeTaskRequest}, lifecycletest.Types(h.NotificationsFor(t, budi.ID)))
	assert.Equal(t, `Sari sent you a task: Cek pintu air`, h.NotificationsFor(t, budi.ID)[0].Message)

	h.Clock.Advance(time.Hour)
	accepted, err := svc.Accept(ctx, budi, created.ID, created.Version)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, accepted.Status)
	assert.Equal(t, int64(2), accepted.Version)

	sariNotes := h.NotificationsFor(t, sari.ID)
	require.Len(t, sariNotes, 1)
	assert.Equal(t, notification.TypeTaskAccepted, sariNotes[0].Type)
	assert.Equal(t, created.ID, sariNotes[0].TaskID)

	h.Clock.Advance(time.Hour)
	done, err := svc.Complete(ctx, budi, created.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(lifecycletest.Start.Add(2*time.Hour)))

	assert.Equal(t,
		[]notification.Type{notification.TypeTaskAccepted, notification.TypeTaskComplete},
		lifecycletest.Types(h.NotificationsFor(t, sari.ID)))
	assert.Equal(t, []notification.Type{notification.TypeTaskRequest}, lifecycletest.Types(h.NotificationsFor(t, budi.ID)))

	entries := h.ActivityFor(t, created.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, []activity.Action{activity.ActionCreated, activity.ActionAccepted, activity.ActionCompleted},
		[]activity.Action{entries[0].Action, entries[1].Action, entries[2].Action})
	assert.Equal(t, sari.ID, entries[0].UserID)
	assert.Equal(t, budi.ID, entries[2].UserID)
}

func TestService_CreateRejectsInvalidReceiver(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, sari, "nobody", task.Fields{Title: "x"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidReceiver)
	_, err = svc.Create(ctx, sari, eko.ID, task.Fields{Title: "x"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidReceiver)
	_, err = svc.Create(ctx, sari, budi.ID, task.Fields{})
	assert.ErrorIs(t, err, lifecycle.ErrEmptyTitle)

	tasks, total, err := svc.List(ctx, task.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, total)
	assert.Empty(t, h.AllNotifications(t))
}

func TestService_IllegalTransitionLeavesTaskUntouched(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, sari, budi.ID, task.Fields{Title: "Cek pintu air"})
	require.NoError(t, err)

	_, err = svc.Complete(ctx, budi, created.ID, 0)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	_, err = svc.UpdateProgress(ctx, budi, created.ID, 40, 0)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, got.Status)
	assert.Equal(t, created.Version, got.Version)
	assert.Zero(t, got.Progress)
	assert.Len(t, h.AllNotifications(t), 1)
	assert.Len(t, h.ActivityFor(t, created.ID), 1)
}

func TestService_VersionConflict(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, sari, budi.ID, task.Fields{Title: "Cek pintu air"})
	require.NoError(t, err)
	_, err = svc.Accept(ctx, budi, created.ID, created.Version)
	require.NoError(t, err)

	_, err = svc.UpdateProgress(ctx, budi, created.ID, 50, created.Version)
	assert.ErrorIs(t, err, lifecycle.ErrVersionConflict)
}

func TestService_UpdateProgressKeepsStatus(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, sari, budi.ID, task.Fields{Title: "Cek pintu air"})
	require.NoError(t, err)
	_, err = svc.Accept(ctx, budi, created.ID, 0)
	require.NoError(t, err)

	got, err := svc.UpdateProgress(ctx, budi, created.ID, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Len(t, h.NotificationsFor(t, sari.ID), 1)
}

func TestService_RevisionRoundTrip(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, sari, budi.ID, task.Fields{Title: "Cek pintu air"})
	require.NoError(t, err)
	_, err = svc.Accept(ctx, budi, created.ID, 0)
	require.NoError(t, err)

	_, err = svc.RequestRevision(ctx, sari, created.ID, "", 0)
	assert.ErrorIs(t, err, lifecycle.ErrEmptyReason)

	rev, err := svc.RequestRevision(ctx, sari, created.ID, "tambah foto", 0)
	require.NoError(t, err)
	assert.Equal(t, task.StatusRevisionRequested, rev.Status)

	resumed, err := svc.Resume(ctx, budi, created.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, resumed.Status)

	budiNotes := h.NotificationsFor(t, budi.ID)
	assert.Equal(t, []notification.Type{notification.TypeTaskRequest, notification.TypeTaskRevision}, lifecycletest.Types(budiNotes))
	assert.Equal(t, `Sari requested a revision of "Cek pintu air": tambah foto`, budiNotes[1].Message)
	assert.Equal(t,
		[]notification.Type{notification.TypeTaskAccepted, notification.TypeTaskResumed},
		lifecycletest.Types(h.NotificationsFor(t, sari.ID)))
}

func TestService_DeletePublishesAndNotifies(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, sari, budi.ID, task.Fields{Title: "Cek pintu air"})
	require.NoError(t, err)

	subID, events := h.Bus.Subscribe(16)
	defer h.Bus.Unsubscribe(subID)

	require.NoError(t, svc.Delete(ctx, budi, created.ID, 0))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)

	sariNotes := h.NotificationsFor(t, sari.ID)
	require.Len(t, sariNotes, 1)
	assert.Equal(t, notification.TypeTaskDeleted, sariNotes[0].Type)

	ev := <-events
	assert.Equal(t, eventbus.TypeTaskDeleted, ev.Type)
	assert.Equal(t, created.ID, ev.ResourceID)
	ev = <-events
	assert.Equal(t, eventbus.TypeNotificationCreated, ev.Type)
	assert.Equal(t, sari.ID, ev.Metadata["user_id"])

	assert.ErrorIs(t, svc.Delete(ctx, budi, created.ID, 0), lifecycle.ErrNotFound)
}

func TestService_ListAndArchive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, sari, budi.ID, task.Fields{Title: "Cek pintu air"})
	require.NoError(t, err)
	_, err = svc.Decline(ctx, budi, first.ID, 0)
	require.NoError(t, err)
	second, err := svc.Create(ctx, budi, sari.ID, task.Fields{Title: "Baca piezometer"})
	require.NoError(t, err)

	mine, total, err := svc.List(ctx, task.ListFilter{ReceiverID: sari.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, second.ID, mine[0].ID)

	n, err := svc.ArchiveTerminal(ctx, lifecycletest.Start.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	visible, _, err := svc.List(ctx, task.ListFilter{UserID: budi.ID})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, second.ID, visible[0].ID)

	all, _, err := svc.List(ctx, task.ListFilter{UserID: budi.ID, IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err = svc.ArchiveTerminal(ctx, lifecycletest.Start.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestList_NegativeOffset(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, title := range []string{"Cek pintu air", "Baca piezometer", "Inspeksi spillway"} {
		_, err := svc.Create(ctx, sari, budi.ID, task.Fields{Title: title})
		require.NoError(t, err)
	}

	tasks, total, err := svc.List(ctx, task.ListFilter{Offset: -1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, tasks, 3)

	srv := task.NewServer(svc, lifecycletest.NewDirectory(sari, budi))
	_, err = srv.ListTasks(ctx, &task.ListTasksRequest{Offset: -1})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	res, err := srv.ListTasks(ctx, &task.ListTasksRequest{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Tasks, 1)
}

package task

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/notification"
)

var (
	sender   = lifecycle.Actor{ID: "s", Name: "Sari", Active: true}
	receiver = lifecycle.Actor{ID: "r", Name: "Rudi", Active: true}
	now      = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
)

func newTask(t *testing.T) Task {
	t.Helper()
	tk, _, err := New("t1", sender, receiver, Fields{Title: "Cek pintu air"}, now)
	require.NoError(t, err)
	return tk
}

func TestNew(t *testing.T) {
	tk, eff, err := New("t1", sender, receiver, Fields{Title: "  Cek pintu air "}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, tk.Status)
	assert.Equal(t, "Cek pintu air", tk.Title)
	assert.Equal(t, PriorityMedium, tk.Priority)
	assert.Equal(t, 0, tk.Progress)
	assert.Equal(t, int64(1), tk.Version)
	require.Len(t, eff.Notices, 1)
	assert.Equal(t, receiver.ID, eff.Notices[0].UserID)
	assert.Equal(t, notification.TypeTaskRequest, eff.Notices[0].Type)
	require.NotNil(t, eff.Record)

	tests := []struct {
		name     string
		receiver lifecycle.Actor
		fields   Fields
		want     error
	}{
		{name: "empty title", receiver: receiver, fields: Fields{Title: " "}, want: lifecycle.ErrEmptyTitle},
		{name: "unknown receiver", receiver: lifecycle.Actor{}, fields: Fields{Title: "x"}, want: lifecycle.ErrInvalidReceiver},
		{name: "inactive receiver", receiver: lifecycle.Actor{ID: "r", Name: "Rudi"}, fields: Fields{Title: "x"}, want: lifecycle.ErrInvalidReceiver},
		{name: "self", receiver: sender, fields: Fields{Title: "x"}, want: lifecycle.ErrInvalidReceiver},
		{name: "bad priority", receiver: receiver, fields: Fields{Title: "x", Priority: "whenever"}, want: lifecycle.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New("t1", sender, tt.receiver, tt.fields, now)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransitionLegality(t *testing.T) {
	pending := newTask(t)
	inProgress, _, err := pending.Accept(receiver)
	require.NoError(t, err)
	revision, _, err := inProgress.RequestRevision(sender, "tambah foto")
	require.NoError(t, err)
	completed, _, err := inProgress.Complete(receiver, now)
	require.NoError(t, err)
	declined, _, err := pending.Decline(receiver)
	require.NoError(t, err)

	ops := map[string]func(Task) (Task, error){
		"accept":   func(t Task) (Task, error) { n, _, err := t.Accept(receiver); return n, err },
		"decline":  func(t Task) (Task, error) { n, _, err := t.Decline(receiver); return n, err },
		"revision": func(t Task) (Task, error) { n, _, err := t.RequestRevision(sender, "x"); return n, err },
		"resume":   func(t Task) (Task, error) { n, _, err := t.Resume(receiver); return n, err },
		"complete": func(t Task) (Task, error) { n, _, err := t.Complete(receiver, now); return n, err },
		"progress": func(t Task) (Task, error) { n, _, err := t.UpdateProgress(50); return n, err },
		"edit":     func(t Task) (Task, error) { n, _, err := t.Edit(Fields{Title: "y"}); return n, err },
	}
	legal := map[Status][]string{
		StatusPending:           {"accept", "decline", "edit"},
		StatusInProgress:        {"revision", "complete", "progress", "edit"},
		StatusRevisionRequested: {"resume", "complete", "edit"},
		StatusCompleted:         {},
		StatusDeclined:          {},
	}
	items := map[Status]Task{
		StatusPending:           pending,
		StatusInProgress:        inProgress,
		StatusRevisionRequested: revision,
		StatusCompleted:         completed,
		StatusDeclined:          declined,
	}
	for status, item := range items {
		for name, op := range ops {
			t.Run(string(status)+"/"+name, func(t *testing.T) {
				next, err := op(item)
				if slices.Contains(legal[status], name) {
					assert.NoError(t, err)
					return
				}
				assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
				assert.Equal(t, item, next)
			})
		}
	}
}

func TestUpdateProgressNeverCompletes(t *testing.T) {
	tk, _, err := newTask(t).Accept(receiver)
	require.NoError(t, err)

	tk, eff, err := tk.UpdateProgress(100)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, tk.Status)
	assert.Equal(t, 100, tk.Progress)
	assert.Nil(t, tk.CompletedAt)
	assert.Empty(t, eff.Notices)

	tk, _, err = tk.UpdateProgress(250)
	require.NoError(t, err)
	assert.Equal(t, 100, tk.Progress)
	tk, _, err = tk.UpdateProgress(-5)
	require.NoError(t, err)
	assert.Equal(t, 0, tk.Progress)
}

func TestCompleteSetsProgressAndTime(t *testing.T) {
	tk, _, err := newTask(t).Accept(receiver)
	require.NoError(t, err)
	tk, _, err = tk.UpdateProgress(30)
	require.NoError(t, err)

	done, eff, err := tk.Complete(receiver, now)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(now))
	require.Len(t, eff.Notices, 1)
	assert.Equal(t, sender.ID, eff.Notices[0].UserID)
}

func TestRequestRevisionRequiresReason(t *testing.T) {
	tk, _, err := newTask(t).Accept(receiver)
	require.NoError(t, err)

	_, _, err = tk.RequestRevision(sender, "  ")
	assert.ErrorIs(t, err, lifecycle.ErrEmptyReason)

	rev, eff, err := tk.RequestRevision(sender, "tambah foto")
	require.NoError(t, err)
	assert.Equal(t, "tambah foto", rev.RevisionReason)
	require.Len(t, eff.Notices, 1)
	assert.Equal(t, receiver.ID, eff.Notices[0].UserID)
	assert.Equal(t, "tambah foto", eff.Notices[0].Payload.(notification.TaskPayload).Reason)

	resumed, _, err := rev.Resume(receiver)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, resumed.Status)
	assert.Equal(t, "tambah foto", resumed.RevisionReason)
}

func TestEditRecordsDescriptionDiff(t *testing.T) {
	tk := newTask(t)
	tk.Description = "line one\n"
	edited, eff, err := tk.Edit(Fields{Title: "Cek pintu air", Description: "line one\nline two\n", Priority: PriorityUrgent})
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, edited.Priority)
	require.NotNil(t, eff.Record)
	assert.Contains(t, eff.Record.Details, "+line two")
	assert.Empty(t, eff.Notices)
}

func TestDeleteNotifiesCounterparty(t *testing.T) {
	tk := newTask(t)
	eff := tk.Delete(sender)
	require.Len(t, eff.Notices, 1)
	assert.Equal(t, receiver.ID, eff.Notices[0].UserID)

	eff = tk.Delete(receiver)
	require.Len(t, eff.Notices, 1)
	assert.Equal(t, sender.ID, eff.Notices[0].UserID)
}

func TestArchiveOnlyTerminal(t *testing.T) {
	tk := newTask(t)
	_, _, err := tk.Archive(now)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	declined, _, err := tk.Decline(receiver)
	require.NoError(t, err)
	archived, _, err := declined.Archive(now)
	require.NoError(t, err)
	require.NotNil(t, archived.ArchivedAt)
}

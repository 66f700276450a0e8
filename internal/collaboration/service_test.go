package collaboration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/collaboration"
	"github.com/damwatch/taskdesk/internal/collaboration/repositoryimpl"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/lifecycle/lifecycletest"
	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/internal/verification"
)

var (
	sari = lifecycle.Actor{ID: "u1", Name: "Sari", Active: true}
	budi = lifecycle.Actor{ID: "u2", Name: "Budi", Active: true}
	eko  = lifecycle.Actor{ID: "u3", Name: "Eko", Active: true}
	dewi = lifecycle.Actor{ID: "u4", Name: "Dewi", Admin: true, Active: true}
)

func newService(t *testing.T) (*collaboration.Service, *lifecycletest.Harness) {
	t.Helper()
	h := lifecycletest.New(t)
	dir := lifecycletest.NewDirectory(sari, budi, eko, dewi)
	return collaboration.NewService(repositoryimpl.NewYAMLRepository(h.Store), h.Engine, dir), h
}

// withMembers creates a collaboration by sari with budi and eko joined.
func withMembers(t *testing.T, svc *collaboration.Service) *collaboration.Collaboration {
	t.Helper()
	ctx := context.Background()
	c, err := svc.Create(ctx, sari, collaboration.Fields{Title: "Spillway inspection"}, []string{budi.ID, eko.ID})
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, budi, c.ID, 0)
	require.NoError(t, err)
	c, err = svc.AcceptInvite(ctx, eko, c.ID, 0)
	require.NoError(t, err)
	return c
}

func TestService_Membership(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, sari, collaboration.Fields{}, nil)
	assert.ErrorIs(t, err, lifecycle.ErrEmptyRequiredField)

	c, err := svc.Create(ctx, sari, collaboration.Fields{Title: "Spillway inspection", Urgency: collaboration.UrgencyUrgent}, []string{budi.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{sari.ID}, c.Members)
	assert.Equal(t, []string{budi.ID}, c.PendingInvites)
	assert.Equal(t, []notification.Type{notification.TypeCollaborationInvite}, lifecycletest.Types(h.NotificationsFor(t, budi.ID)))

	_, err = svc.Invite(ctx, sari, c.ID, budi.ID, 0)
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
	_, err = svc.Invite(ctx, sari, c.ID, sari.ID, 0)
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
	_, err = svc.Invite(ctx, sari, c.ID, "ghost", 0)
	assert.ErrorIs(t, err, lifecycle.ErrValidation)

	_, err = svc.AcceptInvite(ctx, eko, c.ID, 0)
	assert.ErrorIs(t, err, lifecycle.ErrPermissionDenied)

	c, err = svc.AcceptInvite(ctx, budi, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{sari.ID, budi.ID}, c.Members)
	assert.Empty(t, c.PendingInvites)

	c, err = svc.Invite(ctx, budi, c.ID, eko.ID, 0)
	require.NoError(t, err)
	c, err = svc.DeclineInvite(ctx, eko, c.ID, 0)
	require.NoError(t, err)
	assert.False(t, c.IsMember(eko.ID))
	assert.False(t, c.IsInvited(eko.ID))

	assert.Equal(t,
		[]notification.Type{notification.TypeCollaborationInviteAccepted, notification.TypeCollaborationInviteDeclined},
		lifecycletest.Types(h.NotificationsFor(t, sari.ID)))

	_, err = svc.RemoveMember(ctx, eko, c.ID, budi.ID, 0)
	assert.ErrorIs(t, err, lifecycle.ErrPermissionDenied)

	c, err = svc.RemoveMember(ctx, sari, c.ID, budi.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{sari.ID}, c.Members)
	budiNotes := h.NotificationsFor(t, budi.ID)
	assert.Equal(t, notification.TypeCollaborationRemoved, budiNotes[len(budiNotes)-1].Type)
}

func TestService_SubtasksAndProgress(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	c := withMembers(t, svc)

	_, err := svc.AddSubtask(ctx, budi, c.ID, collaboration.SubtaskFields{Title: "x", Assignees: []string{dewi.ID}}, 0)
	assert.ErrorIs(t, err, lifecycle.ErrValidation)

	for _, title := range []string{"Photograph gates", "Measure seepage", "Write report"} {
		c, err = svc.AddSubtask(ctx, budi, c.ID, collaboration.SubtaskFields{Title: title, Assignees: []string{budi.ID}}, 0)
		require.NoError(t, err)
	}
	require.Len(t, c.Subtasks, 3)
	assert.Equal(t, 0, c.CompletionPercentage())

	c, err = svc.MoveSubtask(ctx, budi, c.ID, c.Subtasks[0].ID, collaboration.SubtaskDone, 0)
	require.NoError(t, err)
	c, err = svc.MoveSubtask(ctx, eko, c.ID, c.Subtasks[1].ID, collaboration.SubtaskDone, 0)
	require.NoError(t, err)
	assert.Equal(t, 67, c.CompletionPercentage())

	// Moves are free: back out of done and forward again.
	c, err = svc.MoveSubtask(ctx, eko, c.ID, c.Subtasks[1].ID, collaboration.SubtaskTodo, 0)
	require.NoError(t, err)
	assert.Equal(t, 33, c.CompletionPercentage())
	_, err = svc.MoveSubtask(ctx, eko, c.ID, c.Subtasks[1].ID, "blocked", 0)
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
	_, err = svc.MoveSubtask(ctx, eko, c.ID, "missing", collaboration.SubtaskDone, 0)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)

	c, err = svc.SetProgressOverride(ctx, sari, c.ID, 90, 0)
	require.NoError(t, err)
	assert.Equal(t, collaboration.ProgressManual, c.Progress.Mode)
	assert.Equal(t, 90, c.CompletionPercentage())
	_, err = svc.SetProgressOverride(ctx, sari, c.ID, 101, 0)
	assert.ErrorIs(t, err, lifecycle.ErrValidation)

	c, err = svc.ClearProgressOverride(ctx, sari, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 33, c.CompletionPercentage())

	c, err = svc.EditSubtask(ctx, budi, c.ID, c.Subtasks[2].ID, collaboration.SubtaskFields{Title: "Write final report", Assignees: []string{eko.ID, budi.ID, eko.ID}}, 0)
	require.NoError(t, err)
	assert.Equal(t, "Write final report", c.Subtasks[2].Title)
	assert.Equal(t, []string{budi.ID, eko.ID}, c.Subtasks[2].Assignees)

	c, err = svc.DeleteSubtask(ctx, budi, c.ID, c.Subtasks[1].ID, 0)
	require.NoError(t, err)
	assert.Len(t, c.Subtasks, 2)
	assert.Equal(t, 50, c.CompletionPercentage())

	c, err = svc.RemoveMember(ctx, sari, c.ID, eko.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{budi.ID}, c.Subtasks[1].Assignees)
}

func TestService_CompleteVerifyFanOut(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()
	c := withMembers(t, svc)

	_, err := svc.Verify(ctx, dewi, c.ID, verification.DecisionApprove, "", 0)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	c, err = svc.Complete(ctx, budi, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, collaboration.StatusCompleted, c.Status)
	assert.Equal(t, verification.StatusPending, c.Verification.Status)
	require.NotNil(t, c.CompletedAt)

	_, err = svc.AddSubtask(ctx, budi, c.ID, collaboration.SubtaskFields{Title: "late"}, 0)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	_, err = svc.Verify(ctx, sari, c.ID, verification.DecisionApprove, "", 0)
	assert.ErrorIs(t, err, lifecycle.ErrPermissionDenied)
	_, err = svc.Verify(ctx, dewi, c.ID, verification.DecisionRequestRevision, " ", 0)
	assert.ErrorIs(t, err, lifecycle.ErrEmptyRevisionNote)

	c, err = svc.Verify(ctx, dewi, c.ID, verification.DecisionRequestRevision, "add seepage photos", 0)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusRevision, c.Verification.Status)

	c, err = svc.Resubmit(ctx, budi, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusPending, c.Verification.Status)

	c, err = svc.Verify(ctx, dewi, c.ID, verification.DecisionApprove, "", 0)
	require.NoError(t, err)
	assert.Equal(t, dewi.ID, c.Verification.VerifiedBy)

	_, err = svc.Reopen(ctx, sari, c.ID, 0)
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyVerified)

	want := []notification.Type{
		notification.TypeCollaborationCompleted,
		notification.TypeCollaborationRevision,
		notification.TypeCollaborationResubmitted,
		notification.TypeCollaborationVerified,
	}
	assert.Equal(t, want, lifecycletest.Types(h.NotificationsFor(t, sari.ID)[2:]))
	budiNotes := h.NotificationsFor(t, budi.ID)
	assert.Equal(t, []notification.Type{notification.TypeCollaborationRevision, notification.TypeCollaborationVerified},
		lifecycletest.Types(budiNotes[len(budiNotes)-2:]))
	assert.Equal(t, want, lifecycletest.Types(h.NotificationsFor(t, eko.ID)[1:]))
	assert.Empty(t, h.NotificationsFor(t, dewi.ID))
}

func TestService_ResubmitNotifiesMembersAndGiver(t *testing.T) {
	svc, h := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, sari, collaboration.Fields{Title: "Gate telemetry", GivenBy: dewi.ID}, []string{budi.ID})
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, budi, c.ID, 0)
	require.NoError(t, err)

	_, err = svc.Resubmit(ctx, budi, c.ID, 0)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	_, err = svc.Complete(ctx, sari, c.ID, 0)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, dewi, c.ID, verification.DecisionRequestRevision, "missing sensor serials", 0)
	require.NoError(t, err)
	c, err = svc.Resubmit(ctx, budi, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, verification.StatusPending, c.Verification.Status)

	for _, u := range []lifecycle.Actor{sari, dewi} {
		notes := h.NotificationsFor(t, u.ID)
		require.NotEmpty(t, notes, u.Name)
		last := notes[len(notes)-1]
		assert.Equal(t, notification.TypeCollaborationResubmitted, last.Type, u.Name)
		assert.Equal(t, c.ID, last.TaskID)
		assert.Equal(t, notification.MembershipPayload{Title: "Gate telemetry", ActorName: "Budi"}, last.Payload)
	}
	for _, n := range h.NotificationsFor(t, budi.ID) {
		assert.NotEqual(t, notification.TypeCollaborationResubmitted, n.Type)
	}
}

func TestService_Reopen(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	c := withMembers(t, svc)

	_, err := svc.Reopen(ctx, sari, c.ID, 0)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	c, err = svc.Complete(ctx, sari, c.ID, 0)
	require.NoError(t, err)
	c, err = svc.Reopen(ctx, sari, c.ID, c.Version)
	require.NoError(t, err)
	assert.Equal(t, collaboration.StatusActive, c.Status)
	assert.Nil(t, c.CompletedAt)
	assert.Equal(t, verification.StatusNone, c.Verification.Status)
}

func TestService_ListAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	c := withMembers(t, svc)
	other, err := svc.Create(ctx, dewi, collaboration.Fields{Title: "Other"}, []string{eko.ID})
	require.NoError(t, err)

	list, total, err := svc.List(ctx, collaboration.ListFilter{UserID: eko.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, other.ID, list[0].ID)

	list, _, err = svc.List(ctx, collaboration.ListFilter{UserID: budi.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	require.NoError(t, svc.Delete(ctx, sari, c.ID, 0))
	_, err = svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
}

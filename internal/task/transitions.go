package task

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/notification"
)

const kind = "task"

// Fields are the editable parts of a task.
type Fields struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    Priority
}

func (f Fields) validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return lifecycle.Validation(lifecycle.ErrEmptyTitle, "title", "title is required")
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return lifecycle.Validation(lifecycle.ErrValidation, "priority", "priority must be low, medium, high or urgent")
	}
	return nil
}

// New creates a pending task addressed to receiver.
func New(id string, sender, receiver lifecycle.Actor, f Fields, now time.Time) (Task, lifecycle.Effects, error) {
	if err := f.validate(); err != nil {
		return Task{}, lifecycle.Effects{}, err
	}
	if receiver.ID == "" || !receiver.Active {
		return Task{}, lifecycle.Effects{}, lifecycle.Validation(lifecycle.ErrInvalidReceiver, "receiverId", "receiver must be an active user")
	}
	if receiver.ID == sender.ID {
		return Task{}, lifecycle.Effects{}, lifecycle.Validation(lifecycle.ErrInvalidReceiver, "receiverId", "a task cannot be sent to its sender")
	}
	priority := f.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	t := Task{
		ID:          id,
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		SenderID:    sender.ID,
		ReceiverID:  receiver.ID,
		Deadline:    f.Deadline,
		Priority:    priority,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	var eff lifecycle.Effects
	eff.Notify(sender.ID, notification.TypeTaskRequest, t.ID, t.payload(sender, ""), receiver.ID)
	eff.Log(activity.TypeTask, activity.ActionCreated, t.ID, fmt.Sprintf("sent task %q to %s", t.Title, receiver.Name))
	return t, eff, nil
}

func (t Task) payload(a lifecycle.Actor, reason string) notification.TaskPayload {
	return notification.TaskPayload{Title: t.Title, ActorName: a.Name, Reason: reason}
}

func (t Task) require(action string, allowed ...Status) error {
	if !slices.Contains(allowed, t.Status) {
		return lifecycle.InvalidTransition(kind, t.ID, action, t.Status)
	}
	return nil
}

// statusChange moves t to status and addresses one notification to the
// actor's counterparty.
func (t Task) statusChange(a lifecycle.Actor, to Status, typ notification.Type, action activity.Action, reason, description string) (Task, lifecycle.Effects) {
	t.Status = to
	var eff lifecycle.Effects
	eff.Notify(a.ID, typ, t.ID, t.payload(a, reason), t.Counterparty(a.ID))
	eff.Log(activity.TypeTask, action, t.ID, description)
	return t, eff
}

func (t Task) Accept(a lifecycle.Actor) (Task, lifecycle.Effects, error) {
	if err := t.require("accept", StatusPending); err != nil {
		return t, lifecycle.Effects{}, err
	}
	next, eff := t.statusChange(a, StatusInProgress, notification.TypeTaskAccepted, activity.ActionAccepted, "",
		fmt.Sprintf("accepted task %q", t.Title))
	return next, eff, nil
}

func (t Task) Decline(a lifecycle.Actor) (Task, lifecycle.Effects, error) {
	if err := t.require("decline", StatusPending); err != nil {
		return t, lifecycle.Effects{}, err
	}
	next, eff := t.statusChange(a, StatusDeclined, notification.TypeTaskDeclined, activity.ActionDeclined, "",
		fmt.Sprintf("declined task %q", t.Title))
	return next, eff, nil
}

func (t Task) RequestRevision(a lifecycle.Actor, reason string) (Task, lifecycle.Effects, error) {
	if err := t.require("request revision of", StatusInProgress); err != nil {
		return t, lifecycle.Effects{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return t, lifecycle.Effects{}, lifecycle.Validation(lifecycle.ErrEmptyReason, "reason", "a revision reason is required")
	}
	next, eff := t.statusChange(a, StatusRevisionRequested, notification.TypeTaskRevision, activity.ActionRevisionRequested, reason,
		fmt.Sprintf("requested revision of task %q: %s", t.Title, reason))
	next.RevisionReason = reason
	return next, eff, nil
}

// Resume returns a task under revision to in-progress. The revision reason
// is kept for history.
func (t Task) Resume(a lifecycle.Actor) (Task, lifecycle.Effects, error) {
	if err := t.require("resume", StatusRevisionRequested); err != nil {
		return t, lifecycle.Effects{}, err
	}
	next, eff := t.statusChange(a, StatusInProgress, notification.TypeTaskResumed, activity.ActionResumed, "",
		fmt.Sprintf("resumed task %q", t.Title))
	return next, eff, nil
}

func (t Task) Complete(a lifecycle.Actor, now time.Time) (Task, lifecycle.Effects, error) {
	if err := t.require("complete", StatusInProgress, StatusRevisionRequested); err != nil {
		return t, lifecycle.Effects{}, err
	}
	next, eff := t.statusChange(a, StatusCompleted, notification.TypeTaskComplete, activity.ActionCompleted, "",
		fmt.Sprintf("completed task %q", t.Title))
	next.Progress = 100
	next.CompletedAt = &now
	return next, eff, nil
}

// UpdateProgress clamps value to [0,100]. It never changes the status, even
// at 100.
func (t Task) UpdateProgress(value int) (Task, lifecycle.Effects, error) {
	if err := t.require("update progress of", StatusInProgress); err != nil {
		return t, lifecycle.Effects{}, err
	}
	t.Progress = min(max(value, 0), 100)
	var eff lifecycle.Effects
	eff.Log(activity.TypeTask, activity.ActionProgressUpdated, t.ID, fmt.Sprintf("set progress of task %q to %d%%", t.Title, t.Progress))
	return t, eff, nil
}

func (t Task) Edit(f Fields) (Task, lifecycle.Effects, error) {
	if err := t.require("edit", StatusPending, StatusInProgress, StatusRevisionRequested); err != nil {
		return t, lifecycle.Effects{}, err
	}
	if err := f.validate(); err != nil {
		return t, lifecycle.Effects{}, err
	}
	before := t.Description
	t.Title = strings.TrimSpace(f.Title)
	t.Description = f.Description
	t.Deadline = f.Deadline
	if f.Priority != "" {
		t.Priority = f.Priority
	}
	var eff lifecycle.Effects
	eff.Log(activity.TypeTask, activity.ActionEdited, t.ID, fmt.Sprintf("edited task %q", t.Title))
	eff.Record.Details = activity.Diff("description", before, t.Description)
	return t, eff, nil
}

// Delete is legal from every status. The caller removes the item; the
// returned effects tell the counterparty.
func (t Task) Delete(a lifecycle.Actor) lifecycle.Effects {
	var eff lifecycle.Effects
	eff.Notify(a.ID, notification.TypeTaskDeleted, t.ID, t.payload(a, ""), t.Counterparty(a.ID))
	eff.Log(activity.TypeTask, activity.ActionDeleted, t.ID, fmt.Sprintf("deleted task %q", t.Title))
	return eff
}

// Archive hides a terminal task from default listings.
func (t Task) Archive(now time.Time) (Task, lifecycle.Effects, error) {
	if !t.Status.Terminal() {
		return t, lifecycle.Effects{}, lifecycle.InvalidTransition(kind, t.ID, "archive", t.Status)
	}
	t.ArchivedAt = &now
	var eff lifecycle.Effects
	eff.Log(activity.TypeTask, activity.ActionArchived, t.ID, fmt.Sprintf("archived task %q", t.Title))
	return t, eff, nil
}

package collaboration

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/internal/verification"
)

const kind = "collaboration"

type Fields struct {
	Title       string
	Description string
	GivenBy     string
	Urgency     Urgency
}

func (f Fields) validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return lifecycle.Validation(lifecycle.ErrEmptyRequiredField, "title", "title is required")
	}
	if f.Urgency != "" && !f.Urgency.Valid() {
		return lifecycle.Validation(lifecycle.ErrValidation, "urgency", "urgency must be urgent or not-urgent")
	}
	return nil
}

func (c *Collaboration) setFields(f Fields) {
	c.Title = strings.TrimSpace(f.Title)
	c.Description = f.Description
	c.GivenBy = f.GivenBy
	if f.Urgency != "" {
		c.Urgency = f.Urgency
	}
}

func (c Collaboration) membership(a lifecycle.Actor) notification.MembershipPayload {
	return notification.MembershipPayload{Title: c.Title, ActorName: a.Name}
}

func (c Collaboration) requireActive(action string) error {
	if c.Status != StatusActive {
		return lifecycle.InvalidTransition(kind, c.ID, action, c.Status)
	}
	return nil
}

// New starts an active collaboration with the creator as its only member
// and invitations out to invitees.
func New(id string, a lifecycle.Actor, f Fields, invitees []lifecycle.Actor, now time.Time) (Collaboration, lifecycle.Effects, error) {
	if err := f.validate(); err != nil {
		return Collaboration{}, lifecycle.Effects{}, err
	}
	c := Collaboration{
		ID:        id,
		CreatedBy: a.ID,
		Members:   []string{a.ID},
		Status:    StatusActive,
		Urgency:   UrgencyNotUrgent,
		Progress:  Derived(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	c.setFields(f)
	var eff lifecycle.Effects
	for _, invitee := range invitees {
		if err := c.invite(invitee); err != nil {
			return Collaboration{}, lifecycle.Effects{}, err
		}
		eff.Notify(a.ID, notification.TypeCollaborationInvite, c.ID, c.membership(a), invitee.ID)
	}
	eff.Log(activity.TypeCollaboration, activity.ActionCreated, c.ID, fmt.Sprintf("created collaboration %q", c.Title))
	return c, eff, nil
}

func (c Collaboration) Edit(f Fields) (Collaboration, lifecycle.Effects, error) {
	if err := f.validate(); err != nil {
		return c, lifecycle.Effects{}, err
	}
	before := c.Description
	c = c.clone()
	c.setFields(f)
	var eff lifecycle.Effects
	eff.Log(activity.TypeCollaboration, activity.ActionEdited, c.ID, fmt.Sprintf("edited collaboration %q", c.Title))
	eff.Record.Details = activity.Diff("description", before, c.Description)
	return c, eff, nil
}

func (c Collaboration) Delete() lifecycle.Effects {
	var eff lifecycle.Effects
	eff.Log(activity.TypeCollaboration, activity.ActionDeleted, c.ID, fmt.Sprintf("deleted collaboration %q", c.Title))
	return eff
}

func (c *Collaboration) invite(invitee lifecycle.Actor) error {
	switch {
	case invitee.ID == "" || !invitee.Active:
		return lifecycle.Validation(lifecycle.ErrValidation, "userId", "invitee must be an active user")
	case c.IsMember(invitee.ID):
		return lifecycle.Validation(lifecycle.ErrValidation, "userId", invitee.Name+" is already a member")
	case c.IsInvited(invitee.ID):
		return lifecycle.Validation(lifecycle.ErrValidation, "userId", invitee.Name+" is already invited")
	}
	c.PendingInvites = append(c.PendingInvites, invitee.ID)
	return nil
}

func (c Collaboration) Invite(a, invitee lifecycle.Actor) (Collaboration, lifecycle.Effects, error) {
	if err := c.requireActive("invite to"); err != nil {
		return c, lifecycle.Effects{}, err
	}
	next := c.clone()
	if err := next.invite(invitee); err != nil {
		return c, lifecycle.Effects{}, err
	}
	var eff lifecycle.Effects
	eff.Notify(a.ID, notification.TypeCollaborationInvite, c.ID, c.membership(a), invitee.ID)
	eff.Log(activity.TypeCollaboration, activity.ActionInvited, c.ID,
		fmt.Sprintf("invited %s to collaboration %q", invitee.Name, c.Title))
	return next, eff, nil
}

func (c Collaboration) answerInvite(a lifecycle.Actor, accept bool) (Collaboration, lifecycle.Effects, error) {
	if !c.IsInvited(a.ID) {
		return c, lifecycle.Effects{}, lifecycle.PermissionDenied("only an invited user may answer an invitation")
	}
	next := c.clone()
	next.PendingInvites = slices.DeleteFunc(next.PendingInvites, func(id string) bool { return id == a.ID })

	typ, action, verb := notification.TypeCollaborationInviteDeclined, activity.ActionInviteDeclined, "declined"
	if accept {
		next.Members = append(next.Members, a.ID)
		typ, action, verb = notification.TypeCollaborationInviteAccepted, activity.ActionInviteAccepted, "accepted"
	}
	var eff lifecycle.Effects
	eff.Notify(a.ID, typ, c.ID, c.membership(a), c.CreatedBy)
	eff.Log(activity.TypeCollaboration, action, c.ID, fmt.Sprintf("%s the invitation to collaboration %q", verb, c.Title))
	return next, eff, nil
}

func (c Collaboration) AcceptInvite(a lifecycle.Actor) (Collaboration, lifecycle.Effects, error) {
	return c.answerInvite(a, true)
}

func (c Collaboration) DeclineInvite(a lifecycle.Actor) (Collaboration, lifecycle.Effects, error) {
	return c.answerInvite(a, false)
}

// RemoveMember is open to current members only. A member may remove
// themself.
func (c Collaboration) RemoveMember(a, member lifecycle.Actor) (Collaboration, lifecycle.Effects, error) {
	if !c.IsMember(a.ID) {
		return c, lifecycle.Effects{}, lifecycle.PermissionDenied("only members may remove members")
	}
	if !c.IsMember(member.ID) {
		return c, lifecycle.Effects{}, lifecycle.Validation(lifecycle.ErrValidation, "userId", "user is not a member")
	}
	next := c.clone()
	next.Members = slices.DeleteFunc(next.Members, func(id string) bool { return id == member.ID })
	for i := range next.Subtasks {
		next.Subtasks[i].Assignees = slices.DeleteFunc(next.Subtasks[i].Assignees, func(id string) bool { return id == member.ID })
	}
	var eff lifecycle.Effects
	eff.Notify(a.ID, notification.TypeCollaborationRemoved, c.ID, c.membership(a), member.ID)
	eff.Log(activity.TypeCollaboration, activity.ActionMemberRemoved, c.ID,
		fmt.Sprintf("removed %s from collaboration %q", member.Name, c.Title))
	return next, eff, nil
}

type SubtaskFields struct {
	Title       string
	Description string
	Assignees   []string
}

func (c Collaboration) validateSubtask(f SubtaskFields) error {
	if strings.TrimSpace(f.Title) == "" {
		return lifecycle.Validation(lifecycle.ErrEmptyRequiredField, "title", "subtask title is required")
	}
	for _, id := range f.Assignees {
		if !c.IsMember(id) {
			return lifecycle.Validation(lifecycle.ErrValidation, "assignees", "assignees must be members")
		}
	}
	return nil
}

func (c Collaboration) subtaskIndex(id string) (int, error) {
	i := c.subtask(id)
	if i < 0 {
		return -1, lifecycle.NotFound("subtask", id)
	}
	return i, nil
}

func (c Collaboration) AddSubtask(subtaskID string, f SubtaskFields) (Collaboration, lifecycle.Effects, error) {
	if err := c.requireActive("add a subtask to"); err != nil {
		return c, lifecycle.Effects{}, err
	}
	if err := c.validateSubtask(f); err != nil {
		return c, lifecycle.Effects{}, err
	}
	next := c.clone()
	next.Subtasks = append(next.Subtasks, Subtask{
		ID:          subtaskID,
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		Status:      SubtaskTodo,
		Assignees:   slices.Compact(slices.Sorted(slices.Values(f.Assignees))),
	})
	var eff lifecycle.Effects
	eff.Log(activity.TypeSubtask, activity.ActionCreated, c.ID, fmt.Sprintf("added subtask %q to %q", strings.TrimSpace(f.Title), c.Title))
	return next, eff, nil
}

func (c Collaboration) EditSubtask(subtaskID string, f SubtaskFields) (Collaboration, lifecycle.Effects, error) {
	if err := c.requireActive("edit a subtask of"); err != nil {
		return c, lifecycle.Effects{}, err
	}
	i, err := c.subtaskIndex(subtaskID)
	if err != nil {
		return c, lifecycle.Effects{}, err
	}
	if err := c.validateSubtask(f); err != nil {
		return c, lifecycle.Effects{}, err
	}
	next := c.clone()
	st := &next.Subtasks[i]
	before := st.Description
	st.Title = strings.TrimSpace(f.Title)
	st.Description = f.Description
	st.Assignees = slices.Compact(slices.Sorted(slices.Values(f.Assignees)))
	var eff lifecycle.Effects
	eff.Log(activity.TypeSubtask, activity.ActionEdited, c.ID, fmt.Sprintf("edited subtask %q of %q", st.Title, c.Title))
	eff.Record.Details = activity.Diff("description", before, st.Description)
	return next, eff, nil
}

func (c Collaboration) DeleteSubtask(subtaskID string) (Collaboration, lifecycle.Effects, error) {
	if err := c.requireActive("delete a subtask of"); err != nil {
		return c, lifecycle.Effects{}, err
	}
	i, err := c.subtaskIndex(subtaskID)
	if err != nil {
		return c, lifecycle.Effects{}, err
	}
	next := c.clone()
	title := next.Subtasks[i].Title
	next.Subtasks = slices.Delete(next.Subtasks, i, i+1)
	var eff lifecycle.Effects
	eff.Log(activity.TypeSubtask, activity.ActionDeleted, c.ID, fmt.Sprintf("deleted subtask %q of %q", title, c.Title))
	return next, eff, nil
}

// MoveSubtask puts a subtask in any column; moves are unrestricted.
func (c Collaboration) MoveSubtask(subtaskID string, to SubtaskStatus) (Collaboration, lifecycle.Effects, error) {
	if err := c.requireActive("move a subtask of"); err != nil {
		return c, lifecycle.Effects{}, err
	}
	if !to.Valid() {
		return c, lifecycle.Effects{}, lifecycle.Validation(lifecycle.ErrValidation, "status", "status must be todo, in-progress or done")
	}
	i, err := c.subtaskIndex(subtaskID)
	if err != nil {
		return c, lifecycle.Effects{}, err
	}
	next := c.clone()
	st := &next.Subtasks[i]
	from := st.Status
	st.Status = to
	var eff lifecycle.Effects
	eff.Log(activity.TypeSubtask, activity.ActionMoved, c.ID, fmt.Sprintf("moved subtask %q from %s to %s", st.Title, from, to))
	return next, eff, nil
}

func (c Collaboration) SetProgressOverride(value int) (Collaboration, lifecycle.Effects, error) {
	if value < 0 || value > 100 {
		return c, lifecycle.Effects{}, lifecycle.Validation(lifecycle.ErrValidation, "progress", "progress must be between 0 and 100")
	}
	next := c.clone()
	next.Progress = ManualOverride(value)
	var eff lifecycle.Effects
	eff.Log(activity.TypeCollaboration, activity.ActionProgressOverride, c.ID, fmt.Sprintf("set progress of %q to %d%%", c.Title, value))
	return next, eff, nil
}

func (c Collaboration) ClearProgressOverride() (Collaboration, lifecycle.Effects, error) {
	next := c.clone()
	next.Progress = Derived()
	var eff lifecycle.Effects
	eff.Log(activity.TypeCollaboration, activity.ActionProgressDerived, c.ID,
		fmt.Sprintf("cleared the progress override of %q (now %d%%)", c.Title, next.CompletionPercentage()))
	return next, eff, nil
}

func (c Collaboration) Complete(a lifecycle.Actor, now time.Time) (Collaboration, lifecycle.Effects, error) {
	if err := c.requireActive("complete"); err != nil {
		return c, lifecycle.Effects{}, err
	}
	next := c.clone()
	next.Status = StatusCompleted
	next.CompletedAt = &now
	next.Verification = verification.Pending()
	var eff lifecycle.Effects
	eff.Notify(a.ID, notification.TypeCollaborationCompleted, c.ID, c.membership(a), c.Members...)
	eff.Log(activity.TypeCollaboration, activity.ActionCompleted, c.ID, fmt.Sprintf("completed collaboration %q", c.Title))
	return next, eff, nil
}

// Reopen undoes completion while no verifier has approved the work.
func (c Collaboration) Reopen() (Collaboration, lifecycle.Effects, error) {
	if c.Status != StatusCompleted {
		return c, lifecycle.Effects{}, lifecycle.InvalidTransition(kind, c.ID, "reopen", c.Status)
	}
	if c.Verification.IsVerified() {
		return c, lifecycle.Effects{}, lifecycle.AlreadyVerified(kind, c.ID)
	}
	next := c.clone()
	next.Status = StatusActive
	next.CompletedAt = nil
	next.Verification = verification.Verification{}
	var eff lifecycle.Effects
	eff.Log(activity.TypeCollaboration, activity.ActionReopened, c.ID, fmt.Sprintf("reopened collaboration %q", c.Title))
	return next, eff, nil
}

func (c Collaboration) Verify(a lifecycle.Actor, decision verification.Decision, note string, now time.Time) (Collaboration, lifecycle.Effects, error) {
	if err := a.RequireAdmin("verifying collaborations"); err != nil {
		return c, lifecycle.Effects{}, err
	}
	if c.Status != StatusCompleted {
		return c, lifecycle.Effects{}, lifecycle.InvalidTransition(kind, c.ID, "verify", c.Status)
	}
	v, err := c.Verification.Decide(kind, c.ID, decision, note, a.ID, now)
	if err != nil {
		return c, lifecycle.Effects{}, err
	}
	next := c.clone()
	next.Verification = v

	payload := notification.VerificationPayload{Title: c.Title, VerifierName: a.Name, Note: v.RevisionNote}
	var eff lifecycle.Effects
	if v.IsVerified() {
		eff.Notify(a.ID, notification.TypeCollaborationVerified, c.ID, payload, c.Members...)
		eff.Log(activity.TypeCollaboration, activity.ActionVerified, c.ID, fmt.Sprintf("verified collaboration %q", c.Title))
	} else {
		eff.Notify(a.ID, notification.TypeCollaborationRevision, c.ID, payload, c.Members...)
		eff.Log(activity.TypeCollaboration, activity.ActionRevision, c.ID,
			fmt.Sprintf("requested revision of collaboration %q: %s", c.Title, v.RevisionNote))
	}
	return next, eff, nil
}

// Resubmit returns a collaboration under revision to pending verification
// and tells the other members and the giver.
func (c Collaboration) Resubmit(a lifecycle.Actor) (Collaboration, lifecycle.Effects, error) {
	v, err := c.Verification.Resubmit(kind, c.ID)
	if err != nil {
		return c, lifecycle.Effects{}, err
	}
	next := c.clone()
	next.Verification = v
	recipients := c.Members
	if c.GivenBy != "" && !slices.Contains(recipients, c.GivenBy) {
		recipients = append(slices.Clone(recipients), c.GivenBy)
	}
	var eff lifecycle.Effects
	eff.Notify(a.ID, notification.TypeCollaborationResubmitted, c.ID, c.membership(a), recipients...)
	eff.Log(activity.TypeCollaboration, activity.ActionResubmitted, c.ID, fmt.Sprintf("resubmitted collaboration %q", c.Title))
	return next, eff, nil
}

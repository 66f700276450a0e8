package disposition

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

const kind = "disposition"

// Fields are the editable parts of a disposition with givers and receivers
// already resolved.
type Fields struct {
	Title       string
	Description string
	Givers      []lifecycle.Actor
	Receivers   []lifecycle.Actor
	Period      Period
	Link        string
	Notes       string
}

func (f Fields) validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return lifecycle.Validation(lifecycle.ErrEmptyRequiredField, "title", "title is required")
	}
	if len(f.Givers) == 0 {
		return lifecycle.Validation(lifecycle.ErrEmptyRequiredField, "giverIds", "at least one giver is required")
	}
	if len(f.Receivers) == 0 {
		return lifecycle.Validation(lifecycle.ErrEmptyRequiredField, "receiverIds", "at least one receiver is required")
	}
	if !f.Period.Valid() {
		return lifecycle.Validation(lifecycle.ErrValidation, "period", "period must be harian, mingguan or bulanan")
	}
	return nil
}

func split(actors []lifecycle.Actor) (ids, names []string) {
	for _, a := range actors {
		if slices.Contains(ids, a.ID) {
			continue
		}
		ids = append(ids, a.ID)
		names = append(names, a.Name)
	}
	return ids, names
}

func (d *Disposition) setFields(f Fields) {
	d.Title = strings.TrimSpace(f.Title)
	d.Description = f.Description
	d.GiverIDs, d.GiverNames = split(f.Givers)
	d.ReceiverIDs, d.ReceiverNames = split(f.Receivers)
	d.Period = f.Period
	d.Link = f.Link
	d.Notes = f.Notes
}

func (d Disposition) assignment(a lifecycle.Actor) notification.AssignmentPayload {
	return notification.AssignmentPayload{Title: d.Title, ActorName: a.Name, Period: string(d.Period)}
}

// New creates an active disposition and assigns it to every receiver.
func New(id string, a lifecycle.Actor, f Fields, now time.Time) (Disposition, lifecycle.Effects, error) {
	if err := f.validate(); err != nil {
		return Disposition{}, lifecycle.Effects{}, err
	}
	d := Disposition{
		ID:        id,
		Status:    StatusActive,
		IsActive:  true,
		CreatedBy: a.ID,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	d.setFields(f)
	var eff lifecycle.Effects
	eff.Notify(a.ID, notification.TypeDispositionAssigned, d.ID, d.assignment(a), d.ReceiverIDs...)
	eff.Log(activity.TypeDisposition, activity.ActionCreated, d.ID,
		fmt.Sprintf("added %s disposition %q for %s", d.Period, d.Title, strings.Join(d.ReceiverNames, ", ")))
	return d, eff, nil
}

// Edit replaces the editable fields. Receivers added by the edit are told
// about the assignment.
func (d Disposition) Edit(a lifecycle.Actor, f Fields) (Disposition, lifecycle.Effects, error) {
	if err := f.validate(); err != nil {
		return d, lifecycle.Effects{}, err
	}
	before := d
	d.setFields(f)

	var added []string
	for _, id := range d.ReceiverIDs {
		if !slices.Contains(before.ReceiverIDs, id) {
			added = append(added, id)
		}
	}
	var eff lifecycle.Effects
	eff.Notify(a.ID, notification.TypeDispositionAssigned, d.ID, d.assignment(a), added...)
	eff.Log(activity.TypeDisposition, activity.ActionEdited, d.ID, fmt.Sprintf("edited disposition %q", d.Title))
	eff.Record.Details = activity.Diff("description", before.Description, d.Description)
	return d, eff, nil
}

func (d Disposition) Remove() lifecycle.Effects {
	var eff lifecycle.Effects
	eff.Log(activity.TypeDisposition, activity.ActionDeleted, d.ID, fmt.Sprintf("removed disposition %q", d.Title))
	return eff
}

// ToggleActive flips the activity flag. Inactive dispositions keep every
// other field and drop out of default listings.
func (d Disposition) ToggleActive(a lifecycle.Actor) (Disposition, lifecycle.Effects, error) {
	if err := a.RequireAdmin("toggling dispositions"); err != nil {
		return d, lifecycle.Effects{}, err
	}
	d.IsActive = !d.IsActive
	action, verb := activity.ActionActivated, "activated"
	if !d.IsActive {
		action, verb = activity.ActionDeactivated, "deactivated"
	}
	var eff lifecycle.Effects
	eff.Log(activity.TypeDisposition, action, d.ID, fmt.Sprintf("%s disposition %q", verb, d.Title))
	return d, eff, nil
}

// SetStatus moves between the two open statuses.
func (d Disposition) SetStatus(to Status) (Disposition, lifecycle.Effects, error) {
	if to != StatusActive && to != StatusPending {
		return d, lifecycle.Effects{}, lifecycle.Validation(lifecycle.ErrValidation, "status", "status must be active or pending")
	}
	if d.Status == StatusCompleted {
		return d, lifecycle.Effects{}, lifecycle.InvalidTransition(kind, d.ID, "set status of", d.Status)
	}
	from := d.Status
	d.Status = to
	var eff lifecycle.Effects
	eff.Log(activity.TypeDisposition, activity.ActionStatusChanged, d.ID,
		fmt.Sprintf("changed disposition %q from %s to %s", d.Title, from, to))
	return d, eff, nil
}

// Complete finishes the disposition and queues it for verification.
func (d Disposition) Complete(a lifecycle.Actor, now time.Time) (Disposition, lifecycle.Effects, error) {
	if d.Status == StatusCompleted {
		return d, lifecycle.Effects{}, lifecycle.InvalidTransition(kind, d.ID, "complete", d.Status)
	}
	d.Status = StatusCompleted
	d.CompletedAt = &now
	d.Verification = verification.Pending()
	var eff lifecycle.Effects
	eff.Notify(a.ID, notification.TypeDispositionCompleted, d.ID, d.assignment(a), d.GiverIDs...)
	eff.Log(activity.TypeDisposition, activity.ActionCompleted, d.ID, fmt.Sprintf("completed disposition %q", d.Title))
	return d, eff, nil
}

// Verify records an admin's decision on completed work.
func (d Disposition) Verify(a lifecycle.Actor, decision verification.Decision, note string, now time.Time) (Disposition, lifecycle.Effects, error) {
	if err := a.RequireAdmin("verifying dispositions"); err != nil {
		return d, lifecycle.Effects{}, err
	}
	if d.Status != StatusCompleted {
		return d, lifecycle.Effects{}, lifecycle.InvalidTransition(kind, d.ID, "verify", d.Status)
	}
	v, err := d.Verification.Decide(kind, d.ID, decision, note, a.ID, now)
	if err != nil {
		return d, lifecycle.Effects{}, err
	}
	d.Verification = v

	payload := notification.VerificationPayload{Title: d.Title, VerifierName: a.Name, Note: v.RevisionNote}
	var eff lifecycle.Effects
	if v.IsVerified() {
		eff.Notify(a.ID, notification.TypeDispositionVerified, d.ID, payload, d.ReceiverIDs...)
		eff.Log(activity.TypeDisposition, activity.ActionVerified, d.ID, fmt.Sprintf("verified disposition %q", d.Title))
	} else {
		eff.Notify(a.ID, notification.TypeDispositionRevision, d.ID, payload, d.ReceiverIDs...)
		eff.Log(activity.TypeDisposition, activity.ActionRevision, d.ID,
			fmt.Sprintf("requested revision of disposition %q: %s", d.Title, v.RevisionNote))
	}
	return d, eff, nil
}

// Resubmit returns a disposition under revision to pending verification.
func (d Disposition) Resubmit(a lifecycle.Actor) (Disposition, lifecycle.Effects, error) {
	v, err := d.Verification.Resubmit(kind, d.ID)
	if err != nil {
		return d, lifecycle.Effects{}, err
	}
	d.Verification = v
	var eff lifecycle.Effects
	eff.Notify(a.ID, notification.TypeDispositionResubmitted, d.ID, d.assignment(a), d.GiverIDs...)
	eff.Log(activity.TypeDisposition, activity.ActionResubmitted, d.ID, fmt.Sprintf("resubmitted disposition %q", d.Title))
	return d, eff, nil
}

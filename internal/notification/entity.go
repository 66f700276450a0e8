package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

type Type string

const (
	TypeTaskRequest  Type = "task-request"
	TypeTaskAccepted Type = "task-accepted"
	TypeTaskDeclined Type = "task-declined"
	TypeTaskRevision Type = "task-revision"
	TypeTaskResumed  Type = "task-resumed"
	TypeTaskComplete Type = "task-completed"
	TypeTaskDeleted  Type = "task-deleted"

	TypeDispositionAssigned    Type = "disposition-assigned"
	TypeDispositionVerified    Type = "disposition-verified"
	TypeDispositionRevision    Type = "disposition-revision"
	TypeDispositionResubmitted Type = "disposition-resubmitted"
	TypeDispositionCompleted   Type = "disposition-completed"

	TypeCollaborationInvite         Type = "collaboration-invite"
	TypeCollaborationInviteAccepted Type = "collaboration-invite-accepted"
	TypeCollaborationInviteDeclined Type = "collaboration-invite-declined"
	TypeCollaborationRemoved        Type = "collaboration-removed"
	TypeCollaborationVerified       Type = "collaboration-verified"
	TypeCollaborationRevision       Type = "collaboration-revision"
	TypeCollaborationResubmitted    Type = "collaboration-resubmitted"
	TypeCollaborationCompleted      Type = "collaboration-completed"
)

// Payload is the type-specific part of a notification. Each variant carries
// only the fields its notification types render.
type Payload interface {
	kind() string
	// TemplateData feeds the localized message template.
	TemplateData() map[string]any
}

// TaskPayload backs the task-* types.
type TaskPayload struct {
	Title     string `yaml:"title" json:"title"`
	ActorName string `yaml:"actor_name" json:"actorName"`
	Reason    string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

func (TaskPayload) kind() string { return "task" }

func (p TaskPayload) TemplateData() map[string]any {
	return map[string]any{"Title": p.Title, "Actor": p.ActorName, "Reason": p.Reason}
}

// AssignmentPayload backs disposition-assigned, disposition-resubmitted and
// disposition-completed.
type AssignmentPayload struct {
	Title     string `yaml:"title" json:"title"`
	ActorName string `yaml:"actor_name" json:"actorName"`
	Period    string `yaml:"period" json:"period"`
}

func (AssignmentPayload) kind() string { return "assignment" }

func (p AssignmentPayload) TemplateData() map[string]any {
	return map[string]any{"Title": p.Title, "Actor": p.ActorName, "Period": p.Period}
}

// VerificationPayload backs the *-verified and *-revision types.
type VerificationPayload struct {
	Title        string `yaml:"title" json:"title"`
	VerifierName string `yaml:"verifier_name" json:"verifierName"`
	Note         string `yaml:"note,omitempty" json:"note,omitempty"`
}

func (VerificationPayload) kind() string { return "verification" }

func (p VerificationPayload) TemplateData() map[string]any {
	return map[string]any{"Title": p.Title, "Actor": p.VerifierName, "Note": p.Note}
}

// MembershipPayload backs collaboration invites, membership changes,
// collaboration-resubmitted and collaboration-completed.
type MembershipPayload struct {
	Title     string `yaml:"title" json:"title"`
	ActorName string `yaml:"actor_name" json:"actorName"`
}

func (MembershipPayload) kind() string { return "membership" }

func (p MembershipPayload) TemplateData() map[string]any {
	return map[string]any{"Title": p.Title, "Actor": p.ActorName}
}

type Notification struct {
	ID        string
	UserID    string
	Type      Type
	Message   string
	TaskID    string
	Payload   Payload
	IsRead    bool
	CreatedAt time.Time
	ReadAt    *time.Time
}

// envelope is the stored and wire shape of Payload: a kind tag plus exactly
// one populated variant.
type envelope struct {
	Kind         string               `yaml:"kind" json:"kind"`
	Task         *TaskPayload         `yaml:"task,omitempty" json:"task,omitempty"`
	Assignment   *AssignmentPayload   `yaml:"assignment,omitempty" json:"assignment,omitempty"`
	Verification *VerificationPayload `yaml:"verification,omitempty" json:"verification,omitempty"`
	Membership   *MembershipPayload   `yaml:"membership,omitempty" json:"membership,omitempty"`
}

type document struct {
	ID        string     `yaml:"id" json:"id"`
	UserID    string     `yaml:"user_id" json:"userId"`
	Type      Type       `yaml:"type" json:"type"`
	Message   string     `yaml:"message" json:"message"`
	TaskID    string     `yaml:"task_id,omitempty" json:"taskId,omitempty"`
	Payload   *envelope  `yaml:"payload,omitempty" json:"payload,omitempty"`
	IsRead    bool       `yaml:"is_read" json:"isRead"`
	CreatedAt time.Time  `yaml:"created_at" json:"createdAt"`
	ReadAt    *time.Time `yaml:"read_at,omitempty" json:"readAt,omitempty"`
}

func wrap(p Payload) *envelope {
	if p == nil {
		return nil
	}
	env := &envelope{Kind: p.kind()}
	switch v := p.(type) {
	case TaskPayload:
		env.Task = &v
	case AssignmentPayload:
		env.Assignment = &v
	case VerificationPayload:
		env.Verification = &v
	case MembershipPayload:
		env.Membership = &v
	}
	return env
}

func (e *envelope) unwrap() (Payload, error) {
	if e == nil {
		return nil, nil
	}
	switch {
	case e.Kind == "task" && e.Task != nil:
		return *e.Task, nil
	case e.Kind == "assignment" && e.Assignment != nil:
		return *e.Assignment, nil
	case e.Kind == "verification" && e.Verification != nil:
		return *e.Verification, nil
	case e.Kind == "membership" && e.Membership != nil:
		return *e.Membership, nil
	}
	return nil, fmt.Errorf("unknown notification payload kind %q", e.Kind)
}

func (n *Notification) toDocument() document {
	return document{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Message:   n.Message,
		TaskID:    n.TaskID,
		Payload:   wrap(n.Payload),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}

func (n *Notification) fromDocument(d document) error {
	payload, err := d.Payload.unwrap()
	if err != nil {
		return err
	}
	*n = Notification{
		ID:        d.ID,
		UserID:    d.UserID,
		Type:      d.Type,
		Message:   d.Message,
		TaskID:    d.TaskID,
		Payload:   payload,
		IsRead:    d.IsRead,
		CreatedAt: d.CreatedAt,
		ReadAt:    d.ReadAt,
	}
	return nil
}

func (n Notification) MarshalYAML() (any, error) {
	return n.toDocument(), nil
}

func (n *Notification) UnmarshalYAML(value *yaml.Node) error {
	var d document
	if err := value.Decode(&d); err != nil {
		return err
	}
	return n.fromDocument(d)
}

func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toDocument())
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var d document
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	return n.fromDocument(d)
}

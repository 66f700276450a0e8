package activity

import "time"

type Type string

const (
	TypeTask          Type = "task"
	TypeDisposition   Type = "disposition"
	TypeCollaboration Type = "collaboration"
	TypeSubtask       Type = "subtask"
	TypeUser          Type = "user"
	TypeUI            Type = "ui"
)

type Action string

const (
	ActionCreated           Action = "created"
	ActionEdited            Action = "edited"
	ActionDeleted           Action = "deleted"
	ActionAccepted          Action = "accepted"
	ActionDeclined          Action = "declined"
	ActionRevisionRequested Action = "revision-requested"
	ActionResumed           Action = "resumed"
	ActionCompleted         Action = "completed"
	ActionProgressUpdated   Action = "progress-updated"
	ActionStatusChanged     Action = "status-changed"
	ActionActivated         Action = "activated"
	ActionDeactivated       Action = "deactivated"
	ActionVerified          Action = "verified"
	ActionRevision          Action = "revision"
	ActionResubmitted       Action = "resubmitted"
	ActionReopened          Action = "reopened"
	ActionInvited           Action = "invited"
	ActionInviteAccepted    Action = "invite-accepted"
	ActionInviteDeclined    Action = "invite-declined"
	ActionMemberRemoved     Action = "member-removed"
	ActionMoved             Action = "moved"
	ActionProgressOverride  Action = "progress-overridden"
	ActionProgressDerived   Action = "progress-derived"
	ActionArchived          Action = "archived"
	ActionViewed            Action = "viewed"
	ActionExported          Action = "exported"
)

// Entry is append-only; nothing rewrites an entry once stored.
type Entry struct {
	ID          string    `yaml:"id" json:"id"`
	Type        Type      `yaml:"type" json:"type"`
	Action      Action    `yaml:"action" json:"action"`
	UserID      string    `yaml:"user_id" json:"userId"`
	UserName    string    `yaml:"user_name" json:"userName"`
	ItemID      string    `yaml:"item_id,omitempty" json:"itemId,omitempty"`
	Description string    `yaml:"description" json:"description"`
	Details     string    `yaml:"details,omitempty" json:"details,omitempty"`
	Timestamp   time.Time `yaml:"timestamp" json:"timestamp"`
}

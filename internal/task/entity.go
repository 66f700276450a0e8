package task

import "time"

type Status string

const (
	StatusPending           Status = "pending"
	StatusInProgress        Status = "in-progress"
	StatusCompleted         Status = "completed"
	StatusDeclined          Status = "declined"
	StatusRevisionRequested Status = "revision-requested"
)

// Terminal statuses accept no further transition except deletion.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusDeclined
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a direct task from one sender to one receiver.
//
// Stored tasks keep status=completed ⇒ progress=100 and completedAt set
// exactly when status=completed. Progress may reach 100 before completion;
// completion is always an explicit action.
type Task struct {
	ID             string     `yaml:"id" json:"id"`
	Title          string     `yaml:"title" json:"title"`
	Description    string     `yaml:"description,omitempty" json:"description,omitempty"`
	SenderID       string     `yaml:"sender_id" json:"senderId"`
	ReceiverID     string     `yaml:"receiver_id" json:"receiverId"`
	Deadline       *time.Time `yaml:"deadline,omitempty" json:"deadline,omitempty"`
	Priority       Priority   `yaml:"priority" json:"priority"`
	Status         Status     `yaml:"status" json:"status"`
	Progress       int        `yaml:"progress" json:"progress"`
	RevisionReason string     `yaml:"revision_reason,omitempty" json:"revisionReason,omitempty"`
	CreatedAt      time.Time  `yaml:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `yaml:"updated_at" json:"updatedAt"`
	CompletedAt    *time.Time `yaml:"completed_at,omitempty" json:"completedAt,omitempty"`
	ArchivedAt     *time.Time `yaml:"archived_at,omitempty" json:"archivedAt,omitempty"`
	Version        int64      `yaml:"version" json:"version"`
}

// Counterparty is the other side of the task from userID's point of view.
// Anyone who is not the sender is answered by the sender.
func (t *Task) Counterparty(userID string) string {
	if userID == t.SenderID {
		return t.ReceiverID
	}
	return t.SenderID
}

package collaboration

import (
	"math"
	"slices"
	"time"

	"github.com/damwatch/taskdesk/internal/verification"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type Urgency string

const (
	UrgencyUrgent    Urgency = "urgent"
	UrgencyNotUrgent Urgency = "not-urgent"
)

func (u Urgency) Valid() bool {
	return u == UrgencyUrgent || u == UrgencyNotUrgent
}

// SubtaskStatus doubles as the board column a subtask sits in.
type SubtaskStatus string

const (
	SubtaskTodo       SubtaskStatus = "todo"
	SubtaskInProgress SubtaskStatus = "in-progress"
	SubtaskDone       SubtaskStatus = "done"
)

func (s SubtaskStatus) Valid() bool {
	switch s {
	case SubtaskTodo, SubtaskInProgress, SubtaskDone:
		return true
	}
	return false
}

type Subtask struct {
	ID          string        `yaml:"id" json:"id"`
	Title       string        `yaml:"title" json:"title"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Status      SubtaskStatus `yaml:"status" json:"status"`
	Assignees   []string      `yaml:"assignees,omitempty" json:"assignees,omitempty"`
}

type ProgressMode string

const (
	ProgressDerived ProgressMode = "derived"
	ProgressManual  ProgressMode = "manual"
)

// Progress is either derived from subtasks or a manual override. Value is
// meaningful only in manual mode.
type Progress struct {
	Mode  ProgressMode `yaml:"mode" json:"mode"`
	Value int          `yaml:"value,omitempty" json:"value,omitempty"`
}

func Derived() Progress {
	return Progress{Mode: ProgressDerived}
}

func ManualOverride(value int) Progress {
	return Progress{Mode: ProgressManual, Value: value}
}

type Collaboration struct {
	ID             string                    `yaml:"id" json:"id"`
	Title          string                    `yaml:"title" json:"title"`
	Description    string                    `yaml:"description,omitempty" json:"description,omitempty"`
	CreatedBy      string                    `yaml:"created_by" json:"createdBy"`
	GivenBy        string                    `yaml:"given_by,omitempty" json:"givenBy,omitempty"`
	Members        []string                  `yaml:"members" json:"members"`
	PendingInvites []string                  `yaml:"pending_invites,omitempty" json:"pendingInvites,omitempty"`
	Status         Status                    `yaml:"status" json:"status"`
	Urgency        Urgency                   `yaml:"urgency" json:"urgency"`
	Subtasks       []Subtask                 `yaml:"tasks,omitempty" json:"tasks,omitempty"`
	Progress       Progress                  `yaml:"progress" json:"progress"`
	Verification   verification.Verification `yaml:"verification,omitempty" json:"verification"`
	CompletedAt    *time.Time                `yaml:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedAt      time.Time                 `yaml:"created_at" json:"createdAt"`
	UpdatedAt      time.Time                 `yaml:"updated_at" json:"updatedAt"`
	Version        int64                     `yaml:"version" json:"version"`
}

// CompletionPercentage is the manual override when one is set, otherwise
// the rounded share of done subtasks. No subtasks means 0.
func (c *Collaboration) CompletionPercentage() int {
	if c.Progress.Mode == ProgressManual {
		return c.Progress.Value
	}
	if len(c.Subtasks) == 0 {
		return 0
	}
	done := 0
	for _, st := range c.Subtasks {
		if st.Status == SubtaskDone {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(c.Subtasks)) * 100))
}

func (c *Collaboration) IsMember(userID string) bool {
	return slices.Contains(c.Members, userID)
}

func (c *Collaboration) IsInvited(userID string) bool {
	return slices.Contains(c.PendingInvites, userID)
}

func (c *Collaboration) subtask(id string) int {
	return slices.IndexFunc(c.Subtasks, func(st Subtask) bool { return st.ID == id })
}

// clone copies every slice so a transition never writes through to the
// value it was derived from.
func (c Collaboration) clone() Collaboration {
	c.Members = slices.Clone(c.Members)
	c.PendingInvites = slices.Clone(c.PendingInvites)
	c.Subtasks = slices.Clone(c.Subtasks)
	for i := range c.Subtasks {
		c.Subtasks[i].Assignees = slices.Clone(c.Subtasks[i].Assignees)
	}
	return c
}

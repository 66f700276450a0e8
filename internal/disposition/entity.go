package disposition

import (
	"slices"
	"time"

	"github.com/damwatch/taskdesk/internal/verification"
)

// Period is the reporting cadence of a disposition.
type Period string

const (
	PeriodDaily   Period = "harian"
	PeriodWeekly  Period = "mingguan"
	PeriodMonthly Period = "bulanan"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Disposition is a recurring instruction from one or more givers to one or
// more receivers. Names are captured at assignment time so listings do not
// depend on the roster.
type Disposition struct {
	ID            string                    `yaml:"id" json:"id"`
	Title         string                    `yaml:"title" json:"title"`
	Description   string                    `yaml:"description,omitempty" json:"description,omitempty"`
	GiverIDs      []string                  `yaml:"giver_ids" json:"giverIds"`
	GiverNames    []string                  `yaml:"giver_names" json:"giverNames"`
	ReceiverIDs   []string                  `yaml:"receiver_ids" json:"receiverIds"`
	ReceiverNames []string                  `yaml:"receiver_names" json:"receiverNames"`
	Period        Period                    `yaml:"period" json:"period"`
	Status        Status                    `yaml:"status" json:"status"`
	IsActive      bool                      `yaml:"is_active" json:"isActive"`
	Link          string                    `yaml:"link,omitempty" json:"link,omitempty"`
	Notes         string                    `yaml:"notes,omitempty" json:"notes,omitempty"`
	Verification  verification.Verification `yaml:"verification,omitempty" json:"verification"`
	CompletedAt   *time.Time                `yaml:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedBy     string                    `yaml:"created_by" json:"createdBy"`
	CreatedAt     time.Time                 `yaml:"created_at" json:"createdAt"`
	UpdatedAt     time.Time                 `yaml:"updated_at" json:"updatedAt"`
	Version       int64                     `yaml:"version" json:"version"`
}

func (d *Disposition) Involves(userID string) bool {
	return slices.Contains(d.GiverIDs, userID) || slices.Contains(d.ReceiverIDs, userID)
}

// Package verification is the review step shared by dispositions and
// collaborations: a completed item is either certified by a verifier or
// sent back with a mandatory note, and a revision is resubmitted
// explicitly.
package verification

import (
	"strings"
	"time"

	"github.com/damwatch/taskdesk/internal/lifecycle"
)

type Status string

const (
	StatusNone     Status = ""
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRevision Status = "revision"
)

type Decision string

const (
	DecisionApprove         Decision = "approve"
	DecisionRequestRevision Decision = "request-revision"
)

type Verification struct {
	Status       Status     `yaml:"status,omitempty" json:"status,omitempty"`
	RevisionNote string     `yaml:"revision_note,omitempty" json:"revisionNote,omitempty"`
	VerifiedBy   string     `yaml:"verified_by,omitempty" json:"verifiedBy,omitempty"`
	VerifiedAt   *time.Time `yaml:"verified_at,omitempty" json:"verifiedAt,omitempty"`
}

// Pending is the state of freshly completed work.
func Pending() Verification {
	return Verification{Status: StatusPending}
}

func (v Verification) IsVerified() bool {
	return v.Status == StatusVerified
}

// Decide applies a verifier's decision. The caller has already checked that
// the item is completed.
func (v Verification) Decide(kind, id string, decision Decision, note string, verifierID string, now time.Time) (Verification, error) {
	switch v.Status {
	case StatusVerified:
		return v, lifecycle.AlreadyVerified(kind, id)
	case StatusRevision:
		return v, lifecycle.InvalidTransition(kind, id, "verify", "revision")
	}

	switch decision {
	case DecisionApprove:
		return Verification{
			Status:     StatusVerified,
			VerifiedBy: verifierID,
			VerifiedAt: &now,
		}, nil
	case DecisionRequestRevision:
		note = strings.TrimSpace(note)
		if note == "" {
			return v, lifecycle.Validation(lifecycle.ErrEmptyRevisionNote, "note", "a revision note is required")
		}
		return Verification{
			Status:       StatusRevision,
			RevisionNote: note,
		}, nil
	default:
		return v, lifecycle.Validation(lifecycle.ErrValidation, "decision", "decision must be approve or request-revision")
	}
}

// Resubmit moves a revision back to pending once the work is redone.
func (v Verification) Resubmit(kind, id string) (Verification, error) {
	if v.Status != StatusRevision {
		return v, lifecycle.InvalidTransition(kind, id, "resubmit", v.Status)
	}
	return Pending(), nil
}

// Package dashboard builds the per-user overview served under /api.
package dashboard

import (
	"context"
	"slices"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/collaboration"
	"github.com/damwatch/taskdesk/internal/disposition"
	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/internal/task"
	"github.com/damwatch/taskdesk/internal/verification"
)

const recentActivity = 10

type TaskLister interface {
	List(ctx context.Context, f task.ListFilter) ([]*task.Task, int, error)
}

type DispositionLister interface {
	List(ctx context.Context, f disposition.ListFilter) ([]*disposition.Disposition, int, error)
}

type CollaborationLister interface {
	List(ctx context.Context, f collaboration.ListFilter) ([]*collaboration.Collaboration, int, error)
}

type NotificationLister interface {
	List(ctx context.Context, f notification.ListFilter) ([]*notification.Notification, int, error)
}

type ActivityLister interface {
	List(ctx context.Context, f activity.ListFilter) ([]*activity.Entry, int, error)
}

type TaskSummary struct {
	Incoming          int `json:"incoming"`
	InProgress        int `json:"inProgress"`
	RevisionRequested int `json:"revisionRequested"`
	Outgoing          int `json:"outgoing"`
	Completed         int `json:"completed"`
}

type DispositionSummary struct {
	Assigned             int `json:"assigned"`
	Given                int `json:"given"`
	AwaitingVerification int `json:"awaitingVerification"`
	InRevision           int `json:"inRevision"`
}

type CollaborationSummary struct {
	Active         int `json:"active"`
	PendingInvites int `json:"pendingInvites"`

	// Average completion over active collaborations the user is a member of.
	AverageProgress int `json:"averageProgress"`
}

type Dashboard struct {
	UserID              string               `json:"userId"`
	Tasks               TaskSummary          `json:"tasks"`
	Dispositions        DispositionSummary   `json:"dispositions"`
	Collaborations      CollaborationSummary `json:"collaborations"`
	UnreadNotifications int                  `json:"unreadNotifications"`
	RecentActivity      []*activity.Entry    `json:"recentActivity"`
}

type Service struct {
	tasks          TaskLister
	dispositions   DispositionLister
	collaborations CollaborationLister
	notifications  NotificationLister
	activities     ActivityLister
}

func NewService(
	tasks TaskLister,
	dispositions DispositionLister,
	collaborations CollaborationLister,
	notifications NotificationLister,
	activities ActivityLister,
) *Service {
	return &Service{
		tasks:          tasks,
		dispositions:   dispositions,
		collaborations: collaborations,
		notifications:  notifications,
		activities:     activities,
	}
}

func (s *Service) Build(ctx context.Context, userID string) (*Dashboard, error) {
	d := &Dashboard{UserID: userID}

	tasks, _, err := s.tasks.List(ctx, task.ListFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.SenderID == userID && !t.Status.Terminal() {
			d.Tasks.Outgoing++
		}
		if t.ReceiverID != userID {
			continue
		}
		switch t.Status {
		case task.StatusPending:
			d.Tasks.Incoming++
		case task.StatusInProgress:
			d.Tasks.InProgress++
		case task.StatusRevisionRequested:
			d.Tasks.RevisionRequested++
		case task.StatusCompleted:
			d.Tasks.Completed++
		}
	}

	dispositions, _, err := s.dispositions.List(ctx, disposition.ListFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	for _, item := range dispositions {
		if slices.Contains(item.ReceiverIDs, userID) && item.Status != disposition.StatusCompleted {
			d.Dispositions.Assigned++
		}
		if slices.Contains(item.GiverIDs, userID) {
			d.Dispositions.Given++
		}
		switch item.Verification.Status {
		case verification.StatusPending:
			d.Dispositions.AwaitingVerification++
		case verification.StatusRevision:
			d.Dispositions.InRevision++
		}
	}

	collaborations, _, err := s.collaborations.List(ctx, collaboration.ListFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	progress := 0
	for _, c := range collaborations {
		if c.IsInvited(userID) {
			d.Collaborations.PendingInvites++
			continue
		}
		if c.Status == collaboration.StatusActive {
			d.Collaborations.Active++
			progress += c.CompletionPercentage()
		}
	}
	if d.Collaborations.Active > 0 {
		d.Collaborations.AverageProgress = progress / d.Collaborations.Active
	}

	_, unread, err := s.notifications.List(ctx, notification.ListFilter{UserID: userID, UnreadOnly: true, Limit: 1})
	if err != nil {
		return nil, err
	}
	d.UnreadNotifications = unread

	recent, _, err := s.activities.List(ctx, activity.ListFilter{UserID: userID, Limit: recentActivity})
	if err != nil {
		return nil, err
	}
	d.RecentActivity = recent
	return d, nil
}

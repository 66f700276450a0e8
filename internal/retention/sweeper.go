// Package retention bounds the notification and activity sinks and archives
// finished direct tasks.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/config"
	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/pkg/panicerr"
)

type BatchRunner interface {
	RunBatch(ctx context.Context, fn func(ctx context.Context) error) error
}

// Archiver archives terminal work items last touched before cutoff.
type Archiver interface {
	ArchiveTerminal(ctx context.Context, cutoff time.Time) (int, error)
}

type Result struct {
	NotificationsPruned int
	ActivityPruned      int
	TasksArchived       int
}

type Sweeper struct {
	env           *config.RetentionEnv
	notifications notification.Repository
	activities    activity.Repository
	archiver      Archiver
	batch         BatchRunner
	now           func() time.Time
}

func NewSweeper(
	env *config.RetentionEnv,
	notifications notification.Repository,
	activities activity.Repository,
	archiver Archiver,
	batch BatchRunner,
	now func() time.Time,
) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		env:           env,
		notifications: notifications,
		activities:    activities,
		archiver:      archiver,
		batch:         batch,
		now:           now,
	}
}

// Sweep runs one retention pass. Each sink is pruned in its own batch.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	now := s.now()
	var res Result

	err := s.batch.RunBatch(ctx, func(ctx context.Context) error {
		n, err := s.pruneNotifications(ctx, now)
		res.NotificationsPruned = n
		return err
	})
	if err != nil {
		return res, err
	}

	err = s.batch.RunBatch(ctx, func(ctx context.Context) error {
		n, err := s.pruneActivity(ctx, now)
		res.ActivityPruned = n
		return err
	})
	if err != nil {
		return res, err
	}

	if s.env.ArchiveAfter > 0 {
		n, err := s.archiver.ArchiveTerminal(ctx, now.Add(-s.env.ArchiveAfter))
		res.TasksArchived = n
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// pruneNotifications drops read notifications older than the TTL and
// everything past each user's cap, newest kept first.
func (s *Sweeper) pruneNotifications(ctx context.Context, now time.Time) (int, error) {
	all, _, err := s.notifications.List(ctx, notification.ListFilter{})
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-s.env.NotificationTTL)
	kept := make(map[string]int)
	pruned := 0
	for _, n := range all {
		expired := s.env.NotificationTTL > 0 && n.IsRead && n.CreatedAt.Before(cutoff)
		overCap := s.env.NotificationMaxPerUser > 0 && kept[n.UserID] >= s.env.NotificationMaxPerUser
		if !expired && !overCap {
			kept[n.UserID]++
			continue
		}
		if err := s.notifications.Delete(ctx, n.ID); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

func (s *Sweeper) pruneActivity(ctx context.Context, now time.Time) (int, error) {
	if s.env.ActivityTTL <= 0 {
		return 0, nil
	}
	old, _, err := s.activities.List(ctx, activity.ListFilter{Before: now.Add(-s.env.ActivityTTL)})
	if err != nil {
		return 0, err
	}
	for i, e := range old {
		if err := s.activities.Delete(ctx, e.ID); err != nil {
			return i, err
		}
	}
	return len(old), nil
}

// Run sweeps every SweepInterval until ctx is done. A failed or panicking
// sweep is logged and the next one runs on schedule.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.env.SweepInterval)
	defer ticker.Stop()

	s.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	err := panicerr.SafeContext(func(ctx context.Context) error {
		res, err := s.Sweep(ctx)
		if err != nil {
			return err
		}
		if res != (Result{}) {
			slog.InfoContext(ctx, "retention sweep",
				"notifications_pruned", res.NotificationsPruned,
				"activity_pruned", res.ActivityPruned,
				"tasks_archived", res.TasksArchived,
			)
		}
		return nil
	})(ctx)
	if err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "retention sweep failed", "error", err)
	}
}

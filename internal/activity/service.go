package activity

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

// NameResolver looks up a user's display name.
type NameResolver interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type Service struct {
	repo     Repository
	names    NameResolver
	eventBus *eventbus.Bus
	now      func() time.Time
}

func NewService(repo Repository, names NameResolver, eventBus *eventbus.Bus, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, names: names, eventBus: eventBus, now: now}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Entry, int, error) {
	return s.repo.List(ctx, filter)
}

// RecordUI appends an ancillary presentation-layer action, such as viewing
// or exporting a report. Lifecycle entries are written by the engine, never
// through here.
func (s *Service) RecordUI(ctx context.Context, userID string, action Action, itemID, description string) (*Entry, error) {
	if strings.TrimSpace(description) == "" {
		return nil, cerr.NewViolation("description", "description is required", nil)
	}
	if action == "" {
		return nil, cerr.NewViolation("action", "action is required", nil)
	}
	name, err := s.names.DisplayName(ctx, userID)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		ID:          ulid.Make().String(),
		Type:        TypeUI,
		Action:      action,
		UserID:      userID,
		UserName:    name,
		ItemID:      itemID,
		Description: description,
		Timestamp:   s.now(),
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(eventbus.TypeActivityRecorded, e.ID, map[string]string{"user_id": userID})
	return e, nil
}

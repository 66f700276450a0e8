package pushnotification

import (
	"context"
	"log/slog"

	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/notification"
)

const pushTitle = "TaskDesk"

// Dispatcher forwards every stored notification to its owner's browsers.
type Dispatcher struct {
	eventBus      *eventbus.Bus
	notifications notification.Repository
	sender        *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, notifications notification.Repository, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus:      eventBus,
		notifications: notifications,
		sender:        sender,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.InfoContext(ctx, "push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "push notification dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.TypeNotificationCreated {
				d.handleNotificationCreated(ctx, event)
			}
		}
	}
}

func (d *Dispatcher) handleNotificationCreated(ctx context.Context, event *eventbus.Event) {
	n, err := d.notifications.Get(ctx, event.ResourceID)
	if err != nil {
		slog.ErrorContext(ctx, "push dispatcher: failed to get notification", "id", event.ResourceID, "error", err)
		return
	}
	var url string
	if n.TaskID != "" {
		url = "/items/" + n.TaskID
	}
	d.sender.SendToUser(ctx, n.UserID, &NotificationPayload{
		Title: pushTitle,
		Body:  n.Message,
		URL:   url,
		Tag:   n.ID,
	})
}

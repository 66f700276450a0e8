package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/lifecycle/lifecycletest"
	"github.com/damwatch/taskdesk/internal/notification"
	"github.com/damwatch/taskdesk/pkg/cerr"
)

func seed(t *testing.T, h *lifecycletest.Harness, userID string, ids ...string) {
	t.Helper()
	for i, id := range ids {
		require.NoError(t, h.Notifications.Create(context.Background(), &notification.Notification{
			ID:        id,
			UserID:    userID,
			Type:      notification.TypeTaskRequest,
			Message:   id,
			Payload:   notification.TaskPayload{Title: id, ActorName: "Sari"},
			CreatedAt: lifecycletest.Start.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestService_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	h := lifecycletest.New(t)
	svc := notification.NewService(h.Notifications, h.Store, h.Bus, h.Clock.Now)
	seed(t, h, "u2", "n1")

	subID, events := h.Bus.Subscribe(4)
	defer h.Bus.Unsubscribe(subID)

	_, err := svc.MarkAsRead(ctx, "u1", "n1")
	assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))

	h.Clock.Advance(time.Hour)
	n, err := svc.MarkAsRead(ctx, "u2", "n1")
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	require.NotNil(t, n.ReadAt)
	assert.Equal(t, lifecycletest.Start.Add(time.Hour), *n.ReadAt)
	assert.Equal(t, notification.TaskPayload{Title: "n1", ActorName: "Sari"}, n.Payload)

	ev := <-events
	assert.Equal(t, eventbus.TypeNotificationRead, ev.Type)
	assert.Equal(t, "u2", ev.Metadata["user_id"])

	// Reading twice keeps the first ReadAt and publishes nothing.
	h.Clock.Advance(time.Hour)
	again, err := svc.MarkAsRead(ctx, "u2", "n1")
	require.NoError(t, err)
	assert.Equal(t, *n.ReadAt, *again.ReadAt)
	assert.Empty(t, events)
}

func TestService_MarkAllAsRead(t *testing.T) {
	ctx := context.Background()
	h := lifecycletest.New(t)
	svc := notification.NewService(h.Notifications, h.Store, h.Bus, h.Clock.Now)
	seed(t, h, "u2", "n1", "n2", "n3")
	seed(t, h, "u3", "other")

	_, err := svc.MarkAsRead(ctx, "u2", "n2")
	require.NoError(t, err)

	marked, err := svc.MarkAllAsRead(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	unread, total, err := svc.List(ctx, notification.ListFilter{UserID: "u2", UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)
	assert.Zero(t, total)

	others, _, err := svc.List(ctx, notification.ListFilter{UserID: "u3", UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, others, 1)

	marked, err = svc.MarkAllAsRead(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, marked)
}

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/damwatch/taskdesk/internal/eventbus"
)

func TestMatch(t *testing.T) {
	notice := &eventbus.Event{Type: eventbus.TypeNotificationCreated, ResourceID: "n1", Metadata: map[string]string{"user_id": "u1"}}
	changed := &eventbus.Event{Type: eventbus.TypeTaskChanged, ResourceID: "t1"}

	tests := []struct {
		name  string
		ev    *eventbus.Event
		req   SubscribeEventsRequest
		actor string
		want  bool
	}{
		{name: "no filter", ev: changed, actor: "u2", want: true},
		{name: "own notification", ev: notice, actor: "u1", want: true},
		{name: "someone else's notification", ev: notice, actor: "u2", want: false},
		{name: "type filter hit", ev: changed, req: SubscribeEventsRequest{Types: []eventbus.Type{eventbus.TypeTaskChanged}}, actor: "u1", want: true},
		{name: "type filter miss", ev: notice, req: SubscribeEventsRequest{Types: []eventbus.Type{eventbus.TypeTaskChanged}}, actor: "u1", want: false},
		{name: "resource filter miss", ev: changed, req: SubscribeEventsRequest{ResourceID: "t2"}, actor: "u1", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, match(tt.ev, &tt.req, tt.actor))
		})
	}
}

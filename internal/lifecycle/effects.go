package lifecycle

import (
	"github.com/damwatch/taskdesk/internal/activity"
	"github.com/damwatch/taskdesk/internal/notification"
)

// Notice is a notification a transition wants delivered.
type Notice struct {
	UserID  string
	Type    notification.Type
	TaskID  string
	Payload notification.Payload
}

// Record is the activity entry a transition wants appended on behalf of the
// actor.
type Record struct {
	Type        activity.Type
	Action      activity.Action
	ItemID      string
	Description string
	Details     string
}

// Effects are the side effects of one transition. They are committed in the
// same batch as the item itself.
type Effects struct {
	Notices []Notice
	Record  *Record
}

// Notify appends one notice per recipient, skipping the actor and
// duplicates.
func (e *Effects) Notify(actorID string, typ notification.Type, taskID string, payload notification.Payload, recipients ...string) {
	seen := make(map[string]bool, len(e.Notices))
	for _, n := range e.Notices {
		if n.Type == typ {
			seen[n.UserID] = true
		}
	}
	for _, uid := range recipients {
		if uid == "" || uid == actorID || seen[uid] {
			continue
		}
		seen[uid] = true
		e.Notices = append(e.Notices, Notice{UserID: uid, Type: typ, TaskID: taskID, Payload: payload})
	}
}

func (e *Effects) Log(typ activity.Type, action activity.Action, itemID, description string) {
	e.Record = &Record{Type: typ, Action: action, ItemID: itemID, Description: description}
}

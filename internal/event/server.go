package event

import (
	"context"
	"slices"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/internal/eventbus"
	"github.com/damwatch/taskdesk/internal/rpc"
)

const ServiceName = "EventService"

type SubscribeEventsRequest struct {
	Types      []eventbus.Type `json:"types,omitempty"`
	ResourceID string          `json:"resourceId,omitempty"`
}

type Server struct {
	eventBus *eventbus.Bus
}

func NewServer(eventBus *eventbus.Bus) *Server {
	return &Server{eventBus: eventBus}
}

func (s *Server) Routes(opts ...connect.HandlerOption) []rpc.Route {
	return []rpc.Route{
		rpc.ServerStream(ServiceName, "SubscribeEvents", s.SubscribeEvents, opts...),
	}
}

// SubscribeEvents streams bus events until the client goes away. Events
// addressed to another user (user_id metadata) are never sent.
func (s *Server) SubscribeEvents(ctx context.Context, req *SubscribeEventsRequest, stream *connect.ServerStream[eventbus.Event]) error {
	actorID, err := actor.Require(ctx)
	if err != nil {
		return err
	}

	subID, ch := s.eventBus.Subscribe(64)
	defer s.eventBus.Unsubscribe(subID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if !match(ev, req, actorID) {
				continue
			}
			if err := stream.Send(ev); err != nil {
				return err
			}
		}
	}
}

func match(ev *eventbus.Event, req *SubscribeEventsRequest, actorID string) bool {
	if len(req.Types) > 0 && !slices.Contains(req.Types, ev.Type) {
		return false
	}
	if req.ResourceID != "" && ev.ResourceID != req.ResourceID {
		return false
	}
	if uid, ok := ev.Metadata["user_id"]; ok && uid != actorID {
		return false
	}
	return true
}

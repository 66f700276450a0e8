package notification

import (
	"context"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/internal/rpc"
)

const ServiceName = "NotificationService"

type ListNotificationsRequest struct {
	UnreadOnly bool `json:"unreadOnly,omitempty"`
	Limit      int  `json:"limit,omitempty"`
	Offset     int  `json:"offset,omitempty"`
}

type ListNotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
	Total         int             `json:"total"`
	Unread        int             `json:"unread"`
}

type MarkAsReadRequest struct {
	ID string `json:"id"`
}

type MarkAsReadResponse struct {
	Notification *Notification `json:"notification"`
}

type MarkAllAsReadRequest struct{}

type MarkAllAsReadResponse struct {
	Marked int `json:"marked"`
}

type Server struct {
	service *Service
}

func NewServer(service *Service) *Server {
	return &Server{service: service}
}

func (s *Server) Routes(opts ...connect.HandlerOption) []rpc.Route {
	return []rpc.Route{
		rpc.Unary(ServiceName, "ListNotifications", s.ListNotifications, opts...),
		rpc.Unary(ServiceName, "MarkAsRead", s.MarkAsRead, opts...),
		rpc.Unary(ServiceName, "MarkAllAsRead", s.MarkAllAsRead, opts...),
	}
}

func (s *Server) ListNotifications(ctx context.Context, req *ListNotificationsRequest) (*ListNotificationsResponse, error) {
	if err := rpc.CheckPage(req.Limit, req.Offset); err != nil {
		return nil, err
	}
	actorID, err := actor.Require(ctx)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	list, total, err := s.service.List(ctx, ListFilter{UserID: actorID, UnreadOnly: req.UnreadOnly, Limit: limit, Offset: req.Offset})
	if err != nil {
		return nil, err
	}
	_, unread, err := s.service.List(ctx, ListFilter{UserID: actorID, UnreadOnly: true, Limit: 1})
	if err != nil {
		return nil, err
	}
	return &ListNotificationsResponse{Notifications: list, Total: total, Unread: unread}, nil
}

func (s *Server) MarkAsRead(ctx context.Context, req *MarkAsReadRequest) (*MarkAsReadResponse, error) {
	actorID, err := actor.Require(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.service.MarkAsRead(ctx, actorID, req.ID)
	if err != nil {
		return nil, err
	}
	return &MarkAsReadResponse{Notification: n}, nil
}

func (s *Server) MarkAllAsRead(ctx context.Context, _ *MarkAllAsReadRequest) (*MarkAllAsReadResponse, error) {
	actorID, err := actor.Require(ctx)
	if err != nil {
		return nil, err
	}
	marked, err := s.service.MarkAllAsRead(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &MarkAllAsReadResponse{Marked: marked}, nil
}

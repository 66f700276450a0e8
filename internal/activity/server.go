package activity

import (
	"context"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/internal/rpc"
)

const ServiceName = "ActivityService"

type ListActivityRequest struct {
	UserID string `json:"userId,omitempty"`
	ItemID string `json:"itemId,omitempty"`
	Type   Type   `json:"type,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type ListActivityResponse struct {
	Entries []*Entry `json:"entries"`
	Total   int      `json:"total"`
}

type RecordActivityRequest struct {
	Action      Action `json:"action"`
	ItemID      string `json:"itemId,omitempty"`
	Description string `json:"description"`
}

type RecordActivityResponse struct {
	Entry *Entry `json:"entry"`
}

type Server struct {
	service *Service
}

func NewServer(service *Service) *Server {
	return &Server{service: service}
}

func (s *Server) Routes(opts ...connect.HandlerOption) []rpc.Route {
	return []rpc.Route{
		rpc.Unary(ServiceName, "ListActivity", s.ListActivity, opts...),
		rpc.Unary(ServiceName, "RecordActivity", s.RecordActivity, opts...),
	}
}

func (s *Server) ListActivity(ctx context.Context, req *ListActivityRequest) (*ListActivityResponse, error) {
	if err := rpc.CheckPage(req.Limit, req.Offset); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	entries, total, err := s.service.List(ctx, ListFilter{
		UserID: req.UserID,
		ItemID: req.ItemID,
		Type:   req.Type,
		Limit:  limit,
		Offset: req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &ListActivityResponse{Entries: entries, Total: total}, nil
}

func (s *Server) RecordActivity(ctx context.Context, req *RecordActivityRequest) (*RecordActivityResponse, error) {
	actorID, err := actor.Require(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.service.RecordUI(ctx, actorID, req.Action, req.ItemID, req.Description)
	if err != nil {
		return nil, err
	}
	return &RecordActivityResponse{Entry: e}, nil
}

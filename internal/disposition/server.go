package disposition

import (
	"context"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/rpc"
	"github.com/damwatch/taskdesk/internal/verification"
)

const ServiceName = "DispositionService"

type DispositionResponse struct {
	Disposition *Disposition `json:"disposition"`
}

type DispositionFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	GiverIDs    []string `json:"giverIds"`
	ReceiverIDs []string `json:"receiverIds"`
	Period      Period   `json:"period"`
	Link        string   `json:"link,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

func (f DispositionFields) input() Input {
	return Input{
		Title:       f.Title,
		Description: f.Description,
		GiverIDs:    f.GiverIDs,
		ReceiverIDs: f.ReceiverIDs,
		Period:      f.Period,
		Link:        f.Link,
		Notes:       f.Notes,
	}
}

type AddDispositionRequest struct {
	DispositionFields
}

type EditDispositionRequest struct {
	ID string `json:"id"`
	DispositionFields
	ExpectedVersion int64 `json:"expectedVersion,omitempty"`
}

type GetDispositionRequest struct {
	ID string `json:"id"`
}

type ListDispositionsRequest struct {
	UserID          string `json:"userId,omitempty"`
	Period          Period `json:"period,omitempty"`
	Status          Status `json:"status,omitempty"`
	IncludeInactive bool   `json:"includeInactive,omitempty"`
	Limit           int    `json:"limit,omitempty"`
	Offset          int    `json:"offset,omitempty"`
}

type ListDispositionsResponse struct {
	Dispositions []*Disposition `json:"dispositions"`
	Total        int            `json:"total"`
}

type DispositionActionRequest struct {
	ID              string `json:"id"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type SetStatusRequest struct {
	ID              string `json:"id"`
	Status          Status `json:"status"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type VerifyDispositionRequest struct {
	ID              string                `json:"id"`
	Decision        verification.Decision `json:"decision"`
	Note            string                `json:"note,omitempty"`
	ExpectedVersion int64                 `json:"expectedVersion,omitempty"`
}

type RemoveDispositionResponse struct{}

type Server struct {
	service *Service
	dir     lifecycle.Directory
}

func NewServer(service *Service, dir lifecycle.Directory) *Server {
	return &Server{service: service, dir: dir}
}

func (s *Server) Routes(opts ...connect.HandlerOption) []rpc.Route {
	return []rpc.Route{
		rpc.Unary(ServiceName, "AddDisposition", s.AddDisposition, opts...),
		rpc.Unary(ServiceName, "GetDisposition", s.GetDisposition, opts...),
		rpc.Unary(ServiceName, "ListDispositions", s.ListDispositions, opts...),
		rpc.Unary(ServiceName, "EditDisposition", s.EditDisposition, opts...),
		rpc.Unary(ServiceName, "RemoveDisposition", s.RemoveDisposition, opts...),
		rpc.Unary(ServiceName, "ToggleActive", s.ToggleActive, opts...),
		rpc.Unary(ServiceName, "SetStatus", s.SetStatus, opts...),
		rpc.Unary(ServiceName, "CompleteDisposition", s.CompleteDisposition, opts...),
		rpc.Unary(ServiceName, "VerifyDisposition", s.VerifyDisposition, opts...),
		rpc.Unary(ServiceName, "ResubmitDisposition", s.ResubmitDisposition, opts...),
	}
}

func respond(d *Disposition, err error) (*DispositionResponse, error) {
	if err != nil {
		return nil, err
	}
	return &DispositionResponse{Disposition: d}, nil
}

func (s *Server) AddDisposition(ctx context.Context, req *AddDispositionRequest) (*DispositionResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	return respond(s.service.Add(ctx, a, req.input()))
}

func (s *Server) GetDisposition(ctx context.Context, req *GetDispositionRequest) (*DispositionResponse, error) {
	return respond(s.service.Get(ctx, req.ID))
}

func (s *Server) ListDispositions(ctx context.Context, req *ListDispositionsRequest) (*ListDispositionsResponse, error) {
	if err := rpc.CheckPage(req.Limit, req.Offset); err != nil {
		return nil, err
	}
	list, total, err := s.service.List(ctx, ListFilter{
		UserID:          req.UserID,
		Period:          req.Period,
		Status:          req.Status,
		IncludeInactive: req.IncludeInactive,
		Limit:           req.Limit,
		Offset:          req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &ListDispositionsResponse{Dispositions: list, Total: total}, nil
}

func (s *Server) EditDisposition(ctx context.Context, req *EditDispositionRequest) (*DispositionResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	return respond(s.service.Edit(ctx, a, req.ID, req.input(), req.ExpectedVersion))
}

func (s *Server) RemoveDisposition(ctx context.Context, req *DispositionActionRequest) (*RemoveDispositionResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	if err := s.service.Remove(ctx, a, req.ID, req.ExpectedVersion); err != nil {
		return nil, err
	}
	return &RemoveDispositionResponse{}, nil
}

func (s *Server) ToggleActive(ctx context.Context, req *DispositionActionRequest) (*DispositionResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	return respond(s.service.ToggleActive(ctx, a, req.ID, req.ExpectedVersion))
}

func (s *Server) SetStatus(ctx context.Context, req *SetStatusRequest) (*DispositionResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	return respond(s.service.SetStatus(ctx, a, req.ID, req.Status, req.ExpectedVersion))
}

func (s *Server) CompleteDisposition(ctx context.Context, req *DispositionActionRequest) (*DispositionResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	return respond(s.service.Complete(ctx, a, req.ID, req.ExpectedVersion))
}

func (s *Server) VerifyDisposition(ctx context.Context, req *VerifyDispositionRequest) (*DispositionResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	return respond(s.service.Verify(ctx, a, req.ID, req.Decision, req.Note, req.ExpectedVersion))
}

func (s *Server) ResubmitDisposition(ctx context.Context, req *DispositionActionRequest) (*DispositionResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	return respond(s.service.Resubmit(ctx, a, req.ID, req.ExpectedVersion))
}

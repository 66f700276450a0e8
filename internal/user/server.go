package user

import (
	"context"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/rpc"
)

const ServiceName = "UserService"

type GetUserRequest struct {
	ID string `json:"id"`
}

type UserResponse struct {
	User *User `json:"user"`
}

type ListUsersRequest struct {
	IncludeInactive bool `json:"includeInactive,omitempty"`
}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

type CreateUserRequest struct {
	Username   string     `json:"username"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Department string     `json:"department,omitempty"`
	Position   string     `json:"position,omitempty"`
	WorkStatus WorkStatus `json:"workStatus,omitempty"`
}

type UpdateUserRequest struct {
	ID              string      `json:"id"`
	Username        *string     `json:"username,omitempty"`
	Name            *string     `json:"name,omitempty"`
	Role            *Role       `json:"role,omitempty"`
	Department      *string     `json:"department,omitempty"`
	Position        *string     `json:"position,omitempty"`
	WorkStatus      *WorkStatus `json:"workStatus,omitempty"`
	ExpectedVersion int64       `json:"expectedVersion,omitempty"`
}

type SetUserActiveRequest struct {
	ID              string `json:"id"`
	Active          bool   `json:"active"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type RemoveUserRequest struct {
	ID string `json:"id"`
}

type RemoveUserResponse struct{}

type WhoAmIRequest struct{}

type Server struct {
	service *Service
}

func NewServer(service *Service) *Server {
	return &Server{service: service}
}

func (s *Server) Routes(opts ...connect.HandlerOption) []rpc.Route {
	return []rpc.Route{
		rpc.Unary(ServiceName, "GetUser", s.GetUser, opts...),
		rpc.Unary(ServiceName, "WhoAmI", s.WhoAmI, opts...),
		rpc.Unary(ServiceName, "ListUsers", s.ListUsers, opts...),
		rpc.Unary(ServiceName, "CreateUser", s.CreateUser, opts...),
		rpc.Unary(ServiceName, "UpdateUser", s.UpdateUser, opts...),
		rpc.Unary(ServiceName, "SetUserActive", s.SetUserActive, opts...),
		rpc.Unary(ServiceName, "RemoveUser", s.RemoveUser, opts...),
	}
}

func (s *Server) GetUser(ctx context.Context, req *GetUserRequest) (*UserResponse, error) {
	u, err := s.service.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: u}, nil
}

func (s *Server) WhoAmI(ctx context.Context, _ *WhoAmIRequest) (*UserResponse, error) {
	id, err := actor.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, &GetUserRequest{ID: id})
}

func (s *Server) ListUsers(ctx context.Context, req *ListUsersRequest) (*ListUsersResponse, error) {
	users, err := s.service.List(ctx, req.IncludeInactive)
	if err != nil {
		return nil, err
	}
	return &ListUsersResponse{Users: users}, nil
}

func (s *Server) CreateUser(ctx context.Context, req *CreateUserRequest) (*UserResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.service)
	if err != nil {
		return nil, err
	}
	u, err := s.service.Create(ctx, a, CreateInput{
		Username:   req.Username,
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
		Position:   req.Position,
		WorkStatus: req.WorkStatus,
	})
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: u}, nil
}

func (s *Server) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*UserResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.service)
	if err != nil {
		return nil, err
	}
	u, err := s.service.Update(ctx, a, req.ID, UpdateInput{
		Username:        req.Username,
		Name:            req.Name,
		Role:            req.Role,
		Department:      req.Department,
		Position:        req.Position,
		WorkStatus:      req.WorkStatus,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: u}, nil
}

func (s *Server) SetUserActive(ctx context.Context, req *SetUserActiveRequest) (*UserResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.service)
	if err != nil {
		return nil, err
	}
	u, err := s.service.SetActive(ctx, a, req.ID, req.Active, req.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: u}, nil
}

func (s *Server) RemoveUser(ctx context.Context, req *RemoveUserRequest) (*RemoveUserResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.service)
	if err != nil {
		return nil, err
	}
	if err := s.service.Remove(ctx, a, req.ID); err != nil {
		return nil, err
	}
	return &RemoveUserResponse{}, nil
}

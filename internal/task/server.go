package task

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/rpc"
)

const ServiceName = "TaskService"

type TaskResponse struct {
	Task *Task `json:"task"`
}

type CreateTaskRequest struct {
	ReceiverID  string     `json:"receiverId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
}

type GetTaskRequest struct {
	ID string `json:"id"`
}

type ListTasksRequest struct {
	UserID          string `json:"userId,omitempty"`
	SenderID        string `json:"senderId,omitempty"`
	ReceiverID      string `json:"receiverId,omitempty"`
	Status          Status `json:"status,omitempty"`
	IncludeArchived bool   `json:"includeArchived,omitempty"`
	Limit           int    `json:"limit,omitempty"`
	Offset          int    `json:"offset,omitempty"`
}

type ListTasksResponse struct {
	Tasks []*Task `json:"tasks"`
	Total int     `json:"total"`
}

// TaskActionRequest addresses accept, decline, resume, complete and
// delete.
type TaskActionRequest struct {
	ID              string `json:"id"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type RequestRevisionRequest struct {
	ID              string `json:"id"`
	Reason          string `json:"reason"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type UpdateProgressRequest struct {
	ID              string `json:"id"`
	Progress        int    `json:"progress"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type EditTaskRequest struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Priority        Priority   `json:"priority,omitempty"`
	ExpectedVersion int64      `json:"expectedVersion,omitempty"`
}

type DeleteTaskResponse struct{}

type Server struct {
	service *Service
	dir     lifecycle.Directory
}

func NewServer(service *Service, dir lifecycle.Directory) *Server {
	return &Server{service: service, dir: dir}
}

func (s *Server) Routes(opts ...connect.HandlerOption) []rpc.Route {
	return []rpc.Route{
		rpc.Unary(ServiceName, "CreateTask", s.CreateTask, opts...),
		rpc.Unary(ServiceName, "GetTask", s.GetTask, opts...),
		rpc.Unary(ServiceName, "ListTasks", s.ListTasks, opts...),
		rpc.Unary(ServiceName, "AcceptTask", s.AcceptTask, opts...),
		rpc.Unary(ServiceName, "DeclineTask", s.DeclineTask, opts...),
		rpc.Unary(ServiceName, "RequestRevision", s.RequestRevision, opts...),
		rpc.Unary(ServiceName, "ResumeTask", s.ResumeTask, opts...),
		rpc.Unary(ServiceName, "CompleteTask", s.CompleteTask, opts...),
		rpc.Unary(ServiceName, "UpdateProgress", s.UpdateProgress, opts...),
		rpc.Unary(ServiceName, "EditTask", s.EditTask, opts...),
		rpc.Unary(ServiceName, "DeleteTask", s.DeleteTask, opts...),
	}
}

func (s *Server) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	t, err := s.service.Create(ctx, a, req.ReceiverID, Fields{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Priority:    req.Priority,
	})
	if err != nil {
		return nil, err
	}
	return &TaskResponse{Task: t}, nil
}

func (s *Server) GetTask(ctx context.Context, req *GetTaskRequest) (*TaskResponse, error) {
	t, err := s.service.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &TaskResponse{Task: t}, nil
}

func (s *Server) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	if err := rpc.CheckPage(req.Limit, req.Offset); err != nil {
		return nil, err
	}
	tasks, total, err := s.service.List(ctx, ListFilter{
		UserID:          req.UserID,
		SenderID:        req.SenderID,
		ReceiverID:      req.ReceiverID,
		Status:          req.Status,
		IncludeArchived: req.IncludeArchived,
		Limit:           req.Limit,
		Offset:          req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &ListTasksResponse{Tasks: tasks, Total: total}, nil
}

type action func(ctx context.Context, a lifecycle.Actor, id string, expectedVersion int64) (*Task, error)

func (s *Server) run(ctx context.Context, req *TaskActionRequest, fn action) (*TaskResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	t, err := fn(ctx, a, req.ID, req.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	return &TaskResponse{Task: t}, nil
}

func (s *Server) AcceptTask(ctx context.Context, req *TaskActionRequest) (*TaskResponse, error) {
	return s.run(ctx, req, s.service.Accept)
}

func (s *Server) DeclineTask(ctx context.Context, req *TaskActionRequest) (*TaskResponse, error) {
	return s.run(ctx, req, s.service.Decline)
}

func (s *Server) ResumeTask(ctx context.Context, req *TaskActionRequest) (*TaskResponse, error) {
	return s.run(ctx, req, s.service.Resume)
}

func (s *Server) CompleteTask(ctx context.Context, req *TaskActionRequest) (*TaskResponse, error) {
	return s.run(ctx, req, s.service.Complete)
}

func (s *Server) RequestRevision(ctx context.Context, req *RequestRevisionRequest) (*TaskResponse, error) {
	return s.run(ctx, &TaskActionRequest{ID: req.ID, ExpectedVersion: req.ExpectedVersion},
		func(ctx context.Context, a lifecycle.Actor, id string, v int64) (*Task, error) {
			return s.service.RequestRevision(ctx, a, id, req.Reason, v)
		})
}

func (s *Server) UpdateProgress(ctx context.Context, req *UpdateProgressRequest) (*TaskResponse, error) {
	return s.run(ctx, &TaskActionRequest{ID: req.ID, ExpectedVersion: req.ExpectedVersion},
		func(ctx context.Context, a lifecycle.Actor, id string, v int64) (*Task, error) {
			return s.service.UpdateProgress(ctx, a, id, req.Progress, v)
		})
}

func (s *Server) EditTask(ctx context.Context, req *EditTaskRequest) (*TaskResponse, error) {
	return s.run(ctx, &TaskActionRequest{ID: req.ID, ExpectedVersion: req.ExpectedVersion},
		func(ctx context.Context, a lifecycle.Actor, id string, v int64) (*Task, error) {
			return s.service.Edit(ctx, a, id, Fields{
				Title:       req.Title,
				Description: req.Description,
				Deadline:    req.Deadline,
				Priority:    req.Priority,
			}, v)
		})
}

func (s *Server) DeleteTask(ctx context.Context, req *TaskActionRequest) (*DeleteTaskResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	if err := s.service.Delete(ctx, a, req.ID, req.ExpectedVersion); err != nil {
		return nil, err
	}
	return &DeleteTaskResponse{}, nil
}

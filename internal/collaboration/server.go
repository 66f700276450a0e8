package collaboration

import (
	"context"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/internal/lifecycle"
	"github.com/damwatch/taskdesk/internal/rpc"
	"github.com/damwatch/taskdesk/internal/verification"
)

const ServiceName = "CollaborationService"

// CollaborationView adds the computed completion percentage.
type CollaborationView struct {
	*Collaboration
	CompletionPercentage int `json:"completionPercentage"`
}

func view(c *Collaboration) *CollaborationView {
	if c == nil {
		return nil
	}
	return &CollaborationView{Collaboration: c, CompletionPercentage: c.CompletionPercentage()}
}

type CollaborationResponse struct {
	Collaboration *CollaborationView `json:"collaboration"`
}

type CreateCollaborationRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	GivenBy     string   `json:"givenBy,omitempty"`
	Urgency     Urgency  `json:"urgency,omitempty"`
	InviteeIDs  []string `json:"inviteeIds,omitempty"`
}

type EditCollaborationRequest struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	GivenBy         string  `json:"givenBy,omitempty"`
	Urgency         Urgency `json:"urgency,omitempty"`
	ExpectedVersion int64   `json:"expectedVersion,omitempty"`
}

type GetCollaborationRequest struct {
	ID string `json:"id"`
}

type ListCollaborationsRequest struct {
	UserID  string  `json:"userId,omitempty"`
	Status  Status  `json:"status,omitempty"`
	Urgency Urgency `json:"urgency,omitempty"`
	Limit   int     `json:"limit,omitempty"`
	Offset  int     `json:"offset,omitempty"`
}

type ListCollaborationsResponse struct {
	Collaborations []*CollaborationView `json:"collaborations"`
	Total          int                  `json:"total"`
}

type CollaborationActionRequest struct {
	ID              string `json:"id"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type MemberRequest struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type SubtaskRequest struct {
	ID              string   `json:"id"`
	SubtaskID       string   `json:"subtaskId,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Assignees       []string `json:"assignees,omitempty"`
	ExpectedVersion int64    `json:"expectedVersion,omitempty"`
}

type DeleteSubtaskRequest struct {
	ID              string `json:"id"`
	SubtaskID       string `json:"subtaskId"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type MoveSubtaskRequest struct {
	ID              string        `json:"id"`
	SubtaskID       string        `json:"subtaskId"`
	Status          SubtaskStatus `json:"status"`
	ExpectedVersion int64         `json:"expectedVersion,omitempty"`
}

// SetProgressRequest overrides progress when Progress is set and returns
// to derived progress when it is nil.
type SetProgressRequest struct {
	ID              string `json:"id"`
	Progress        *int   `json:"progress"`
	ExpectedVersion int64  `json:"expectedVersion,omitempty"`
}

type VerifyCollaborationRequest struct {
	ID              string                `json:"id"`
	Decision        verification.Decision `json:"decision"`
	Note            string                `json:"note,omitempty"`
	ExpectedVersion int64                 `json:"expectedVersion,omitempty"`
}

type DeleteCollaborationResponse struct{}

type Server struct {
	service *Service
	dir     lifecycle.Directory
}

func NewServer(service *Service, dir lifecycle.Directory) *Server {
	return &Server{service: service, dir: dir}
}

func (s *Server) Routes(opts ...connect.HandlerOption) []rpc.Route {
	return []rpc.Route{
		rpc.Unary(ServiceName, "CreateCollaboration", s.CreateCollaboration, opts...),
		rpc.Unary(ServiceName, "GetCollaboration", s.GetCollaboration, opts...),
		rpc.Unary(ServiceName, "ListCollaborations", s.ListCollaborations, opts...),
		rpc.Unary(ServiceName, "EditCollaboration", s.EditCollaboration, opts...),
		rpc.Unary(ServiceName, "DeleteCollaboration", s.DeleteCollaboration, opts...),
		rpc.Unary(ServiceName, "InviteMember", s.InviteMember, opts...),
		rpc.Unary(ServiceName, "AcceptInvite", s.AcceptInvite, opts...),
		rpc.Unary(ServiceName, "DeclineInvite", s.DeclineInvite, opts...),
		rpc.Unary(ServiceName, "RemoveMember", s.RemoveMember, opts...),
		rpc.Unary(ServiceName, "AddSubtask", s.AddSubtask, opts...),
		rpc.Unary(ServiceName, "EditSubtask", s.EditSubtask, opts...),
		rpc.Unary(ServiceName, "DeleteSubtask", s.DeleteSubtask, opts...),
		rpc.Unary(ServiceName, "MoveSubtask", s.MoveSubtask, opts...),
		rpc.Unary(ServiceName, "SetProgress", s.SetProgress, opts...),
		rpc.Unary(ServiceName, "CompleteCollaboration", s.CompleteCollaboration, opts...),
		rpc.Unary(ServiceName, "ReopenCollaboration", s.ReopenCollaboration, opts...),
		rpc.Unary(ServiceName, "VerifyCollaboration", s.VerifyCollaboration, opts...),
		rpc.Unary(ServiceName, "ResubmitCollaboration", s.ResubmitCollaboration, opts...),
	}
}

func respond(c *Collaboration, err error) (*CollaborationResponse, error) {
	if err != nil {
		return nil, err
	}
	return &CollaborationResponse{Collaboration: view(c)}, nil
}

// withActor resolves the caller and runs fn on their behalf.
func (s *Server) withActor(ctx context.Context, fn func(a lifecycle.Actor) (*Collaboration, error)) (*CollaborationResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	return respond(fn(a))
}

func (s *Server) CreateCollaboration(ctx context.Context, req *CreateCollaborationRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.Create(ctx, a, Fields{
			Title:       req.Title,
			Description: req.Description,
			GivenBy:     req.GivenBy,
			Urgency:     req.Urgency,
		}, req.InviteeIDs)
	})
}

func (s *Server) GetCollaboration(ctx context.Context, req *GetCollaborationRequest) (*CollaborationResponse, error) {
	return respond(s.service.Get(ctx, req.ID))
}

func (s *Server) ListCollaborations(ctx context.Context, req *ListCollaborationsRequest) (*ListCollaborationsResponse, error) {
	if err := rpc.CheckPage(req.Limit, req.Offset); err != nil {
		return nil, err
	}
	list, total, err := s.service.List(ctx, ListFilter{
		UserID:  req.UserID,
		Status:  req.Status,
		Urgency: req.Urgency,
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
	if err != nil {
		return nil, err
	}
	views := make([]*CollaborationView, len(list))
	for i, c := range list {
		views[i] = view(c)
	}
	return &ListCollaborationsResponse{Collaborations: views, Total: total}, nil
}

func (s *Server) EditCollaboration(ctx context.Context, req *EditCollaborationRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.Edit(ctx, a, req.ID, Fields{
			Title:       req.Title,
			Description: req.Description,
			GivenBy:     req.GivenBy,
			Urgency:     req.Urgency,
		}, req.ExpectedVersion)
	})
}

func (s *Server) DeleteCollaboration(ctx context.Context, req *CollaborationActionRequest) (*DeleteCollaborationResponse, error) {
	a, err := lifecycle.ResolveActor(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	if err := s.service.Delete(ctx, a, req.ID, req.ExpectedVersion); err != nil {
		return nil, err
	}
	return &DeleteCollaborationResponse{}, nil
}

func (s *Server) InviteMember(ctx context.Context, req *MemberRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.Invite(ctx, a, req.ID, req.UserID, req.ExpectedVersion)
	})
}

func (s *Server) AcceptInvite(ctx context.Context, req *CollaborationActionRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.AcceptInvite(ctx, a, req.ID, req.ExpectedVersion)
	})
}

func (s *Server) DeclineInvite(ctx context.Context, req *CollaborationActionRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.DeclineInvite(ctx, a, req.ID, req.ExpectedVersion)
	})
}

func (s *Server) RemoveMember(ctx context.Context, req *MemberRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.RemoveMember(ctx, a, req.ID, req.UserID, req.ExpectedVersion)
	})
}

func (req *SubtaskRequest) fields() SubtaskFields {
	return SubtaskFields{Title: req.Title, Description: req.Description, Assignees: req.Assignees}
}

func (s *Server) AddSubtask(ctx context.Context, req *SubtaskRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.AddSubtask(ctx, a, req.ID, req.fields(), req.ExpectedVersion)
	})
}

func (s *Server) EditSubtask(ctx context.Context, req *SubtaskRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.EditSubtask(ctx, a, req.ID, req.SubtaskID, req.fields(), req.ExpectedVersion)
	})
}

func (s *Server) DeleteSubtask(ctx context.Context, req *DeleteSubtaskRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.DeleteSubtask(ctx, a, req.ID, req.SubtaskID, req.ExpectedVersion)
	})
}

func (s *Server) MoveSubtask(ctx context.Context, req *MoveSubtaskRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.MoveSubtask(ctx, a, req.ID, req.SubtaskID, req.Status, req.ExpectedVersion)
	})
}

func (s *Server) SetProgress(ctx context.Context, req *SetProgressRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		if req.Progress == nil {
			return s.service.ClearProgressOverride(ctx, a, req.ID, req.ExpectedVersion)
		}
		return s.service.SetProgressOverride(ctx, a, req.ID, *req.Progress, req.ExpectedVersion)
	})
}

func (s *Server) CompleteCollaboration(ctx context.Context, req *CollaborationActionRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.Complete(ctx, a, req.ID, req.ExpectedVersion)
	})
}

func (s *Server) ReopenCollaboration(ctx context.Context, req *CollaborationActionRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.Reopen(ctx, a, req.ID, req.ExpectedVersion)
	})
}

func (s *Server) VerifyCollaboration(ctx context.Context, req *VerifyCollaborationRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.Verify(ctx, a, req.ID, req.Decision, req.Note, req.ExpectedVersion)
	})
}

func (s *Server) ResubmitCollaboration(ctx context.Context, req *CollaborationActionRequest) (*CollaborationResponse, error) {
	return s.withActor(ctx, func(a lifecycle.Actor) (*Collaboration, error) {
		return s.service.Resubmit(ctx, a, req.ID, req.ExpectedVersion)
	})
}

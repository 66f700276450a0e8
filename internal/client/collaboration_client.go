package client

import (
	"context"

	"github.com/damwatch/taskdesk/internal/collaboration"
	"github.com/damwatch/taskdesk/internal/verification"
)

type collaborationResponse = collaboration.CollaborationResponse

func (c *Client) CreateCollaboration(ctx context.Context, req *collaboration.CreateCollaborationRequest) (*collaboration.CollaborationView, error) {
	res, err := call[collaboration.CreateCollaborationRequest, collaborationResponse](ctx, c, collaboration.ServiceName, "CreateCollaboration", req)
	if err != nil {
		return nil, err
	}
	return res.Collaboration, nil
}

func (c *Client) GetCollaboration(ctx context.Context, id string) (*collaboration.CollaborationView, error) {
	res, err := call[collaboration.GetCollaborationRequest, collaborationResponse](ctx, c, collaboration.ServiceName, "GetCollaboration", &collaboration.GetCollaborationRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return res.Collaboration, nil
}

func (c *Client) ListCollaborations(ctx context.Context, req *collaboration.ListCollaborationsRequest) (*collaboration.ListCollaborationsResponse, error) {
	return call[collaboration.ListCollaborationsRequest, collaboration.ListCollaborationsResponse](ctx, c, collaboration.ServiceName, "ListCollaborations", req)
}

// CollaborationAction runs one of AcceptInvite, DeclineInvite,
// CompleteCollaboration, ReopenCollaboration, ResubmitCollaboration.
func (c *Client) CollaborationAction(ctx context.Context, method, id string) (*collaboration.CollaborationView, error) {
	res, err := call[collaboration.CollaborationActionRequest, collaborationResponse](ctx, c, collaboration.ServiceName, method, &collaboration.CollaborationActionRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return res.Collaboration, nil
}

// MemberAction runs InviteMember or RemoveMember.
func (c *Client) MemberAction(ctx context.Context, method, id, userID string) (*collaboration.CollaborationView, error) {
	res, err := call[collaboration.MemberRequest, collaborationResponse](ctx, c, collaboration.ServiceName, method, &collaboration.MemberRequest{ID: id, UserID: userID})
	if err != nil {
		return nil, err
	}
	return res.Collaboration, nil
}

func (c *Client) AddSubtask(ctx context.Context, req *collaboration.SubtaskRequest) (*collaboration.CollaborationView, error) {
	res, err := call[collaboration.SubtaskRequest, collaborationResponse](ctx, c, collaboration.ServiceName, "AddSubtask", req)
	if err != nil {
		return nil, err
	}
	return res.Collaboration, nil
}

func (c *Client) MoveSubtask(ctx context.Context, id, subtaskID string, status collaboration.SubtaskStatus) (*collaboration.CollaborationView, error) {
	req := &collaboration.MoveSubtaskRequest{ID: id, SubtaskID: subtaskID, Status: status}
	res, err := call[collaboration.MoveSubtaskRequest, collaborationResponse](ctx, c, collaboration.ServiceName, "MoveSubtask", req)
	if err != nil {
		return nil, err
	}
	return res.Collaboration, nil
}

func (c *Client) VerifyCollaboration(ctx context.Context, id string, decision verification.Decision, note string) (*collaboration.CollaborationView, error) {
	req := &collaboration.VerifyCollaborationRequest{ID: id, Decision: decision, Note: note}
	res, err := call[collaboration.VerifyCollaborationRequest, collaborationResponse](ctx, c, collaboration.ServiceName, "VerifyCollaboration", req)
	if err != nil {
		return nil, err
	}
	return res.Collaboration, nil
}

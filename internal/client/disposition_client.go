package client

import (
	"context"

	"github.com/damwatch/taskdesk/internal/disposition"
	"github.com/damwatch/taskdesk/internal/verification"
)

func (c *Client) AddDisposition(ctx context.Context, f disposition.DispositionFields) (*disposition.Disposition, error) {
	res, err := call[disposition.AddDispositionRequest, disposition.DispositionResponse](ctx, c, disposition.ServiceName, "AddDisposition", &disposition.AddDispositionRequest{DispositionFields: f})
	if err != nil {
		return nil, err
	}
	return res.Disposition, nil
}

func (c *Client) ListDispositions(ctx context.Context, req *disposition.ListDispositionsRequest) (*disposition.ListDispositionsResponse, error) {
	return call[disposition.ListDispositionsRequest, disposition.ListDispositionsResponse](ctx, c, disposition.ServiceName, "ListDispositions", req)
}

// DispositionAction runs one of ToggleActive, CompleteDisposition,
// ResubmitDisposition.
func (c *Client) DispositionAction(ctx context.Context, method, id string) (*disposition.Disposition, error) {
	res, err := call[disposition.DispositionActionRequest, disposition.DispositionResponse](ctx, c, disposition.ServiceName, method, &disposition.DispositionActionRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return res.Disposition, nil
}

func (c *Client) VerifyDisposition(ctx context.Context, id string, decision verification.Decision, note string) (*disposition.Disposition, error) {
	req := &disposition.VerifyDispositionRequest{ID: id, Decision: decision, Note: note}
	res, err := call[disposition.VerifyDispositionRequest, disposition.DispositionResponse](ctx, c, disposition.ServiceName, "VerifyDisposition", req)
	if err != nil {
		return nil, err
	}
	return res.Disposition, nil
}

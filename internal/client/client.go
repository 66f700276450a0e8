// Package client is the connect client used by the taskdesk CLI.
package client

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/internal/actor"
	"github.com/damwatch/taskdesk/internal/rpc"
)

const apiKeyHeader = "X-API-Key"

type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	actorID    string
	opts       []connect.ClientOption
}

type Option func(*Client)

func WithHTTPClient(c connect.HTTPClient) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// New returns a client that authenticates with apiKey and acts as actorID.
func New(baseURL, apiKey, actorID string, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    baseURL,
		actorID:    actorID,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.opts = []connect.ClientOption{
		connect.WithInterceptors(apiKeyInterceptor(apiKey), actor.NewConnectInterceptor()),
	}
	return c
}

func apiKeyInterceptor(apiKey string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient && apiKey != "" {
				req.Header().Set(apiKeyHeader, apiKey)
			}
			return next(ctx, req)
		}
	}
}

func call[Req, Res any](ctx context.Context, c *Client, service, method string, req *Req) (*Res, error) {
	if c.actorID != "" {
		ctx = actor.WithID(ctx, c.actorID)
	}
	res, err := rpc.Call[Req, Res](ctx, c.httpClient, c.baseURL, service, method, req, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", service, method, err)
	}
	return res, nil
}

// Package rpc registers and calls connect procedures whose messages are
// plain Go structs carried by the JSON codec.
package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/pkg/jsoncodec"
)

const packageName = "taskdesk.v1"

func Procedure(service, method string) string {
	return "/" + packageName + "." + service + "/" + method
}

// Route is one procedure path and its handler.
type Route struct {
	Path    string
	Handler http.Handler
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{jsoncodec.Option()}, opts...)
}

func Unary[Req, Res any](service, method string, fn func(context.Context, *Req) (*Res, error), opts ...connect.HandlerOption) Route {
	procedure := Procedure(service, method)
	return Route{
		Path: procedure,
		Handler: connect.NewUnaryHandler(procedure, func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, err
			}
			return connect.NewResponse(res), nil
		}, handlerOptions(opts)...),
	}
}

func ServerStream[Req, Res any](service, method string, fn func(context.Context, *Req, *connect.ServerStream[Res]) error, opts ...connect.HandlerOption) Route {
	procedure := Procedure(service, method)
	return Route{
		Path: procedure,
		Handler: connect.NewServerStreamHandler(procedure, func(ctx context.Context, req *connect.Request[Req], stream *connect.ServerStream[Res]) error {
			return fn(ctx, req.Msg, stream)
		}, handlerOptions(opts)...),
	}
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{jsoncodec.Option()}, opts...)
}

// Call invokes a unary procedure on baseURL.
func Call[Req, Res any](ctx context.Context, httpClient connect.HTTPClient, baseURL, service, method string, req *Req, opts ...connect.ClientOption) (*Res, error) {
	client := connect.NewClient[Req, Res](httpClient, baseURL+Procedure(service, method), clientOptions(opts)...)
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Stream opens a server stream on baseURL. The caller closes the returned
// stream.
func Stream[Req, Res any](ctx context.Context, httpClient connect.HTTPClient, baseURL, service, method string, req *Req, opts ...connect.ClientOption) (*connect.ServerStreamForClient[Res], error) {
	client := connect.NewClient[Req, Res](httpClient, baseURL+Procedure(service, method), clientOptions(opts)...)
	return client.CallServerStream(ctx, connect.NewRequest(req))
}

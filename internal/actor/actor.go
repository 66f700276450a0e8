// Package actor carries the calling user's id from the X-Actor-ID header
// into the request context.
package actor

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/damwatch/taskdesk/pkg/cerr"
	"github.com/damwatch/taskdesk/pkg/clog"
)

const Header = "X-Actor-ID"

// SystemID is reserved for work the server does on its own behalf. No
// request may act as it.
const SystemID = "system"

type ctxKey struct{}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Require returns the actor id or an Unauthenticated error. The system id
// is refused.
func Require(ctx context.Context) (string, error) {
	id := IDFrom(ctx)
	switch id {
	case "":
		return "", cerr.NewError(cerr.Unauthenticated, "missing "+Header+" header", nil)
	case SystemID:
		return "", cerr.NewError(cerr.Unauthenticated, "the system actor cannot make requests", nil)
	}
	return id, nil
}

func fromHeader(ctx context.Context, h http.Header) context.Context {
	id := h.Get(Header)
	if id == "" {
		return ctx
	}
	clog.AddActor(ctx, id)
	return WithID(ctx, id)
}

type interceptor struct{}

// NewConnectInterceptor reads the actor header on the handler side and
// writes it on the client side.
func NewConnectInterceptor() connect.Interceptor {
	return &interceptor{}
}

func (i *interceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			if id := IDFrom(ctx); id != "" {
				req.Header().Set(Header, id)
			}
			return next(ctx, req)
		}
		return next(fromHeader(ctx, req.Header()), req)
	}
}

func (i *interceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if id := IDFrom(ctx); id != "" {
			conn.RequestHeader().Set(Header, id)
		}
		return conn
	}
}

func (i *interceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		return next(fromHeader(ctx, conn.RequestHeader()), conn)
	}
}

// ChiMiddleware is the /api counterpart of the connect interceptor.
func ChiMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(fromHeader(r.Context(), r.Header)))
	})
}

package cerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"

	"github.com/damwatch/taskdesk/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string          // returned to the caller together with Code
	Err     error           // logged, never returned to the caller
	Stack   string          // captured for error-level codes only
	Details []proto.Message // structured details returned to the caller
}

func NewError(code Code, msg string, underlying error) *Error {
	e := &Error{Code: code, Msg: msg, Err: underlying}
	if clog.ConnectCodeToLevel(code.ConnectCode()) == clog.LevelError {
		e.Stack = captureStack()
	}
	return e
}

// NewViolation builds an InvalidArgument error carrying a single field
// violation, the shape every validation failure in the service takes.
func NewViolation(field, msg string, underlying error) *Error {
	return NewError(InvalidArgument, msg, underlying).AddFieldViolation(field, msg)
}

func captureStack() string {
	buf := make([]byte, 2048)
	return string(buf[:runtime.Stack(buf, false)])
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AddFieldViolation attaches a protovalidate violation whose rule id is the
// offending field.
func (e *Error) AddFieldViolation(field, msg string) *Error {
	e.Details = append(e.Details, &validate.Violation{
		Message: proto.String(msg),
		RuleId:  proto.String(field),
	})
	return e
}

// Violations flattens the field violations into field -> message.
func (e *Error) Violations() map[string]string {
	var out map[string]string
	for _, d := range e.Details {
		v, ok := d.(*validate.Violation)
		if !ok || v.GetRuleId() == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[v.GetRuleId()] = v.GetMessage()
	}
	return out
}

func (e *Error) ConnectError() *connect.Error {
	connectErr := connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
	for _, msg := range e.Details {
		if detail, err := connect.NewErrorDetail(msg); err == nil {
			connectErr.AddDetail(detail)
		}
	}
	return connectErr
}

func isCanceled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.Err == "operation was canceled"
}

// normalize turns any handler error into an *Error and records it, with its
// stack, on the request's log attributes. Cancellation is not logged as an
// error.
func normalize(ctx context.Context, err error) *Error {
	if isCanceled(err) {
		return NewError(Canceled, "connection closed", err)
	}
	clog.AddError(ctx, err)
	var ce *Error
	if !errors.As(err, &ce) {
		return NewError(Unknown, "unknown error", err)
	}
	if ce.Stack != "" {
		clog.AddStack(ctx, ce.Stack)
	}
	return ce
}

// ExtractConnectError converts err for the wire. Errors that already are
// connect errors pass through untouched.
func ExtractConnectError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if !isCanceled(err) && !errors.As(err, new(*Error)) && errors.As(err, &connectErr) {
		clog.AddError(ctx, err)
		return connectErr
	}
	return normalize(ctx, err).ConnectError()
}

func IsCode(err error, code Code) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == code
}

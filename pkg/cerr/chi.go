package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/damwatch/taskdesk/pkg/clog"
)

type responseReceiverKey struct{}

// responseReceiver collects the value or error a chi handler produced so the
// middleware can render it as JSON after the handler returns.
type responseReceiver struct {
	response any
	err      error
}

func contextWithResponseReceiver(ctx context.Context, rr *responseReceiver) context.Context {
	return context.WithValue(ctx, responseReceiverKey{}, rr)
}

// responseReceiverFromContext returns nil outside the middleware, which
// makes the setters no-ops.
func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	rr, _ := ctx.Value(responseReceiverKey{}).(*responseReceiver)
	return rr
}

func SetJSONResponse(ctx context.Context, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = response
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// Respond records err when it is non-nil and response otherwise.
func Respond(ctx context.Context, response any, err error) {
	if err != nil {
		SetJSONError(ctx, err)
		return
	}
	SetJSONResponse(ctx, response)
}

func NewConvertConnectErrorChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{}
			ctx := contextWithResponseReceiver(r.Context(), rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			rr.write(ctx, rw)
		})
	}
}

// httpError is the JSON body of a failed /api call. Violations maps a
// rejected field to its message.
type httpError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Violations map[string]string `json:"violations,omitempty"`
}

func (rr *responseReceiver) write(ctx context.Context, rw http.ResponseWriter) {
	status, body := http.StatusOK, rr.response
	if rr.err != nil {
		e := normalize(ctx, rr.err)
		status = e.Code.HTTPCode()
		body = httpError{Code: e.Code.String(), Message: e.Msg, Violations: e.Violations()}
	}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		clog.AddError(ctx, errors.Join(rr.err, err))
		status = http.StatusInternalServerError
		buf = bytes.NewBufferString(`{"code":"internal","message":"server error"}` + "\n")
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, err)
	}
}

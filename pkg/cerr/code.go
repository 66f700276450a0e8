package cerr

import (
	"net/http"

	"connectrpc.com/connect"
)

type Code int

const (
	OK                 = Code(0)
	Canceled           = Code(1)
	Unknown            = Code(2)
	InvalidArgument    = Code(3)
	DeadlineExceeded   = Code(4)
	NotFound           = Code(5)
	AlreadyExists      = Code(6)
	PermissionDenied   = Code(7)
	ResourceExhausted  = Code(8)
	FailedPrecondition = Code(9)
	Aborted            = Code(10)
	OutOfRange         = Code(11)
	Unimplemented      = Code(12)
	Internal           = Code(13)
	Unavailable        = Code(14)
	DataLoss           = Code(15)
	Unauthenticated    = Code(16)
)

type codeInfo struct {
	name    string
	connect connect.Code
	http    int
}

var codeTable = map[Code]codeInfo{
	OK:                 {"ok", 0, http.StatusOK},
	Canceled:           {"canceled", connect.CodeCanceled, 499},
	Unknown:            {"unknown", connect.CodeUnknown, http.StatusInternalServerError},
	InvalidArgument:    {"invalid_argument", connect.CodeInvalidArgument, http.StatusBadRequest},
	DeadlineExceeded:   {"deadline_exceeded", connect.CodeDeadlineExceeded, http.StatusGatewayTimeout},
	NotFound:           {"not_found", connect.CodeNotFound, http.StatusNotFound},
	AlreadyExists:      {"already_exists", connect.CodeAlreadyExists, http.StatusConflict},
	PermissionDenied:   {"permission_denied", connect.CodePermissionDenied, http.StatusForbidden},
	ResourceExhausted:  {"resource_exhausted", connect.CodeResourceExhausted, http.StatusTooManyRequests},
	FailedPrecondition: {"failed_precondition", connect.CodeFailedPrecondition, http.StatusPreconditionFailed},
	Aborted:            {"aborted", connect.CodeAborted, http.StatusConflict},
	OutOfRange:         {"out_of_range", connect.CodeOutOfRange, http.StatusBadRequest},
	Unimplemented:      {"unimplemented", connect.CodeUnimplemented, http.StatusNotImplemented},
	Internal:           {"internal", connect.CodeInternal, http.StatusInternalServerError},
	Unavailable:        {"unavailable", connect.CodeUnavailable, http.StatusServiceUnavailable},
	DataLoss:           {"data_loss", connect.CodeDataLoss, http.StatusInternalServerError},
	Unauthenticated:    {"unauthenticated", connect.CodeUnauthenticated, http.StatusUnauthorized},
}

func (c Code) String() string {
	if info, ok := codeTable[c]; ok {
		return info.name
	}
	return "unknown"
}

func (c Code) ConnectCode() connect.Code {
	info, ok := codeTable[c]
	if !ok {
		return connect.CodeUnknown
	}
	return info.connect
}

func (c Code) HTTPCode() int {
	info, ok := codeTable[c]
	if !ok {
		return http.StatusInternalServerError
	}
	return info.http
}

// NewCodeFromConnectError maps a connect error back to a Code. Used by the CLI
// to render server failures.
func NewCodeFromConnectError(err error) Code {
	cc := connect.CodeOf(err)
	for code, info := range codeTable {
		if code != OK && info.connect == cc {
			return code
		}
	}
	return Unknown
}

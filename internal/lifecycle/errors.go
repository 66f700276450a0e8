package lifecycle

import (
	"errors"
	"fmt"

	"github.com/damwatch/taskdesk/pkg/cerr"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrEmptyTitle         = fmt.Errorf("%w: empty title", ErrValidation)
	ErrEmptyReason        = fmt.Errorf("%w: empty reason", ErrValidation)
	ErrEmptyRevisionNote  = fmt.Errorf("%w: empty revision note", ErrValidation)
	ErrEmptyRequiredField = fmt.Errorf("%w: empty required field", ErrValidation)
	ErrInvalidReceiver    = fmt.Errorf("%w: invalid receiver", ErrValidation)

	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyVerified   = errors.New("already verified")
	ErrVersionConflict   = errors.New("version conflict")
	ErrPermissionDenied  = errors.New("permission denied")
)

// Validation reports a rejected field. sentinel is ErrValidation or one of
// its children.
func Validation(sentinel error, field, msg string) error {
	return cerr.NewViolation(field, msg, sentinel)
}

func InvalidTransition(kind, id, action string, from any) error {
	return cerr.NewError(cerr.FailedPrecondition,
		fmt.Sprintf("cannot %s %s in status %q", action, kind, fmt.Sprint(from)),
		fmt.Errorf("%s %s: %w", kind, id, ErrInvalidTransition))
}

func NotFound(kind, id string) error {
	return cerr.NewError(cerr.NotFound, kind+" not found", fmt.Errorf("%s %s: %w", kind, id, ErrNotFound))
}

func AlreadyVerified(kind, id string) error {
	return cerr.NewError(cerr.FailedPrecondition, kind+" is already verified", fmt.Errorf("%s %s: %w", kind, id, ErrAlreadyVerified))
}

func VersionConflict(kind, id string, expected, actual int64) error {
	return cerr.NewError(cerr.Aborted,
		fmt.Sprintf("%s was modified concurrently (expected version %d, current %d)", kind, expected, actual),
		fmt.Errorf("%s %s: %w", kind, id, ErrVersionConflict))
}

func PermissionDenied(msg string) error {
	return cerr.NewError(cerr.PermissionDenied, msg, ErrPermissionDenied)
}

// CheckVersion enforces optimistic concurrency. expected 0 skips the check.
func CheckVersion(kind, id string, expected, actual int64) error {
	if expected != 0 && expected != actual {
		return VersionConflict(kind, id, expected, actual)
	}
	return nil
}

// MapNotFound turns a repository NotFound into the lifecycle NotFound so
// callers can match ErrNotFound.
func MapNotFound(kind, id string, err error) error {
	if cerr.IsCode(err, cerr.NotFound) {
		return NotFound(kind, id)
	}
	return err
}

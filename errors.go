package eventcore

import (
	"errors"
	"fmt"
)

// Status is the boundary status vocabulary shared by every synchronous
// return and every asynchronous callback in this package. It intentionally
// mirrors a small, closed set rather than arbitrary Go errors, so that
// callers can switch on it without string matching.
type Status int

const (
	// StatusGood indicates success.
	StatusGood Status = iota
	// StatusBadInternalError indicates a programmer error: reentrant Run,
	// or another invariant violation.
	StatusBadInternalError
	// StatusBadInvalidArgument indicates a rejected argument.
	StatusBadInvalidArgument
	// StatusBadNotFound indicates an unknown id, handle, or name.
	StatusBadNotFound
	// StatusBadAlreadyExists indicates a duplicate name or handle.
	StatusBadAlreadyExists
	// StatusBadConnectionClosed indicates an operation on a closing,
	// closed, or never-open connection.
	StatusBadConnectionClosed
	// StatusBadOutOfMemory indicates resource exhaustion.
	StatusBadOutOfMemory
	// StatusBadCommunicationError indicates a terminal I/O failure.
	StatusBadCommunicationError
)

func (s Status) String() string {
	switch s {
	case StatusGood:
		return "Good"
	case StatusBadInternalError:
		return "BadInternalError"
	case StatusBadInvalidArgument:
		return "BadInvalidArgument"
	case StatusBadNotFound:
		return "BadNotFound"
	case StatusBadAlreadyExists:
		return "BadAlreadyExists"
	case StatusBadConnectionClosed:
		return "BadConnectionClosed"
	case StatusBadOutOfMemory:
		return "BadOutOfMemory"
	case StatusBadCommunicationError:
		return "BadCommunicationError"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// IsGood reports whether s is StatusGood.
func (s Status) IsGood() bool { return s == StatusGood }

// StatusError adapts a [Status] to the error interface so it can travel
// through normal Go error-handling paths (wrapping, errors.Is) while still
// exposing the status code via [AsStatus].
type StatusError struct {
	Status Status
	Cause  error
}

func (e *StatusError) Error() string {
	if e.Cause == nil {
		return "eventcore: " + e.Status.String()
	}
	return fmt.Sprintf("eventcore: %s: %v", e.Status, e.Cause)
}

func (e *StatusError) Unwrap() error { return e.Cause }

// Is reports whether target is a *StatusError with the same Status, so
// errors.Is(err, &StatusError{Status: StatusBadNotFound}) works without
// requiring the caller to know about Cause.
func (e *StatusError) Is(target error) bool {
	var se *StatusError
	if errors.As(target, &se) {
		return se.Status == e.Status
	}
	return false
}

// newStatusError builds a *StatusError, optionally wrapping cause.
func newStatusError(status Status, cause error) *StatusError {
	return &StatusError{Status: status, Cause: cause}
}

// AsStatus extracts the [Status] carried by err, defaulting to
// StatusBadInternalError for any non-nil error that isn't a *StatusError,
// and StatusGood for a nil error.
func AsStatus(err error) Status {
	if err == nil {
		return StatusGood
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return StatusBadInternalError
}

// Sentinel errors for conditions the caller is expected to compare against
// with errors.Is, independent of the wrapped Status.
var (
	// ErrReentrantRun is returned by [Loop.Run] when called from within a
	// callback the loop itself dispatched.
	ErrReentrantRun = errors.New("eventcore: Run called re-entrantly")
	// ErrLoopNotFresh is returned by [Loop.Start] when the loop is not in
	// StateFresh or StateStopped.
	ErrLoopNotFresh = errors.New("eventcore: loop is already started or stopping")
	// ErrLoopNotStopped is returned by [Loop.Free] when the loop has not
	// fully drained to StateStopped.
	ErrLoopNotStopped = errors.New("eventcore: loop is not stopped")
	// ErrSourceNameEmpty is returned when registering a source with an
	// empty name.
	ErrSourceNameEmpty = errors.New("eventcore: source name must not be empty")

	errIntervalNotPositive = errors.New("eventcore: interval_ms must be > 0")
	errTimerNotFound       = errors.New("eventcore: unknown timer id")
	errWakeSocketAddr      = errors.New("eventcore: wake socket returned an unexpected address family")
	errHostnameRequired    = errors.New("eventcore: params.hostname is required")
	errPortRequired        = errors.New("eventcore: params.port is required")
)

func wrapf(status Status, format string, args ...any) error {
	return newStatusError(status, fmt.Errorf(format, args...))
}

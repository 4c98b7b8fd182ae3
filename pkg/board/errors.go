package board

import (
	"errors"
	"fmt"
	"strings"
)

// RemoteError wraps a failed call against the record service with a
// human-readable cause. PermissionDenied is set when the cause looks like an
// access problem so callers can suggest contacting an admin instead of
// retrying.
type RemoteError struct {
	Op               string
	Cause            string
	PermissionDenied bool
	err              error
}

func (e *RemoteError) Error() string {
	if e.PermissionDenied {
		return fmt.Sprintf("board: %s: permission denied: %s", e.Op, e.Cause)
	}
	return fmt.Sprintf("board: %s: %s", e.Op, e.Cause)
}

func (e *RemoteError) Unwrap() error { return e.err }

// ClassifyRemote builds a RemoteError from an underlying failure, flagging
// permission problems by cause text the way the record service reports them.
func ClassifyRemote(op string, err error) *RemoteError {
	if err == nil {
		return nil
	}
	cause := err.Error()
	lower := strings.ToLower(cause)
	denied := strings.Contains(lower, "permission") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "forbidden")
	return &RemoteError{Op: op, Cause: cause, PermissionDenied: denied, err: err}
}

// IsPermissionDenied reports whether err (or anything it wraps) is a
// permission-classified RemoteError.
func IsPermissionDenied(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.PermissionDenied
}

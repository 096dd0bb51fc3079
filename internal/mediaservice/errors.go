package mediaservice

import (
	"context"
	"errors"
	"fmt"
)

// RemoteError is returned when the media service reports a failure in its
// response envelope, answers with a non-2xx status, or cannot be reached.
type RemoteError struct {
	Op         string
	StatusCode int    // 0 when the request never got a response
	Message    string // envelope "error" field or a bounded body excerpt
	Err        error  // transport failure, if any
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsRetryable reports whether a manual retry has a reasonable chance of
// succeeding: transport failures, timeouts, throttling and 5xx responses.
// Envelope errors returned with a 2xx status are treated as permanent.
func (e *RemoteError) IsRetryable() bool {
	if e.Err != nil {
		// the caller gave up; nothing went wrong on the wire
		return !errors.Is(e.Err, context.Canceled)
	}
	switch {
	case e.StatusCode == 408, e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsRemote reports whether err came from the media service boundary.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

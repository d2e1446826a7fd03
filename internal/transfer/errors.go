package transfer

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSizeUnknown means the probe could not determine the resource length.
// There is no point retrying inside the transfer core.
var ErrSizeUnknown = errors.New("unable to determine resource size")

// ErrZeroProgress means a range iteration wrote no bytes. Surfaced instead of
// looping so a server that keeps returning empty bodies cannot stall forever.
var ErrZeroProgress = errors.New("range iteration made no progress")

// StatusError reports a fetch that returned a non-success status mid-loop.
// The caller decides whether to retry with backoff.
type StatusError struct {
	Status     int
	RetryAfter string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transfer failed with status %d", e.Status)
}

// IncompleteError reports a destination file smaller than the expected size
// after the transfer loop exited normally.
type IncompleteError struct {
	Got  int64
	Want int64
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete transfer: got %d of %d bytes", e.Got, e.Want)
}

// RateLimitCheck decides whether a transfer failure was a rate-limit signal,
// i.e. whether backoff pacing should apply before the next attempt.
type RateLimitCheck func(err error) bool

// DefaultRateLimitCheck treats HTTP 429 as the only rate-limit signal.
func DefaultRateLimitCheck(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusTooManyRequests
}

package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go"
)

// Kind tells callers whether repeating a failed request may succeed.
type Kind string

const (
	Transient Kind = "transient"
	Permanent Kind = "permanent"
)

// Error is returned by every Client operation that reached, or tried to reach, the
// provider.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failed (%s, status %d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed (%s): %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err is a provider failure worth retrying, such as a
// rate limit, a server error or a timeout.
func IsTransient(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind == Transient
	}
	return false
}

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	perr := &Error{Op: op, Kind: Permanent, Message: err.Error(), Cause: err}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		perr.Status = apiErr.StatusCode
		perr.Kind = classifyStatusCode(apiErr.StatusCode)
		return perr
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		perr.Kind = Permanent
	case errors.Is(err, context.DeadlineExceeded):
		perr.Kind = Transient
	case errors.As(err, &netErr):
		perr.Kind = Transient
	}
	return perr
}

func classifyStatusCode(status int) Kind {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusConflict, status == http.StatusTooManyRequests:
		return Transient
	case status >= 500:
		return Transient
	default:
		return Permanent
	}
}

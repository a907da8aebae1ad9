package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind is the normalized failure taxonomy for downstream calls.
type ErrorKind string

const (
	// KindTimeout indicates the call did not complete within its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindTransport indicates the request never produced a response.
	KindTransport ErrorKind = "transport"

	// KindUnexpectedStatus indicates a status the operation has no mapping for.
	KindUnexpectedStatus ErrorKind = "unexpected_status"

	// KindBadPayload indicates a response body that could not be decoded.
	KindBadPayload ErrorKind = "bad_payload"
)

// Error is a classified gateway failure. Its message carries only the
// operation, kind and status code, never a request or response body.
type Error struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Retryable  bool
	Underlying error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s [%s]: status %d", e.Op, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("gateway %s [%s]", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError classifies a failure. Timeouts, transport failures and 5xx
// responses are retryable by the citizen revisiting the page.
func NewError(op string, kind ErrorKind, statusCode int, underlying error) *Error {
	retryable := kind == KindTimeout ||
		kind == KindTransport ||
		(kind == KindUnexpectedStatus && statusCode >= 500)

	return &Error{
		Op:         op,
		Kind:       kind,
		StatusCode: statusCode,
		Retryable:  retryable,
		Underlying: underlying,
	}
}

// IsRetryable checks if an error is worth the citizen retrying.
func IsRetryable(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return false
}

// KindOf extracts the failure kind; unclassified errors report "".
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

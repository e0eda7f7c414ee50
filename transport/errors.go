package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTransportUnavailable is returned when every probe candidate failed.
	ErrTransportUnavailable = errors.New("no working transport found")

	// ErrClosed is returned for operations on a closed transport and used to
	// fail pending calls when a shared stream terminates.
	ErrClosed = errors.New("transport closed")
)

// MalformedResponseError reports a body that could not be parsed as a valid
// JSON-RPC envelope. It fails the single affected call only; cached transport
// and version state stays valid.
type MalformedResponseError struct {
	Body []byte
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsTransient reports whether err looks like a transient network failure,
// the class of errors worth one automatic retry for idempotent operations.
// Protocol-level errors and malformed bodies are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

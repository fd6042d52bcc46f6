package session

import (
	"errors"
	"fmt"

	"github.com/gogo/status"
	"google.golang.org/grpc/codes"
)

var (
	// ErrConnection is returned when the session cannot reach the detector.
	ErrConnection = errors.New("session: connection failed")
	// ErrQueueClosed is returned by Submit before RegisterHandler, after
	// CloseSubmit, or once the write loop has stopped.
	ErrQueueClosed = errors.New("session: queue closed")
	// ErrQueueFull is returned by Submit when a bounded queue has no room.
	ErrQueueFull = errors.New("session: queue full")
	// ErrHandlerRegistered is returned by the second call to
	// RegisterHandler.
	ErrHandlerRegistered = errors.New("session: handler already registered")
	// ErrClosed is the cause attached to the stream context by Close.
	ErrClosed = errors.New("session: closed")
)

// TransportError is a failure of the underlying stream.
type TransportError struct {
	// Op is either "send" or "recv".
	Op   string
	Code codes.Code
	Err  error
}

func newTransportError(op string, err error) *TransportError {
	return &TransportError{
		Op:   op,
		Code: status.Convert(err).Code(),
		Err:  err,
	}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("session: %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

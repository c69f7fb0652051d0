package transfer

import (
	"errors"
	"fmt"
)

var (
	ErrPeerDisconnected = errors.New("peer disconnected")
	ErrSignaling        = errors.New("signaling relay error")
	ErrTimeout          = errors.New("timeout")
	ErrChannelClosed    = errors.New("channel closed")
	ErrUnlockRejected   = errors.New("receiver rejected the password")
	ErrTruncated        = errors.New("transfer truncated")
	ErrNoSession        = errors.New("no active transfer session")
)

// TransferError wraps a failure with the operation that produced it.
type TransferError struct {
	Op      string
	Err     error
	Details string
}

func (e *TransferError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *TransferError {
	return &TransferError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *TransferError {
	return &TransferError{Op: op, Err: err, Details: details}
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTokenNotFound is returned for any confirmation lookup miss. It is
// deliberately uniform: callers cannot tell a malformed token from one that
// was never issued.
var ErrTokenNotFound = errors.New("subscription token not found")

// ValidationError reports malformed client input. Its message is safe to
// return to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// PersistenceError reports a store failure: connectivity loss, a constraint
// violation, or an aborted transaction. The wrapped cause is kept for the
// logs; only a generic message crosses the boundary.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DeliveryError reports a failed outbound email send, naming the recipient
// it failed for.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver email to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ErrorChain renders err and every wrapped cause on one line for diagnostics.
func ErrorChain(err error) string {
	if err == nil {
		return ""
	}
	parts := []string{err.Error()}
	for {
		err = errors.Unwrap(err)
		if err == nil {
			break
		}
		parts = append(parts, "caused by: "+err.Error())
	}
	return strings.Join(parts, " | ")
}

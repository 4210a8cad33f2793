package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/naveenspark/tempo/pkg/client"
)

// Rejection is an explicit refusal from a backend that was reachable: bad
// credentials, validation failures, missing entities. It is never retried
// against another backend.
type Rejection struct {
	Op      string
	Status  int
	Message string
}

func (e *Rejection) Error() string {
	return e.Message
}

// UnreachableError wraps a failure that means the backend could not be
// reached. The selector turns it into a local fallback.
type UnreachableError struct {
	Op  string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// IsUnreachable reports whether err (or any wrapped error) is an UnreachableError.
func IsUnreachable(err error) bool {
	var u *UnreachableError
	return errors.As(err, &u)
}

// IsRejection reports whether err is a Rejection with the given status.
// A zero status matches any rejection.
func IsRejection(err error, status int) bool {
	var r *Rejection
	if !errors.As(err, &r) {
		return false
	}
	return status == 0 || r.Status == status
}

// IsUnauthorized reports whether err means the credential is no longer valid.
func IsUnauthorized(err error) bool {
	return IsRejection(err, http.StatusUnauthorized)
}

func reject(op string, status int, format string, args ...any) *Rejection {
	return &Rejection{Op: op, Status: status, Message: fmt.Sprintf(format, args...)}
}

// classify maps REST client errors onto the backend taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if client.IsUnreachable(err) {
		return &UnreachableError{Op: op, Err: err}
	}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return &Rejection{Op: op, Status: httpErr.StatusCode, Message: httpErr.Message}
	}
	return fmt.Errorf("%s: %w", op, err)
}

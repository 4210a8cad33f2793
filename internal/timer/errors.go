package timer

import (
	"errors"
	"fmt"
)

// AlreadyRunningError is returned by Start while a timer is running.
type AlreadyRunningError struct {
	EntryID     string
	Description string
}

func (e *AlreadyRunningError) Error() string {
	if e.Description == "" {
		return "a timer is already running"
	}
	return fmt.Sprintf("a timer is already running: %q", e.Description)
}

// NotRunningError is returned by Stop when no timer is running.
type NotRunningError struct{}

func (*NotRunningError) Error() string {
	return "no timer is running"
}

// ErrSessionEnded is returned for work whose session was logged out or whose
// store was closed before it ran.
var ErrSessionEnded = errors.New("session ended")

// IsAlreadyRunning reports whether err is an AlreadyRunningError.
func IsAlreadyRunning(err error) bool {
	var e *AlreadyRunningError
	return errors.As(err, &e)
}

// IsNotRunning reports whether err is a NotRunningError.
func IsNotRunning(err error) bool {
	var e *NotRunningError
	return errors.As(err, &e)
}

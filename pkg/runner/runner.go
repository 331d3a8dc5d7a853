// Package runner provides command runners for the polling engine: a
// local shell runner and an SSH runner for remote network devices.
package runner

import "fmt"

// TransportError wraps a failure to reach the device or to execute a
// command on it. The polling engine treats it as fatal: it aborts the
// session instead of consuming the retry budget.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

package kvbridge

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInTransactionMode is returned when ExecMulti is called on a
	// facade that was not constructed in deferred mode.
	ErrNotInTransactionMode = errors.New("facade is not in transaction mode")

	// ErrTransactionSpent is returned when an operation is attempted on a
	// deferred facade after its transaction buffer has been committed.
	// A fresh facade is required for further deferred work.
	ErrTransactionSpent = errors.New("transaction buffer already committed")
)

// StoreCommandError reports that the underlying store rejected or failed a
// command. The original command name and cause are carried; the operation
// is never retried automatically.
type StoreCommandError struct {
	Command string
	Err     error
}

func (e *StoreCommandError) Error() string {
	return fmt.Sprintf("store command %s failed: %v", e.Command, e.Err)
}

func (e *StoreCommandError) Unwrap() error {
	return e.Err
}

// InvalidPatternError reports a delete-by-pattern call that was rejected
// before any store round trip: the bare match-everything wildcard, an empty
// pattern, or a malformed pattern list.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("invalid pattern: %s", e.Reason)
	}
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}

func storeErr(command string, err error) error {
	return &StoreCommandError{Command: command, Err: err}
}

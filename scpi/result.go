package scpi

import (
	"errors"
	"time"
)

// ExecutionResult captures the outcome of one command execution. It is
// created once per execution, immutable after the sequencer stamps its
// position, and owned by the caller once emitted on the result stream.
//
// Ordinal and Iteration are both 1-based: the first command of the first
// pass over the list is (iteration 1, ordinal 1). A session-level execution
// outside a run (Controller.ExecuteOnce) is stamped (1, 1).
type ExecutionResult struct {
	// Command is the executed command. It is the zero value on the terminal
	// marker result that ends a run after a connection loss.
	Command Command

	// Ordinal is the 1-based position of the command in the command list.
	Ordinal int

	// Iteration is the 1-based repeat index of the run.
	Iteration int

	// Response is the single response line returned by the instrument.
	// It is only meaningful when HasResponse is true, which requires the
	// command to be a query and the round trip to have succeeded.
	Response string

	// HasResponse reports whether Response carries an instrument reply.
	HasResponse bool

	// Err is the error that ended this execution, nil on success.
	Err error

	// SentAt is the UTC time just before the command was written to the
	// transport. On a precondition failure (not connected) it is the time
	// the execution was attempted.
	SentAt time.Time

	// CompletedAt is the UTC time the execution finished, successfully or not.
	CompletedAt time.Time
}

// Failed reports whether the execution ended with an error.
func (r *ExecutionResult) Failed() bool { return r.Err != nil }

// Terminal reports whether the result is the terminal marker that ends a run
// after the session entered the failed state.
func (r *ExecutionResult) Terminal() bool { return errors.Is(r.Err, ErrConnectionLost) }

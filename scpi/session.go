package scpi

import (
	"context"

	"github.com/arloliu/go-scpi/logger"
)

// Transport owns the raw bidirectional byte stream to the instrument.
// The TCP implementation lives in the scpitcp package.
//
// A Transport carries no SCPI semantics: it moves bytes and lines with
// bounded timeouts. Every code path that opens a Transport must guarantee
// Close is eventually called, including error paths in the session.
type Transport interface {
	// Open establishes the connection to the endpoint within the
	// implementation's connect timeout. A failed Open leaves no resource held.
	//
	// Classified failures: ErrConnectTimeout, ErrConnectRefused,
	// ErrHostUnresolvable.
	Open(ctx context.Context, endpoint Endpoint) error

	// Send writes all of p or fails. Partial writes are continued internally
	// until completion or a write error.
	//
	// Classified failures: ErrTimeout, ErrConnClosed, ErrWriteFailed.
	Send(p []byte) error

	// ReceiveLine reads one line within the implementation's read timeout
	// and returns it without the line terminator.
	//
	// Classified failures: ErrTimeout, ErrConnClosed.
	ReceiveLine() (string, error)

	// Close releases the connection. It is idempotent.
	Close() error
}

// Session wraps a Transport with SCPI semantics: it distinguishes query
// commands from set commands, pairs queries with a single response line,
// tracks the connection state and performs the identification handshake.
//
// A session has at most one in-flight request/response pair at any time;
// implementations serialize Execute calls.
type Session interface {
	// Connect opens the transport and, if configured, issues the
	// identification query. On failure the session is left in FailedState
	// and the classified connect error is returned.
	Connect(ctx context.Context) error

	// Disconnect closes the transport and leaves the session in
	// DisconnectedState. It is idempotent.
	Disconnect() error

	// Execute sends the command and, for a query, reads exactly one response
	// line. The returned result is never nil; err, when non-nil, equals the
	// result's Err field.
	//
	// Precondition: the session is in ConnectedState, otherwise the execution
	// fails immediately with ErrNotConnected and no transport call is made.
	// Any transport error transitions the session to FailedState and requires
	// an explicit reconnect.
	Execute(cmd Command) (*ExecutionResult, error)

	// State returns the current connection state.
	State() ConnState

	// Identity returns the identity string reported by the instrument during
	// the identification handshake, or an empty string if the handshake was
	// not run.
	Identity() string

	// AddStateChangeHandler adds one or more StateChangeHandler functions to
	// be invoked when the connection state changes.
	AddStateChangeHandler(handlers ...StateChangeHandler)

	// GetLogger returns the logger associated with the session.
	GetLogger() logger.Logger
}

package scpi

import "errors"

// Connect errors, reported by Transport.Open and Session.Connect.
var (
	// ErrConnectTimeout indicates that the connection attempt did not complete
	// within the configured connect timeout.
	ErrConnectTimeout = errors.New("scpi: connect timeout")

	// ErrConnectRefused indicates that the remote instrument actively refused
	// the connection.
	ErrConnectRefused = errors.New("scpi: connection refused")

	// ErrHostUnresolvable indicates that the endpoint host could not be resolved.
	ErrHostUnresolvable = errors.New("scpi: host unresolvable")
)

// I/O errors, reported by Transport.Send and Transport.ReceiveLine.
var (
	// ErrTimeout indicates that a read or write deadline was exceeded.
	ErrTimeout = errors.New("scpi: i/o timeout")

	// ErrConnClosed indicates that the connection is closed.
	ErrConnClosed = errors.New("scpi: connection closed")

	// ErrWriteFailed indicates that a write to the instrument failed before
	// all bytes were delivered.
	ErrWriteFailed = errors.New("scpi: write failed")
)

// Session and sequencer errors.
var (
	// ErrNotConnected indicates that an operation was attempted while the
	// session is not in the connected state. No transport call is made.
	ErrNotConnected = errors.New("scpi: not connected")

	// ErrSequencerBusy indicates that a run was started while another run is
	// still active on the same session.
	ErrSequencerBusy = errors.New("scpi: sequencer busy, a run is already active")

	// ErrConnectionLost is the terminal marker error that ends a run after the
	// session entered the failed state. It is carried by the final
	// ExecutionResult of the run.
	ErrConnectionLost = errors.New("scpi: connection lost")

	// ErrInvalidTransition is returned when an attempt is made to transition
	// the connection state to an invalid state.
	ErrInvalidTransition = errors.New("scpi: invalid state transition")
)

// Validation errors.
var (
	// ErrConfigNil indicates that a nil connection config was provided.
	ErrConfigNil = errors.New("scpi: connection config is nil")

	// ErrEmptyCommand indicates that a command with no text was provided.
	ErrEmptyCommand = errors.New("scpi: command text is empty")

	// ErrNoCommands indicates that a run was requested with an empty command list.
	ErrNoCommands = errors.New("scpi: command list is empty")

	// ErrInvalidRepeatCount indicates that RunConfig.RepeatCount is neither
	// RepeatForever nor a positive count.
	ErrInvalidRepeatCount = errors.New("scpi: repeat count must be >= 1 or RepeatForever")

	// ErrInvalidInterval indicates that RunConfig.Interval is negative.
	ErrInvalidInterval = errors.New("scpi: interval must be >= 0")

	// ErrInvalidEndpoint indicates an empty host or an out-of-range port.
	ErrInvalidEndpoint = errors.New("scpi: invalid endpoint")
)

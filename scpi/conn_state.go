package scpi

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-scpi/logger"
)

// ConnState represents the stage of a SCPI session's connection.
type ConnState uint32

// Session connection states.
const (
	// DisconnectedState indicates that no TCP connection is established.
	DisconnectedState ConnState = iota
	// ConnectingState indicates that a connect attempt is in progress.
	ConnectingState
	// ConnectedState indicates that the session is connected and can execute commands.
	ConnectedState
	// FailedState indicates that a transport error invalidated the connection.
	// It is a reportable snapshot, not a dead end: a new connect attempt is
	// allowed from this state.
	FailedState
)

// IsDisconnected returns if the current state is disconnected.
func (cs ConnState) IsDisconnected() bool { return cs == DisconnectedState }

// IsConnecting returns if the current state is connecting.
func (cs ConnState) IsConnecting() bool { return cs == ConnectingState }

// IsConnected returns if the current state is connected.
func (cs ConnState) IsConnected() bool { return cs == ConnectedState }

// IsFailed returns if the current state is failed.
func (cs ConnState) IsFailed() bool { return cs == FailedState }

// String returns string representation of the current state.
func (cs ConnState) String() string {
	switch cs {
	case DisconnectedState:
		return "disconnected"
	case ConnectingState:
		return "connecting"
	case ConnectedState:
		return "connected"
	case FailedState:
		return "failed"
	default:
		return "unknown"
	}
}

// StateChangeHandler is a function type that represents a handler for
// connection state changes.
//
// Note: the handler will be invoked in a blocking mode. Take care with
// long-running implementations.
type StateChangeHandler func(prevState ConnState, newState ConnState)

// ConnStateMgr manages the connection state of a SCPI session.
//
// It provides methods for managing state transitions and notifying listeners
// of state changes. The state transitions are safe for concurrent use.
//
// Legal transitions:
//
//	Disconnected/Failed -> Connecting (connect requested)
//	Connecting          -> Connected  (transport open succeeded)
//	Connecting/Connected -> Failed    (transport error)
//	any                  -> Disconnected (explicit disconnect)
type ConnStateMgr struct {
	mu       sync.Mutex
	cond     *sync.Cond
	state    atomic.Uint32
	logger   logger.Logger
	handlers []StateChangeHandler
}

// NewConnStateMgr creates a new ConnStateMgr instance, initializing it to the
// DisconnectedState.
//
// It accepts optional StateChangeHandler functions that will be invoked when
// the connection state changes.
func NewConnStateMgr(l logger.Logger, handlers ...StateChangeHandler) *ConnStateMgr {
	mgr := &ConnStateMgr{
		logger:   l,
		handlers: make([]StateChangeHandler, 0, len(handlers)),
	}
	mgr.handlers = append(mgr.handlers, handlers...)

	if mgr.logger == nil {
		mgr.logger = logger.GetLogger()
	}

	mgr.state.Store(uint32(DisconnectedState))
	mgr.cond = sync.NewCond(&mgr.mu)

	return mgr
}

// State returns the current connection state.
func (cs *ConnStateMgr) State() ConnState {
	return ConnState(cs.state.Load())
}

// AddHandler adds one or more StateChangeHandler functions to be invoked on state changes.
func (cs *ConnStateMgr) AddHandler(handlers ...StateChangeHandler) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.handlers = append(cs.handlers, handlers...)
}

// WaitState waits for the connection state to reach the specified state or until the context is done.
// It returns nil if the desired state is reached, or an error if the context is canceled or times out.
func (cs *ConnStateMgr) WaitState(ctx context.Context, state ConnState) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.State() == state {
		return nil
	}

	stopFunc := context.AfterFunc(ctx, func() {
		cs.cond.Broadcast()
	})
	defer stopFunc()

	for cs.State() != state {
		select {
		case <-ctx.Done():
			cs.logger.Debug("wait connection state receive ctx done", "cur_state", cs.State(), "desired_state", state)
			return ctx.Err()
		default:
			cs.cond.Wait()
		}
	}

	return nil
}

// ToConnecting transitions the connection state to ConnectingState.
//
// This transition is only allowed from the Disconnected or Failed state,
// representing a new connect attempt.
//
// Returns nil on success, or ErrInvalidTransition otherwise.
func (cs *ConnStateMgr) ToConnecting() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if !curState.IsDisconnected() && !curState.IsFailed() {
		return ErrInvalidTransition
	}

	cs.setState(ConnectingState)
	cs.invokeHandlers(curState, ConnectingState)

	return nil
}

// ToConnected transitions the connection state to ConnectedState.
//
// This transition is only allowed from the ConnectingState and indicates that
// the transport is open and the session is ready to execute commands.
//
// Returns nil on success, or ErrInvalidTransition otherwise.
func (cs *ConnStateMgr) ToConnected() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if !curState.IsConnecting() {
		return ErrInvalidTransition
	}

	cs.setState(ConnectedState)
	cs.invokeHandlers(curState, ConnectedState)

	return nil
}

// ToFailed transitions the connection state to FailedState.
//
// This transition is allowed from the Connecting or Connected state.
// If the state is already FailedState, the function is a no-op.
//
// Returns nil on success, or ErrInvalidTransition otherwise.
func (cs *ConnStateMgr) ToFailed() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState.IsFailed() {
		return nil // Already in FailedState, no-op
	}

	if !curState.IsConnecting() && !curState.IsConnected() {
		return ErrInvalidTransition
	}

	cs.setState(FailedState)
	cs.invokeHandlers(curState, FailedState)

	return nil
}

// ToDisconnected transitions the connection state to DisconnectedState.
// This transition is allowed from any state and represents a disconnection or
// a reset of the connection.
func (cs *ConnStateMgr) ToDisconnected() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()

	if curState.IsDisconnected() {
		return // Already in DisconnectedState, no-op
	}

	cs.setState(DisconnectedState)
	cs.invokeHandlers(curState, DisconnectedState)
}

// IsConnected returns if the current state is connected.
func (cs *ConnStateMgr) IsConnected() bool {
	return cs.State().IsConnected()
}

// IsFailed returns if the current state is failed.
func (cs *ConnStateMgr) IsFailed() bool {
	return cs.State().IsFailed()
}

// IsDisconnected returns if the current state is disconnected.
func (cs *ConnStateMgr) IsDisconnected() bool {
	return cs.State().IsDisconnected()
}

// setState atomically set current state to the newState. It also broadcasts a signal to any waiting goroutines.
func (cs *ConnStateMgr) setState(newState ConnState) {
	cs.state.Store(uint32(newState))
	cs.cond.Broadcast()
}

// invokeHandlers invokes all registered StateChangeHandler functions with the previous and new states.
func (cs *ConnStateMgr) invokeHandlers(prevState ConnState, newState ConnState) {
	for _, handler := range cs.handlers {
		if handler != nil {
			handler(prevState, newState)
		}
	}
}

package scpitcp

import (
	"context"
	"sync"
	"time"

	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/scpi"
)

// Session implements scpi.Session over a TCP transport.
//
// The session owns the transport exclusively. Execute calls are serialized:
// a session has at most one in-flight request/response pair at any time.
type Session struct {
	cfg       *ConnectionConfig
	transport scpi.Transport
	stateMgr  *scpi.ConnStateMgr
	logger    logger.Logger

	execMu sync.Mutex // single in-flight request/response

	idMu     sync.Mutex
	identity string
}

var _ scpi.Session = (*Session)(nil)

// NewSession creates a Session with the given configuration.
// Returns an error if the configuration is nil.
func NewSession(_ context.Context, cfg *ConnectionConfig) (*Session, error) {
	if cfg == nil {
		return nil, scpi.ErrConfigNil
	}

	s := &Session{
		cfg:       cfg,
		transport: newTransport(cfg),
		logger:    cfg.logger,
	}
	s.stateMgr = scpi.NewConnStateMgr(cfg.logger)

	return s, nil
}

// Connect opens the transport and, if configured, issues the identification
// query and retains the reported identity string.
//
// On failure the session is left in FailedState with the classified connect
// error returned; a later Connect re-attempts from there. Connecting while
// already connected returns ErrInvalidTransition; Disconnect first.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.stateMgr.ToConnecting(); err != nil {
		return err
	}

	endpoint := s.cfg.Endpoint()

	if err := s.transport.Open(ctx, endpoint); err != nil {
		_ = s.stateMgr.ToFailed()
		s.logger.Error("session connect failed", "endpoint", endpoint.Addr(), "error", err)

		return err
	}

	_ = s.stateMgr.ToConnected()
	s.logger.Info("session connected", "endpoint", endpoint.Addr())

	if s.cfg.identify {
		if err := s.identify(); err != nil {
			return err
		}
	}

	return nil
}

// identify runs the identification handshake. The identify command is
// validated as a query at config time.
func (s *Session) identify() error {
	cmd, err := scpi.NewCommand(s.cfg.identifyCommand)
	if err != nil {
		return err
	}

	res, err := s.Execute(cmd)
	if err != nil {
		return err
	}

	s.idMu.Lock()
	s.identity = res.Response
	s.idMu.Unlock()

	s.logger.Info("instrument identified", "identity", res.Response)

	return nil
}

// Execute sends the command and, for a query, reads exactly one response line.
//
// The returned result is never nil and carries UTC send/completion
// timestamps. Any transport error transitions the session to FailedState,
// closes the transport and requires an explicit reconnect: the protocol
// gives no way to distinguish a transient glitch from a dead link, so every
// I/O error is treated as connection-fatal.
func (s *Session) Execute(cmd scpi.Command) (*scpi.ExecutionResult, error) {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	res := &scpi.ExecutionResult{
		Command: cmd,
		SentAt:  time.Now().UTC(),
	}

	if cmd.IsZero() {
		res.Err = scpi.ErrEmptyCommand
		res.CompletedAt = time.Now().UTC()

		return res, res.Err
	}

	if !s.stateMgr.IsConnected() {
		// fail before any transport call
		res.Err = scpi.ErrNotConnected
		res.CompletedAt = time.Now().UTC()

		return res, res.Err
	}

	s.logger.Debug("send command", "command", cmd.Text(), "query", cmd.IsQuery())

	if err := s.transport.Send([]byte(cmd.Text() + "\n")); err != nil {
		return s.failExecution(res, err)
	}

	if cmd.IsQuery() {
		line, err := s.transport.ReceiveLine()
		if err != nil {
			return s.failExecution(res, err)
		}

		res.Response = line
		res.HasResponse = true
	}

	res.CompletedAt = time.Now().UTC()

	return res, nil
}

// failExecution records a transport error on the result, invalidates the
// connection and transitions the session to FailedState.
func (s *Session) failExecution(res *scpi.ExecutionResult, err error) (*scpi.ExecutionResult, error) {
	res.Err = err
	res.CompletedAt = time.Now().UTC()

	_ = s.transport.Close()

	// ToFailed is rejected when a concurrent Disconnect already moved the
	// session to DisconnectedState; the disconnect wins.
	_ = s.stateMgr.ToFailed()

	s.logger.Error("command execution failed", "command", res.Command.Text(), "error", err)

	return res, err
}

// Disconnect closes the transport and leaves the session in
// DisconnectedState. It is idempotent.
func (s *Session) Disconnect() error {
	_ = s.transport.Close()

	wasConnected := s.stateMgr.IsConnected()
	s.stateMgr.ToDisconnected()

	if wasConnected {
		s.logger.Info("session disconnected", "endpoint", s.cfg.Endpoint().Addr())
	}

	return nil
}

// State returns the current connection state.
func (s *Session) State() scpi.ConnState {
	return s.stateMgr.State()
}

// Identity returns the identity string reported by the instrument during the
// identification handshake, or an empty string.
func (s *Session) Identity() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	return s.identity
}

// AddStateChangeHandler adds one or more StateChangeHandler functions to be
// invoked when the connection state changes.
func (s *Session) AddStateChangeHandler(handlers ...scpi.StateChangeHandler) {
	s.stateMgr.AddHandler(handlers...)
}

// GetLogger returns the logger associated with the session.
func (s *Session) GetLogger() logger.Logger {
	return s.logger
}

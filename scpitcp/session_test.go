package scpitcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-scpi/scpi"
)

func TestSessionConnectIdentify(t *testing.T) {
	require := require.New(t)

	inst := startStubInstrument(t)
	cfg := newTestConfig(t, inst.port())

	session, err := NewSession(context.Background(), cfg)
	require.NoError(err)
	defer func() { _ = session.Disconnect() }()

	require.NoError(session.Connect(context.Background()))
	require.Equal(scpi.ConnectedState, session.State())
	require.Equal(testIdentity, session.Identity())
}

func TestSessionExecute(t *testing.T) {
	require := require.New(t)

	inst := startStubInstrument(t)
	cfg := newTestConfig(t, inst.port(), WithIdentify(false))

	session, err := NewSession(context.Background(), cfg)
	require.NoError(err)
	defer func() { _ = session.Disconnect() }()

	require.NoError(session.Connect(context.Background()))
	require.Empty(session.Identity())

	t.Run("Query", func(t *testing.T) {
		cmd, err := scpi.NewCommand("MEAS:VOLT:DC?")
		require.NoError(err)

		res, err := session.Execute(cmd)
		require.NoError(err)
		require.True(res.HasResponse)
		require.Equal("+1.234E+00", res.Response)
		require.False(res.CompletedAt.Before(res.SentAt))
	})

	t.Run("Set Command", func(t *testing.T) {
		cmd, err := scpi.NewCommand("OUTP ON")
		require.NoError(err)

		res, err := session.Execute(cmd)
		require.NoError(err)
		require.False(res.HasResponse)
		require.Empty(res.Response)
	})

	t.Run("Unknown Query", func(t *testing.T) {
		cmd, err := scpi.NewCommand("SYST:ERR?")
		require.NoError(err)

		res, err := session.Execute(cmd)
		require.NoError(err)
		require.Equal("0", res.Response)
	})
}

func TestSessionExecuteNotConnected(t *testing.T) {
	require := require.New(t)

	inst := startStubInstrument(t)
	cfg := newTestConfig(t, inst.port())

	session, err := NewSession(context.Background(), cfg)
	require.NoError(err)

	cmd, err := scpi.NewCommand("*IDN?")
	require.NoError(err)

	res, execErr := session.Execute(cmd)
	require.ErrorIs(execErr, scpi.ErrNotConnected)
	require.NotNil(res)
	require.ErrorIs(res.Err, scpi.ErrNotConnected)
}

func TestSessionConnectRefused(t *testing.T) {
	require := require.New(t)

	// listen and close immediately to obtain a port with no listener
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(ln.Close())

	cfg := newTestConfig(t, port, WithConnectTimeout(2*time.Second))

	session, err := NewSession(context.Background(), cfg)
	require.NoError(err)

	err = session.Connect(context.Background())
	require.ErrorIs(err, scpi.ErrConnectRefused)
	require.Equal(scpi.FailedState, session.State())

	// bring an instrument up on the same port; a connect attempt from
	// FailedState succeeds and restores ConnectedState
	ln, err = net.Listen("tcp", ln.Addr().String())
	require.NoError(err)
	inst := &stubInstrument{t: t, ln: ln, responses: map[string]string{"*IDN?": testIdentity}}
	go inst.acceptLoop()
	t.Cleanup(inst.close)

	require.NoError(session.Connect(context.Background()))
	require.Equal(scpi.ConnectedState, session.State())
	require.Equal(testIdentity, session.Identity())
	require.NoError(session.Disconnect())
}

func TestSessionReconnectAfterFailure(t *testing.T) {
	require := require.New(t)

	inst := startStubInstrument(t)
	cfg := newTestConfig(t, inst.port(), WithIdentify(false), WithReadTimeout(time.Second))

	session, err := NewSession(context.Background(), cfg)
	require.NoError(err)
	defer func() { _ = session.Disconnect() }()

	require.NoError(session.Connect(context.Background()))

	cmd, err := scpi.NewCommand("MEAS:VOLT:DC?")
	require.NoError(err)

	res, execErr := session.Execute(cmd)
	require.NoError(execErr)
	require.Equal("+1.234E+00", res.Response)

	// drop the socket under the session, the next query is connection-fatal
	inst.closeConns()

	res, execErr = session.Execute(cmd)
	require.Error(execErr)
	require.True(res.Failed())
	require.Equal(scpi.FailedState, session.State())

	// a failed session stays failed until an explicit reconnect
	_, execErr = session.Execute(cmd)
	require.ErrorIs(execErr, scpi.ErrNotConnected)

	require.NoError(session.Connect(context.Background()))
	require.Equal(scpi.ConnectedState, session.State())

	res, execErr = session.Execute(cmd)
	require.NoError(execErr)
	require.Equal("+1.234E+00", res.Response)
}

func TestSessionReadTimeout(t *testing.T) {
	require := require.New(t)

	inst := startStubInstrument(t)
	inst.silent.Store(true)

	cfg := newTestConfig(t, inst.port(), WithIdentify(false), WithReadTimeout(200*time.Millisecond))

	session, err := NewSession(context.Background(), cfg)
	require.NoError(err)
	defer func() { _ = session.Disconnect() }()

	require.NoError(session.Connect(context.Background()))

	cmd, err := scpi.NewCommand("MEAS:VOLT:DC?")
	require.NoError(err)

	res, execErr := session.Execute(cmd)
	require.ErrorIs(execErr, scpi.ErrTimeout)
	require.True(res.Failed())
	require.Equal(scpi.FailedState, session.State())
}

func TestSessionConnectWhileConnected(t *testing.T) {
	require := require.New(t)

	inst := startStubInstrument(t)
	cfg := newTestConfig(t, inst.port(), WithIdentify(false))

	session, err := NewSession(context.Background(), cfg)
	require.NoError(err)
	defer func() { _ = session.Disconnect() }()

	require.NoError(session.Connect(context.Background()))
	require.ErrorIs(session.Connect(context.Background()), scpi.ErrInvalidTransition)
}

func TestSessionDisconnect(t *testing.T) {
	require := require.New(t)

	inst := startStubInstrument(t)
	cfg := newTestConfig(t, inst.port(), WithIdentify(false))

	session, err := NewSession(context.Background(), cfg)
	require.NoError(err)

	require.NoError(session.Connect(context.Background()))
	require.NoError(session.Disconnect())
	require.Equal(scpi.DisconnectedState, session.State())

	// idempotent
	require.NoError(session.Disconnect())
	require.Equal(scpi.DisconnectedState, session.State())

	// reconnect from DisconnectedState
	require.NoError(session.Connect(context.Background()))
	require.Equal(scpi.ConnectedState, session.State())
	require.NoError(session.Disconnect())
}

func TestSessionStateChangeHandler(t *testing.T) {
	require := require.New(t)

	inst := startStubInstrument(t)
	cfg := newTestConfig(t, inst.port(), WithIdentify(false))

	session, err := NewSession(context.Background(), cfg)
	require.NoError(err)

	var transitions []scpi.ConnState
	session.AddStateChangeHandler(func(_ scpi.ConnState, state scpi.ConnState) {
		transitions = append(transitions, state)
	})

	require.NoError(session.Connect(context.Background()))
	require.NoError(session.Disconnect())

	require.Equal([]scpi.ConnState{
		scpi.ConnectingState,
		scpi.ConnectedState,
		scpi.DisconnectedState,
	}, transitions)
}

func TestNewSessionNilConfig(t *testing.T) {
	_, err := NewSession(context.Background(), nil)
	require.ErrorIs(t, err, scpi.ErrConfigNil)
}

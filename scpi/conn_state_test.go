package scpi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnStateTransitions(t *testing.T) {
	require := require.New(t)

	t.Run("Initial State", func(t *testing.T) {
		cs := NewConnStateMgr(nil)
		require.Equal(DisconnectedState, cs.State())
		require.True(cs.IsDisconnected())
	})

	t.Run("ToConnecting", func(t *testing.T) {
		stateChangeCount := 0
		cs := NewConnStateMgr(nil)
		cs.AddHandler(func(prevState ConnState, newState ConnState) { stateChangeCount++ })

		require.NoError(cs.ToConnecting())
		require.Equal(ConnectingState, cs.State())
		require.Equal(1, stateChangeCount)

		// Invalid transition while already connecting
		require.ErrorIs(cs.ToConnecting(), ErrInvalidTransition)
		require.Equal(1, stateChangeCount)

		// Connect attempts are allowed again from FailedState
		require.NoError(cs.ToFailed())
		require.NoError(cs.ToConnecting())
		require.Equal(3, stateChangeCount)
	})

	t.Run("ToConnected", func(t *testing.T) {
		cs := NewConnStateMgr(nil)

		// Invalid transition from DisconnectedState to ConnectedState
		require.ErrorIs(cs.ToConnected(), ErrInvalidTransition)

		require.NoError(cs.ToConnecting())
		require.NoError(cs.ToConnected())
		require.Equal(ConnectedState, cs.State())
		require.True(cs.IsConnected())

		// Invalid transition while already connected
		require.ErrorIs(cs.ToConnected(), ErrInvalidTransition)
	})

	t.Run("ToFailed", func(t *testing.T) {
		cs := NewConnStateMgr(nil)

		// Invalid transition from DisconnectedState
		require.ErrorIs(cs.ToFailed(), ErrInvalidTransition)

		require.NoError(cs.ToConnecting())
		require.NoError(cs.ToFailed())
		require.Equal(FailedState, cs.State())
		require.True(cs.IsFailed())

		// No-op transition when already in FailedState
		require.NoError(cs.ToFailed())
	})

	t.Run("ToDisconnected", func(t *testing.T) {
		stateChangeCount := 0
		cs := NewConnStateMgr(nil)
		cs.AddHandler(func(prevState ConnState, newState ConnState) { stateChangeCount++ })

		require.NoError(cs.ToConnecting())
		require.NoError(cs.ToConnected())
		require.Equal(2, stateChangeCount)

		cs.ToDisconnected()
		require.Equal(DisconnectedState, cs.State())
		require.Equal(3, stateChangeCount)

		// No-op transition when already in DisconnectedState
		cs.ToDisconnected()
		require.Equal(3, stateChangeCount)
	})

	t.Run("Handler Arguments", func(t *testing.T) {
		var gotPrev, gotNew ConnState
		cs := NewConnStateMgr(nil, func(prevState ConnState, newState ConnState) {
			gotPrev = prevState
			gotNew = newState
		})

		require.NoError(cs.ToConnecting())
		require.Equal(DisconnectedState, gotPrev)
		require.Equal(ConnectingState, gotNew)
	})
}

func TestConnStateWaitState(t *testing.T) {
	require := require.New(t)

	t.Run("Desired State Reached", func(t *testing.T) {
		cs := NewConnStateMgr(nil)

		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = cs.ToConnecting()
			_ = cs.ToConnected()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		require.NoError(cs.WaitState(ctx, ConnectedState))
		require.Equal(ConnectedState, cs.State())
	})

	t.Run("Context Timeout", func(t *testing.T) {
		cs := NewConnStateMgr(nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := cs.WaitState(ctx, ConnectedState)
		require.ErrorIs(err, context.DeadlineExceeded)
	})
}

func TestConnStateString(t *testing.T) {
	require := require.New(t)

	require.Equal("disconnected", DisconnectedState.String())
	require.Equal("connecting", ConnectingState.String())
	require.Equal("connected", ConnectedState.String())
	require.Equal("failed", FailedState.String())
	require.Equal("unknown", ConnState(99).String())
}

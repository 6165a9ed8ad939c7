package scpitcp

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-scpi/scpi"
)

func TestTransportReceiveLine(t *testing.T) {
	require := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	defer func() { _ = ln.Close() }()

	// echo fixed payloads with differing terminators
	go func() {
		conn, aerr := ln.Accept()
		if aerr != nil {
			return
		}
		defer conn.Close()

		_, _ = conn.Write([]byte("first\n"))
		_, _ = conn.Write([]byte("second\r\n"))
	}()

	cfg := newTestConfig(t, ln.Addr().(*net.TCPAddr).Port)
	transport := newTransport(cfg)

	endpoint := scpi.Endpoint{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port}
	require.NoError(transport.Open(context.Background(), endpoint))
	defer func() { _ = transport.Close() }()

	line, err := transport.ReceiveLine()
	require.NoError(err)
	require.Equal("first", line)

	// CR before the terminator is stripped as well
	line, err = transport.ReceiveLine()
	require.NoError(err)
	require.Equal("second", line)
}

func TestTransportClosed(t *testing.T) {
	require := require.New(t)

	cfg := newTestConfig(t, 5025)
	transport := newTransport(cfg)

	require.ErrorIs(transport.Send([]byte("*RST\n")), scpi.ErrConnClosed)

	_, err := transport.ReceiveLine()
	require.ErrorIs(err, scpi.ErrConnClosed)

	// Close on a never-opened transport is a no-op
	require.NoError(transport.Close())
	require.NoError(transport.Close())
}

func TestTransportOpenInvalidEndpoint(t *testing.T) {
	require := require.New(t)

	cfg := newTestConfig(t, 5025)
	transport := newTransport(cfg)

	err := transport.Open(context.Background(), scpi.Endpoint{Host: "", Port: 5025})
	require.ErrorIs(err, scpi.ErrInvalidEndpoint)

	err = transport.Open(context.Background(), scpi.Endpoint{Host: "localhost", Port: 0})
	require.ErrorIs(err, scpi.ErrInvalidEndpoint)
}

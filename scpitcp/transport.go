package scpitcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/scpi"
)

// Transport implements scpi.Transport over a TCP connection.
//
// Send and ReceiveLine are NOT goroutine-safe against each other; the session
// serializes them, consistent with the single in-flight request/response
// design. Close may be called concurrently and unblocks any in-flight read
// or write.
type Transport struct {
	cfg    *ConnectionConfig
	logger logger.Logger

	mu     sync.Mutex // protects conn and reader
	conn   net.Conn
	reader *bufio.Reader
}

var _ scpi.Transport = (*Transport)(nil)

func newTransport(cfg *ConnectionConfig) *Transport {
	return &Transport{
		cfg:    cfg,
		logger: cfg.logger,
	}
}

// Open establishes the TCP connection to the endpoint within the configured
// connect timeout. A failed Open leaves no resource held.
func (t *Transport) Open(ctx context.Context, endpoint scpi.Endpoint) error {
	if err := endpoint.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		_ = t.closeLocked()
	}

	dialer := net.Dialer{Timeout: t.cfg.connectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", endpoint.Addr())
	if err != nil {
		return classifyDialError(endpoint, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		// commands are tiny, don't let Nagle delay them
		_ = tcpConn.SetNoDelay(true)
	}

	t.conn = conn
	t.reader = bufio.NewReader(conn)

	t.logger.Debug("transport opened", "endpoint", endpoint.Addr())

	return nil
}

// Send writes all of p within the configured write timeout. Partial writes
// are continued until completion or a write error.
func (t *Transport) Send(p []byte) error {
	conn := t.current()
	if conn == nil {
		return scpi.ErrConnClosed
	}

	if err := conn.SetWriteDeadline(time.Now().Add(t.cfg.writeTimeout)); err != nil {
		return fmt.Errorf("%w: %v", scpi.ErrWriteFailed, err)
	}

	for written := 0; written < len(p); {
		n, err := conn.Write(p[written:])
		written += n

		if err != nil {
			return classifyIOError(err, scpi.ErrWriteFailed)
		}
	}

	return nil
}

// ReceiveLine reads one '\n'-terminated line within the configured read
// timeout and returns it without the terminator. A trailing '\r' is stripped
// as well, instruments differ on the exact terminator.
func (t *Transport) ReceiveLine() (string, error) {
	t.mu.Lock()
	conn, reader := t.conn, t.reader
	t.mu.Unlock()

	if conn == nil {
		return "", scpi.ErrConnClosed
	}

	if err := conn.SetReadDeadline(time.Now().Add(t.cfg.readTimeout)); err != nil {
		return "", classifyIOError(err, scpi.ErrConnClosed)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", classifyIOError(err, scpi.ErrConnClosed)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Close releases the TCP connection. It is idempotent; closing an already
// closed transport returns nil.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closeLocked()
}

func (t *Transport) closeLocked() error {
	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.reader = nil

	if err != nil {
		t.logger.Error("failed to close TCP connection", "error", err)
		return err
	}

	t.logger.Debug("transport closed")

	return nil
}

// current returns the connection under the lock so Close can race safely
// with an in-flight Send or ReceiveLine.
func (t *Transport) current() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conn
}

// classifyDialError maps a dial failure onto the connect error taxonomy.
func classifyDialError(endpoint scpi.Endpoint, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %s", scpi.ErrHostUnresolvable, dnsErr.Name)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s", scpi.ErrConnectTimeout, endpoint.Addr())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", scpi.ErrConnectTimeout, endpoint.Addr())
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %s", scpi.ErrConnectRefused, endpoint.Addr())
	}

	return fmt.Errorf("connect %s: %w", endpoint.Addr(), err)
}

// classifyIOError maps a read/write failure onto the I/O error taxonomy.
// fallback is the sentinel used when the error is neither a timeout nor a
// closed connection.
func classifyIOError(err error, fallback error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", scpi.ErrTimeout, err)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return fmt.Errorf("%w: %v", scpi.ErrConnClosed, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}

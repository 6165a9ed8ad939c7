package scpitcp

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-scpi/logger"
)

const testIdentity = "ACME,Model1,SN001,1.0"

// stubInstrument is a minimal line-oriented instrument on a loopback TCP
// listener. Queries are answered with a canned response line, set commands
// are consumed silently.
type stubInstrument struct {
	t         *testing.T
	ln        net.Listener
	responses map[string]string
	silent    atomic.Bool

	mu    sync.Mutex
	conns []net.Conn
}

func startStubInstrument(t *testing.T) *stubInstrument {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	inst := &stubInstrument{
		t:  t,
		ln: ln,
		responses: map[string]string{
			"*IDN?":         testIdentity,
			"MEAS:VOLT:DC?": "+1.234E+00",
		},
	}

	go inst.acceptLoop()
	t.Cleanup(inst.close)

	return inst
}

func (inst *stubInstrument) acceptLoop() {
	for {
		conn, err := inst.ln.Accept()
		if err != nil {
			return
		}

		inst.mu.Lock()
		inst.conns = append(inst.conns, conn)
		inst.mu.Unlock()

		go inst.serve(conn)
	}
}

func (inst *stubInstrument) serve(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasSuffix(line, "?") {
			continue
		}

		if inst.silent.Load() {
			continue
		}

		resp, ok := inst.responses[line]
		if !ok {
			resp = "0"
		}

		if _, err := conn.Write([]byte(resp + "\n")); err != nil {
			return
		}
	}
}

func (inst *stubInstrument) port() int {
	return inst.ln.Addr().(*net.TCPAddr).Port
}

// closeConns drops every accepted connection while keeping the listener up,
// so a later reconnect succeeds.
func (inst *stubInstrument) closeConns() {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	for _, conn := range inst.conns {
		_ = conn.Close()
	}
	inst.conns = nil
}

func (inst *stubInstrument) close() {
	_ = inst.ln.Close()
	inst.closeConns()
}

func newTestConfig(t *testing.T, port int, opts ...ConnOption) *ConnectionConfig {
	t.Helper()

	opts = append([]ConnOption{WithLogger(logger.NewSlog(logger.ErrorLevel, false))}, opts...)

	cfg, err := NewConnectionConfig("127.0.0.1", port, opts...)
	require.NoError(t, err)

	return cfg
}

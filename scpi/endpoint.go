package scpi

import (
	"fmt"
	"net"
	"strconv"
)

// Endpoint identifies a remote SCPI instrument by host and TCP port.
// It is immutable once a session is connected to it.
type Endpoint struct {
	Host string
	Port int
}

// Validate checks that the host is non-empty and the port is in [1, 65535].
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidEndpoint)
	}

	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range [1, 65535]", ErrInvalidEndpoint, e.Port)
	}

	return nil
}

// Addr returns the endpoint in host:port form suitable for net.Dial.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String returns the endpoint in host:port form.
func (e Endpoint) String() string { return e.Addr() }

package scpitcp

import (
	"errors"
	"strings"
	"time"

	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/scpi"
)

// ConnectionConfig represents the configuration parameters for a TCP SCPI
// connection.
type ConnectionConfig struct {
	// host specifies the host of the remote instrument.
	host string

	// port specifies the TCP port number of the instrument's SCPI service.
	port int

	// connectTimeout defines the timeout for establishing the TCP connection.
	// Defaults to 10 seconds.
	connectTimeout time.Duration

	// readTimeout defines the timeout for reading one query response line.
	// Defaults to 5 seconds.
	readTimeout time.Duration

	// writeTimeout defines the timeout for writing one command line.
	// Defaults to 5 seconds.
	writeTimeout time.Duration

	// identify indicates whether the session issues the identification query
	// after connecting and retains the reported identity string.
	// Defaults to true.
	identify bool

	// identifyCommand is the identification query issued when identify is
	// enabled. Defaults to "*IDN?".
	identifyCommand string

	// logger provides a logger instance for session events and errors.
	logger logger.Logger
}

// NewConnectionConfig creates a new connection configuration with the given
// host, port number, and optional functional options.
//
// It initializes a ConnectionConfig with default values and then applies the
// provided options to customize the configuration.
//
// Returns a pointer to the initialized ConnectionConfig and an error if any
// occurred during the configuration process.
func NewConnectionConfig(host string, port int, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		connectTimeout:  10 * time.Second,
		readTimeout:     5 * time.Second,
		writeTimeout:    5 * time.Second,
		identify:        true,
		identifyCommand: "*IDN?",
		logger:          logger.GetLogger(),
	}

	if err := withHost(host).apply(cfg); err != nil {
		return cfg, err
	}

	if err := withPort(port).apply(cfg); err != nil {
		return cfg, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Endpoint returns the configured instrument endpoint.
func (cfg *ConnectionConfig) Endpoint() scpi.Endpoint {
	return scpi.Endpoint{Host: cfg.host, Port: cfg.port}
}

// ConnOption represents a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc struct {
	name      string
	applyFunc func(*ConnectionConfig) error
}

func (c *connOptFunc) apply(cfg *ConnectionConfig) error { return c.applyFunc(cfg) }

func newConnOptFunc(name string, f func(*ConnectionConfig) error) *connOptFunc {
	return &connOptFunc{
		name:      name,
		applyFunc: f,
	}
}

// withHost sets the host of the remote instrument.
// It returns a ConnOption that validates the host and updates the configuration.
// An error is returned if the host is empty or if the configuration is nil.
//
// Hostname resolution is deliberately deferred to connect time: lab hosts are
// frequently configured while the instrument network is unreachable, and an
// unresolvable host is a classified connect error, not a config error.
func withHost(host string) ConnOption {
	return newConnOptFunc("withHost", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return scpi.ErrConfigNil
		}

		host = strings.TrimSpace(host)
		if host == "" {
			return errors.New("invalid host")
		}
		cfg.host = host

		return nil
	})
}

// withPort sets the TCP port number of the instrument's SCPI service.
// It returns a ConnOption that validates the port number and updates the configuration.
// An error is returned if the port number is out of the valid range (1-65535) or if the configuration is nil.
func withPort(port int) ConnOption {
	return newConnOptFunc("withPort", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return scpi.ErrConfigNil
		}

		if port < 1 || port > 65535 {
			return errors.New("port is out of range [1, 65535]")
		}
		cfg.port = port

		return nil
	})
}

// WithConnectTimeout sets the timeout for establishing the TCP connection.
// It returns a ConnOption that validates the timeout value and updates the configuration.
// An error is returned if the timeout is outside the valid range (0.1-120 seconds) or if the configuration is nil.
//
// The default value is 10 seconds.
func WithConnectTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithConnectTimeout", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return scpi.ErrConfigNil
		}

		if val < 100*time.Millisecond || val > 120*time.Second {
			return errors.New("connect timeout out of range [0.1, 120]")
		}
		cfg.connectTimeout = val

		return nil
	})
}

// WithReadTimeout sets the timeout for reading one query response line.
// It returns a ConnOption that validates the timeout value and updates the configuration.
// An error is returned if the timeout is outside the valid range (0.1-120 seconds) or if the configuration is nil.
//
// The default value is 5 seconds.
func WithReadTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithReadTimeout", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return scpi.ErrConfigNil
		}

		if val < 100*time.Millisecond || val > 120*time.Second {
			return errors.New("read timeout out of range [0.1, 120]")
		}
		cfg.readTimeout = val

		return nil
	})
}

// WithWriteTimeout sets the timeout for writing one command line.
// It returns a ConnOption that validates the timeout value and updates the configuration.
// An error is returned if the timeout is outside the valid range (0.1-120 seconds) or if the configuration is nil.
//
// The default value is 5 seconds.
func WithWriteTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithWriteTimeout", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return scpi.ErrConfigNil
		}

		if val < 100*time.Millisecond || val > 120*time.Second {
			return errors.New("write timeout out of range [0.1, 120]")
		}
		cfg.writeTimeout = val

		return nil
	})
}

// WithIdentify enables or disables the identification handshake after connect.
//
// When enabled (val = true), the session issues the identification query
// right after the TCP connection is established and retains the reported
// identity string for display.
//
// An error is returned if the provided ConnectionConfig is nil.
//
// The default value is true.
func WithIdentify(val bool) ConnOption {
	return newConnOptFunc("WithIdentify", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return scpi.ErrConfigNil
		}

		cfg.identify = val

		return nil
	})
}

// WithIdentifyCommand sets the identification query issued after connect.
// The command must be a query (end with '?').
//
// An error is returned if the command is not a query or if the provided
// ConnectionConfig is nil.
//
// The default value is "*IDN?".
func WithIdentifyCommand(command string) ConnOption {
	return newConnOptFunc("WithIdentifyCommand", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return scpi.ErrConfigNil
		}

		cmd, err := scpi.NewCommand(command)
		if err != nil {
			return err
		}

		if !cmd.IsQuery() {
			return errors.New("identify command must be a query")
		}
		cfg.identifyCommand = cmd.Text()

		return nil
	})
}

// WithLogger sets the logger for the session.
// It returns a ConnOption that updates the configuration with the provided logger.
// An error is returned if the configuration is nil.
//
// The default logger is the global logger instance.
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return scpi.ErrConfigNil
		}

		cfg.logger = l

		return nil
	})
}

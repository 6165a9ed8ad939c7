package scpi

import (
	"context"
	"errors"
	"time"

	"github.com/arloliu/go-scpi/logger"
)

const healthPollTaskName = "healthPollTask"

// Controller is the caller-facing surface of go-scpi. It composes a session
// and a sequencer and exposes the non-blocking control operations a front-end
// (CLI, GUI, remote) builds on: connect, disconnect, one-shot execution, run
// start/cancel and state queries.
//
// All methods are safe to call while a run is active; a run blocked on
// instrument I/O never blocks the controller.
type Controller struct {
	session Session
	seq     *Sequencer
	logger  logger.Logger
}

// NewController creates a Controller for the given session. The context is
// the parent of every run started through the controller.
func NewController(ctx context.Context, session Session) *Controller {
	return &Controller{
		session: session,
		seq:     NewSequencer(ctx, session),
		logger:  session.GetLogger(),
	}
}

// Connect establishes the session's connection to the instrument.
func (c *Controller) Connect(ctx context.Context) error {
	return c.session.Connect(ctx)
}

// Disconnect cancels any active run and closes the session. It is idempotent.
func (c *Controller) Disconnect() error {
	c.seq.CancelRun()

	return c.session.Disconnect()
}

// ExecuteOnce executes a single command outside of a run. The result is
// stamped as (iteration 1, ordinal 1).
//
// It fails fast with ErrSequencerBusy while a run is active. The one-shot
// holds the sequencer's session ownership for its duration, so a run started
// concurrently fails with ErrSequencerBusy instead of interleaving with the
// one-shot.
func (c *Controller) ExecuteOnce(cmd Command) (*ExecutionResult, error) {
	if err := c.seq.reserve(); err != nil {
		return nil, err
	}
	defer c.seq.release()

	res, err := c.session.Execute(cmd)
	res.Iteration = 1
	res.Ordinal = 1

	return res, err
}

// StartRun starts a sequencer run over the command list. See
// Sequencer.StartRun for the run semantics.
func (c *Controller) StartRun(commands []Command, cfg RunConfig) (<-chan *ExecutionResult, error) {
	return c.seq.StartRun(commands, cfg)
}

// CancelRun requests cancellation of the active run, if any.
func (c *Controller) CancelRun() {
	c.seq.CancelRun()
}

// RunActive reports whether the sequencer owns the session: a run is active
// or a one-shot execution is in flight.
func (c *Controller) RunActive() bool {
	return c.seq.Running()
}

// LastRunEnd returns the end reason of the most recently ended run.
func (c *Controller) LastRunEnd() RunEndReason {
	return c.seq.LastRunEnd()
}

// CurrentState returns the session's connection state.
func (c *Controller) CurrentState() ConnState {
	return c.session.State()
}

// Identity returns the instrument identity reported during the
// identification handshake, or an empty string.
func (c *Controller) Identity() string {
	return c.session.Identity()
}

// StartHealthPoll starts a periodic idle-time query that verifies the
// instrument still answers, for example SYST:ERR? or *OPC?. Each tick runs
// the query as a one-shot; ticks that fall while a run or another one-shot
// owns the session are skipped, a poll never interleaves with a run.
//
// A failed poll invalidates the connection like any other execution. The
// poll keeps ticking through FailedState and resumes querying once the
// session is reconnected. It runs until StopHealthPoll or Shutdown.
//
// It returns an error if a health poll is already active or the interval is
// not positive.
func (c *Controller) StartHealthPoll(interval time.Duration, query Command) error {
	if query.IsZero() {
		return ErrEmptyCommand
	}

	_, err := c.seq.taskMgr.StartInterval(healthPollTaskName, func() bool {
		if !c.session.State().IsConnected() {
			return true
		}

		res, err := c.ExecuteOnce(query)
		switch {
		case errors.Is(err, ErrSequencerBusy):
			// a run owns the session, skip this tick
		case err != nil:
			c.logger.Warn("health poll failed", "command", query.Text(), "error", err)
		default:
			c.logger.Debug("health poll ok", "command", query.Text(), "response", res.Response)
		}

		return true
	}, interval, false)

	return err
}

// StopHealthPoll stops the periodic health query. It returns an error if no
// health poll is active.
func (c *Controller) StopHealthPoll() error {
	return c.seq.taskMgr.StopInterval(healthPollTaskName)
}

// Shutdown cancels any active run, waits for the run goroutine to terminate
// and disconnects the session.
func (c *Controller) Shutdown() error {
	c.seq.Shutdown()

	return c.session.Disconnect()
}

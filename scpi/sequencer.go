package scpi

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-scpi/internal/pool"
	"github.com/arloliu/go-scpi/logger"
)

// RunEndReason describes why a sequencer run ended.
type RunEndReason string

// Run end reasons.
const (
	// RunCompleted indicates that the run exhausted its repeat count.
	RunCompleted RunEndReason = "completed"
	// RunCancelled indicates that the caller cancelled the run.
	RunCancelled RunEndReason = "cancelled"
	// RunConnectionLost indicates that the session entered the failed state
	// mid-run and the run was ended by a terminal marker result.
	RunConnectionLost RunEndReason = "connectionLost"
)

// Sequencer executes an ordered command list against a session, once or in a
// repeated loop with a configurable inter-command interval.
//
// Each run executes on a dedicated goroutine hosted by a TaskManager, so the
// caller's control surface stays responsive while the run blocks on
// instrument I/O. The run goroutine and the caller communicate only through
// the result stream and the cancellation signal.
//
// A sequencer owns its session exclusively while a run is active: starting a
// second run fails fast with ErrSequencerBusy. Execution is strictly
// sequential, so results are emitted in increasing (iteration, ordinal)
// order with no reordering.
type Sequencer struct {
	session Session
	logger  logger.Logger
	taskMgr *TaskManager

	mu        sync.Mutex
	cancelRun context.CancelFunc
	lastEnd   RunEndReason

	pctx    context.Context
	running atomic.Bool
}

// NewSequencer creates a Sequencer bound to the given session. The context is
// the parent of every run: cancelling it cancels any active run.
func NewSequencer(ctx context.Context, session Session) *Sequencer {
	l := session.GetLogger()

	return &Sequencer{
		pctx:    ctx,
		session: session,
		logger:  l,
		taskMgr: NewTaskManager(ctx, l),
	}
}

// StartRun starts a run over the given command list and returns the result
// stream. Results are emitted as they are produced, one per command
// execution; the channel is closed when the run ends.
//
// The run ends when the repeat count is exhausted, the caller cancels it, or
// the session enters the failed state. On a session failure the failed
// command's result is followed by one terminal marker result carrying
// ErrConnectionLost, and no further command is sent.
//
// StartRun fails fast with ErrSequencerBusy while another run is active; the
// in-progress run is not affected. A fresh call starts a fresh iteration
// count; a run is not restartable.
func (s *Sequencer) StartRun(commands []Command, cfg RunConfig) (<-chan *ExecutionResult, error) {
	if len(commands) == 0 {
		return nil, ErrNoCommands
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSequencerBusy
	}

	ctx, cancel := context.WithCancel(s.pctx)

	s.mu.Lock()
	s.cancelRun = cancel
	s.mu.Unlock()

	// snapshot the list, the caller may mutate its copy after StartRun returns
	cmds := slices.Clone(commands)
	results := make(chan *ExecutionResult)

	err := s.taskMgr.Start("runTask", func() bool {
		defer cancel()
		s.runLoop(ctx, cmds, cfg, results)

		return false
	})
	if err != nil {
		cancel()
		s.clearCancel()
		s.running.Store(false)

		return nil, err
	}

	return results, nil
}

// CancelRun requests cancellation of the active run, if any. Cancellation is
// cooperative: it takes effect at the next command boundary, an in-flight
// command is allowed to complete or time out first.
func (s *Sequencer) CancelRun() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelRun != nil {
		s.cancelRun()
	}
}

// Running reports whether the sequencer currently owns the session: a run is
// active or a one-shot execution holds the reservation.
func (s *Sequencer) Running() bool {
	return s.running.Load()
}

// reserve claims exclusive ownership of the session the way StartRun does,
// so a one-shot execution cannot interleave with a run's command sequence.
// It fails with ErrSequencerBusy while a run or another one-shot is active.
func (s *Sequencer) reserve() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSequencerBusy
	}

	return nil
}

// release returns ownership claimed by reserve.
func (s *Sequencer) release() {
	s.running.Store(false)
}

// LastRunEnd returns the end reason of the most recently ended run, or an
// empty reason if no run has ended yet.
func (s *Sequencer) LastRunEnd() RunEndReason {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastEnd
}

// Shutdown cancels any active run and waits for the run goroutine to
// terminate.
func (s *Sequencer) Shutdown() {
	s.CancelRun()
	s.taskMgr.Stop()
	s.taskMgr.Wait()
}

// runLoop is the body of the dedicated run goroutine.
func (s *Sequencer) runLoop(ctx context.Context, commands []Command, cfg RunConfig, results chan<- *ExecutionResult) {
	defer close(results)
	defer s.running.Store(false)
	defer s.clearCancel()

	s.logger.Info("run started",
		"commands", len(commands), "repeat", cfg.RepeatCount, "interval", cfg.Interval,
	)

	first := true

	for iteration := 1; ; iteration++ {
		for i, cmd := range commands {
			ordinal := i + 1

			// wait the inter-command interval, measured from the previous
			// command's completion; skipped before the very first command
			if !first && !s.waitInterval(ctx, cfg.Interval) {
				s.endRun(RunCancelled)
				return
			}

			// cancellation is checked at command boundaries only; a command
			// already sent to the instrument cannot be taken back
			select {
			case <-ctx.Done():
				s.endRun(RunCancelled)
				return
			default:
			}

			first = false

			res, _ := s.session.Execute(cmd)
			res.Iteration = iteration
			res.Ordinal = ordinal

			if res.Err != nil {
				s.logger.Error("command failed",
					"command", cmd.Text(), "iteration", iteration, "ordinal", ordinal, "error", res.Err,
				)
			} else {
				s.logger.Info("command completed",
					"command", cmd.Text(), "iteration", iteration, "ordinal", ordinal, "response", res.Response,
				)
			}

			if !s.yield(ctx, results, res) {
				s.endRun(RunCancelled)
				return
			}

			if res.Err != nil {
				// one failed command invalidates the connection; commands in a
				// SCPI sequence are often causally ordered, skipping ahead is unsafe
				now := time.Now().UTC()
				marker := &ExecutionResult{
					Iteration:   iteration,
					Ordinal:     ordinal,
					Err:         ErrConnectionLost,
					SentAt:      now,
					CompletedAt: now,
				}

				_ = s.yield(ctx, results, marker)
				s.endRun(RunConnectionLost)

				return
			}
		}

		if !cfg.Unbounded() && iteration >= cfg.RepeatCount {
			break
		}
	}

	s.endRun(RunCompleted)
}

// waitInterval blocks for the configured inter-command interval.
// It returns false if the run was cancelled during the wait.
func (s *Sequencer) waitInterval(ctx context.Context, interval time.Duration) bool {
	if interval <= 0 {
		return ctx.Err() == nil
	}

	timer := pool.GetTimer(interval)
	defer pool.PutTimer(timer)

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// yield delivers a result to the consumer. It returns false if the run was
// cancelled while the consumer was not ready.
func (s *Sequencer) yield(ctx context.Context, results chan<- *ExecutionResult, res *ExecutionResult) bool {
	select {
	case results <- res:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Sequencer) endRun(reason RunEndReason) {
	s.mu.Lock()
	s.lastEnd = reason
	s.mu.Unlock()

	s.logger.Info("run ended", "reason", reason)
}

func (s *Sequencer) clearCancel() {
	s.mu.Lock()
	s.cancelRun = nil
	s.mu.Unlock()
}

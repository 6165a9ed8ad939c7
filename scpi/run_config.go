package scpi

import "time"

// RepeatForever is the RunConfig.RepeatCount sentinel requesting an unbounded
// run that only ends on cancellation or connection loss.
const RepeatForever = -1

// RunConfig holds the parameters of one sequencer run.
//
// The zero value is invalid: RepeatCount must be set explicitly to either a
// positive count or RepeatForever.
type RunConfig struct {
	// RepeatCount is the number of passes over the command list, >= 1,
	// or RepeatForever for an unbounded run.
	RepeatCount int

	// Interval is the wait applied between successive command executions,
	// measured from the completion of one command to the dispatch of the
	// next. No wait is applied before the very first command of a run.
	Interval time.Duration
}

// Unbounded reports whether the config requests an unbounded run.
func (cfg RunConfig) Unbounded() bool { return cfg.RepeatCount == RepeatForever }

// Validate checks the run parameters.
func (cfg RunConfig) Validate() error {
	if cfg.RepeatCount < 1 && cfg.RepeatCount != RepeatForever {
		return ErrInvalidRepeatCount
	}

	if cfg.Interval < 0 {
		return ErrInvalidInterval
	}

	return nil
}

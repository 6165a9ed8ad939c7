// Package scpi provides the protocol-generic core of go-scpi: the SCPI
// command and result value types, the connection state machine, the session
// and transport contracts, and the sequencer that executes ordered command
// lists against a session.
//
// SCPI (Standard Commands for Programmable Instruments) is a line-oriented
// text protocol: one command per line, terminated by a newline. Commands
// ending with '?' are queries and expect exactly one response line; all other
// commands are set commands with no response.
//
// The package is transport-agnostic. The TCP implementation lives in the
// scpitcp package; tests and other transports can provide their own
// Transport or Session implementations.
//
// A typical composition:
//
//	cfg, _ := scpitcp.NewConnectionConfig("192.168.1.20", 5025)
//	session, _ := scpitcp.NewSession(ctx, cfg)
//	ctl := scpi.NewController(ctx, session)
//
//	if err := ctl.Connect(ctx); err != nil { ... }
//
//	results, err := ctl.StartRun(commands, scpi.RunConfig{RepeatCount: 3, Interval: time.Second})
//	for res := range results {
//	    ...
//	}
package scpi

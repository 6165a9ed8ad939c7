// Package scpitcp implements the scpi.Transport and scpi.Session contracts
// over a plain TCP connection, the common transport of LAN-attached SCPI
// instruments.
//
// The wire protocol is plain text: one command per line, '\n'-terminated;
// query responses are one line with the same terminator. There is no
// length-prefixing and no binary block support.
//
// Connection parameters are configured with functional options:
//
//	cfg, err := scpitcp.NewConnectionConfig("192.168.1.20", 5025,
//	    scpitcp.WithConnectTimeout(3*time.Second),
//	    scpitcp.WithReadTimeout(2*time.Second),
//	    scpitcp.WithLogger(myLogger),
//	)
//	session, err := scpitcp.NewSession(ctx, cfg)
package scpitcp

// Package main is the entry point for the scpictl command-line tool.
// It sends SCPI commands to a LAN-attached laboratory instrument and reports
// responses, either one-shot or as repeated command sequences loaded from
// preset files.
package main

func main() {
	execute()
}

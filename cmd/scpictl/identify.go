package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arloliu/go-scpi/scpitcp"
)

// identifyCmd represents the identify command for querying the instrument
// identity string.
var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Connect and print the instrument identity (*IDN?)",

	RunE: func(cmd *cobra.Command, args []string) error {
		// identify is the whole point of this subcommand, ignore --no-idn
		flagNoIdent = false

		cfg, err := newConnectionConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		session, err := scpitcp.NewSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer session.Disconnect() //nolint:errcheck

		if err := session.Connect(ctx); err != nil {
			pterm.Println("❌ " + err.Error())
			return err
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Instrument")).
			WithPadding(1).
			Println(session.Identity())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}

package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arloliu/go-scpi/scpi"
	"github.com/arloliu/go-scpi/scpitcp"
)

// execCmd represents the exec command for sending a single SCPI command.
var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Short: "Execute a single SCPI command",
	Long: `The exec command connects to the instrument, executes one SCPI command and
prints the response if the command is a query (ends with '?').`,
	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		command, err := scpi.NewCommand(args[0])
		if err != nil {
			return err
		}

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

		ctl := scpi.NewController(ctx, session)
		defer ctl.Shutdown() //nolint:errcheck

		if err := ctl.Connect(ctx); err != nil {
			pterm.Println("❌ " + err.Error())
			return err
		}

		res, err := ctl.ExecuteOnce(command)
		if err != nil {
			pterm.Println("❌ " + err.Error())
			return err
		}

		if res.HasResponse {
			pterm.Println(res.Response)
		} else {
			pterm.FgGreen.Println("OK")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}

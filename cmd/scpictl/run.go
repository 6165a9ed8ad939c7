package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arloliu/go-scpi/preset"
	"github.com/arloliu/go-scpi/scpi"
	"github.com/arloliu/go-scpi/scpitcp"
)

var (
	flagPreset   string
	flagRepeat   int
	flagInterval time.Duration
	flagForever  bool
)

// runCmd represents the run command for executing a command sequence.
var runCmd = &cobra.Command{
	Use:   "run [command]...",
	Short: "Run a SCPI command sequence",
	Long: `The run command executes an ordered SCPI command sequence against the
instrument, once or in a repeated loop with a configurable inter-command
interval. The sequence comes either from a preset JSON file (--preset) or
from the command-line arguments.

Per-command results are streamed as they complete. The run ends when the
repeat count is exhausted, on Ctrl-C, or when the connection is lost; a
failed command ends the run, it never skips ahead.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		commands, runCfg, err := resolveSequence(args)
		if err != nil {
			return err
		}

		cfg, err := newConnectionConfig()
		if err != nil {
			return err
		}

		// Ctrl-C cancels the run at the next command boundary
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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

		if identity := ctl.Identity(); identity != "" {
			pterm.FgCyan.Println(identity)
		}

		results, err := ctl.StartRun(commands, runCfg)
		if err != nil {
			return err
		}

		var completed, failed int
		for res := range results {
			printResult(res)

			if res.Failed() {
				failed++
			} else {
				completed++
			}
		}

		summary := pterm.DefaultTable.WithData(pterm.TableData{
			{"commands completed", fmt.Sprintf("%d", completed)},
			{"commands failed", fmt.Sprintf("%d", failed)},
			{"run ended", string(ctl.LastRunEnd())},
		})
		pterm.Println()
		_ = summary.Render()

		if ctl.LastRunEnd() == scpi.RunConnectionLost {
			return scpi.ErrConnectionLost
		}

		return nil
	},
}

// resolveSequence builds the command list and run config from the preset
// file or the command-line arguments. Explicit flags override preset values.
func resolveSequence(args []string) ([]scpi.Command, scpi.RunConfig, error) {
	var (
		commands []scpi.Command
		runCfg   scpi.RunConfig
		err      error
	)

	if flagPreset != "" {
		p, perr := preset.Load(flagPreset)
		if perr != nil {
			return nil, runCfg, perr
		}

		commands, err = p.CommandList()
		if err != nil {
			return nil, runCfg, err
		}
		runCfg = p.RunConfig()
	} else {
		commands, err = scpi.ParseCommands(args)
		if err != nil {
			return nil, runCfg, err
		}
		runCfg = scpi.RunConfig{RepeatCount: 1}
	}

	if flagRepeat > 0 {
		runCfg.RepeatCount = flagRepeat
	}
	if flagForever {
		runCfg.RepeatCount = scpi.RepeatForever
	}
	if flagInterval > 0 {
		runCfg.Interval = flagInterval
	}

	return commands, runCfg, nil
}

func printResult(res *scpi.ExecutionResult) {
	prefix := fmt.Sprintf("[%d.%d]", res.Iteration, res.Ordinal)

	switch {
	case res.Terminal():
		pterm.FgRed.Printfln("%s run aborted: connection lost", prefix)
	case res.Failed():
		pterm.FgRed.Printfln("%s %s ERROR: %v", prefix, res.Command.Text(), res.Err)
	case res.HasResponse:
		pterm.Printfln("%s %s -> %s", prefix, res.Command.Text(), res.Response)
	default:
		pterm.Printfln("%s %s OK", prefix, res.Command.Text())
	}
}

func init() {
	runCmd.Flags().StringVar(&flagPreset, "preset", "", "Preset JSON file with commands and run parameters")
	runCmd.Flags().IntVar(&flagRepeat, "repeat", 0, "Repeat count for the sequence (overrides preset)")
	runCmd.Flags().DurationVar(&flagInterval, "interval", 0, "Wait between successive commands (overrides preset)")
	runCmd.Flags().BoolVar(&flagForever, "forever", false, "Repeat until cancelled")

	rootCmd.AddCommand(runCmd)
}

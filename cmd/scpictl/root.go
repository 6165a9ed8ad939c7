package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/scpitcp"
)

var (
	flagHost    string
	flagPort    int
	flagTimeout time.Duration
	flagNoIdent bool
	flagVerbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "scpictl",
	Short:         "Send SCPI commands to a LAN instrument",
	Long:          `scpictl connects to a laboratory instrument speaking plain-text SCPI over TCP and executes single commands or repeated command sequences from preset files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "127.0.0.1", "Instrument host or IP address")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 5025, "Instrument SCPI port")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 5*time.Second, "Response read timeout")
	rootCmd.PersistentFlags().BoolVar(&flagNoIdent, "no-idn", false, "Skip the *IDN? handshake after connecting")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// newConnectionConfig builds a connection config from the global flags.
func newConnectionConfig() (*scpitcp.ConnectionConfig, error) {
	l := logger.GetLogger()
	if flagVerbose {
		l.SetLevel(logger.DebugLevel)
	} else {
		l.SetLevel(logger.WarnLevel)
	}

	return scpitcp.NewConnectionConfig(flagHost, flagPort,
		scpitcp.WithReadTimeout(flagTimeout),
		scpitcp.WithIdentify(!flagNoIdent),
		scpitcp.WithLogger(l),
	)
}

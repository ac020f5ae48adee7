// Smartac is a remote control for air conditioners connected to Sensibo pods.
//
// It talks to the Sensibo cloud API and provides an interactive remote, direct
// commands for scripting, and a Prometheus exporter.
//
// Usage:
//
//	smartac [command] [flags]
//
// Running without arguments in a terminal launches the interactive remote.
// See 'smartac --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/smartac/internal/logging"
	"github.com/muurk/smartac/internal/sensibo"
	"github.com/muurk/smartac/internal/ui"
	"github.com/muurk/smartac/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "smartac",
	Short: "Sensibo air conditioner remote",
	Long: `A remote control for air conditioners connected to Sensibo pods.

Lists the pods on your account, shows their state and changes power, mode,
fan level and target temperature through the Sensibo cloud API.

If no command is specified, the interactive remote launches automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	RunE: runTUI,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "smartac %s\n", version.Full())
	},
}

// printError prints a failure box for API errors and a plain line otherwise.
func printError(err error) {
	var apiErr *sensibo.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintln(os.Stderr, ui.RenderFailure("Request failed", sensibo.ShortMessage(err), sensibo.TroubleshootingHint(err)))
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/smartac/internal/tui"
	"github.com/muurk/smartac/internal/ui"
)

var startDevice string

func init() {
	rootCmd.Flags().StringVar(&startDevice, "device", "", "Open the remote for this pod (id or nickname) instead of the device list")
	rootCmd.AddCommand(remoteCmd)
}

// remoteCmd launches the interactive remote
var remoteCmd = &cobra.Command{
	Use:   "remote [device]",
	Short: "Launch the interactive remote",
	Long: `Launch the interactive remote.

Pick a pod from the list to open its remote: arrow keys step the target
temperature, p switches the AC on or off, m and f choose the mode and the
fan level. Changes are sent as soon as a key is pressed.`,
	Example: `  # Start on the device list (same as running smartac without a command)
  smartac remote

  # Open the remote of a pod directly
  smartac remote bedroom`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal(os.Stdin) || !ui.IsTerminal(os.Stdout) {
		return fmt.Errorf("the interactive remote needs a terminal; use 'smartac --help' for the scripting commands")
	}

	cfg, client, err := setup()
	if err != nil {
		return err
	}

	deviceArg := startDevice
	if len(args) > 0 {
		deviceArg = args[0]
	}
	deviceID := ""
	if deviceArg != "" {
		if deviceID, err = resolveDeviceID(cfg, deviceArg); err != nil {
			return err
		}
	}

	model := tui.NewAppModel(client, tui.Options{
		Context:   cmd.Context(),
		Nicknames: cfg.Nicknames(),
		DeviceID:  deviceID,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("remote error: %w", err)
	}
	return nil
}

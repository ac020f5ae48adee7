package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/smartac/internal/config"
	"github.com/muurk/smartac/internal/remote"
	"github.com/muurk/smartac/internal/sensibo"
	"github.com/muurk/smartac/internal/ui"
)

// set command flags
var (
	setPower string
	setMode  string
	setFan   string
	setTemp  int
	setUnit  string
)

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(setPropertyCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(tempCmd)

	setCmd.Flags().StringVar(&setPower, "power", "", "Power (on/off)")
	setCmd.Flags().StringVar(&setMode, "mode", "", "Mode (heat, cool, dry)")
	setCmd.Flags().StringVar(&setFan, "fan", "", "Fan level (low, medium, high, auto)")
	setCmd.Flags().IntVar(&setTemp, "temp", 0, fmt.Sprintf("Target temperature (%d-%d)", sensibo.MinTemperature, sensibo.MaxTemperature))
	setCmd.Flags().StringVar(&setUnit, "unit", "", "Temperature unit (C or F)")
}

// devicesCmd lists the pods on the account
var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"ls"},
	Short:   "List the pods on your account",
	Long: `List every Sensibo pod registered to the account with its connection
status and current AC state.`,
	Example: `  smartac devices
  smartac devices --format json`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func runDevices(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}

	devices, err := client.ListDevices(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return writeJSON(out, devices)
	case "compact":
		for _, d := range devices {
			fmt.Fprintln(out, d.Summary())
		}
		return nil
	}
	fmt.Fprint(out, sensibo.FormatDeviceTable(devices, cfg.Nicknames()))
	return nil
}

// showCmd prints one pod
var showCmd = &cobra.Command{
	Use:   "show [device]",
	Short: "Show a pod and its AC state",
	Long: `Fetch a pod and print its room, connection status and AC state.

The device may be a pod id or a nickname. Without one the configured
default device is used.`,
	Example: `  smartac show abc123
  smartac show bedroom --format compact`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	id, err := resolveDeviceID(cfg, firstArg(args))
	if err != nil {
		return err
	}

	device, err := client.GetDevice(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get device %s: %w", id, err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return writeJSON(out, device)
	case "compact":
		fmt.Fprint(out, device.FormatCompact())
		return nil
	}
	if nickname := cfg.Nickname(device.ID); nickname != "" {
		fmt.Fprintf(out, "Nickname:  %s\n", nickname)
	}
	fmt.Fprint(out, device.FormatDetailed())
	return nil
}

// stateCmd prints the latest AC state of a pod
var stateCmd = &cobra.Command{
	Use:   "state [device]",
	Short: "Show the latest AC state of a pod",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runState,
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	id, err := resolveDeviceID(cfg, firstArg(args))
	if err != nil {
		return err
	}

	resp, err := client.GetACState(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get AC state of %s: %w", id, err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return writeJSON(out, resp)
	case "compact":
		fmt.Fprintln(out, resp.ACState.Summary())
		return nil
	}
	fmt.Fprint(out, resp.ACState.FormatACState())
	return nil
}

// setCmd writes several AC state fields at once
var setCmd = &cobra.Command{
	Use:   "set [device]",
	Short: "Change several AC settings at once",
	Long: `Read the current AC state, apply the given flags to it and write the
whole state back in one request. Fields without a flag keep their current
value.`,
	Example: `  smartac set bedroom --power on --mode cool --temp 22
  smartac set abc123 --fan auto`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	changes, err := setFlagChanges(cmd)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return fmt.Errorf("nothing to change (use --power, --mode, --fan, --temp or --unit)")
	}

	cfg, client, err := setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	id, err := resolveDeviceID(cfg, firstArg(args))
	if err != nil {
		return err
	}

	current, err := client.GetACState(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to read current AC state of %s: %w", id, err)
	}

	state := current.ACState
	for _, change := range changes {
		state, err = state.With(change.prop, change.value)
		if err != nil {
			return err
		}
	}

	resp, err := client.SetACState(cmd.Context(), id, state)
	if err != nil {
		return fmt.Errorf("failed to set AC state of %s: %w", id, err)
	}
	return printMutation(cmd.OutOrStdout(), format, id, resp)
}

type propertyChange struct {
	prop  sensibo.Property
	value any
}

// setFlagChanges returns the properties named by the flags the user set, in
// a fixed order.
func setFlagChanges(cmd *cobra.Command) ([]propertyChange, error) {
	flags := cmd.Flags()
	var changes []propertyChange

	add := func(flag string, prop sensibo.Property, text string) error {
		if !flags.Changed(flag) {
			return nil
		}
		value, err := prop.ParseValue(text)
		if err != nil {
			return fmt.Errorf("--%s: %w", flag, err)
		}
		changes = append(changes, propertyChange{prop: prop, value: value})
		return nil
	}

	if err := add("power", sensibo.PropertyOn, setPower); err != nil {
		return nil, err
	}
	if err := add("mode", sensibo.PropertyMode, setMode); err != nil {
		return nil, err
	}
	if err := add("fan", sensibo.PropertyFanLevel, setFan); err != nil {
		return nil, err
	}
	if err := add("temp", sensibo.PropertyTargetTemperature, fmt.Sprint(setTemp)); err != nil {
		return nil, err
	}
	if err := add("unit", sensibo.PropertyTemperatureUnit, setUnit); err != nil {
		return nil, err
	}
	return changes, nil
}

// setPropertyCmd writes a single AC state field
var setPropertyCmd = &cobra.Command{
	Use:   "set-property [device] <property> <value>",
	Short: "Change a single AC setting",
	Long: `Write one AC state property. Properties are on, mode, fanLevel,
targetTemperature and temperatureUnit.

Unlike the interactive remote this does not check whether the pod is online
or the AC is on first.`,
	Example: `  smartac set-property bedroom targetTemperature 23
  smartac set-property mode cool`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSetProperty,
}

func runSetProperty(cmd *cobra.Command, args []string) error {
	deviceArg := ""
	if len(args) == 3 {
		deviceArg, args = args[0], args[1:]
	}

	prop, err := sensibo.ParseProperty(args[0])
	if err != nil {
		return err
	}
	value, err := prop.ParseValue(args[1])
	if err != nil {
		return err
	}

	cfg, client, err := setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	id, err := resolveDeviceID(cfg, deviceArg)
	if err != nil {
		return err
	}

	resp, err := client.SetACStateProperty(cmd.Context(), id, prop, value)
	if err != nil {
		return fmt.Errorf("failed to set %s on %s: %w", prop, id, err)
	}
	return printMutation(cmd.OutOrStdout(), format, id, resp)
}

// powerCmd switches the AC on or off
var powerCmd = &cobra.Command{
	Use:       "power [device] <on|off|toggle>",
	Short:     "Switch the AC on or off",
	Example:   "  smartac power bedroom on\n  smartac power toggle",
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"on", "off", "toggle"},
	RunE:      runPower,
}

func runPower(cmd *cobra.Command, args []string) error {
	deviceArg, action := splitAction(args)
	action = strings.ToLower(action)
	switch action {
	case "on", "off", "toggle":
	default:
		return fmt.Errorf("unknown power action %q (use on, off or toggle)", action)
	}

	return runRemote(cmd, deviceArg, func(ctrl *remote.Controller) (remote.Change, error) {
		if action == "toggle" {
			return ctrl.TogglePower()
		}
		return ctrl.SetPower(action == "on")
	})
}

// tempCmd steps the target temperature by one degree
var tempCmd = &cobra.Command{
	Use:   "temp [device] <up|down>",
	Short: "Raise or lower the target temperature by one degree",
	Long: `Step the target temperature like the remote's arrow buttons. The pod must
be online and the AC on, and the result must stay within the supported
range.`,
	Example:   "  smartac temp bedroom up\n  smartac temp down",
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"up", "down"},
	RunE:      runTemp,
}

func runTemp(cmd *cobra.Command, args []string) error {
	deviceArg, direction := splitAction(args)
	var delta int
	switch strings.ToLower(direction) {
	case "up", "+":
		delta = 1
	case "down", "-":
		delta = -1
	default:
		return fmt.Errorf("unknown direction %q (use up or down)", direction)
	}

	return runRemote(cmd, deviceArg, func(ctrl *remote.Controller) (remote.Change, error) {
		return ctrl.StepTemperature(delta)
	})
}

// runRemote loads the device into a controller, asks press for the change
// and performs it.
func runRemote(cmd *cobra.Command, deviceArg string, press func(*remote.Controller) (remote.Change, error)) error {
	cfg, client, err := setup()
	if err != nil {
		return err
	}
	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	id, err := resolveDeviceID(cfg, deviceArg)
	if err != nil {
		return err
	}

	ctrl := remote.NewController(client, sensibo.NewModel())
	if _, err := ctrl.Load(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to get device %s: %w", id, err)
	}

	change, err := press(ctrl)
	if err != nil {
		return err
	}

	device, err := ctrl.Do(cmd.Context(), change)
	if err != nil {
		return fmt.Errorf("failed to set %s on %s: %w", change.Property, id, err)
	}
	return printDevice(cmd.OutOrStdout(), cfg, format, device)
}

func printMutation(w io.Writer, format, id string, resp sensibo.MutationResponse) error {
	switch format {
	case "json":
		return writeJSON(w, resp)
	case "compact":
		_, err := fmt.Fprintln(w, resp.ACState.Summary())
		return err
	}
	_, err := fmt.Fprintln(w, ui.RenderSuccess("AC state updated", stateDetails(id, resp.ACState)...))
	return err
}

func printDevice(w io.Writer, cfg *config.Config, format string, device sensibo.Device) error {
	switch format {
	case "json":
		return writeJSON(w, device)
	case "compact":
		_, err := fmt.Fprintln(w, device.Summary())
		return err
	}
	_, err := fmt.Fprintln(w, ui.RenderSuccess("AC state updated", stateDetails(displayName(cfg, device), device.ACState)...))
	return err
}

func stateDetails(device string, s sensibo.ACState) []ui.Detail {
	return []ui.Detail{
		{Key: "Device", Value: device},
		{Key: "Power", Value: s.PowerLabel()},
		{Key: "Mode", Value: sensibo.Title(string(s.ACMode))},
		{Key: "Fan", Value: sensibo.Title(string(s.FanLevel))},
		{Key: "Temperature", Value: s.TemperatureLabel()},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// splitAction splits "[device] <action>" arguments.
func splitAction(args []string) (device, action string) {
	if len(args) == 2 {
		return args[0], args[1]
	}
	return "", args[0]
}

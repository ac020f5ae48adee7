// Package tui implements the interactive remote control for Sensibo pods.
//
// It is a Bubble Tea program with three screens:
//   - Devices: the account's pods with their online state and a summary
//   - Remote: target temperature, power, mode and fan for one pod
//   - Choose: the fixed list of modes or fan levels for the open pod
//
// Errors and the "AC is offline" notice are shown in a blocking dialog that
// must be acknowledged before any other input is accepted.
//
// # Concurrency
//
// Every API call runs as a tea.Cmd, off the UI loop. Its result comes back as
// a message and is applied in AppModel.Update, which is the only place the
// device model is mutated. Calls are not cancelled when the user leaves the
// remote: a result that no longer matches the open pod is dropped on arrival.
//
// Entering the remote from the list refetches the pod. Returning from the
// chooser does not.
//
// # Usage
//
//	app := tui.NewAppModel(client, tui.Options{Nicknames: cfg.Nicknames()})
//	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
//	    return err
//	}
package tui

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/smartac/internal/sensibo"
)

// remoteKeyMap defines key bindings for the remote screen
type remoteKeyMap struct {
	TempUp   key.Binding
	TempDown key.Binding
	Power    key.Binding
	Mode     key.Binding
	Fan      key.Binding
	Refresh  key.Binding
	Back     key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k remoteKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TempUp, k.TempDown, k.Power, k.Mode, k.Fan, k.Refresh, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k remoteKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TempUp, k.TempDown, k.Power},
		{k.Mode, k.Fan, k.Refresh},
		{k.Back, k.Quit},
	}
}

func newRemoteKeyMap() remoteKeyMap {
	return remoteKeyMap{
		TempUp: key.NewBinding(
			key.WithKeys("up", "+", "k"),
			key.WithHelp("↑/+", "warmer"),
		),
		TempDown: key.NewBinding(
			key.WithKeys("down", "-", "j"),
			key.WithHelp("↓/-", "cooler"),
		),
		Power: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "power"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mode"),
		),
		Fan: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fan"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "devices"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (m AppModel) updateRemote(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.remoteKeys.TempUp):
		return m.send(m.ctrl.StepTemperature(1))

	case key.Matches(msg, m.remoteKeys.TempDown):
		return m.send(m.ctrl.StepTemperature(-1))

	case key.Matches(msg, m.remoteKeys.Power):
		return m.send(m.ctrl.TogglePower())

	case key.Matches(msg, m.remoteKeys.Mode):
		return m.openChooser(sensibo.PropertyMode)

	case key.Matches(msg, m.remoteKeys.Fan):
		return m.openChooser(sensibo.PropertyFanLevel)

	case key.Matches(msg, m.remoteKeys.Refresh):
		if m.shownID == "" {
			return m, nil
		}
		m.loadingDevice = true
		return m, m.fetchDeviceCmd(m.shownID)

	case key.Matches(msg, m.remoteKeys.Back):
		return m.closeRemote()

	case key.Matches(msg, m.remoteKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// openChooser shows the value list for prop. Mode and fan are inert while
// the AC is off.
func (m AppModel) openChooser(prop sensibo.Property) (tea.Model, tea.Cmd) {
	device, ok := m.model.Device()
	if !ok || !device.ACState.IsPowerOn {
		return m, nil
	}

	current := string(device.ACState.ACMode)
	if prop == sensibo.PropertyFanLevel {
		current = string(device.ACState.FanLevel)
	}

	m.Choose = NewChooseModel(device.ID, prop, current)
	m.CurrentScreen = ScreenChoose
	return m, nil
}

func (m AppModel) renderRemote() string {
	device, ok := m.model.Device()
	if !ok {
		return "\n  " + m.spinner.View() + " Loading device...\n"
	}
	state := device.ACState
	conn := device.ConnectionStatus

	var b strings.Builder

	b.WriteString(RenderTitle(m.deviceName()))
	b.WriteString("\n  ")
	if conn.IsAlive {
		b.WriteString(OnlineStyle.Render(conn.StatusLabel()))
	} else {
		b.WriteString(OfflineStyle.Render(conn.StatusLabel()))
	}
	b.WriteString(RenderSubtitle(fmt.Sprintf("  %s · last seen %ds ago", device.ID, conn.LastSeenSecondsAgo)))
	b.WriteString("\n\n")

	temperature := TemperatureStyle
	controls := lipgloss.NewStyle()
	if !state.IsPowerOn {
		temperature = temperature.Foreground(SubtleColor)
		controls = DisabledStyle
	}
	tempLabel := "--"
	if m.model.Loaded() && state.TempUnit != "" {
		tempLabel = state.TemperatureLabel()
	}
	b.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(temperature.Render(tempLabel)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  Power:  %s\n", state.PowerLabel()))
	b.WriteString("  Mode:   " + controls.Render(sensibo.Title(string(state.ACMode))) + "\n")
	b.WriteString("  Fan:    " + controls.Render(sensibo.Title(string(state.FanLevel))) + "\n")

	if m.loadingDevice || m.pending > 0 {
		b.WriteString("\n  " + m.spinner.View() + " Updating...\n")
	}
	if m.status != "" {
		b.WriteString("\n" + StatusStyle.Render(m.status) + "\n")
	}

	return b.String()
}

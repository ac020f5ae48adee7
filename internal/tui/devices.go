package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/smartac/internal/sensibo"
	"github.com/muurk/smartac/internal/urls"
)

// devicesKeyMap defines key bindings for the device list
type devicesKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Filter  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k devicesKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Filter, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k devicesKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.Filter, k.Refresh, k.Quit},
	}
}

func newDevicesKeyMap() devicesKeyMap {
	return devicesKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "open remote"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// deviceItem wraps a Device for use with bubbles/list
type deviceItem struct {
	device   sensibo.Device
	nickname string
}

func (i deviceItem) FilterValue() string {
	return i.nickname + " " + i.device.Name() + " " + i.device.ID
}

func (i deviceItem) Title() string {
	if i.nickname != "" {
		return i.nickname + " (" + i.device.Name() + ")"
	}
	return i.device.Name()
}

func (i deviceItem) Description() string {
	status := i.device.ConnectionStatus.StatusLabel()
	if !i.device.ConnectionStatus.IsAlive {
		return status
	}
	return status + " • " + i.device.ACState.Summary()
}

// DevicesModel is the list of the account's pods.
type DevicesModel struct {
	List   list.Model
	Keys   devicesKeyMap
	Loaded bool
}

// NewDevicesModel creates an empty device list.
func NewDevicesModel() DevicesModel {
	l := list.New(nil, list.NewDefaultDelegate(), defaultWidth-4, defaultHeight-8)
	l.Title = "Your air conditioners"
	l.Styles.Title = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	return DevicesModel{
		List: l,
		Keys: newDevicesKeyMap(),
	}
}

// SetSize resizes the list to fit inside the application container.
func (m *DevicesModel) SetSize(width, height int) {
	m.List.SetSize(max(width-4, 20), max(height-8, 4))
}

// SetDevices replaces the list content.
func (m *DevicesModel) SetDevices(devices []sensibo.Device, nicknames map[string]string) tea.Cmd {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d, nickname: nicknames[d.ID]}
	}
	m.Loaded = true
	return m.List.SetItems(items)
}

// UpdateDevice refreshes the entry for d if it is listed.
func (m *DevicesModel) UpdateDevice(d sensibo.Device) tea.Cmd {
	for i, item := range m.List.Items() {
		if it, ok := item.(deviceItem); ok && it.device.ID == d.ID {
			it.device = d
			return m.List.SetItem(i, it)
		}
	}
	return nil
}

// Selected returns the highlighted device.
func (m DevicesModel) Selected() (sensibo.Device, bool) {
	it, ok := m.List.SelectedItem().(deviceItem)
	if !ok {
		return sensibo.Device{}, false
	}
	return it.device, true
}

// Filtering reports whether the filter input has focus.
func (m DevicesModel) Filtering() bool {
	return m.List.FilterState() == list.Filtering
}

// View renders the device list, or the empty and loading states.
func (m DevicesModel) View(spinnerView string) string {
	var b strings.Builder

	switch {
	case !m.Loaded:
		b.WriteString("\n  ")
		b.WriteString(spinnerView)
		b.WriteString(" Loading devices...\n")

	case len(m.List.Items()) == 0:
		b.WriteString("\n  ")
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ No devices found on this account"))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Check that the pod is paired in the Sensibo app\n")
		b.WriteString("    • Check the API key belongs to the same account\n")
		b.WriteString("    • Manage keys at " + urls.APIKeys + "\n")

	default:
		b.WriteString("\n")
		b.WriteString(m.List.View())
	}

	return b.String()
}

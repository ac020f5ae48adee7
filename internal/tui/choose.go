package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/smartac/internal/remote"
	"github.com/muurk/smartac/internal/sensibo"
)

// chooseKeyMap defines key bindings for the value chooser
type chooseKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k chooseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k chooseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Select, k.Back}}
}

func newChooseKeyMap() chooseKeyMap {
	return chooseKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
	}
}

// chooseResult tells the app what the chooser did with a key.
type chooseResult int

const (
	chooseNone chooseResult = iota
	chooseSelected
	chooseCancelled
)

// ChooseModel picks one value from the fixed list of a property. It carries
// the device id and property it was opened for.
type ChooseModel struct {
	DeviceID string
	Property sensibo.Property
	Choices  []string
	Cursor   int
	Current  string
	Keys     chooseKeyMap
}

// NewChooseModel opens the chooser on the current value.
func NewChooseModel(deviceID string, prop sensibo.Property, current string) ChooseModel {
	m := ChooseModel{
		DeviceID: deviceID,
		Property: prop,
		Choices:  remote.Choices(prop),
		Current:  current,
		Keys:     newChooseKeyMap(),
	}
	for i, c := range m.Choices {
		if c == current {
			m.Cursor = i
		}
	}
	return m
}

// Selected returns the value under the cursor.
func (m ChooseModel) Selected() string {
	if m.Cursor < 0 || m.Cursor >= len(m.Choices) {
		return ""
	}
	return m.Choices[m.Cursor]
}

// Update moves the cursor or reports a selection.
func (m ChooseModel) Update(msg tea.KeyMsg) (ChooseModel, chooseResult) {
	switch {
	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(m.Choices)-1 {
			m.Cursor++
		}
	case key.Matches(msg, m.Keys.Select):
		if m.Selected() != "" {
			return m, chooseSelected
		}
	case key.Matches(msg, m.Keys.Back):
		return m, chooseCancelled
	}
	return m, chooseNone
}

func (m ChooseModel) title() string {
	switch m.Property {
	case sensibo.PropertyMode:
		return "Select mode"
	case sensibo.PropertyFanLevel:
		return "Select fan level"
	}
	return "Select " + string(m.Property)
}

// View renders the choice list.
func (m ChooseModel) View(deviceName string) string {
	var b strings.Builder

	b.WriteString(RenderTitle(m.title()))
	b.WriteString("\n")
	b.WriteString("  " + RenderSubtitle(deviceName))
	b.WriteString("\n\n")

	for i, c := range m.Choices {
		label := sensibo.Title(c)
		if c == m.Current {
			label += " (current)"
		}
		b.WriteString(RenderMenuItem(label, i == m.Cursor))
		b.WriteString("\n")
	}

	return b.String()
}

package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/smartac/internal/logging"
	"github.com/muurk/smartac/internal/remote"
	"github.com/muurk/smartac/internal/sensibo"
)

// Client is the part of *sensibo.Client the interface needs.
type Client interface {
	remote.API
	ListDevices(ctx context.Context) ([]sensibo.Device, error)
}

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDevices Screen = "devices"
	ScreenRemote  Screen = "remote"
	ScreenChoose  Screen = "choose"
)

// Results of network commands. They are produced off the UI loop and only
// applied in Update.
type devicesLoadedMsg struct {
	devices []sensibo.Device
	err     error
}

type deviceLoadedMsg struct {
	id     string
	device sensibo.Device
	err    error
}

type mutationDoneMsg struct {
	change remote.Change
	resp   sensibo.MutationResponse
	err    error
}

// ackKeyMap defines key bindings for the acknowledgement dialog
type ackKeyMap struct {
	OK key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k ackKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.OK}
}

// FullHelp returns keybindings for the expanded help view
func (k ackKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.OK}}
}

// Options configures the application model.
type Options struct {
	// Context is passed to every API call. Defaults to context.Background.
	Context context.Context
	// Nicknames maps pod ids to user-defined names.
	Nicknames map[string]string
	// DeviceID opens the remote for this pod directly instead of the list.
	DeviceID string
}

// AppModel is the top-level model. It owns the device model and is the only
// code that mutates it.
type AppModel struct {
	CurrentScreen Screen
	Width         int
	Height        int

	Devices DevicesModel
	Choose  ChooseModel

	client    Client
	ctx       context.Context
	model     *sensibo.Model
	ctrl      *remote.Controller
	nicknames map[string]string
	startID   string

	// shownID is the device the remote screen is for. The model stays
	// empty until the server has returned that device.
	shownID string

	loadingDevice bool
	pending       int
	status        string

	// alert is a blocking dialog; nothing else takes input until it is acknowledged
	alert        string
	alertWarning bool

	spinner    spinner.Model
	help       help.Model
	remoteKeys remoteKeyMap
	ackKeys    ackKeyMap
}

// NewAppModel creates the application model.
func NewAppModel(client Client, opts Options) AppModel {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	nicknames := opts.Nicknames
	if nicknames == nil {
		nicknames = map[string]string{}
	}

	model := sensibo.NewModel()

	return AppModel{
		CurrentScreen: ScreenDevices,
		Devices:       NewDevicesModel(),
		client:        client,
		ctx:           ctx,
		model:         model,
		ctrl:          remote.NewController(client, model),
		nicknames:     nicknames,
		startID:       opts.DeviceID,
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		help:          help.New(),
		remoteKeys:    newRemoteKeyMap(),
		ackKeys: ackKeyMap{
			OK: key.NewBinding(
				key.WithKeys("enter", "esc", " "),
				key.WithHelp("enter", "ok"),
			),
		},
	}
}

// Model returns the device model shown on the remote screen.
func (m AppModel) Model() *sensibo.Model {
	return m.model
}

// Alert returns the text of the open acknowledgement dialog, if any.
func (m AppModel) Alert() string {
	return m.alert
}

// Status returns the non-blocking status line.
func (m AppModel) Status() string {
	return m.status
}

// Init starts loading the device list, or the requested device.
func (m AppModel) Init() tea.Cmd {
	if m.startID != "" {
		return tea.Batch(m.spinner.Tick, func() tea.Msg { return openDeviceMsg{id: m.startID} })
	}
	return tea.Batch(m.spinner.Tick, m.listDevicesCmd())
}

// openDeviceMsg opens the remote for a pod that is not in the list yet.
type openDeviceMsg struct {
	id string
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		m.Devices.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.alert != "" {
			if key.Matches(msg, m.ackKeys.OK) {
				m.alert = ""
			}
			return m, nil
		}
		return m.updateCurrentScreen(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case devicesLoadedMsg:
		return m.handleDevicesLoaded(msg)

	case openDeviceMsg:
		return m.openDevice(msg.id)

	case deviceLoadedMsg:
		return m.handleDeviceLoaded(msg)

	case mutationDoneMsg:
		return m.handleMutationDone(msg)
	}

	if m.CurrentScreen == ScreenDevices {
		var cmd tea.Cmd
		m.Devices.List, cmd = m.Devices.List.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateCurrentScreen routes key presses to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenDevices:
		return m.updateDevices(msg)
	case ScreenRemote:
		return m.updateRemote(msg)
	case ScreenChoose:
		return m.updateChoose(msg)
	}
	return m, nil
}

func (m AppModel) updateDevices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.Devices.Filtering() {
		switch {
		case key.Matches(msg, m.Devices.Keys.Open):
			if device, ok := m.Devices.Selected(); ok {
				return m.openRemote(device)
			}
			return m, nil
		case key.Matches(msg, m.Devices.Keys.Refresh):
			m.Devices.Loaded = false
			return m, m.listDevicesCmd()
		case key.Matches(msg, m.Devices.Keys.Quit):
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.Devices.List, cmd = m.Devices.List.Update(msg)
	return m, cmd
}

func (m AppModel) updateChoose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var result chooseResult
	m.Choose, result = m.Choose.Update(msg)

	switch result {
	case chooseCancelled:
		// Back to the remote without a refetch.
		m.CurrentScreen = ScreenRemote
		return m, nil

	case chooseSelected:
		m.CurrentScreen = ScreenRemote
		if m.Choose.DeviceID != m.model.ID() {
			return m, nil
		}
		change, err := m.ctrl.Choose(m.Choose.Property, m.Choose.Selected())
		return m.send(change, err)
	}
	return m, nil
}

// openRemote shows a device from the list immediately and refetches it.
func (m AppModel) openRemote(device sensibo.Device) (tea.Model, tea.Cmd) {
	m.model.Replace(device)
	m.shownID = device.ID
	m.CurrentScreen = ScreenRemote
	m.loadingDevice = true
	m.status = ""
	return m, m.fetchDeviceCmd(device.ID)
}

// openDevice shows the remote for a device known only by id. Controls
// report the device as loading until the fetch returns.
func (m AppModel) openDevice(id string) (tea.Model, tea.Cmd) {
	m.model.Clear()
	m.shownID = id
	m.CurrentScreen = ScreenRemote
	m.loadingDevice = true
	m.status = ""
	return m, m.fetchDeviceCmd(id)
}

// closeRemote returns to the list. Results still in flight for the closed
// device are dropped when they arrive.
func (m AppModel) closeRemote() (tea.Model, tea.Cmd) {
	m.model.Clear()
	m.shownID = ""
	m.CurrentScreen = ScreenDevices
	m.loadingDevice = false
	m.status = ""
	if !m.Devices.Loaded {
		return m, m.listDevicesCmd()
	}
	return m, nil
}

// send runs a guarded change, or explains why it was refused.
func (m AppModel) send(change remote.Change, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		switch {
		case errors.Is(err, remote.ErrOffline):
			m.showAlert(remote.Message(err), true)
		case errors.Is(err, remote.ErrPoweredOff):
			// controls are disabled while the AC is off
		default:
			m.status = remote.Message(err)
		}
		return m, nil
	}

	m.pending++
	m.status = ""
	return m, m.sendCmd(change)
}

func (m AppModel) handleDevicesLoaded(msg devicesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.Devices.Loaded = true
		m.showAlert(remote.Message(msg.err), false)
		return m, nil
	}
	return m, m.Devices.SetDevices(msg.devices, m.nicknames)
}

func (m AppModel) handleDeviceLoaded(msg deviceLoadedMsg) (tea.Model, tea.Cmd) {
	if m.CurrentScreen == ScreenDevices || msg.id != m.shownID {
		logging.Debug("Dropping device fetched for a closed remote", zap.String("device_id", msg.id))
		return m, nil
	}
	m.loadingDevice = false

	if msg.err != nil {
		m.showAlert(remote.Message(msg.err), false)
		return m, nil
	}

	m.model.Replace(msg.device)
	return m, m.Devices.UpdateDevice(msg.device)
}

func (m AppModel) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	if msg.change.DeviceID != m.model.ID() {
		logging.Debug("Dropping result for a closed remote", zap.Stringer("change", msg.change))
		return m, nil
	}

	if msg.err != nil {
		m.showAlert(remote.Message(msg.err), false)
		return m, nil
	}

	applied, err := m.ctrl.Apply(msg.change, msg.resp)
	if err != nil {
		m.showAlert(remote.Message(err), false)
		return m, nil
	}
	if !applied {
		return m, nil
	}

	device, _ := m.model.Device()
	return m, m.Devices.UpdateDevice(device)
}

func (m *AppModel) showAlert(text string, warning bool) {
	m.alert = text
	m.alertWarning = warning
}

func (m AppModel) listDevicesCmd() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		devices, err := client.ListDevices(ctx)
		return devicesLoadedMsg{devices: devices, err: err}
	}
}

func (m AppModel) fetchDeviceCmd(id string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		device, err := ctrl.Fetch(ctx, id)
		return deviceLoadedMsg{id: id, device: device, err: err}
	}
}

func (m AppModel) sendCmd(change remote.Change) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		resp, err := ctrl.Send(ctx, change)
		return mutationDoneMsg{change: change, resp: resp, err: err}
	}
}

func (m AppModel) deviceName() string {
	device, ok := m.model.Device()
	if !ok {
		device = sensibo.Device{ID: m.shownID}
	}
	name := device.Name()
	if name == "" {
		name = device.ID
	}
	if nick := m.nicknames[device.ID]; nick != "" {
		name = nick + " (" + name + ")"
	}
	return name
}

// View renders the current screen, or the acknowledgement dialog over it.
func (m AppModel) View() string {
	if m.alert != "" {
		return m.renderAlert()
	}

	var content, helpText string
	switch m.CurrentScreen {
	case ScreenDevices:
		content = m.Devices.View(m.spinner.View())
		helpText = m.help.View(m.Devices.Keys)
	case ScreenRemote:
		content = m.renderRemote()
		helpText = m.help.View(m.remoteKeys)
	case ScreenChoose:
		content = m.Choose.View(m.deviceName())
		helpText = m.help.View(m.Choose.Keys)
	default:
		content = "Unknown screen"
	}

	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

func (m AppModel) renderAlert() string {
	style := ErrorBoxStyle
	if m.alertWarning {
		style = WarningBoxStyle
	}

	var b strings.Builder
	b.WriteString(m.alert)
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.ackKeys))

	box := style.Width(SafeModalWidth(50, m.Width)).Render(b.String())
	return RenderModal(box, m.Width, m.Height)
}

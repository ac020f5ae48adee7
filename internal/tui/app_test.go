package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/smartac/internal/sensibo"
)

type fakeClient struct {
	devices map[string]sensibo.Device
	order   []string
	listErr error
	getErr  error
	setErr  error
	lists   int
	gets    int
	sets    int
}

func newFakeClient(devices ...sensibo.Device) *fakeClient {
	f := &fakeClient{devices: map[string]sensibo.Device{}}
	for _, d := range devices {
		f.devices[d.ID] = d
		f.order = append(f.order, d.ID)
	}
	return f
}

func (f *fakeClient) ListDevices(context.Context) ([]sensibo.Device, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]sensibo.Device, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.devices[id])
	}
	return out, nil
}

func (f *fakeClient) GetDevice(_ context.Context, id string) (sensibo.Device, error) {
	f.gets++
	if f.getErr != nil {
		return sensibo.Device{}, f.getErr
	}
	return f.devices[id], nil
}

func (f *fakeClient) SetACStateProperty(_ context.Context, id string, prop sensibo.Property, value any) (sensibo.MutationResponse, error) {
	f.sets++
	if f.setErr != nil {
		return sensibo.MutationResponse{}, f.setErr
	}
	state, err := f.devices[id].ACState.With(prop, value)
	if err != nil {
		return sensibo.MutationResponse{}, err
	}
	return sensibo.MutationResponse{Status: "success", ACState: state}, nil
}

func pod(id, room string, temp int) sensibo.Device {
	return sensibo.Device{
		ID:               id,
		Room:             sensibo.Room{Name: room},
		ConnectionStatus: sensibo.ConnectionStatus{IsAlive: true, LastSeenSecondsAgo: 3, LastSeenTimestamp: "t"},
		ACState: sensibo.ACState{
			IsPowerOn:  true,
			FanLevel:   sensibo.FanAuto,
			TempUnit:   "C",
			TempDegree: temp,
			ACMode:     sensibo.ModeCool,
		},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	app, ok := next.(AppModel)
	require.True(t, ok)
	return app, cmd
}

// complete runs cmd synchronously and feeds its message back into the model.
func complete(t *testing.T, m AppModel, cmd tea.Cmd) AppModel {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

// loaded returns an app showing the device list of client.
func loaded(t *testing.T, client *fakeClient) AppModel {
	t.Helper()
	m := NewAppModel(client, Options{Nicknames: map[string]string{"d2": "Upstairs"}})
	return complete(t, m, m.listDevicesCmd())
}

// opened returns an app showing the remote for the first listed device.
func opened(t *testing.T, client *fakeClient) AppModel {
	t.Helper()
	m := loaded(t, client)
	m, cmd := update(t, m, keyEnter)
	return complete(t, m, cmd)
}

func TestDeviceList(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22), pod("d2", "Room B", 25))
	m := loaded(t, client)

	assert.Equal(t, ScreenDevices, m.CurrentScreen)
	assert.True(t, m.Devices.Loaded)
	require.Len(t, m.Devices.List.Items(), 2)
	assert.Equal(t, "Upstairs (Room B)", m.Devices.List.Items()[1].(deviceItem).Title())
	assert.Equal(t, "Online • 22°C On, Cool, fan auto", m.Devices.List.Items()[0].(deviceItem).Description())
	assert.False(t, m.Model().Loaded())
}

func TestDeviceList_Error(t *testing.T) {
	client := newFakeClient()
	client.listErr = sensibo.NewUnauthorizedError(401, "HTTP 401 Unauthorized")

	m := loaded(t, client)
	assert.Equal(t, "unauthorized user", m.Alert())

	m, _ = update(t, m, keyEnter)
	assert.Empty(t, m.Alert())
}

func TestOpenRemoteRefetches(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22), pod("d2", "Room B", 25))
	m := loaded(t, client)

	m, _ = update(t, m, keyDown)
	m, cmd := update(t, m, keyEnter)
	assert.Equal(t, ScreenRemote, m.CurrentScreen)
	assert.Equal(t, "d2", m.Model().ID())
	assert.Zero(t, client.gets)

	client.devices["d2"] = pod("d2", "Room B", 19)
	m = complete(t, m, cmd)
	assert.Equal(t, 1, client.gets)

	device, ok := m.Model().Device()
	require.True(t, ok)
	assert.Equal(t, 19, device.ACState.TempDegree)
	assert.Equal(t, 19, m.Devices.List.Items()[1].(deviceItem).device.ACState.TempDegree, "list follows the fetched state")
}

func TestRemote_StepTemperature(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22))
	m := opened(t, client)

	m, cmd := update(t, m, keyRunes("+"))
	require.NotNil(t, cmd)
	device, _ := m.Model().Device()
	assert.Equal(t, 22, device.ACState.TempDegree, "model only changes when the response arrives")

	m = complete(t, m, cmd)
	device, _ = m.Model().Device()
	assert.Equal(t, 23, device.ACState.TempDegree)
	assert.Equal(t, "Room A", device.Name())
	assert.Equal(t, 1, client.sets)
	assert.Zero(t, m.pending)
}

func TestRemote_OfflineShowsBlockingAlert(t *testing.T) {
	offline := pod("d1", "Room A", 22)
	offline.ConnectionStatus.IsAlive = false
	client := newFakeClient(offline)
	m := opened(t, client)

	m, cmd := update(t, m, keyRunes("-"))
	assert.Nil(t, cmd)
	assert.Equal(t, "AC is offline", m.Alert())
	assert.Zero(t, client.sets)

	// Other input is ignored until the dialog is acknowledged.
	m, cmd = update(t, m, keyRunes("p"))
	assert.Nil(t, cmd)
	assert.Equal(t, "AC is offline", m.Alert())
	assert.Contains(t, m.View(), "AC is offline")

	m, _ = update(t, m, keyEnter)
	assert.Empty(t, m.Alert())
	assert.Equal(t, ScreenRemote, m.CurrentScreen)
}

func TestRemote_PoweredOffControlsAreInert(t *testing.T) {
	off := pod("d1", "Room A", 22)
	off.ACState.IsPowerOn = false
	client := newFakeClient(off)
	m := opened(t, client)

	for _, k := range []string{"+", "-", "m", "f"} {
		var cmd tea.Cmd
		m, cmd = update(t, m, keyRunes(k))
		assert.Nil(t, cmd, k)
		assert.Empty(t, m.Alert(), k)
		assert.Equal(t, ScreenRemote, m.CurrentScreen, k)
	}
	assert.Zero(t, client.sets)

	m, cmd := update(t, m, keyRunes("p"))
	m = complete(t, m, cmd)
	device, _ := m.Model().Device()
	assert.True(t, device.ACState.IsPowerOn)
	assert.Equal(t, 22, device.ACState.TempDegree)
}

func TestRemote_TemperatureLimitIsAStatus(t *testing.T) {
	hot := pod("d1", "Room A", sensibo.MaxTemperature)
	client := newFakeClient(hot)
	m := opened(t, client)

	m, cmd := update(t, m, keyRunes("+"))
	assert.Nil(t, cmd)
	assert.Empty(t, m.Alert())
	assert.Contains(t, m.Status(), "between 16 and 32")
}

func TestChooseMode_DoesNotRefetch(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22))
	m := opened(t, client)
	gets := client.gets

	m, _ = update(t, m, keyRunes("m"))
	require.Equal(t, ScreenChoose, m.CurrentScreen)
	assert.Equal(t, "d1", m.Choose.DeviceID)
	assert.Equal(t, sensibo.PropertyMode, m.Choose.Property)
	assert.Equal(t, "cool", m.Choose.Selected())

	m, _ = update(t, m, keyDown)
	assert.Equal(t, "dry", m.Choose.Selected())

	m, cmd := update(t, m, keyEnter)
	assert.Equal(t, ScreenRemote, m.CurrentScreen)
	m = complete(t, m, cmd)

	device, _ := m.Model().Device()
	assert.Equal(t, sensibo.ModeDry, device.ACState.ACMode)
	assert.Equal(t, gets, client.gets)
}

func TestChooseFan_Cancel(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22))
	m := opened(t, client)
	gets := client.gets

	m, _ = update(t, m, keyRunes("f"))
	require.Equal(t, ScreenChoose, m.CurrentScreen)
	assert.Equal(t, []string{"low", "medium", "high", "auto"}, m.Choose.Choices)
	assert.Equal(t, "auto", m.Choose.Selected())

	m, cmd := update(t, m, keyEsc)
	assert.Nil(t, cmd)
	assert.Equal(t, ScreenRemote, m.CurrentScreen)
	assert.Equal(t, gets, client.gets)
	assert.Zero(t, client.sets)
}

func TestLateMutationIsDropped(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22), pod("d2", "Room B", 25))
	m := opened(t, client)

	m, sendCmd := update(t, m, keyRunes("+"))
	require.NotNil(t, sendCmd)

	m, _ = update(t, m, keyEsc)
	assert.Equal(t, ScreenDevices, m.CurrentScreen)
	assert.False(t, m.Model().Loaded())

	m, _ = update(t, m, keyDown)
	m, fetchCmd := update(t, m, keyEnter)
	m = complete(t, m, fetchCmd)

	m = complete(t, m, sendCmd)
	device, _ := m.Model().Device()
	assert.Equal(t, "d2", device.ID)
	assert.Equal(t, 25, device.ACState.TempDegree)
	assert.Empty(t, m.Alert())
}

func TestLateFetchIsDropped(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22), pod("d2", "Room B", 25))
	m := loaded(t, client)

	m, firstFetch := update(t, m, keyEnter)
	m, _ = update(t, m, keyEsc)
	m, _ = update(t, m, keyDown)
	m, secondFetch := update(t, m, keyEnter)
	m = complete(t, m, secondFetch)

	m = complete(t, m, firstFetch)
	assert.Equal(t, "d2", m.Model().ID())
}

func TestMutationError_LeavesModelUnchanged(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22))
	m := opened(t, client)
	client.setErr = sensibo.NewHTTPError(500, "HTTP 500 Internal Server Error")

	m, cmd := update(t, m, keyRunes("+"))
	m = complete(t, m, cmd)

	assert.Equal(t, "HTTP 500 Internal Server Error", m.Alert())
	device, _ := m.Model().Device()
	assert.Equal(t, 22, device.ACState.TempDegree)
}

func TestStartOnDevice(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22), pod("d2", "Room B", 25))
	m := NewAppModel(client, Options{DeviceID: "d2"})

	m, cmd := update(t, m, openDeviceMsg{id: "d2"})
	assert.Equal(t, ScreenRemote, m.CurrentScreen)
	m = complete(t, m, cmd)

	device, ok := m.Model().Device()
	require.True(t, ok)
	assert.Equal(t, "Room B", device.Name())

	// Leaving a remote opened directly loads the list.
	m, cmd = update(t, m, keyEsc)
	assert.Equal(t, ScreenDevices, m.CurrentScreen)
	m = complete(t, m, cmd)
	assert.Len(t, m.Devices.List.Items(), 2)
}

func TestStartOnDevice_ControlsWaitForFetch(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22))
	m := NewAppModel(client, Options{DeviceID: "d1"})

	m, fetch := update(t, m, openDeviceMsg{id: "d1"})
	assert.False(t, m.Model().Loaded())

	m, cmd := update(t, m, keyRunes("p"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Device is still loading", m.Status())

	m, cmd = update(t, m, keyRunes("-"))
	assert.Nil(t, cmd)
	assert.Empty(t, m.Alert())

	m, cmd = update(t, m, keyRunes("m"))
	assert.Nil(t, cmd)
	assert.Equal(t, ScreenRemote, m.CurrentScreen)
	assert.Equal(t, 0, client.sets)

	m = complete(t, m, fetch)
	device, ok := m.Model().Device()
	require.True(t, ok)
	assert.True(t, device.ACState.IsPowerOn)

	m, cmd = update(t, m, keyRunes("p"))
	m = complete(t, m, cmd)
	assert.Equal(t, 1, client.sets)
	device, _ = m.Model().Device()
	assert.False(t, device.ACState.IsPowerOn)
}

func TestView(t *testing.T) {
	client := newFakeClient(pod("d1", "Room A", 22))
	m := loaded(t, client)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 90, Height: 30})

	assert.Contains(t, m.View(), "Room A")

	m, cmd := update(t, m, keyEnter)
	m = complete(t, m, cmd)
	view := m.View()
	assert.Contains(t, view, "22°C")
	assert.Contains(t, view, "Online")
}

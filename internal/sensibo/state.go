package sensibo

import "errors"

// ErrNotLoaded is returned when a Model is used before a device was fetched.
var ErrNotLoaded = errors.New("device not loaded")

// ApplyMutation replaces the AC state with the server-confirmed state in
// resp. Nothing else on the device changes.
func (d *Device) ApplyMutation(resp MutationResponse) {
	d.ACState = resp.ACState
}

// Replace overwrites the whole record with a freshly fetched one.
func (d *Device) Replace(fresh Device) {
	*d = fresh
}

// Model holds the device a view is showing. It starts empty and is not safe
// for concurrent use; the owning view mutates it from one goroutine.
type Model struct {
	device *Device
}

// NewModel returns an empty Model.
func NewModel() *Model {
	return &Model{}
}

// NewModelWith returns a Model already holding d.
func NewModelWith(d Device) *Model {
	return &Model{device: &d}
}

// Device returns a copy of the device and whether one is loaded.
func (m *Model) Device() (Device, bool) {
	if m == nil || m.device == nil {
		return Device{}, false
	}
	return *m.device, true
}

// Loaded reports whether a device is present.
func (m *Model) Loaded() bool {
	return m != nil && m.device != nil
}

// ID returns the loaded device id, or "" when empty.
func (m *Model) ID() string {
	if !m.Loaded() {
		return ""
	}
	return m.device.ID
}

// Replace loads fresh, discarding whatever was held before.
func (m *Model) Replace(fresh Device) {
	if m.device == nil {
		m.device = &Device{}
	}
	m.device.Replace(fresh)
}

// ApplyMutation patches the AC state of the loaded device.
func (m *Model) ApplyMutation(resp MutationResponse) error {
	if !m.Loaded() {
		return ErrNotLoaded
	}
	m.device.ApplyMutation(resp)
	return nil
}

// Clear drops the loaded device.
func (m *Model) Clear() {
	m.device = nil
}

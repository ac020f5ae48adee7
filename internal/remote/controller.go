// Package remote implements the controls of an air conditioner remote on
// top of the Sensibo client.
//
// Guards run locally before anything is sent: the temperature can only be
// stepped while the pod is online, and mode, fan and temperature are inert
// while the AC is off. A guarded call returns a Change describing the single
// property write to perform. Send performs it without touching local state so
// it can run off the UI goroutine; Apply writes the server-confirmed state
// back into the model and must run on the goroutine that owns it.
package remote

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/smartac/internal/logging"
	"github.com/muurk/smartac/internal/sensibo"
)

var (
	// ErrOffline is returned when the pod is not connected to the cloud.
	ErrOffline = errors.New("AC is offline")

	// ErrPoweredOff is returned for controls that are inert while the AC is off.
	ErrPoweredOff = errors.New("AC is turned off")

	// ErrTemperatureLimit is returned when a step would leave the supported range.
	ErrTemperatureLimit = fmt.Errorf("temperature must stay between %d and %d", sensibo.MinTemperature, sensibo.MaxTemperature)
)

// API is the subset of *sensibo.Client the controller needs.
type API interface {
	GetDevice(ctx context.Context, id string) (sensibo.Device, error)
	SetACStateProperty(ctx context.Context, id string, prop sensibo.Property, value any) (sensibo.MutationResponse, error)
}

// Change is one property write for one device.
type Change struct {
	DeviceID string
	Property sensibo.Property
	Value    any
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s=%v", c.DeviceID, c.Property, c.Value)
}

// Controller drives one device through a model it does not own.
type Controller struct {
	api   API
	model *sensibo.Model
}

// NewController creates a controller that writes through api and keeps model
// in sync.
func NewController(api API, model *sensibo.Model) *Controller {
	return &Controller{api: api, model: model}
}

// Model returns the model the controller keeps in sync.
func (c *Controller) Model() *sensibo.Model {
	return c.model
}

func (c *Controller) device() (sensibo.Device, error) {
	device, ok := c.model.Device()
	if !ok {
		return sensibo.Device{}, sensibo.ErrNotLoaded
	}
	return device, nil
}

// TogglePower returns the change that flips the power state.
func (c *Controller) TogglePower() (Change, error) {
	device, err := c.device()
	if err != nil {
		return Change{}, err
	}
	return Change{DeviceID: device.ID, Property: sensibo.PropertyOn, Value: !device.ACState.IsPowerOn}, nil
}

// SetPower returns the change that switches the AC on or off.
func (c *Controller) SetPower(on bool) (Change, error) {
	device, err := c.device()
	if err != nil {
		return Change{}, err
	}
	return Change{DeviceID: device.ID, Property: sensibo.PropertyOn, Value: on}, nil
}

// StepTemperature returns the change that moves the target temperature by
// delta degrees. It refuses when the pod is offline or the AC is off, and
// when the result would leave the supported range.
func (c *Controller) StepTemperature(delta int) (Change, error) {
	device, err := c.device()
	if err != nil {
		return Change{}, err
	}
	if !device.ConnectionStatus.IsAlive {
		return Change{}, ErrOffline
	}
	if !device.ACState.IsPowerOn {
		return Change{}, ErrPoweredOff
	}

	target := device.ACState.TempDegree + delta
	if target < sensibo.MinTemperature || target > sensibo.MaxTemperature {
		return Change{}, ErrTemperatureLimit
	}
	return Change{DeviceID: device.ID, Property: sensibo.PropertyTargetTemperature, Value: target}, nil
}

// SelectMode returns the change that sets the AC mode.
func (c *Controller) SelectMode(mode sensibo.ACMode) (Change, error) {
	return c.choose(sensibo.PropertyMode, string(mode))
}

// SelectFanLevel returns the change that sets the fan level.
func (c *Controller) SelectFanLevel(level sensibo.FanLevel) (Change, error) {
	return c.choose(sensibo.PropertyFanLevel, string(level))
}

// Choose returns the change for a value picked from Choices(prop).
func (c *Controller) Choose(prop sensibo.Property, value string) (Change, error) {
	return c.choose(prop, value)
}

func (c *Controller) choose(prop sensibo.Property, value string) (Change, error) {
	device, err := c.device()
	if err != nil {
		return Change{}, err
	}
	if !device.ACState.IsPowerOn {
		return Change{}, ErrPoweredOff
	}
	if _, err := prop.NormalizeValue(value); err != nil {
		return Change{}, err
	}
	return Change{DeviceID: device.ID, Property: prop, Value: value}, nil
}

// Choices returns the fixed list of values offered for prop. Only the fan
// level and the mode have a list.
func Choices(prop sensibo.Property) []string {
	switch prop {
	case sensibo.PropertyFanLevel:
		levels := sensibo.FanLevels()
		out := make([]string, len(levels))
		for i, l := range levels {
			out[i] = string(l)
		}
		return out
	case sensibo.PropertyMode:
		modes := sensibo.Modes()
		out := make([]string, len(modes))
		for i, m := range modes {
			out[i] = string(m)
		}
		return out
	}
	return nil
}

// Send performs the write. It does not touch the model.
func (c *Controller) Send(ctx context.Context, change Change) (sensibo.MutationResponse, error) {
	logging.Debug("Sending AC state change", zap.Stringer("change", change))
	return c.api.SetACStateProperty(ctx, change.DeviceID, change.Property, change.Value)
}

// Apply writes a server-confirmed state into the model. Responses for a
// device other than the loaded one are ignored and reported as false.
func (c *Controller) Apply(change Change, resp sensibo.MutationResponse) (bool, error) {
	if !c.model.Loaded() {
		return false, sensibo.ErrNotLoaded
	}
	if c.model.ID() != change.DeviceID {
		logging.Debug("Dropping response for a device that is no longer shown",
			zap.String("device_id", change.DeviceID),
			zap.String("current_device_id", c.model.ID()),
		)
		return false, nil
	}
	return true, c.model.ApplyMutation(resp)
}

// Do sends change and applies the response. Only for callers that own the
// model on the calling goroutine.
func (c *Controller) Do(ctx context.Context, change Change) (sensibo.Device, error) {
	resp, err := c.Send(ctx, change)
	if err != nil {
		return sensibo.Device{}, err
	}
	if _, err := c.Apply(change, resp); err != nil {
		return sensibo.Device{}, err
	}
	device, _ := c.model.Device()
	return device, nil
}

// Fetch loads a device without touching the model.
func (c *Controller) Fetch(ctx context.Context, id string) (sensibo.Device, error) {
	return c.api.GetDevice(ctx, id)
}

// Refresh refetches the loaded device and replaces the model with it.
func (c *Controller) Refresh(ctx context.Context) (sensibo.Device, error) {
	id := c.model.ID()
	if id == "" {
		return sensibo.Device{}, sensibo.ErrNotLoaded
	}
	device, err := c.api.GetDevice(ctx, id)
	if err != nil {
		return sensibo.Device{}, err
	}
	c.model.Replace(device)
	return device, nil
}

// Load fetches id and replaces the model with it.
func (c *Controller) Load(ctx context.Context, id string) (sensibo.Device, error) {
	device, err := c.api.GetDevice(ctx, id)
	if err != nil {
		return sensibo.Device{}, err
	}
	c.model.Replace(device)
	return device, nil
}

// Message returns the text shown to the user for a controller or API error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrOffline), errors.Is(err, ErrPoweredOff), errors.Is(err, ErrTemperatureLimit):
		return err.Error()
	case errors.Is(err, sensibo.ErrNotLoaded):
		return "Device is still loading"
	}
	return sensibo.ShortMessage(err)
}

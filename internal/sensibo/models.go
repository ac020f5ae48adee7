package sensibo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Temperature bounds accepted by the remote controls.
const (
	MinTemperature = 16
	MaxTemperature = 32
)

// ACMode is the operating mode of an air conditioner.
type ACMode string

const (
	ModeHeat ACMode = "heat"
	ModeCool ACMode = "cool"
	ModeDry  ACMode = "dry"
)

// Modes lists every ACMode in display order.
func Modes() []ACMode {
	return []ACMode{ModeHeat, ModeCool, ModeDry}
}

// Valid reports whether m is a known mode.
func (m ACMode) Valid() bool {
	switch m {
	case ModeHeat, ModeCool, ModeDry:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown modes instead of keeping the raw string.
func (m *ACMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if !ACMode(s).Valid() {
		return fmt.Errorf("mode: unknown value %q", s)
	}
	*m = ACMode(s)
	return nil
}

// FanLevel is the fan speed of an air conditioner.
type FanLevel string

const (
	FanLow    FanLevel = "low"
	FanMedium FanLevel = "medium"
	FanHigh   FanLevel = "high"
	FanAuto   FanLevel = "auto"
)

// FanLevels lists every FanLevel in display order.
func FanLevels() []FanLevel {
	return []FanLevel{FanLow, FanMedium, FanHigh, FanAuto}
}

// Valid reports whether f is a known fan level.
func (f FanLevel) Valid() bool {
	switch f {
	case FanLow, FanMedium, FanHigh, FanAuto:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown fan levels instead of keeping the raw string.
func (f *FanLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("fanLevel: %w", err)
	}
	if !FanLevel(s).Valid() {
		return fmt.Errorf("fanLevel: unknown value %q", s)
	}
	*f = FanLevel(s)
	return nil
}

// ACState is the operating state of one air conditioner. The JSON tags are
// the wire names used by the API.
type ACState struct {
	IsPowerOn  bool     `json:"on"`
	FanLevel   FanLevel `json:"fanLevel"`
	TempUnit   string   `json:"temperatureUnit"` // Server-defined unit code, e.g. "C"
	TempDegree int      `json:"targetTemperature"`
	ACMode     ACMode   `json:"mode"`
}

// UnmarshalJSON requires every field to be present with the right type.
func (s *ACState) UnmarshalJSON(data []byte) error {
	var wire struct {
		On                *bool     `json:"on"`
		FanLevel          *FanLevel `json:"fanLevel"`
		TemperatureUnit   *string   `json:"temperatureUnit"`
		TargetTemperature *int      `json:"targetTemperature"`
		Mode              *ACMode   `json:"mode"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("acState: %w", err)
	}

	switch {
	case wire.On == nil:
		return missingField("acState.on")
	case wire.FanLevel == nil:
		return missingField("acState.fanLevel")
	case wire.TemperatureUnit == nil:
		return missingField("acState.temperatureUnit")
	case wire.TargetTemperature == nil:
		return missingField("acState.targetTemperature")
	case wire.Mode == nil:
		return missingField("acState.mode")
	}

	*s = ACState{
		IsPowerOn:  *wire.On,
		FanLevel:   *wire.FanLevel,
		TempUnit:   *wire.TemperatureUnit,
		TempDegree: *wire.TargetTemperature,
		ACMode:     *wire.Mode,
	}
	return nil
}

// Validate checks the state before it is written to the server.
func (s ACState) Validate() error {
	if !s.ACMode.Valid() {
		return fmt.Errorf("invalid mode %q (must be one of %s)", s.ACMode, joinModes())
	}
	if !s.FanLevel.Valid() {
		return fmt.Errorf("invalid fan level %q (must be one of %s)", s.FanLevel, joinFanLevels())
	}
	if s.TempDegree < MinTemperature || s.TempDegree > MaxTemperature {
		return fmt.Errorf("target temperature %d out of range (%d-%d)", s.TempDegree, MinTemperature, MaxTemperature)
	}
	if strings.TrimSpace(s.TempUnit) == "" {
		return fmt.Errorf("temperature unit must not be empty")
	}
	return nil
}

// Room is the room a pod is installed in.
type Room struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// UnmarshalJSON requires the room name.
func (r *Room) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name *string `json:"name"`
		Icon *string `json:"icon"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("room: %w", err)
	}
	if wire.Name == nil {
		return missingField("room.name")
	}
	*r = Room{Name: *wire.Name}
	if wire.Icon != nil {
		r.Icon = *wire.Icon
	}
	return nil
}

// ConnectionStatus reports whether a pod is reachable by the cloud.
type ConnectionStatus struct {
	IsAlive            bool
	LastSeenSecondsAgo int
	LastSeenTimestamp  string
}

type wireLastSeen struct {
	SecondsAgo *int    `json:"secondsAgo"`
	Time       *string `json:"time"`
}

type wireConnectionStatus struct {
	IsAlive  *bool         `json:"isAlive"`
	LastSeen *wireLastSeen `json:"lastSeen"`
}

// MarshalJSON writes the nested wire shape.
func (c ConnectionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireConnectionStatus{
		IsAlive: &c.IsAlive,
		LastSeen: &wireLastSeen{
			SecondsAgo: &c.LastSeenSecondsAgo,
			Time:       &c.LastSeenTimestamp,
		},
	})
}

// UnmarshalJSON flattens {"isAlive", "lastSeen": {"secondsAgo", "time"}}.
func (c *ConnectionStatus) UnmarshalJSON(data []byte) error {
	var wire wireConnectionStatus
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("connectionStatus: %w", err)
	}

	switch {
	case wire.IsAlive == nil:
		return missingField("connectionStatus.isAlive")
	case wire.LastSeen == nil:
		return missingField("connectionStatus.lastSeen")
	case wire.LastSeen.SecondsAgo == nil:
		return missingField("connectionStatus.lastSeen.secondsAgo")
	case wire.LastSeen.Time == nil:
		return missingField("connectionStatus.lastSeen.time")
	}

	*c = ConnectionStatus{
		IsAlive:            *wire.IsAlive,
		LastSeenSecondsAgo: *wire.LastSeen.SecondsAgo,
		LastSeenTimestamp:  *wire.LastSeen.Time,
	}
	return nil
}

// Device is a Sensibo pod and the state of the air conditioner it drives.
type Device struct {
	ID               string           `json:"id"`
	Room             Room             `json:"room"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus"`
	ACState          ACState          `json:"acState"`
}

// Name is the display name of the device.
func (d Device) Name() string {
	return d.Room.Name
}

// UnmarshalJSON requires id, room, connectionStatus and acState.
func (d *Device) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID               *string           `json:"id"`
		Room             *Room             `json:"room"`
		ConnectionStatus *ConnectionStatus `json:"connectionStatus"`
		ACState          *ACState          `json:"acState"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("device: %w", err)
	}

	switch {
	case wire.ID == nil:
		return missingField("id")
	case wire.Room == nil:
		return missingField("room")
	case wire.ConnectionStatus == nil:
		return missingField("connectionStatus")
	case wire.ACState == nil:
		return missingField("acState")
	}

	*d = Device{
		ID:               *wire.ID,
		Room:             *wire.Room,
		ConnectionStatus: *wire.ConnectionStatus,
		ACState:          *wire.ACState,
	}
	return nil
}

// MutationResponse is returned by every AC state read and write. Its ACState
// is the authoritative state after the call.
type MutationResponse struct {
	Status  string  `json:"status"`
	Reason  string  `json:"reason"`
	ACState ACState `json:"acState"`
}

// UnmarshalJSON requires status and acState; reason may be absent or null.
func (m *MutationResponse) UnmarshalJSON(data []byte) error {
	var wire struct {
		Status  *string  `json:"status"`
		Reason  *string  `json:"reason"`
		ACState *ACState `json:"acState"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("mutation: %w", err)
	}

	switch {
	case wire.Status == nil:
		return missingField("status")
	case wire.ACState == nil:
		return missingField("acState")
	}

	*m = MutationResponse{Status: *wire.Status, ACState: *wire.ACState}
	if wire.Reason != nil {
		m.Reason = *wire.Reason
	}
	return nil
}

// Property names a single AC state field that can be written on its own.
// The value is the field's wire name, which is also the URL path segment.
type Property string

const (
	PropertyOn                Property = "on"
	PropertyFanLevel          Property = "fanLevel"
	PropertyTemperatureUnit   Property = "temperatureUnit"
	PropertyTargetTemperature Property = "targetTemperature"
	PropertyMode              Property = "mode"
)

// Properties lists every writable property.
func Properties() []Property {
	return []Property{
		PropertyOn,
		PropertyFanLevel,
		PropertyTemperatureUnit,
		PropertyTargetTemperature,
		PropertyMode,
	}
}

// Valid reports whether p is a known property.
func (p Property) Valid() bool {
	for _, known := range Properties() {
		if p == known {
			return true
		}
	}
	return false
}

// Field returns the ACState field the property maps to.
func (p Property) Field() string {
	switch p {
	case PropertyOn:
		return "IsPowerOn"
	case PropertyFanLevel:
		return "FanLevel"
	case PropertyTemperatureUnit:
		return "TempUnit"
	case PropertyTargetTemperature:
		return "TempDegree"
	case PropertyMode:
		return "ACMode"
	}
	return ""
}

// ParseProperty converts a wire name to a Property.
func ParseProperty(s string) (Property, error) {
	p := Property(s)
	if !p.Valid() {
		return "", NewParamsError(fmt.Sprintf("unknown property %q", s), nil)
	}
	return p, nil
}

// NormalizeValue checks that v has the right type for the property and
// returns it in the form written to the wire.
func (p Property) NormalizeValue(v any) (any, error) {
	switch p {
	case PropertyOn:
		if b, ok := v.(bool); ok {
			return b, nil
		}

	case PropertyFanLevel:
		var f FanLevel
		switch val := v.(type) {
		case FanLevel:
			f = val
		case string:
			f = FanLevel(val)
		default:
			return nil, wrongType(p, v)
		}
		if !f.Valid() {
			return nil, NewParamsError(fmt.Sprintf("invalid fan level %q (must be one of %s)", f, joinFanLevels()), nil)
		}
		return string(f), nil

	case PropertyMode:
		var m ACMode
		switch val := v.(type) {
		case ACMode:
			m = val
		case string:
			m = ACMode(val)
		default:
			return nil, wrongType(p, v)
		}
		if !m.Valid() {
			return nil, NewParamsError(fmt.Sprintf("invalid mode %q (must be one of %s)", m, joinModes()), nil)
		}
		return string(m), nil

	case PropertyTemperatureUnit:
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s, nil
		}

	case PropertyTargetTemperature:
		t, ok := asInt(v)
		if !ok {
			return nil, wrongType(p, v)
		}
		if t < MinTemperature || t > MaxTemperature {
			return nil, NewParamsError(fmt.Sprintf("target temperature %d out of range (%d-%d)", t, MinTemperature, MaxTemperature), nil)
		}
		return t, nil

	default:
		return nil, NewParamsError(fmt.Sprintf("unknown property %q", p), nil)
	}

	return nil, wrongType(p, v)
}

// ParseValue converts command-line text to a value for the property.
func (p Property) ParseValue(s string) (any, error) {
	switch p {
	case PropertyOn:
		b, err := strconv.ParseBool(s)
		if err != nil {
			switch strings.ToLower(s) {
			case "on":
				return true, nil
			case "off":
				return false, nil
			}
			return nil, NewParamsError(fmt.Sprintf("invalid value %q for %s (use on/off or true/false)", s, p), err)
		}
		return b, nil

	case PropertyTargetTemperature:
		t, err := strconv.Atoi(s)
		if err != nil {
			return nil, NewParamsError(fmt.Sprintf("invalid value %q for %s (must be an integer)", s, p), err)
		}
		return p.NormalizeValue(t)

	case PropertyFanLevel, PropertyMode, PropertyTemperatureUnit:
		return p.NormalizeValue(s)
	}

	return nil, NewParamsError(fmt.Sprintf("unknown property %q", p), nil)
}

// With returns a copy of s with the property set to v.
func (s ACState) With(p Property, v any) (ACState, error) {
	norm, err := p.NormalizeValue(v)
	if err != nil {
		return s, err
	}

	switch p {
	case PropertyOn:
		s.IsPowerOn = norm.(bool)
	case PropertyFanLevel:
		s.FanLevel = FanLevel(norm.(string))
	case PropertyTemperatureUnit:
		s.TempUnit = norm.(string)
	case PropertyTargetTemperature:
		s.TempDegree = norm.(int)
	case PropertyMode:
		s.ACMode = ACMode(norm.(string))
	}
	return s, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

func wrongType(p Property, v any) error {
	return NewParamsError(fmt.Sprintf("value of type %T is not valid for %s", v, p), nil)
}

func missingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

func joinModes() string {
	names := make([]string, 0, len(Modes()))
	for _, m := range Modes() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

func joinFanLevels() string {
	names := make([]string, 0, len(FanLevels()))
	for _, f := range FanLevels() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

package sensibo

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// Title returns s with its first letter upper-cased ("cool" -> "Cool").
func Title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PowerLabel returns "On" or "Off".
func (s ACState) PowerLabel() string {
	if s.IsPowerOn {
		return "On"
	}
	return "Off"
}

// TemperatureLabel returns the target temperature with its unit, e.g. "24°C".
func (s ACState) TemperatureLabel() string {
	return fmt.Sprintf("%d°%s", s.TempDegree, s.TempUnit)
}

// Summary returns a one-line summary of the AC state
func (s ACState) Summary() string {
	return fmt.Sprintf("%s %s, %s, fan %s", s.TemperatureLabel(), s.PowerLabel(), Title(string(s.ACMode)), s.FanLevel)
}

// StatusLabel returns "Online" or "Offline".
func (c ConnectionStatus) StatusLabel() string {
	if c.IsAlive {
		return "Online"
	}
	return "Offline"
}

// Summary returns a one-line summary of the device
func (d Device) Summary() string {
	return fmt.Sprintf("%s (%s) %s: %s", d.Name(), d.ID, d.ConnectionStatus.StatusLabel(), d.ACState.Summary())
}

// FormatCompact returns a compact multi-line format suitable for terminal display
func (d Device) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Device: %s (%s)\n", d.Name(), d.ID))
	b.WriteString(fmt.Sprintf("Status: %s\n", d.ConnectionStatus.StatusLabel()))
	b.WriteString(fmt.Sprintf("State:  %s\n", d.ACState.Summary()))

	return b.String()
}

// FormatACState returns a formatted block with every AC state field
func (s ACState) FormatACState() string {
	var b strings.Builder

	b.WriteString("=== AC State ===\n")
	b.WriteString(fmt.Sprintf("Power:       %s\n", s.PowerLabel()))
	b.WriteString(fmt.Sprintf("Mode:        %s\n", Title(string(s.ACMode))))
	b.WriteString(fmt.Sprintf("Fan Level:   %s\n", Title(string(s.FanLevel))))
	b.WriteString(fmt.Sprintf("Temperature: %s\n", s.TemperatureLabel()))

	return b.String()
}

// FormatDetailed returns every field of the device
func (d Device) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Device ===\n")
	b.WriteString(fmt.Sprintf("Name:      %s\n", d.Name()))
	b.WriteString(fmt.Sprintf("ID:        %s\n", d.ID))
	if d.Room.Icon != "" {
		b.WriteString(fmt.Sprintf("Room Icon: %s\n", d.Room.Icon))
	}
	b.WriteString("\n")

	b.WriteString("=== Connection ===\n")
	b.WriteString(fmt.Sprintf("Status:    %s\n", d.ConnectionStatus.StatusLabel()))
	b.WriteString(fmt.Sprintf("Last Seen: %s (%ds ago)\n", d.ConnectionStatus.LastSeenTimestamp, d.ConnectionStatus.LastSeenSecondsAgo))
	b.WriteString("\n")

	b.WriteString(d.ACState.FormatACState())

	return b.String()
}

// FormatDeviceTable renders devices as an aligned table. nicknames may be nil.
func FormatDeviceTable(devices []Device, nicknames map[string]string) string {
	if len(devices) == 0 {
		return "No devices found.\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPOWER\tMODE\tFAN\tTARGET")
	for _, d := range devices {
		name := d.Name()
		if nick := nicknames[d.ID]; nick != "" {
			name = fmt.Sprintf("%s (%s)", nick, d.Name())
		}
		s := d.ACState
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, name, d.ConnectionStatus.StatusLabel(), s.PowerLabel(),
			s.ACMode, s.FanLevel, s.TemperatureLabel())
	}
	_ = w.Flush()

	return b.String()
}

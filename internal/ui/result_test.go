package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestParseHint(t *testing.T) {
	summary, tips := ParseHint("The Sensibo server did not respond in time.\nTroubleshooting:\n  • Check your internet connection\n  • Try again in a moment")

	assert.Equal(t, "The Sensibo server did not respond in time.", summary)
	assert.Equal(t, []string{"Check your internet connection", "Try again in a moment"}, tips)

	summary, tips = ParseHint("The pod was not found.")
	assert.Equal(t, "The pod was not found.", summary)
	assert.Empty(t, tips)
}

func TestRenderSuccess_KeepsDetailOrder(t *testing.T) {
	out := NewSuccessResult("Power set",
		Detail{Key: "Device", Value: "Bedroom"},
		Detail{Key: "State", Value: "22°C On"},
	).SetWidth(80).Render()

	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "Power set")
	device := strings.Index(out, "Bedroom")
	state := strings.Index(out, "22°C On")
	assert.True(t, device >= 0 && state > device, "details render in order")
}

func TestRenderFailure(t *testing.T) {
	out := NewFailureResult("Could not set temperature", "The request timed out",
		"The Sensibo server did not respond in time.\nTroubleshooting:\n  • Try again in a moment").
		SetWidth(80).Render()

	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "Error: The request timed out")
	assert.Contains(t, out, "Troubleshooting:")
	assert.Contains(t, out, "Try again in a moment")
}

func TestResultWidthFloor(t *testing.T) {
	r := NewWarningResult("Offline").AddDetail("Device", "d1").SetWidth(10)
	for _, line := range strings.Split(r.String(), "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), MinTerminalWidth)
	}
}

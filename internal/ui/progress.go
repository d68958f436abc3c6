package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Progress bar block characters.
const (
	progressFilled = '▰'
	progressEmpty  = '▱'
)

// RenderUsageBar renders a bracketless bar coloured by t: ▰▰▰▰▱▱▱▱  50%.
func RenderUsageBar(percent float64, width int, t Thresholds) string {
	if width <= 0 {
		return ""
	}
	percent = clampPercent(percent)
	return lipgloss.NewStyle().Foreground(t.Color(percent)).Render(blocks(percent, width)) +
		fmt.Sprintf(" %3.0f%%", percent)
}

func blocks(percent float64, width int) string {
	filled := int((percent / 100.0) * float64(width))
	return strings.Repeat(string(progressFilled), filled) +
		strings.Repeat(string(progressEmpty), width-filled)
}

func clampPercent(p float64) float64 {
	return max(0, min(p, 100))
}

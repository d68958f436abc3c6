package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// Thresholds are the percentages at which a metric turns warning and
// critical.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds colour 0-60% green, 60-80% amber, 80%+ red.
var DefaultThresholds = Thresholds{Warning: 60, Critical: 80}

// Color returns the colour for a percentage.
func (t Thresholds) Color(percent float64) lipgloss.Color {
	switch {
	case percent >= t.Critical:
		return ColorError
	case percent >= t.Warning:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// RenderSparkline draws the most recent width values scaled to their own
// min/max range, coloured by the last value.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	return renderSparkline(data, minVal, maxVal, DefaultThresholds)
}

// RenderPercentSparkline draws percentages on a fixed 0-100 scale so two
// sparklines are visually comparable.
func RenderPercentSparkline(data []float64, width int, t Thresholds) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}
	return renderSparkline(data, 0, 100, t)
}

func renderSparkline(data []float64, minVal, maxVal float64, t Thresholds) string {
	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		level := numLevels / 2
		if valueRange != 0 {
			normalized := (v - minVal) / valueRange
			level = int(normalized * float64(numLevels-1))
			level = max(0, min(level, numLevels-1))
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	return lipgloss.NewStyle().Foreground(t.Color(data[len(data)-1])).Render(sb.String())
}


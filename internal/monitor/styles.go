package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/aidash/internal/ui"
)

// Dashboard palette. Backgrounds are darker than the CLI's so cards read
// as panels on the terminal background.
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = ui.ColorSuccess
	ColorWarning  = ui.ColorWarning
	ColorCritical = ui.ColorError

	ColorTextPrimary   = ui.ColorPrimary
	ColorTextSecondary = ui.ColorSecondary
	ColorTextMuted     = ui.ColorMuted

	ColorAccent    = ui.ColorNeonPink
	ColorAccentDim = ui.ColorNeonPurple

	ColorGraph = lipgloss.Color("#00FFFF")
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ServerStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ServerSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	ServerInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted)

	SidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1)

	// Banners sit between the header and the cards.
	BannerErrorStyle = lipgloss.NewStyle().
				Foreground(ColorCritical).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorCritical).
				PaddingLeft(1)

	BannerWarningStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorWarning).
				PaddingLeft(1)

	BannerInfoStyle = lipgloss.NewStyle().
			Foreground(ColorGraph).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorGraph).
			PaddingLeft(1)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(ColorDarkBg).
			Background(ColorAccent).
			Bold(true).
			Padding(0, 1)

	LiveStyle   = lipgloss.NewStyle().Foreground(ColorHealthy)
	PausedStyle = lipgloss.NewStyle().Foreground(ColorWarning)
)

// MetricColor returns the threshold colour for a percentage.
func MetricColor(percent float64, t ui.Thresholds) lipgloss.Color {
	return t.Color(percent)
}

// MetricStyle returns a foreground style in the threshold colour.
func MetricStyle(percent float64, t ui.Thresholds) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent, t))
}

// ProgressBar renders a bracketless bar coloured by threshold.
func ProgressBar(width int, percent float64, t ui.Thresholds) string {
	if width < 1 {
		width = 1
	}
	clamped := min(max(percent, 0), 100)

	filled := min(int(clamped/100.0*float64(width)), width)
	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return lipgloss.NewStyle().Foreground(MetricColor(percent, t)).Render(bar)
}

// SectionHeader renders a section header with the title on the left and value on the right.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	// "╭─ " + title + " " on the left, " " + value + " ╮" on the right
	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}
	middle := strings.Repeat("─", fillWidth)

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+middle+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	return borderStyle.Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders a content line with left and right borders, padded to width.
// Format: │ content                                              │
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	innerWidth := width - 4

	padding := innerWidth - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}

	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}

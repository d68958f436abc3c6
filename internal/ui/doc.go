// Package ui provides terminal UI components for aidash's CLI output and
// the monitor dashboard.
//
// # Components Overview
//
//	Spinner          - Animated status line for one-shot requests
//	Sparkline        - Mini graphs for metric history
//	Usage bars       - Percentage bars with colour thresholds
//	Tables           - Server table and notification list
//	Formatting       - Byte sizes, rates, percentages and relative times
//
// # Color Scheme
//
// Colors are hex values from a neon palette; lipgloss downsamples them for
// the terminal's profile:
//
//	ColorSuccess   (green)  - Healthy values, successful operations
//	ColorError     (red)    - Failures and critical values
//	ColorWarning   (amber)  - Warnings and elevated values
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text, timestamps
//
// ApplyColorMode maps the output.color setting onto lipgloss. DisableColors
// forces monochrome output.
//
// # Thresholds
//
// Usage bars and sparklines colour by Thresholds; DefaultThresholds turn
// amber at 60% and red at 80%:
//
//	ui.RenderUsageBar(67.5, 20, ui.DefaultThresholds)  // ▰▰▰▰▰▰▰▰▰▰▰▰▰▱▱▱▱▱▱▱  68%
//	ui.RenderPercentSparkline(history, 30, ui.DefaultThresholds)
package ui

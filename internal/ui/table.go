package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorGlassBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Bold(false)

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string for CLI output.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	return NewTable(columns, tableRows).View()
}

// ServerTableRow is one line of 'aidash servers'.
type ServerTableRow struct {
	Active    bool
	Slug      string
	Name      string
	Hostname  string
	LastSeen  string
	Snapshots string
}

// RenderServerTable renders the registered servers, marking selected.
func RenderServerTable(rows []ServerTableRow, selected string) string {
	if len(rows) == 0 {
		return "No servers registered"
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorGlassBorder)

	var b strings.Builder
	b.WriteString(headerStyle.Render("  " +
		padRight("SLUG", 18) + padRight("NAME", 22) + padRight("HOST", 24) +
		padRight("LAST SEEN", 18) + "SNAPSHOTS"))
	b.WriteString("\n")

	for _, row := range rows {
		icon := SuccessStyle().Render(SymbolComplete)
		if !row.Active {
			icon = MutedStyle().Render(SymbolPending)
		}

		slug := row.Slug
		if row.Slug == selected {
			slug = lipgloss.NewStyle().Bold(true).Render(row.Slug + " *")
		}

		b.WriteString(icon + " " +
			padRight(slug, 18) +
			padRight(Truncate(row.Name, 21), 22) +
			padRight(Truncate(row.Hostname, 23), 24) +
			padRight(MutedStyle().Render(row.LastSeen), 18) +
			MutedStyle().Render(row.Snapshots))
		b.WriteString("\n")
	}

	return b.String()
}

// NotificationRow is one entry of the notification feed.
type NotificationRow struct {
	Level   string // "critical", "warning" or "info"
	Title   string
	Message string
	Server  string
	When    string
	Unread  bool
}

// RenderNotificationList renders the feed as a compact list, width cells wide.
func RenderNotificationList(rows []NotificationRow, width int) string {
	if len(rows) == 0 {
		return MutedStyle().Render("No notifications")
	}
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for _, row := range rows {
		marker := " "
		titleStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
		if row.Unread {
			marker = lipgloss.NewStyle().Foreground(ColorNeonPink).Render(SymbolUnread)
			titleStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
		}

		meta := row.When
		if row.Server != "" {
			meta = row.Server + " · " + meta
		}

		b.WriteString(marker + " " + LevelStyle(row.Level).Render(levelTag(row.Level)) + " " +
			titleStyle.Render(Truncate(row.Title, max(10, width-len(meta)-14))) + "  " +
			MutedStyle().Render(meta))
		b.WriteString("\n")
		if row.Message != "" {
			b.WriteString("      " + MutedStyle().Render(Truncate(row.Message, max(10, width-6))))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// LevelStyle colours a notification level.
func LevelStyle(level string) lipgloss.Style {
	switch level {
	case "critical":
		return ErrorStyle().Bold(true)
	case "warning":
		return WarningStyle()
	default:
		return InfoStyle()
	}
}

func levelTag(level string) string {
	switch level {
	case "critical":
		return "CRIT"
	case "warning":
		return "WARN"
	default:
		return "INFO"
	}
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}

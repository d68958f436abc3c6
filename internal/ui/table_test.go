package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"
)

func TestNewTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "SLUG", Width: 10},
		{Title: "NAME", Width: 20},
	}
	rows := []table.Row{
		{"gpu-01", "GPU box"},
		{"web", "Web"},
	}

	tbl := NewTable(columns, rows)
	assert.Len(t, tbl.Columns(), 2)
	assert.Len(t, tbl.Rows(), 2)

	view := stripANSI(tbl.View())
	assert.Contains(t, view, "SLUG")
	assert.Contains(t, view, "gpu-01")
}

func TestRenderSimpleTable(t *testing.T) {
	assert.Empty(t, RenderSimpleTable([]TableColumn{{Title: "A", Width: 3}}, nil))

	out := stripANSI(RenderSimpleTable([]TableColumn{{Title: "KEY", Width: 10}, {Title: "VALUE", Width: 10}},
		[][]string{{"api.url", "x"}}))
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "api.url")
}

func TestRenderServerTable(t *testing.T) {
	assert.Equal(t, "No servers registered", RenderServerTable(nil, ""))

	rows := []ServerTableRow{
		{Active: true, Slug: "gpu-01", Name: "GPU box", Hostname: "gpu01.lan", LastSeen: "2 minutes ago", Snapshots: "1,204"},
		{Active: false, Slug: "old", Name: "Retired", Hostname: "old.lan", LastSeen: "never", Snapshots: "0"},
	}
	out := stripANSI(RenderServerTable(rows, "gpu-01"))

	assert.Contains(t, out, "SLUG")
	assert.Contains(t, out, "gpu-01 *")
	assert.NotContains(t, out, "old *")
	assert.Contains(t, out, SymbolPending, "inactive servers are marked")
	assert.Contains(t, out, "1,204")
}

func TestRenderNotificationList(t *testing.T) {
	assert.Contains(t, RenderNotificationList(nil, 80), "No notifications")

	rows := []NotificationRow{
		{Level: "critical", Title: "GPU temperature", Message: "GPU0 at 92°C", Server: "gpu-01", When: "1 minute ago", Unread: true},
		{Level: "info", Title: "Agent updated", When: "1 hour ago"},
	}
	out := stripANSI(RenderNotificationList(rows, 80))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], SymbolUnread)
	assert.Contains(t, lines[0], "CRIT")
	assert.Contains(t, lines[0], "gpu-01 · 1 minute ago")
	assert.Contains(t, lines[1], "GPU0 at 92°C")
	assert.Contains(t, lines[2], "INFO")
	assert.NotContains(t, lines[2], SymbolUnread)
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"abc", 6, "abc   "},
		{"abcdef", 3, "abcdef"},
		{"", 2, "  "},
		{SuccessStyle().Render("ok"), 4, SuccessStyle().Render("ok") + "  "},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, padRight(tt.input, tt.width))
		})
	}
}

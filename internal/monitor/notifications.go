package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/ui"
)

// NotificationRows converts feed items to list rows in feed order, with
// timestamps relative to now.
func NotificationRows(items []api.NotificationItem, now time.Time) []ui.NotificationRow {
	rows := make([]ui.NotificationRow, 0, len(items))
	for _, item := range items {
		row := ui.NotificationRow{
			Level:   item.Level,
			Title:   item.Title,
			Message: item.Message,
			When:    ui.FormatAgo(item.CreatedAt, now),
			Unread:  !item.IsRead,
		}
		if item.Server != nil {
			row.Server = item.Server.DisplayName()
		}
		rows = append(rows, row)
	}
	return rows
}

// updateFeedViewportContent re-renders the feed into the scrollable viewport.
func (m *Model) updateFeedViewportContent() {
	if !m.viewportReady {
		return
	}
	m.feedViewport.SetContent(m.renderFeed())
}

func (m Model) renderFeed() string {
	switch {
	case m.feed.Unavailable && m.feed.Error != nil:
		return BannerWarningStyle.Render(fmt.Sprintf("%s Notifications are unavailable: %s",
			ui.SymbolWarning, m.feed.Error.Message))
	case m.feed.Items == nil && m.feed.LastSuccessAt.IsZero():
		return m.spinner.View() + LabelStyle.Render(" Loading notifications...")
	}
	return ui.RenderNotificationList(NotificationRows(m.feed.Items, m.clock), max(m.width-2, 40))
}

// renderNotificationsView renders the full-screen notification feed.
func (m Model) renderNotificationsView() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("Notifications")
	summary := LabelStyle.Render(fmt.Sprintf(" | %d unread | updated %s",
		m.feed.UnreadCount, ui.FormatAgo(m.feed.LastSuccessAt, m.clock)))
	b.WriteString(HeaderStyle.Render(title + summary))
	b.WriteString("\n")
	if m.flash != "" {
		b.WriteString(BannerInfoStyle.Render(m.flash))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.viewportReady {
		b.WriteString(m.feedViewport.View())
	} else {
		b.WriteString(m.renderFeed())
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render(strings.Join([]string{"j/k scroll", "m mark all read", "n/Esc back", "q quit"}, " | ")))
	return b.String()
}

package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/ui"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if banners := m.renderBanners(); banners != "" {
		b.WriteString(banners)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderBody())

	if m.ShowFooter() {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	return b.String()
}

// renderHeader renders the title line: server, window, live state, last
// update and the unread badge.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("aidash")

	parts := []string{}
	if sel := m.state.SelectedServer; sel != nil {
		parts = append(parts, sel.DisplayName())
	}
	parts = append(parts, WindowLabel(m.state.Params.Minutes))
	parts = append(parts, "updated "+ui.FormatAgo(m.state.LastLatestSuccessAt, m.clock))
	if m.backend != "" && m.LayoutMode() >= LayoutStandard {
		parts = append(parts, m.backend)
	}

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(" | " + strings.Join(parts, " | "))

	header := HeaderStyle.Render(title+stats) + " " + m.renderLiveIndicator()

	if m.notificationsVisible() && m.feed.UnreadCount > 0 {
		header += " " + BadgeStyle.Render(fmt.Sprintf("%s %d", ui.SymbolUnread, m.feed.UnreadCount))
	}
	return header
}

func (m Model) renderLiveIndicator() string {
	switch {
	case m.state.Refreshing:
		return m.spinner.View() + MutedStyle.Render(" refreshing")
	case m.state.Polling:
		return LiveStyle.Render(ui.SymbolLive + " live")
	default:
		return PausedStyle.Render(ui.SymbolPaused + " paused")
	}
}

// WindowLabel renders a history window, e.g. "1h" or "15m".
func WindowLabel(minutes int) string {
	switch {
	case minutes >= 60 && minutes%60 == 0:
		return fmt.Sprintf("%dh", minutes/60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// renderBanners renders auth, access and stale-data notices. Several can
// show at once; auth comes first because it explains the others.
func (m Model) renderBanners() string {
	var banners []string

	if m.state.AuthRequired {
		msg := "Sign in required. Live refresh is paused. Run 'aidash login'"
		if m.state.AuthLoginURL != "" {
			msg += " or sign in at " + m.state.AuthLoginURL
		}
		banners = append(banners, BannerErrorStyle.Render(ui.SymbolWarning+" "+msg))
	}

	if m.state.AccessDenied {
		banners = append(banners, BannerErrorStyle.Render(
			ui.SymbolWarning+" Access denied. Your account cannot view these metrics; live refresh is paused"))
	}

	if !m.state.AuthRequired && !m.state.AccessDenied {
		if err := m.state.Latest.Error; err != nil && m.state.Latest.HasData() {
			banners = append(banners, BannerWarningStyle.Render(fmt.Sprintf(
				"%s %s Showing data from %s.", ui.SymbolWarning, err.Message,
				ui.FormatAgo(m.state.LastLatestSuccessAt, m.clock))))
		}
		if err := m.state.History.Error; err != nil && m.state.History.HasData() {
			banners = append(banners, BannerWarningStyle.Render(fmt.Sprintf(
				"%s History: %s", ui.SymbolWarning, err.Message)))
		}
	}

	if m.flash != "" {
		banners = append(banners, BannerInfoStyle.Render(m.flash))
	}

	return strings.Join(banners, "\n")
}

// renderBody renders whichever of loading, error, empty and data states
// applies to the latest stream.
func (m Model) renderBody() string {
	latest := m.state.Latest

	switch {
	case m.state.InitialLoading:
		return m.spinner.View() + LabelStyle.Render(" Loading dashboard...")

	case latest.NotFound != nil:
		return m.withSidebar(m.renderNoData(latest.NotFound))

	case latest.Data != nil:
		return m.withSidebar(m.renderCards(&latest.Data.Snapshot))

	case latest.Error != nil:
		if m.state.AuthRequired || m.state.AccessDenied {
			return ""
		}
		return BannerErrorStyle.Render(ui.SymbolFail + " " + latest.Error.Message)

	default:
		return m.spinner.View() + LabelStyle.Render(" Waiting for data...")
	}
}

// renderNoData renders the empty state for a server without snapshots.
func (m Model) renderNoData(nf *api.NotFoundPayload) string {
	name := "This server"
	if sel := m.state.SelectedServer; sel != nil {
		name = sel.DisplayName()
	}
	lines := []string{
		ValueStyle.Render(ui.SymbolPending + " No data yet"),
		LabelStyle.Render(name + " has not reported any metrics."),
	}
	if nf.Error != "" {
		lines = append(lines, MutedStyle.Render(nf.Error))
	}
	return strings.Join(lines, "\n")
}

// withSidebar places the server list left of content on wide terminals.
func (m Model) withSidebar(content string) string {
	if m.LayoutMode() < LayoutStandard || len(m.state.Servers) < 2 {
		return content
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderServerList(), content)
}

// renderServerList renders the selectable server list.
func (m Model) renderServerList() string {
	selected := ""
	if sel := m.state.SelectedServer; sel != nil {
		selected = sel.Slug
	}

	lines := []string{LabelStyle.Render("SERVERS")}
	for _, s := range m.state.Servers {
		marker := "  "
		style := ServerStyle
		switch {
		case s.Slug == selected:
			marker = "▸ "
			style = ServerSelectedStyle
		case !s.IsActive:
			style = ServerInactiveStyle
		}
		lines = append(lines, style.Render(marker+ui.Truncate(s.DisplayName(), sidebarWidth-2)))
	}
	return SidebarStyle.Width(sidebarWidth).Render(strings.Join(lines, "\n"))
}

// sidebarWidth is the server list's content width.
const sidebarWidth = 22

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"r refresh",
		"j/k server",
		"t window",
		"l live",
	}
	if m.notes != nil {
		hints = append(hints, "n notifications", "m mark read")
	}
	hints = append(hints, "? help")

	return FooterStyle.Render(strings.Join(hints, " | "))
}

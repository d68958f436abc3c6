package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/aidash/internal/datasync"
	"github.com/rileyhilliard/aidash/internal/ui"
)

// LayoutMode represents the responsive layout mode based on terminal size.
type LayoutMode int

const (
	// LayoutMinimal is for terminals < 80 columns: single column, no graphs
	LayoutMinimal LayoutMode = iota
	// LayoutCompact is for terminals 80-120 columns: single column with graphs
	LayoutCompact
	// LayoutStandard is for terminals 120-160 columns: server sidebar, two card columns
	LayoutStandard
	// LayoutWide is for terminals 160+ columns: server sidebar, three card columns
	LayoutWide
)

// Width breakpoints for layout modes
const (
	BreakpointCompact  = 80
	BreakpointStandard = 120
	BreakpointWide     = 160
)

// HeightMinimal is the smallest height that still shows the footer.
const HeightMinimal = 24

// clockInterval drives "updated 5s ago" text between data changes.
const clockInterval = time.Second

// DashboardSource is what the model reads metrics from. *datasync.Dashboard
// satisfies it.
type DashboardSource interface {
	State() datasync.DashboardState
	SetParams(p datasync.Params)
	SetLive(live bool)
	RefreshAll(ctx context.Context, background bool)
	Updates() <-chan struct{}
}

// NotificationSource is what the model reads the notification feed from.
// *datasync.Notifications satisfies it.
type NotificationSource interface {
	State() datasync.NotificationsState
	Refresh(ctx context.Context) error
	MarkAllRead(ctx context.Context) int
	Updates() <-chan struct{}
}

// Options configures a Model.
type Options struct {
	Dashboard DashboardSource
	// Notifications is optional; without it the badge and feed are hidden.
	Notifications NotificationSource
	Backend       string
	Version       string
	Thresholds    ui.Thresholds
	Now           func() time.Time
}

// Model is the Bubble Tea model for the monitoring dashboard. It never
// fetches anything itself: the sync controllers own the data and the model
// re-reads their state when they signal an update.
type Model struct {
	ctx   context.Context
	dash  DashboardSource
	notes NotificationSource

	state datasync.DashboardState
	feed  datasync.NotificationsState

	backend    string
	version    string
	thresholds ui.Thresholds
	clock      time.Time

	width    int
	height   int
	viewMode ViewMode
	showHelp bool
	quitting bool
	flash    string

	spinner       spinner.Model
	feedViewport  viewport.Model
	viewportReady bool
}

// dashboardUpdateMsg signals that the dashboard state changed.
type dashboardUpdateMsg struct{}

// notificationsUpdateMsg signals that the notification feed changed.
type notificationsUpdateMsg struct{}

// tickMsg advances the clock used for relative timestamps.
type tickMsg time.Time

// markedReadMsg reports how many notifications a mark-all-read flipped.
type markedReadMsg struct{ count int }

// NewModel creates a dashboard model. ctx bounds the refreshes and
// mark-read requests the model issues on key presses.
func NewModel(ctx context.Context, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	thresholds := opts.Thresholds
	if thresholds == (ui.Thresholds{}) {
		thresholds = ui.DefaultThresholds
	}

	m := Model{
		ctx:        ctx,
		dash:       opts.Dashboard,
		notes:      opts.Notifications,
		backend:    opts.Backend,
		version:    opts.Version,
		thresholds: thresholds,
		clock:      now(),
		spinner:    ui.NewLoadingSpinner(),
	}
	m.state = m.dash.State()
	if m.notes != nil {
		m.feed = m.notes.State()
	}
	return m
}

// Init starts listening for state changes and the clock.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForUpdate(m.dash.Updates(), dashboardUpdateMsg{}),
		m.tickCmd(),
		m.spinner.Tick,
	}
	if m.notes != nil {
		cmds = append(cmds, waitForUpdate(m.notes.Updates(), notificationsUpdateMsg{}))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		if m.viewMode == ViewNotifications && m.viewportReady {
			var cmd tea.Cmd
			m.feedViewport, cmd = m.feedViewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// header, banner and footer
		viewportHeight := max(m.height-5, 1)
		if !m.viewportReady {
			m.feedViewport = viewport.New(m.width, viewportHeight)
			m.viewportReady = true
		} else {
			m.feedViewport.Width = m.width
			m.feedViewport.Height = viewportHeight
		}
		m.updateFeedViewportContent()

	case dashboardUpdateMsg:
		m.state = m.dash.State()
		return m, waitForUpdate(m.dash.Updates(), dashboardUpdateMsg{})

	case notificationsUpdateMsg:
		m.feed = m.notes.State()
		m.updateFeedViewportContent()
		return m, waitForUpdate(m.notes.Updates(), notificationsUpdateMsg{})

	case markedReadMsg:
		switch msg.count {
		case 0:
			m.flash = "No unread notifications"
		case 1:
			m.flash = "Marked 1 notification as read"
		default:
			m.flash = "Marked " + ui.FormatCount(int64(msg.count)) + " notifications as read"
		}
		m.feed = m.notes.State()
		m.updateFeedViewportContent()

	case tickMsg:
		m.clock = time.Time(msg)
		if m.viewMode == ViewNotifications {
			m.updateFeedViewportContent()
		}
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.viewMode == ViewNotifications {
		return m.renderNotificationsView()
	}
	return m.renderDashboard()
}

// waitForUpdate blocks on a coalescing update channel and turns the next
// signal into msg.
func waitForUpdate(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd forces a foreground refresh of every stream.
func (m Model) refreshCmd() tea.Cmd {
	ctx, dash, notes := m.ctx, m.dash, m.notes
	return func() tea.Msg {
		dash.RefreshAll(ctx, false)
		if notes != nil {
			_ = notes.Refresh(ctx)
		}
		return nil
	}
}

// markAllReadCmd flips every unread notification.
func (m Model) markAllReadCmd() tea.Cmd {
	ctx, notes := m.ctx, m.notes
	return func() tea.Msg {
		return markedReadMsg{count: notes.MarkAllRead(ctx)}
	}
}

// selectServer moves the selection delta places through the server list.
func (m *Model) selectServer(delta int) {
	servers := m.state.Servers
	if len(servers) == 0 {
		return
	}

	current := 0
	if sel := m.state.SelectedServer; sel != nil {
		for i, s := range servers {
			if s.Slug == sel.Slug {
				current = i
				break
			}
		}
	}
	next := min(max(current+delta, 0), len(servers)-1)
	if next == current && m.state.SelectedServer != nil {
		return
	}

	p := m.state.Params
	p.Server = servers[next].Slug
	m.dash.SetParams(p)
	m.state = m.dash.State()
}

// cycleWindow switches to the next history window.
func (m *Model) cycleWindow() {
	p := m.state.Params
	p.Minutes = datasync.NextWindow(p.Minutes)
	m.dash.SetParams(p)
	m.state = m.dash.State()
}

// toggleLive pauses or resumes periodic polling.
func (m *Model) toggleLive() {
	m.dash.SetLive(!m.state.Live)
	m.state = m.dash.State()
}

// LayoutMode returns the current layout mode based on terminal width.
func (m Model) LayoutMode() LayoutMode {
	switch {
	case m.width >= BreakpointWide:
		return LayoutWide
	case m.width >= BreakpointStandard:
		return LayoutStandard
	case m.width >= BreakpointCompact:
		return LayoutCompact
	default:
		return LayoutMinimal
	}
}

// ShowFooter returns true if the terminal is tall enough to show the footer.
func (m Model) ShowFooter() bool {
	return m.height == 0 || m.height >= HeightMinimal
}

// notificationsVisible reports whether the feed should be shown at all.
func (m Model) notificationsVisible() bool {
	return m.notes != nil && !m.feed.Unavailable
}

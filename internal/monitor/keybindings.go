package monitor

import tea "github.com/charmbracelet/bubbletea"

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewDashboard ViewMode = iota
	ViewNotifications
)

// Key bindings as constants for consistency.
const (
	KeyQuit          = "q"
	KeyQuitAlt       = "ctrl+c"
	KeyRefresh       = "r"
	KeySelectPrev    = "up"
	KeySelectPrevK   = "k"
	KeySelectNext    = "down"
	KeySelectNextJ   = "j"
	KeyCycleWindow   = "t"
	KeyToggleLive    = "l"
	KeyNotifications = "n"
	KeyMarkAllRead   = "m"
	KeyCollapse      = "esc"
	KeyToggleHelp    = "?"
)

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()
	m.flash = ""

	// Help toggle takes priority
	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	if m.viewMode == ViewNotifications && key == KeyCollapse {
		m.viewMode = ViewDashboard
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		return true, m.refreshCmd()

	case KeyNotifications:
		if m.notes == nil {
			return true, nil
		}
		if m.viewMode == ViewNotifications {
			m.viewMode = ViewDashboard
		} else {
			m.viewMode = ViewNotifications
			m.updateFeedViewportContent()
		}
		return true, nil

	case KeyMarkAllRead:
		if m.notes == nil {
			return true, nil
		}
		return true, m.markAllReadCmd()
	}

	// The remaining keys drive the dashboard; in the feed, arrows scroll.
	if m.viewMode != ViewDashboard {
		return false, nil
	}

	switch key {
	case KeySelectPrev, KeySelectPrevK:
		m.selectServer(-1)
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		m.selectServer(1)
		return true, nil

	case KeyCycleWindow:
		m.cycleWindow()
		return true, nil

	case KeyToggleLive:
		m.toggleLive()
		return true, nil
	}

	return false, nil
}

// Package monitor implements the live terminal dashboard for a monitored
// server.
//
// The dashboard shows CPU, memory, disk, network and GPU cards with braille
// graphs drawn from the history window, a server list, the backend's
// bottleneck guess and the notification feed.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View). The model
// owns no data: a datasync.Dashboard and an optional datasync.Notifications
// poll the backend and signal on their Updates channels. The model turns
// each signal into a message, re-reads State and renders it.
//
//	Model   - view state: selection, view mode, help, terminal size
//	Series  - chart values extracted from a history response
//
// # Message Flow
//
//  1. dashboardUpdateMsg / notificationsUpdateMsg arrive when a sync
//     controller changes state; the model re-reads State and re-arms the wait
//  2. tickMsg fires every second so relative timestamps stay current
//  3. key presses call SetParams, SetLive, RefreshAll or MarkAllRead on the
//     controllers; the resulting state change comes back as an update message
//
// # Layout Modes
//
//	LayoutMinimal  (<80 cols)  - single column, no graphs
//	LayoutCompact  (80-120)    - single column with graphs
//	LayoutStandard (120-160)   - server sidebar, two card columns
//	LayoutWide     (160+)      - server sidebar, three card columns
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	r           - Refresh now
//	j/k, ↑/↓    - Select server (scroll in the notification feed)
//	t           - Cycle history window (15m, 1h, 6h, 24h)
//	l           - Pause / resume live refresh
//	n           - Toggle notification feed
//	m           - Mark all notifications read
//	Esc         - Close / back
//	?           - Toggle help overlay
package monitor

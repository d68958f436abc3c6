package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/ui"
)

// Card layout constants
const (
	cardGraphHeight = 2  // braille graph rows
	cardMinWidth    = 34 // narrowest card that still fits a bar and label
	cardBarWidth    = 16
)

// renderCards renders the metric cards for a snapshot, followed by the
// bottleneck line.
func (m Model) renderCards(snap *api.MetricSnapshot) string {
	series := SeriesFrom(m.state.History.Data)
	width := m.cardWidth()

	cards := []string{
		m.renderCPUCard(snap.CPU, series.CPU, width),
		m.renderMemoryCard(snap.Memory, series.Memory, width),
		m.renderDiskCard(snap.Disk, series.DiskUtil, width),
		m.renderNetworkCard(snap.Network, series.Network, width),
	}
	if snap.GPU.Present {
		cards = append(cards, m.renderGPUCard(snap.GPU, series.GPU, width))
	}

	body := m.layoutCards(cards)
	if line := m.renderBottleneck(snap); line != "" {
		body += "\n" + line
	}
	return body
}

// cardWidth picks a card width from the layout mode.
func (m Model) cardWidth() int {
	available := m.width
	if m.LayoutMode() >= LayoutStandard && len(m.state.Servers) > 1 {
		available -= sidebarWidth + 5
	}

	switch m.LayoutMode() {
	case LayoutWide:
		return max(available/3-1, cardMinWidth)
	case LayoutStandard:
		return max(available/2-1, cardMinWidth)
	case LayoutCompact:
		return max(available-2, cardMinWidth)
	default:
		if m.width == 0 {
			return 44
		}
		return max(m.width-2, 20)
	}
}

// cardsPerRow returns how many cards fit on a row.
func (m Model) cardsPerRow() int {
	switch m.LayoutMode() {
	case LayoutWide:
		return 3
	case LayoutStandard:
		return 2
	default:
		return 1
	}
}

// layoutCards arranges cards in rows based on terminal width.
func (m Model) layoutCards(cards []string) string {
	perRow := m.cardsPerRow()

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rowCards := make([]string, 0, perRow)
		for _, c := range cards[i:end] {
			rowCards = append(rowCards, lipgloss.NewStyle().MarginRight(1).Render(c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rowCards...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// card assembles a bordered section with a title, headline value and body.
func card(title, value string, width int, body []string) string {
	lines := []string{SectionHeader(title, value, width)}
	for _, line := range body {
		lines = append(lines, SectionContentLine(line, width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// graphLines renders a braille graph when the layout has room for one.
func (m Model) graphLines(data []float64, width int, percent bool) []string {
	if m.LayoutMode() == LayoutMinimal && m.width != 0 {
		return nil
	}
	graph := RenderBrailleGraph(data, GraphOptions{
		Width:      width - 4,
		Height:     cardGraphHeight,
		Percent:    percent,
		Thresholds: m.thresholds,
	})
	if graph == "" {
		return []string{MutedStyle.Render("no history yet")}
	}
	return strings.Split(graph, "\n")
}

func percentValue(p float64, t ui.Thresholds) string {
	return MetricStyle(p, t).Render(fmt.Sprintf("%.1f%%", p))
}

func (m Model) renderCPUCard(cpu api.CPUMetrics, history []float64, width int) string {
	body := []string{
		ProgressBar(cardBarWidth, cpu.UsagePercent, m.thresholds) + " " + percentValue(cpu.UsagePercent, m.thresholds),
	}

	var details []string
	if cpu.Load1 != nil && cpu.Load5 != nil && cpu.Load15 != nil {
		details = append(details, fmt.Sprintf("load %.2f %.2f %.2f", *cpu.Load1, *cpu.Load5, *cpu.Load15))
	}
	if cpu.IOWaitPercent != nil {
		details = append(details, "iowait "+ui.FormatPercent(cpu.IOWaitPercent))
	}
	if cpu.CountLogical > 0 {
		details = append(details, fmt.Sprintf("%d cores", cpu.CountLogical))
	}
	if len(details) > 0 {
		body = append(body, LabelStyle.Render(strings.Join(details, "  ")))
	}

	body = append(body, m.graphLines(history, width, true)...)
	return card("CPU", fmt.Sprintf("%.0f%%", cpu.UsagePercent), width, body)
}

func (m Model) renderMemoryCard(mem api.MemoryMetrics, history []float64, width int) string {
	body := []string{
		ProgressBar(cardBarWidth, mem.Percent, m.thresholds) + " " + percentValue(mem.Percent, m.thresholds),
		LabelStyle.Render(fmt.Sprintf("%s / %s",
			ui.FormatBytes(int64(mem.UsedBytes)), ui.FormatBytes(int64(mem.TotalBytes)))),
	}
	if mem.SwapTotalBytes > 0 {
		body = append(body, LabelStyle.Render(fmt.Sprintf("swap %s / %s (%.0f%%)",
			ui.FormatBytes(int64(mem.SwapUsedBytes)), ui.FormatBytes(int64(mem.SwapTotalBytes)), mem.SwapPercent)))
	}

	body = append(body, m.graphLines(history, width, true)...)
	return card("MEMORY", fmt.Sprintf("%.0f%%", mem.Percent), width, body)
}

func (m Model) renderDiskCard(disk api.DiskMetrics, history []float64, width int) string {
	body := []string{
		ProgressBar(cardBarWidth, disk.UtilPercent, m.thresholds) + " " + percentValue(disk.UtilPercent, m.thresholds),
		LabelStyle.Render(fmt.Sprintf("read %s  write %s", ui.FormatRate(disk.ReadBps), ui.FormatRate(disk.WriteBps))),
	}
	if n := len(disk.Devices); n > 1 {
		body = append(body, MutedStyle.Render(fmt.Sprintf("%d devices, avg util %.0f%%", n, disk.AvgUtilPercent)))
	}

	body = append(body, m.graphLines(history, width, true)...)
	return card("DISK", fmt.Sprintf("%.0f%%", disk.UtilPercent), width, body)
}

func (m Model) renderNetworkCard(net api.NetworkMetrics, history []float64, width int) string {
	body := []string{
		LabelStyle.Render("↓ ") + ValueStyle.Render(ui.FormatRate(net.RxBps)) +
			LabelStyle.Render("  ↑ ") + ValueStyle.Render(ui.FormatRate(net.TxBps)),
	}
	if peak := Peak(history); peak > 0 {
		body = append(body, MutedStyle.Render("peak "+ui.FormatRate(peak)))
	}

	body = append(body, m.graphLines(history, width, false)...)
	return card("NETWORK", ui.FormatRate(net.RxBps+net.TxBps), width, body)
}

func (m Model) renderGPUCard(gpu api.GPUMetrics, history []float64, width int) string {
	var body []string
	for _, dev := range gpu.Devices {
		line := fmt.Sprintf("%d %s", dev.Index, ui.Truncate(dev.Name, 14))
		if dev.UtilizationGPUPercent != nil {
			line = padCell(line, 18) + " " + percentValue(*dev.UtilizationGPUPercent, m.thresholds)
		}
		if dev.TemperatureC != nil {
			line += MutedStyle.Render(fmt.Sprintf("  %.0f°C", *dev.TemperatureC))
		}
		if dev.MemoryTotalBytes > 0 {
			line += MutedStyle.Render(fmt.Sprintf("  %s/%s",
				ui.FormatBytes(int64(dev.MemoryUsedBytes)), ui.FormatBytes(int64(dev.MemoryTotalBytes))))
		}
		body = append(body, ui.Truncate(line, width-4))
	}

	value := ui.FormatPercent(gpu.TopUtilPercent)
	if gpu.Count > 1 {
		value = fmt.Sprintf("%d× %s", gpu.Count, value)
	}

	body = append(body, m.graphLines(history, width, true)...)
	return card("GPU", value, width, body)
}

// renderBottleneck renders the backend's bottleneck guess, if any.
func (m Model) renderBottleneck(snap *api.MetricSnapshot) string {
	b := snap.Bottleneck
	if b.Title == "" {
		return ""
	}

	line := LabelStyle.Render("Bottleneck: ") + ValueStyle.Render(b.Title)
	if b.Confidence > 0 {
		line += MutedStyle.Render(fmt.Sprintf(" (%.0f%%)", b.Confidence*100))
	}
	if b.Reason != "" {
		line += MutedStyle.Render(" · " + b.Reason)
	}
	return line
}

// padCell pads plain text to width cells.
func padCell(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/monitor"
	"github.com/rileyhilliard/aidash/internal/ui"
	"github.com/rileyhilliard/aidash/internal/util"
)

var (
	historyFlags SelectionFlags
	historyJSON  bool
)

// historyCmd summarizes recent history for one server
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Summarize recent metrics history for a server",
	Long: `Fetch the downsampled metrics history for a server and print the latest
value, peak and a sparkline trend for each metric.

Examples:
  aidash history
  aidash history --server gpu-01 --minutes 6h
  aidash history --minutes 1440 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return emit(cmd.OutOrStdout(), historyJSON, nil, err, nil)
		}
		return historyCommand(cmd.Context(), cmd.OutOrStdout(), cfg, historyFlags, historyJSON)
	},
}

func init() {
	AddSelectionFlags(historyCmd, &historyFlags, true)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(historyCmd)
}

// historyCommand implements the history command logic.
func historyCommand(ctx context.Context, w io.Writer, cfg *config.Config, flags SelectionFlags, asJSON bool) error {
	params, err := flags.Params(cfg)
	if err != nil {
		return emit(w, asJSON, nil, err, nil)
	}

	client, _, err := newClient(cfg)
	if err != nil {
		return emit(w, asJSON, nil, err, nil)
	}

	ctx, cancel := requestContext(ctx, cfg)
	defer cancel()

	resp, err := client.MetricsHistory(ctx, params.Server, params.Minutes)
	err = requestError(err, "Couldn't load metrics history")

	return emit(w, asJSON, resp, err, func() error {
		notice := selectionNotice(params.Server, resp.SelectedServer, resp.Servers)
		_, werr := fmt.Fprint(w, notice+renderHistory(resp, params.Minutes, ui.DefaultThresholds))
		return werr
	})
}

const trendWidth = 40

// renderHistory prints one row per metric: latest value, peak and trend.
func renderHistory(resp *api.HistoryResponse, minutes int, t ui.Thresholds) string {
	if resp == nil {
		return ""
	}
	if resp.Minutes > 0 {
		minutes = resp.Minutes
	}

	name := "unknown server"
	if resp.SelectedServer != nil {
		name = resp.SelectedServer.DisplayName()
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ui.ColorNeonCyan).Render(name))
	summary := fmt.Sprintf("  last %s  %s", monitor.WindowLabel(minutes), util.CountLabel(len(resp.Points), "point", "points"))
	if resp.Stride > 1 {
		summary += fmt.Sprintf(" (every %d samples)", resp.Stride)
	}
	b.WriteString(ui.MutedStyle().Render(summary))
	b.WriteString("\n\n")

	if len(resp.Points) == 0 {
		b.WriteString(ui.MutedStyle().Render("No history in this window yet") + "\n")
		return b.String()
	}

	series := monitor.SeriesFrom(resp)
	rows := []struct {
		name    string
		data    []float64
		percent bool
	}{
		{"CPU", series.CPU, true},
		{"Memory", series.Memory, true},
		{"Swap", series.Swap, true},
		{"Disk", series.DiskUtil, true},
		{"Network", series.Network, false},
		{"GPU", series.GPU, true},
	}

	cell := func(width int) lipgloss.Style { return lipgloss.NewStyle().Width(width) }
	header := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary)
	b.WriteString(header.Render(cell(9).Render("METRIC") + cell(12).Render("LAST") + cell(12).Render("PEAK") + "TREND"))
	b.WriteString("\n")

	for _, row := range rows {
		last, ok := monitor.Last(row.data)
		if !ok {
			continue
		}
		peak := monitor.Peak(row.data)

		var lastText, peakText, trend string
		if row.percent {
			lastText = fmt.Sprintf("%.1f%%", last)
			peakText = fmt.Sprintf("%.1f%%", peak)
			trend = ui.RenderPercentSparkline(row.data, trendWidth, t)
		} else {
			lastText = ui.FormatRate(last)
			peakText = ui.FormatRate(peak)
			trend = ui.RenderSparkline(row.data, trendWidth)
		}

		b.WriteString(cell(9).Foreground(ui.ColorSecondary).Render(row.name))
		b.WriteString(cell(12).Render(lastText))
		b.WriteString(cell(12).Render(peakText))
		b.WriteString(trend)
		b.WriteString("\n")
	}

	return b.String()
}


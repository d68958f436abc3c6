package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/ui"
)

var (
	snapshotFlags SelectionFlags
	snapshotJSON  bool
)

// snapshotCmd prints the newest metrics snapshot for one server
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Show the latest metrics for a server",
	Long: `Fetch the most recent metrics snapshot for a server and print it once.

Without --server the backend picks its default server (or dashboard.server
from your config).

Examples:
  aidash snapshot
  aidash snapshot --server gpu-01
  aidash snapshot --json | jq .data.snapshot.cpu`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return emit(cmd.OutOrStdout(), snapshotJSON, nil, err, nil)
		}
		return snapshotCommand(cmd.Context(), cmd.OutOrStdout(), cfg, snapshotFlags, snapshotJSON)
	},
}

func init() {
	AddSelectionFlags(snapshotCmd, &snapshotFlags, false)
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(snapshotCmd)
}

// snapshotCommand implements the snapshot command logic.
func snapshotCommand(ctx context.Context, w io.Writer, cfg *config.Config, flags SelectionFlags, asJSON bool) error {
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

	resp, err := client.MetricsLatest(ctx, params.Server)
	if err != nil {
		if n := api.Classify(err); n.IsKind(api.KindNotFound) {
			if payload := api.AsNotFoundPayload(n); payload != nil && !asJSON {
				_, werr := fmt.Fprint(w, renderNoData(params.Server, payload))
				return werr
			}
		}
	}
	err = requestError(err, "Couldn't load the latest snapshot")

	return emit(w, asJSON, resp, err, func() error {
		notice := selectionNotice(params.Server, resp.SelectedServer, resp.Servers)
		_, werr := fmt.Fprint(w, notice+renderSnapshot(resp, time.Now(), ui.DefaultThresholds))
		return werr
	})
}

// renderNoData explains a missing snapshot: either no server is registered
// or the selected one has not reported yet.
func renderNoData(requested string, p *api.NotFoundPayload) string {
	var b strings.Builder
	b.WriteString(selectionNotice(requested, p.SelectedServer, p.Servers))
	b.WriteString(ui.WarningStyle().Render(ui.SymbolWarning+" No data yet") + "\n")
	if p.SelectedServer != nil {
		b.WriteString(fmt.Sprintf("  %s has not reported any metrics.\n", p.SelectedServer.DisplayName()))
	}
	if p.Error != "" {
		b.WriteString(ui.MutedStyle().Render("  "+p.Error) + "\n")
	}
	return b.String()
}

const snapshotBarWidth = 20

// renderSnapshot formats a latest-metrics response for the terminal.
func renderSnapshot(resp *api.LatestResponse, now time.Time, t ui.Thresholds) string {
	if resp == nil {
		return ""
	}
	s := resp.Snapshot
	label := lipgloss.NewStyle().Foreground(ui.ColorSecondary).Width(9)

	var b strings.Builder

	name := "unknown server"
	switch {
	case resp.SelectedServer != nil:
		name = resp.SelectedServer.DisplayName()
	case s.Server != nil:
		name = s.Server.DisplayName()
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ui.ColorNeonCyan).Render(name))
	b.WriteString(ui.MutedStyle().Render("  collected " + ui.FormatAgo(s.CollectedAt, now)))
	b.WriteString("\n\n")

	var cpu string
	if s.CPU.Load1 != nil && s.CPU.Load5 != nil && s.CPU.Load15 != nil {
		cpu += fmt.Sprintf(" load %.2f %.2f %.2f", *s.CPU.Load1, *s.CPU.Load5, *s.CPU.Load15)
	}
	if s.CPU.CountLogical > 0 {
		cpu += fmt.Sprintf("  %d cores", s.CPU.CountLogical)
	}
	writeMetricLine(&b, label, "CPU", s.CPU.UsagePercent, cpu, t)

	mem := fmt.Sprintf(" %s / %s",
		ui.FormatBytes(int64(s.Memory.UsedBytes)), ui.FormatBytes(int64(s.Memory.TotalBytes)))
	writeMetricLine(&b, label, "Memory", s.Memory.Percent, mem, t)

	if s.Memory.SwapTotalBytes > 0 {
		swap := fmt.Sprintf(" %s / %s",
			ui.FormatBytes(int64(s.Memory.SwapUsedBytes)), ui.FormatBytes(int64(s.Memory.SwapTotalBytes)))
		writeMetricLine(&b, label, "Swap", s.Memory.SwapPercent, swap, t)
	}

	disk := fmt.Sprintf(" read %s  write %s",
		ui.FormatRate(s.Disk.ReadBps), ui.FormatRate(s.Disk.WriteBps))
	writeMetricLine(&b, label, "Disk", s.Disk.UtilPercent, disk, t)

	b.WriteString(label.Render("Network"))
	b.WriteString(fmt.Sprintf("rx %s  tx %s\n", ui.FormatRate(s.Network.RxBps), ui.FormatRate(s.Network.TxBps)))

	if s.GPU.Present {
		for _, g := range s.GPU.Devices {
			util := 0.0
			if g.UtilizationGPUPercent != nil {
				util = *g.UtilizationGPUPercent
			}
			line := " " + g.Name
			if g.MemoryTotalBytes > 0 {
				line += fmt.Sprintf("  %s / %s", ui.FormatBytes(int64(g.MemoryUsedBytes)), ui.FormatBytes(int64(g.MemoryTotalBytes)))
			}
			if g.TemperatureC != nil {
				line += fmt.Sprintf("  %.0f°C", *g.TemperatureC)
			}
			writeMetricLine(&b, label, fmt.Sprintf("GPU%d", g.Index), util, line, t)
		}
	}

	if s.Bottleneck.Title != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(ui.ColorNeonPink).Bold(true).Render("Bottleneck: "))
		b.WriteString(fmt.Sprintf("%s (%.0f%%)", s.Bottleneck.Title, s.Bottleneck.Confidence*100))
		if s.Bottleneck.Reason != "" {
			b.WriteString(ui.MutedStyle().Render(" · " + s.Bottleneck.Reason))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeMetricLine(b *strings.Builder, label lipgloss.Style, name string, percent float64, detail string, t ui.Thresholds) {
	b.WriteString(label.Render(name))
	b.WriteString(ui.RenderUsageBar(percent, snapshotBarWidth, t))
	b.WriteString(" ")
	b.WriteString(detail)
	b.WriteString("\n")
}

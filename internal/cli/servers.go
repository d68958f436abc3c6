package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/ui"
	"github.com/rileyhilliard/aidash/internal/util"
)

var serversJSON bool

// serversCmd lists the servers registered with the backend
var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List servers registered with the dashboard",
	Long: `List every server the backend knows about, with when it last reported
and how many snapshots it has stored.

Examples:
  aidash servers
  aidash servers --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return emit(cmd.OutOrStdout(), serversJSON, nil, err, nil)
		}
		return serversCommand(cmd.Context(), cmd.OutOrStdout(), cfg, serversJSON)
	},
}

func init() {
	serversCmd.Flags().BoolVar(&serversJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(serversCmd)
}

// serversCommand implements the servers command logic.
func serversCommand(ctx context.Context, w io.Writer, cfg *config.Config, asJSON bool) error {
	client, _, err := newClient(cfg)
	if err != nil {
		return emit(w, asJSON, nil, err, nil)
	}

	ctx, cancel := requestContext(ctx, cfg)
	defer cancel()

	resp, err := client.Servers(ctx)
	err = requestError(err, "Couldn't load servers")

	var servers []api.ServerSummary
	if resp != nil {
		servers = resp.Servers
	}

	return emit(w, asJSON, servers, err, func() error {
		_, werr := fmt.Fprint(w, ui.RenderServerTable(serverRows(servers, time.Now()), cfg.Dashboard.Server))
		return werr
	})
}

// serverRows converts server summaries to table rows.
func serverRows(servers []api.ServerSummary, now time.Time) []ui.ServerTableRow {
	rows := make([]ui.ServerTableRow, 0, len(servers))
	for _, s := range servers {
		row := ui.ServerTableRow{
			Active:    s.IsActive,
			Slug:      s.Slug,
			Name:      s.DisplayName(),
			Hostname:  s.Hostname,
			LastSeen:  "never",
			Snapshots: "-",
		}
		if s.LastSeenAt != nil {
			row.LastSeen = ui.FormatAgo(*s.LastSeenAt, now)
		}
		if s.SnapshotCount != nil {
			row.Snapshots = ui.FormatCount(*s.SnapshotCount)
		}
		rows = append(rows, row)
	}
	return rows
}

// selectionNotice warns when the backend answered for a different server
// than the one requested, which it does for unknown slugs.
func selectionNotice(requested string, selected *api.ServerSummary, servers []api.ServerSummary) string {
	if requested == "" || selected == nil || selected.Slug == requested {
		return ""
	}

	slugs := make([]string, len(servers))
	for i, s := range servers {
		slugs[i] = s.Slug
	}

	msg := fmt.Sprintf("Unknown server %q, showing %s.", requested, selected.Slug)
	if similar := util.SuggestSimilar(requested, slugs, 3); len(similar) > 0 {
		msg += " Did you mean " + similar[0] + "?"
	} else {
		msg += " Registered: " + util.JoinOrNone(slugs)
	}
	return ui.WarningStyle().Render(ui.SymbolWarning+" "+msg) + "\n"
}

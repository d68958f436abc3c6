package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/monitor"
	"github.com/rileyhilliard/aidash/internal/ui"
	"github.com/rileyhilliard/aidash/internal/util"
)

// NotificationsOptions holds the flags of 'aidash notifications'.
type NotificationsOptions struct {
	UnreadOnly bool
	MarkRead   bool
	JSON       bool
}

var notificationsOpts NotificationsOptions

// NotificationsOutput is the JSON payload of 'aidash notifications'.
type NotificationsOutput struct {
	Notifications []api.NotificationItem `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
	MarkedRead    int                    `json:"marked_read,omitempty"`
}

// notificationsCmd prints the notification feed
var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notes"},
	Short:   "Show the notification feed",
	Long: `Print the dashboard's notifications, newest first.

With --mark-read every unread notification shown is marked as read after
printing.

Examples:
  aidash notifications
  aidash notifications --unread
  aidash notifications --unread --mark-read
  aidash notifications --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return emit(cmd.OutOrStdout(), notificationsOpts.JSON, nil, err, nil)
		}
		return notificationsCommand(cmd.Context(), cmd.OutOrStdout(), cfg, notificationsOpts)
	},
}

func init() {
	notificationsCmd.Flags().BoolVarP(&notificationsOpts.UnreadOnly, "unread", "u", false, "only show unread notifications")
	notificationsCmd.Flags().BoolVar(&notificationsOpts.MarkRead, "mark-read", false, "mark the unread notifications as read")
	notificationsCmd.Flags().BoolVar(&notificationsOpts.JSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(notificationsCmd)
}

// notificationsCommand implements the notifications command logic.
func notificationsCommand(ctx context.Context, w io.Writer, cfg *config.Config, opts NotificationsOptions) error {
	client, _, err := newClient(cfg)
	if err != nil {
		return emit(w, opts.JSON, nil, err, nil)
	}

	reqCtx, cancel := requestContext(ctx, cfg)
	defer cancel()

	resp, err := client.Notifications(reqCtx)
	if err != nil {
		return emit(w, opts.JSON, nil, requestError(err, "Couldn't load notifications"), nil)
	}

	out := NotificationsOutput{UnreadCount: len(resp.UnreadIDs())}
	for _, n := range resp.Notifications {
		if opts.UnreadOnly && n.IsRead {
			continue
		}
		out.Notifications = append(out.Notifications, n)
	}

	if opts.MarkRead {
		if ids := resp.UnreadIDs(); len(ids) > 0 {
			markCtx, markCancel := requestContext(ctx, cfg)
			defer markCancel()

			marked, err := client.MarkNotificationsRead(markCtx, ids)
			if err != nil {
				return emit(w, opts.JSON, nil, requestError(err, "Couldn't mark notifications as read"), nil)
			}
			out.MarkedRead = marked.Updated
			out.UnreadCount = 0
		}
	}

	return emit(w, opts.JSON, out, nil, func() error {
		_, werr := fmt.Fprint(w, renderNotifications(out, opts, time.Now(), outputWidth(w)))
		return werr
	})
}

func renderNotifications(out NotificationsOutput, opts NotificationsOptions, now time.Time, width int) string {
	title := fmt.Sprintf("%d unread", out.UnreadCount)
	if opts.UnreadOnly && len(out.Notifications) == 0 {
		return ui.MutedStyle().Render("No unread notifications") + "\n"
	}

	s := ui.RenderNotificationList(monitor.NotificationRows(out.Notifications, now), width) + "\n"
	s += ui.MutedStyle().Render(title) + "\n"
	if out.MarkedRead > 0 {
		marked := util.CountLabel(out.MarkedRead, "notification", "notifications")
		s += ui.SuccessStyle().Render(fmt.Sprintf("%s Marked %s as read", ui.SymbolSuccess, marked)) + "\n"
	}
	return s
}

// outputWidth returns the terminal width of w, or 100 when w is not a
// terminal.
func outputWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && ui.IsTerminal(f) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 100
}

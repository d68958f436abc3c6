package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/datasync"
	"github.com/rileyhilliard/aidash/internal/errors"
)

// SelectionFlags holds the server and window flags shared by the
// dashboard commands.
type SelectionFlags struct {
	Server string
	Window string
}

// AddSelectionFlags registers --server and, when withWindow is set,
// --minutes on a command.
func AddSelectionFlags(cmd *cobra.Command, flags *SelectionFlags, withWindow bool) {
	cmd.Flags().StringVarP(&flags.Server, "server", "s", "", "server slug (default: dashboard.server or the backend's first server)")
	if withWindow {
		cmd.Flags().StringVarP(&flags.Window, "minutes", "m", "", "history window: 15, 60, 360, 1440 or 15m, 1h, 6h, 24h")
	}
}

// Params resolves the flags against the config defaults.
func (f SelectionFlags) Params(cfg *config.Config) (datasync.Params, error) {
	p := datasync.Params{Server: cfg.Dashboard.Server, Minutes: cfg.Dashboard.Minutes}
	if f.Server != "" {
		p.Server = strings.TrimSpace(f.Server)
	}
	if f.Window != "" {
		minutes, err := ParseWindow(f.Window)
		if err != nil {
			return p, err
		}
		p.Minutes = minutes
	}
	p.Minutes = datasync.NormalizeWindow(p.Minutes)
	return p, nil
}

// ParseWindow accepts a minute count ("360") or a duration ("6h") and
// returns minutes. Only the windows the backend serves are accepted.
func ParseWindow(s string) (int, error) {
	s = strings.TrimSpace(s)

	minutes, err := strconv.Atoi(s)
	if err != nil {
		d, derr := time.ParseDuration(s)
		if derr != nil || d%time.Minute != 0 {
			return 0, errors.New(errors.ErrConfig,
				fmt.Sprintf("'%s' doesn't look like a history window", s),
				"Try 15, 60, 360 or 1440 minutes, or 15m, 1h, 6h, 24h.")
		}
		minutes = int(d / time.Minute)
	}

	if !slices.Contains(datasync.Windows, minutes) {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("%d minutes isn't a supported window", minutes),
			"Pick one of 15, 60, 360 or 1440 minutes.")
	}
	return minutes, nil
}

// pollPeriod converts a config period to the datasync convention where
// zero means default and a negative period disables polling.
func pollPeriod(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

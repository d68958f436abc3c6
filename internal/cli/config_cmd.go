package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/errors"
	"github.com/rileyhilliard/aidash/internal/ui"
)

var (
	configInitForce  bool
	configInitGlobal bool
	configShowJSON   bool
)

// configCmd groups the config subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage aidash configuration",
	Long: `View and modify aidash configuration.

Config is read from --config, ./.aidash.yaml or ~/.config/aidash/config.yaml,
in that order. Any key can be overridden with an AIDASH_ environment
variable, e.g. AIDASH_API_URL or AIDASH_POLL_LATEST.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with defaults",
	Long: `Write a commented config file with default values.

Examples:
  aidash config init
  aidash config init --global
  aidash config init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigFileName
		if configInitGlobal {
			path = config.GlobalPath()
		}
		return configInitCommand(cmd.OutOrStdout(), path, configInitForce)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCommand(cmd.OutOrStdout(), configShowJSON)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the config file",
	Long: `Set a dotted key in the config file in use, keeping its comments.

Examples:
  aidash config set api.url https://dash.example.com
  aidash config set poll.latest 2s
  aidash config set dashboard.minutes 360`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSetCommand(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")
	configInitCmd.Flags().BoolVar(&configInitGlobal, "global", false, "write ~/.config/aidash/config.yaml instead of ./.aidash.yaml")
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func configInitCommand(w io.Writer, path string, force bool) error {
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Can't determine your home directory",
			"Write a project config instead: aidash config init")
	}
	if err := config.WriteDefault(path, force); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write "+path,
			"Use --force to overwrite an existing file")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Fprintf(w, "%s Wrote %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), abs)
	return nil
}

// configEntry is one resolved key for 'aidash config show'.
type configEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ConfigShowOutput is the JSON payload of 'aidash config show'.
type ConfigShowOutput struct {
	Path    string        `json:"path,omitempty"`
	Entries []configEntry `json:"entries"`
}

func configShowCommand(w io.Writer, asJSON bool) error {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return emit(w, asJSON, nil, err, nil)
	}
	if apiURLArg != "" {
		cfg.API.URL = apiURLArg
	}

	out := ConfigShowOutput{Path: path, Entries: configEntries(cfg)}
	return emit(w, asJSON, out, nil, func() error {
		source := path
		if source == "" {
			source = "defaults (no config file found)"
		}
		fmt.Fprintln(w, ui.MutedStyle().Render("Loaded from: "+source))

		rows := make([][]string, len(out.Entries))
		for i, e := range out.Entries {
			rows[i] = []string{e.Key, e.Value}
		}
		fmt.Fprintln(w, ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "KEY", Width: 22},
			{Title: "VALUE", Width: 48},
		}, rows))

		if err := config.Validate(cfg); err != nil {
			ui.PrintWarning("This config has problems:")
			fmt.Fprint(w, err.Error())
		}
		return nil
	})
}

// configEntries flattens cfg into dotted keys in file order.
func configEntries(cfg *config.Config) []configEntry {
	return []configEntry{
		{"api.url", cfg.API.URL},
		{"api.timeout", cfg.API.Timeout.String()},
		{"poll.latest", cfg.Poll.Latest.String()},
		{"poll.history", cfg.Poll.History.String()},
		{"poll.notifications", cfg.Poll.Notifications.String()},
		{"poll.live", fmt.Sprint(cfg.Poll.Live)},
		{"dashboard.server", cfg.Dashboard.Server},
		{"dashboard.minutes", fmt.Sprint(cfg.Dashboard.Minutes)},
		{"output.color", cfg.Output.Color},
		{"log.file", cfg.Log.File},
		{"telemetry.enabled", fmt.Sprint(cfg.Telemetry.Enabled)},
		{"telemetry.endpoint", cfg.Telemetry.Endpoint},
	}
}

func configSetCommand(w io.Writer, key, value string) error {
	path, err := config.Find(cfgFile)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'aidash config init' to create one first")
	}

	if err := config.SetValue(path, key, value); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't set %s", key),
			"Check the key name, e.g. api.url or poll.latest")
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Set %s, but the config is now invalid", key),
			fmt.Sprintf("Fix it with 'aidash config set %s <value>'", key))
	}

	fmt.Fprintf(w, "%s %s = %s (%s)\n", ui.SuccessStyle().Render(ui.SymbolSuccess), key, value, path)
	return nil
}

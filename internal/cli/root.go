package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/logger"
	"github.com/rileyhilliard/aidash/internal/ui"
)

// Global flags
var (
	cfgFile   string
	noColor   bool
	verbose   bool
	apiURLArg string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "aidash",
	Short: "Terminal client for the AI Dashboard",
	Long: `aidash shows live CPU, memory, disk, network and GPU telemetry for the
servers registered with an AI Dashboard backend, plus its notification feed.

Run 'aidash login' once, then 'aidash monitor' for the live dashboard or the
one-shot commands (servers, snapshot, history, notifications) for scripts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			_ = os.Setenv(logger.DebugEnv, "1")
		}
		if noColor {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.aidash.yaml or ~/.config/aidash/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURLArg, "api-url", "", "backend base URL, overrides api.url")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and sync decisions to stderr")
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// loadConfig resolves, validates and applies the config for a command.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if apiURLArg != "" {
		cfg.API.URL = strings.TrimRight(strings.TrimSpace(apiURLArg), "/")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if !noColor {
		ui.ApplyColorMode(cfg.Output.Color, os.Stdout)
	}
	return cfg, nil
}

// Execute runs the root command. Interrupts cancel the command context so
// in-flight requests stop.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}
	if stderrors.Is(err, errSilent) {
		os.Exit(1)
	}

	if isUnknownCommandError(err) {
		fmt.Fprintln(os.Stderr, err.Error())
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(os.Stderr, "\nRun 'aidash --help' to see available commands.\n")
		}
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, err.Error())
	if !strings.HasSuffix(err.Error(), "\n") {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "aidash"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

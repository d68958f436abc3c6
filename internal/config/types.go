package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Window sizes the history endpoint accepts, in minutes.
var AllowedWindows = []int{15, 60, 360, 1440}

// DefaultWindow is the history window used when none is configured.
const DefaultWindow = 60

// MinPollInterval is the shortest non-zero poll period accepted.
const MinPollInterval = 500 * time.Millisecond

// Config represents the complete aidash configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Poll      PollConfig      `yaml:"poll" mapstructure:"poll"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// APIConfig points the client at the dashboard backend.
type APIConfig struct {
	// URL is the backend base URL, e.g. http://localhost:8000.
	URL string `yaml:"url" mapstructure:"url"`

	// Timeout bounds each request. Zero disables the timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// PollConfig sets the refresh period of each stream. A zero period turns
// polling for that stream off.
type PollConfig struct {
	Latest        time.Duration `yaml:"latest" mapstructure:"latest"`
	History       time.Duration `yaml:"history" mapstructure:"history"`
	Notifications time.Duration `yaml:"notifications" mapstructure:"notifications"`

	// Live starts the monitor with periodic refresh on.
	Live bool `yaml:"live" mapstructure:"live"`
}

// DashboardConfig holds the initial dashboard selection.
type DashboardConfig struct {
	// Server is the slug to select on start. Empty selects whatever the
	// backend returns first.
	Server string `yaml:"server" mapstructure:"server"`

	// Minutes is the history window: 15, 60, 360 or 1440.
	Minutes int `yaml:"minutes" mapstructure:"minutes"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// LogConfig controls where diagnostics go while the TUI owns the terminal.
type LogConfig struct {
	// File receives log output during 'aidash monitor'. Empty discards it.
	File string `yaml:"file" mapstructure:"file"`
}

// TelemetryConfig controls OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		API: APIConfig{
			URL:     "http://localhost:8000",
			Timeout: 15 * time.Second,
		},
		Poll: PollConfig{
			Latest:        5 * time.Second,
			History:       30 * time.Second,
			Notifications: 10 * time.Second,
			Live:          true,
		},
		Dashboard: DashboardConfig{
			Minutes: DefaultWindow,
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, "http://localhost:8000", cfg.API.URL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Poll.Latest)
	assert.Equal(t, 30*time.Second, cfg.Poll.History)
	assert.Equal(t, 10*time.Second, cfg.Poll.Notifications)
	assert.True(t, cfg.Poll.Live)
	assert.Empty(t, cfg.Dashboard.Server)
	assert.Equal(t, 60, cfg.Dashboard.Minutes)
	assert.Equal(t, "auto", cfg.Output.Color)
	assert.Empty(t, cfg.Log.File)
	assert.False(t, cfg.Telemetry.Enabled)

	assert.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)

	content := `
version: 1
api:
  url: https://dash.example.com/
  timeout: 5s
poll:
  latest: 2s
  history: 1m
  notifications: 0s
  live: false
dashboard:
  server: gpu-01
  minutes: 360
output:
  color: never
log:
  file: ${HOME}/aidash.log
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "https://dash.example.com", cfg.API.URL, "trailing slash trimmed")
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Poll.Latest)
	assert.Equal(t, time.Minute, cfg.Poll.History)
	assert.Zero(t, cfg.Poll.Notifications)
	assert.False(t, cfg.Poll.Live)
	assert.Equal(t, "gpu-01", cfg.Dashboard.Server)
	assert.Equal(t, 360, cfg.Dashboard.Minutes)
	assert.Equal(t, "never", cfg.Output.Color)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "aidash.log"), cfg.Log.File)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("dashboard:\n  server: web\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "web", cfg.Dashboard.Server)
	assert.Equal(t, 60, cfg.Dashboard.Minutes)
	assert.Equal(t, 5*time.Second, cfg.Poll.Latest)
	assert.True(t, cfg.Poll.Live)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AIDASH_API_URL", "http://10.0.0.5:8000")
	t.Setenv("AIDASH_POLL_LATEST", "1s")
	t.Setenv("AIDASH_POLL_LIVE", "false")
	t.Setenv("AIDASH_DASHBOARD_MINUTES", "15")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8000", cfg.API.URL)
	assert.Equal(t, time.Second, cfg.Poll.Latest)
	assert.False(t, cfg.Poll.Live)
	assert.Equal(t, 15, cfg.Dashboard.Minutes)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/.aidash.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Config file not found")
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("api: [unclosed"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T) string
		wantErr  bool
		wantPath bool
	}{
		{
			name: "explicit path exists",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "custom.yaml")
				require.NoError(t, os.WriteFile(path, []byte("version: 1"), 0644))
				return path
			},
			wantPath: true,
		},
		{
			name: "explicit path not found",
			setup: func(t *testing.T) string {
				return "/nonexistent/config.yaml"
			},
			wantErr: true,
		},
		{
			name: "current directory has config",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 1"), 0644))
				testChdir(t, dir)
				t.Setenv("HOME", t.TempDir())
				return ""
			},
			wantPath: true,
		},
		{
			name: "nothing found",
			setup: func(t *testing.T) string {
				testChdir(t, t.TempDir())
				t.Setenv("HOME", t.TempDir())
				return ""
			},
		},
		{
			name: "global config",
			setup: func(t *testing.T) string {
				testChdir(t, t.TempDir())
				home := t.TempDir()
				t.Setenv("HOME", home)
				dir := filepath.Join(home, GlobalConfigDir)
				require.NoError(t, os.MkdirAll(dir, 0755))
				require.NoError(t, os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte("version: 1"), 0644))
				return ""
			},
			wantPath: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			explicit := tt.setup(t)

			path, err := Find(explicit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantPath {
				assert.NotEmpty(t, path)
			} else {
				assert.Empty(t, path)
			}
			if explicit != "" {
				assert.Equal(t, explicit, path)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestExpand(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, result string)
	}{
		{
			name:  "empty string",
			input: "",
			check: func(t *testing.T, result string) {
				assert.Empty(t, result)
			},
		},
		{
			name:  "no variables",
			input: "/var/log/aidash.log",
			check: func(t *testing.T, result string) {
				assert.Equal(t, "/var/log/aidash.log", result)
			},
		},
		{
			name:  "USER variable",
			input: "/tmp/${USER}/aidash.log",
			check: func(t *testing.T, result string) {
				assert.NotContains(t, result, "${USER}")
				assert.Contains(t, result, "/tmp/")
			},
		},
		{
			name:  "HOME variable",
			input: "${HOME}/aidash.log",
			check: func(t *testing.T, result string) {
				assert.Equal(t, home+"/aidash.log", result)
			},
		},
		{
			name:  "tilde",
			input: "~/logs/aidash.log",
			check: func(t *testing.T, result string) {
				assert.Equal(t, filepath.Join(home, "logs/aidash.log"), result)
			},
		},
		{
			name:  "bare tilde",
			input: "~",
			check: func(t *testing.T, result string) {
				assert.Equal(t, home, result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Expand(tt.input))
		})
	}
}

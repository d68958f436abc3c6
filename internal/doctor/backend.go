package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/auth"
	"github.com/rileyhilliard/aidash/internal/util"
)

// ServerLister is the backend call the checks probe with.
type ServerLister interface {
	Servers(ctx context.Context) (*api.ServersResponse, error)
}

// BackendCheck verifies the backend answers at api.url. Auth failures
// still count as reachable; SessionCheck reports those.
type BackendCheck struct {
	URL    string
	Client ServerLister
}

func (c *BackendCheck) Name() string     { return "backend_reachable" }
func (c *BackendCheck) Category() string { return "BACKEND" }

func (c *BackendCheck) Run(ctx context.Context) CheckResult {
	start := time.Now()
	_, err := c.Client.Servers(ctx)
	latency := time.Since(start).Round(time.Millisecond)

	n := api.Classify(err)
	if n == nil || n.IsKind(api.KindAuth) || n.IsKind(api.KindForbidden) {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("Connected to %s (%s)", c.URL, latency),
		}
	}

	if n.IsKind(api.KindNetwork) {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Can't reach %s: %s", c.URL, n.Message),
			Suggestion: "Check that the backend is running and api.url is correct",
		}
	}

	return CheckResult{
		Name:       c.Name(),
		Status:     StatusFail,
		Message:    fmt.Sprintf("%s answered with an error: %s", c.URL, n.Message),
		Suggestion: "Check that api.url points at the dashboard, not a proxy or another app",
	}
}

// SessionCheck verifies the stored session is accepted by the backend.
type SessionCheck struct {
	Source auth.SessionSource
	Client ServerLister
}

func (c *SessionCheck) Name() string     { return "session" }
func (c *SessionCheck) Category() string { return "AUTH" }

func (c *SessionCheck) Run(ctx context.Context) CheckResult {
	resp, err := c.Client.Servers(ctx)
	n := api.Classify(err)

	switch {
	case n == nil:
		count := 0
		if resp != nil {
			count = len(resp.Servers)
		}
		msg := "Backend accepts anonymous requests"
		if c.Source != auth.SourceNone {
			msg = fmt.Sprintf("Signed in with session from %s", c.Source)
		}
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("%s, %s visible", msg, util.CountLabel(count, "server", "servers")),
		}
	case n.IsKind(api.KindAuth) && c.Source == auth.SourceNone:
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Not signed in",
			Suggestion: "Run 'aidash login'",
		}
	case n.IsKind(api.KindAuth):
		suggestion := "Run 'aidash login' to refresh it"
		if c.Source == auth.SourceEnv {
			suggestion = "Unset AIDASH_SESSION or replace it with a fresh session"
		}
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Session from %s was rejected: %s", c.Source, n.Message),
			Suggestion: suggestion,
		}
	case n.IsKind(api.KindForbidden):
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Signed in, but this account can't view the dashboard",
			Suggestion: "Ask an admin to add your account to the allowlist",
		}
	default:
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusWarn,
			Message: "Couldn't verify the session: " + n.Message,
		}
	}
}

// KeyringCheck reports whether sessions can be stored in the OS keyring.
type KeyringCheck struct {
	// Probe defaults to auth.KeyringAvailable.
	Probe func() error
}

func (c *KeyringCheck) Name() string     { return "keyring" }
func (c *KeyringCheck) Category() string { return "AUTH" }

func (c *KeyringCheck) Run(context.Context) CheckResult {
	probe := c.Probe
	if probe == nil {
		probe = auth.KeyringAvailable
	}
	if err := probe(); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("System keyring unavailable (%v)", err),
			Suggestion: "Sessions will be stored in ~/.config/aidash/sessions instead",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "System keyring available",
	}
}

// NewBackendChecks creates the backend and auth checks for one client.
func NewBackendChecks(url string, source auth.SessionSource, client ServerLister) []Check {
	return []Check{
		&BackendCheck{URL: url, Client: client},
		&SessionCheck{Source: source, Client: client},
		&KeyringCheck{},
	}
}

package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/rileyhilliard/aidash/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but aidash only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade aidash to a newer release.")
	}

	if err := validateAPI(cfg.API); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'api' section in your config.")
	}

	if err := validatePoll(cfg.Poll); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'poll' section in your config.")
	}

	if err := validateDashboard(cfg.Dashboard); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'dashboard' section in your config.")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your config.")
	}

	return nil
}

func validateAPI(a APIConfig) error {
	if a.URL == "" {
		return fmt.Errorf("api.url is empty")
	}
	u, err := url.Parse(a.URL)
	if err != nil {
		return fmt.Errorf("api.url '%s' isn't a valid URL: %v", a.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.url '%s' must start with http:// or https://", a.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.url '%s' has no host", a.URL)
	}
	if a.Timeout < 0 {
		return fmt.Errorf("api.timeout can't be negative (got %s)", a.Timeout)
	}
	return nil
}

func validatePoll(p PollConfig) error {
	periods := []struct {
		key string
		d   time.Duration
	}{
		{"poll.latest", p.Latest},
		{"poll.history", p.History},
		{"poll.notifications", p.Notifications},
	}
	for _, period := range periods {
		if period.d < 0 {
			return fmt.Errorf("%s can't be negative (got %s)", period.key, period.d)
		}
		if period.d > 0 && period.d < MinPollInterval {
			return fmt.Errorf("%s is %s, minimum is %s (use 0 to disable)", period.key, period.d, MinPollInterval)
		}
	}
	return nil
}

func validateDashboard(d DashboardConfig) error {
	if !slices.Contains(AllowedWindows, d.Minutes) {
		return fmt.Errorf("dashboard.minutes is %d, must be one of %v", d.Minutes, AllowedWindows)
	}
	return nil
}

func validateOutput(out OutputConfig) error {
	switch out.Color {
	case "auto", "always", "never":
		return nil
	default:
		return fmt.Errorf("output.color '%s' isn't valid, use auto, always or never", out.Color)
	}
}

package cli

import (
	"context"

	"github.com/rileyhilliard/aidash/internal/api"
	"github.com/rileyhilliard/aidash/internal/auth"
	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/errors"
	"github.com/rileyhilliard/aidash/internal/logger"
)

// newClient builds an API client for cfg with the stored session restored
// into its cookie jar.
func newClient(cfg *config.Config) (*api.Client, auth.SessionSource, error) {
	source, session := auth.GetSession(cfg.API.URL)
	logger.Default().Debug("session source: %s", sourceLabel(source))

	client, err := api.New(cfg.API.URL,
		api.WithUserAgent("aidash/"+GetVersion()),
		api.WithSession(session),
	)
	if err != nil {
		return nil, auth.SourceNone, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid backend URL: "+cfg.API.URL,
			"Set api.url to something like http://localhost:8000")
	}
	return client, source, nil
}

func sourceLabel(s auth.SessionSource) string {
	if s == auth.SourceNone {
		return "none"
	}
	return string(s)
}

// requestContext bounds a one-shot request by api.timeout.
func requestContext(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if cfg.API.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, cfg.API.Timeout)
}

// requestError maps a failed request to a user-facing error. A canceled
// request stays a plain context error.
func requestError(err error, what string) error {
	if err == nil {
		return nil
	}
	if mapped := errors.FromRequestError(err, what); mapped != nil {
		return mapped
	}
	return err
}

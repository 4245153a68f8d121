// Package provider implements the interchangeable profile data backends: a
// RapidAPI scraping API, a user-supplied custom API, and a deterministic mock
// generator. A backend is selected once from configuration and never mixed at
// runtime.
package provider

import (
	"context"
	"fmt"

	"instaview/pkg/apierr"
	"instaview/pkg/config"
	"instaview/pkg/instagram"
	"instaview/pkg/logger"
)

// Provider fetches a canonical profile for a normalized username. Failures
// are returned raw (untyped or *apierr.FetchError); classification happens
// once, in the Service.
type Provider interface {
	Lookup(ctx context.Context, username string) (*instagram.Profile, error)
}

// ForConfig selects the provider for the configured mode.
func ForConfig(cfg *config.Config, log logger.Logger) (Provider, error) {
	switch cfg.Provider.Mode {
	case config.ModeMock:
		return NewMock(
			WithFailureRate(cfg.Provider.MockFailureRate),
			WithLocale(cfg.Provider.MockLocale),
		), nil
	case config.ModeRapidAPI:
		return NewRapidAPI(&cfg.Provider, log), nil
	case config.ModeCustom:
		return NewCustom(&cfg.Provider, log), nil
	default:
		return nil, fmt.Errorf("unknown provider mode: %q", cfg.Provider.Mode)
	}
}

// Service is the lookup facade consumed by the HTTP server and the CLI: it
// normalizes the raw query, delegates to the active provider, and classifies
// any failure into the fixed error taxonomy.
type Service struct {
	provider Provider
	log      logger.Logger
}

// NewService builds a Service for the configured provider mode.
func NewService(cfg *config.Config, log logger.Logger) (*Service, error) {
	p, err := ForConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Service{provider: p, log: log}, nil
}

// NewServiceWith wraps an explicit provider; used by tests and by callers
// that construct providers directly.
func NewServiceWith(p Provider, log logger.Logger) *Service {
	return &Service{provider: p, log: log}
}

// GetProfile runs a raw search query end to end: normalize, fetch, classify.
// The returned *apierr.Error is nil exactly when the profile is non-nil.
func (s *Service) GetProfile(ctx context.Context, rawQuery string) (*instagram.Profile, *apierr.Error) {
	username, err := instagram.NormalizeUsername(rawQuery)
	if err != nil {
		return nil, apierr.Classify(err)
	}

	profile, err := s.provider.Lookup(ctx, username)
	if err != nil {
		classified := apierr.Classify(err)
		s.log.WarnWithFields("profile lookup failed", map[string]interface{}{
			"username": username,
			"code":     string(classified.Code),
			"error":    err.Error(),
		})
		return nil, classified
	}

	return profile, nil
}

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"instaview/pkg/apierr"
	"instaview/pkg/config"
	"instaview/pkg/instagram"
	"instaview/pkg/logger"
	"instaview/pkg/retry"
)

// Custom fetches profiles from a user-supplied API that already answers in
// the canonical Profile shape, so no transform step is needed.
type Custom struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	log        logger.Logger
}

// NewCustom creates the custom-API adapter.
func NewCustom(cfg *config.ProviderConfig, log logger.Logger) *Custom {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Custom{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.CustomBaseURL, "/"),
		apiKey:     cfg.CustomAPIKey,
		maxRetries: cfg.MaxRetries,
		log:        log,
	}
}

// Lookup fetches a profile from GET <baseURL>/profile/<username>, retrying
// transient failures like the scraping adapter does.
func (c *Custom) Lookup(ctx context.Context, username string) (*instagram.Profile, error) {
	if c.baseURL == "" {
		return nil, errors.New("custom API URL not configured")
	}

	cfg := &retry.Config{
		MaxAttempts: c.maxRetries,
		Backoff:     retry.DefaultExponentialBackoff(),
		RetryIf:     retry.DefaultRetryIf,
		Logger:      c.log,
	}
	return retry.DoWithResult(ctx, func() (*instagram.Profile, error) {
		return c.fetch(ctx, username)
	}, cfg)
}

// fetch performs a single GET attempt.
func (c *Custom) fetch(ctx context.Context, username string) (*instagram.Profile, error) {
	endpoint := fmt.Sprintf("%s/profile/%s", c.baseURL, username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.NewFetchError(0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.NewFetchError(0, "", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.NewFetchError(resp.StatusCode, string(body), nil)
	}

	var profile instagram.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, apierr.NewFetchError(resp.StatusCode, string(body),
			fmt.Errorf("invalid API response format: %w", err))
	}

	c.log.DebugWithFields("custom API lookup completed", map[string]interface{}{
		"username": username,
	})
	return &profile, nil
}

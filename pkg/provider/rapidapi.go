package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"instaview/pkg/apierr"
	"instaview/pkg/config"
	"instaview/pkg/instagram"
	"instaview/pkg/logger"
	"instaview/pkg/retry"
)

// profilePath is the single endpoint the scraping API exposes; posts are
// embedded in the profile response, there is no separate posts call.
const profilePath = "/api/instagram/profile"

// RapidAPI fetches profiles from the configured RapidAPI scraping host and
// runs the raw payload through the canonical transformer.
type RapidAPI struct {
	httpClient *http.Client
	key        string
	host       string
	maxRetries int
	log        logger.Logger
}

// NewRapidAPI creates the scraping-API adapter.
func NewRapidAPI(cfg *config.ProviderConfig, log logger.Logger) *RapidAPI {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RapidAPI{
		httpClient: &http.Client{Timeout: timeout},
		key:        cfg.RapidAPIKey,
		host:       cfg.RapidAPIHost,
		maxRetries: cfg.MaxRetries,
		log:        log,
	}
}

// Lookup fetches and transforms a profile. Transient failures (network, 5xx)
// are retried with backoff; 404, 429, and auth failures surface immediately.
func (r *RapidAPI) Lookup(ctx context.Context, username string) (*instagram.Profile, error) {
	if r.key == "" {
		return nil, errors.New("RapidAPI key not configured")
	}

	cfg := &retry.Config{
		MaxAttempts: r.maxRetries,
		Backoff:     retry.DefaultExponentialBackoff(),
		RetryIf:     retry.DefaultRetryIf,
		Logger:      r.log,
	}
	return retry.DoWithResult(ctx, func() (*instagram.Profile, error) {
		return r.fetch(ctx, username)
	}, cfg)
}

// fetch performs a single POST attempt against the profile endpoint.
func (r *RapidAPI) fetch(ctx context.Context, username string) (*instagram.Profile, error) {
	body, err := json.Marshal(map[string]string{"username": username})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s%s", r.host, profilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", r.key)
	req.Header.Set("X-RapidAPI-Host", r.host)

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apierr.NewFetchError(0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.NewFetchError(0, "", err)
	}

	r.log.DebugWithFields("scraping API response", map[string]interface{}{
		"username": username,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.NewFetchError(resp.StatusCode, string(respBody), nil)
	}

	var envelope instagram.RawEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, apierr.NewFetchError(resp.StatusCode, string(respBody),
			fmt.Errorf("invalid API response format: %w", err))
	}

	return instagram.Transform(&envelope), nil
}

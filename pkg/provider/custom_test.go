package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instaview/pkg/apierr"
	"instaview/pkg/config"
	"instaview/pkg/instagram"
	"instaview/pkg/logger"
)

func newTestCustom(baseURL, apiKey string) *Custom {
	return NewCustom(&config.ProviderConfig{
		CustomBaseURL:  baseURL,
		CustomAPIKey:   apiKey,
		RequestTimeout: 5 * time.Second,
	}, logger.NewTestLogger())
}

func TestCustomLookupPassThrough(t *testing.T) {
	want := instagram.Profile{
		Username:          "@testuser",
		FullName:          "Test User",
		Bio:               "already canonical",
		ProfilePictureURL: "https://cdn.example/p.jpg",
		Followers:         "12.3K",
		Following:         "456",
		PostsCount:        "78",
		IsVerified:        true,
		AccountType:       instagram.AccountCreator,
		RecentPosts: []instagram.Post{
			{ID: "1", ImageURL: "https://cdn.example/1.jpg", Link: "https://instagram.com/p/1"},
		},
	}

	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	c := newTestCustom(srv.URL, "secret-key")
	profile, err := c.Lookup(context.Background(), "testuser")
	require.NoError(t, err)

	assert.Equal(t, "/profile/testuser", gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, &want, profile)
}

func TestCustomLookupOmitsBearerWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(instagram.Profile{Username: "@x"})
	}))
	defer srv.Close()

	c := newTestCustom(srv.URL, "")
	_, err := c.Lookup(context.Background(), "x")
	require.NoError(t, err)
}

func TestCustomLookupNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestCustom(srv.URL, "")
	_, err := c.Lookup(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, apierr.CodeServerError, apierr.Classify(err).Code)
}

// With no base URL configured the adapter fails before any network call.
func TestCustomLookupNotConfigured(t *testing.T) {
	c := newTestCustom("", "")
	c.httpClient = &http.Client{Transport: &mockRoundTripper{
		handler: func(req *http.Request) (*http.Response, error) {
			t.Fatal("no network call should be attempted without a base URL")
			return nil, nil
		},
	}}

	_, err := c.Lookup(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, apierr.CodeNotConfigured, apierr.Classify(err).Code)
}

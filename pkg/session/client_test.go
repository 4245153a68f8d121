package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instaview/pkg/config"
	"instaview/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&config.AuthConfig{
		URL:     server.URL,
		AnonKey: "anon-key",
	}, logger.NewTestLogger())
	return client, server
}

func TestClientNotInitialized(t *testing.T) {
	client := NewClient(&config.AuthConfig{}, logger.NewTestLogger())

	assert.False(t, client.Initialized())

	_, err := client.SignIn(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = client.SignUp(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, client.SignOut(context.Background()), ErrNotInitialized)
	_, err = client.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, client.ResetPassword(context.Background(), "a@b.c"), ErrNotInitialized)
}

func TestClientSignIn(t *testing.T) {
	var gotPath, gotAPIKey, gotAuth string
	var gotBody map[string]string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(Session{
			AccessToken:  "access-123",
			TokenType:    "bearer",
			ExpiresIn:    3600,
			RefreshToken: "refresh-456",
			User:         &User{ID: "u1", Email: "a@b.c"},
		})
	})

	session, err := client.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)

	assert.Equal(t, "/auth/v1/token?grant_type=password", gotPath)
	assert.Equal(t, "anon-key", gotAPIKey)
	assert.Equal(t, "Bearer anon-key", gotAuth)
	assert.Equal(t, map[string]string{"email": "a@b.c", "password": "secret"}, gotBody)

	assert.Equal(t, "access-123", session.AccessToken)
	assert.Equal(t, "a@b.c", session.User.Email)
	assert.Equal(t, session, client.CurrentSession())
}

func TestClientSignInBadCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_description":"Invalid login credentials"}`))
	})

	_, err := client.SignIn(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid login credentials")
	assert.Nil(t, client.CurrentSession())
}

func TestClientSignUp(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		// Confirmation-required deployments answer with a bare user.
		_ = json.NewEncoder(w).Encode(User{ID: "u2", Email: "new@b.c"})
	})

	user, err := client.SignUp(context.Background(), "new@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "new@b.c", user.Email)
	assert.Nil(t, client.CurrentSession())
}

func TestClientSignUpWithAutoConfirm(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Session{
			AccessToken: "access-789",
			User:        &User{ID: "u3", Email: "auto@b.c"},
		})
	})

	user, err := client.SignUp(context.Background(), "auto@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "auto@b.c", user.Email)
	require.NotNil(t, client.CurrentSession())
	assert.Equal(t, "access-789", client.CurrentSession().AccessToken)
}

func TestClientCurrentUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(User{ID: "u1", Email: "a@b.c"})
	})
	client.SetSession(&Session{AccessToken: "access-123"})

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestClientCurrentUserNoSession(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be made without a session")
	})

	_, err := client.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClientSignOut(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})
	client.SetSession(&Session{AccessToken: "access-123"})

	require.NoError(t, client.SignOut(context.Background()))
	assert.Equal(t, "Bearer access-123", gotAuth)
	assert.Nil(t, client.CurrentSession())
}

func TestClientSignOutWithoutSession(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be made without a session")
	})

	assert.NoError(t, client.SignOut(context.Background()))
}

func TestClientResetPassword(t *testing.T) {
	var gotQuery, gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/recover", r.URL.Path)
		gotQuery = r.URL.RawQuery
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotEmail = body["email"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&config.AuthConfig{
		URL:         server.URL,
		AnonKey:     "anon-key",
		RedirectURL: "https://example.com/reset",
	}, logger.NewTestLogger())

	require.NoError(t, client.ResetPassword(context.Background(), "a@b.c"))
	assert.Equal(t, "redirect_to=https://example.com/reset", gotQuery)
	assert.Equal(t, "a@b.c", gotEmail)
}

func TestParseAuthErrorVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"user already registered"}`, "user already registered"},
		{"msg field", `{"msg":"token expired"}`, "token expired"},
		{"error_description field", `{"error_description":"bad grant"}`, "bad grant"},
		{"raw body", `plain text failure`, "plain text failure"},
		{"empty body", ``, http.StatusText(http.StatusBadRequest)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseAuthError(http.StatusBadRequest, []byte(tt.body))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

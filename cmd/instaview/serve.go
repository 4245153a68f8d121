package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"instaview/internal/server"
	"instaview/pkg/provider"
	"instaview/pkg/session"
)

var (
	serveHost string
	servePort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the profile lookup JSON API",
	Long: `Start the HTTP server exposing profile lookup and auth endpoints.

The active data backend is chosen by provider.mode in the configuration
("mock", "rapidapi" or "custom"). Missing backend credentials are not a
startup error; affected requests answer with API_NOT_CONFIGURED.`,
	Example: `  # Serve with the built-in mock backend
  INSTAVIEW_API_MODE=mock instaview serve

  # Serve on a different port
  instaview serve --port 9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind address (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	svc, err := provider.NewService(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build provider: %w", err)
	}

	auth := session.NewClient(&cfg.Auth, log)
	restoreStoredSession(auth)

	log.WithFields(map[string]interface{}{
		"mode": cfg.Provider.Mode,
		"port": cfg.Server.Port,
	}).Info("starting server")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(&cfg.Server, svc, auth, log)
	return srv.ListenAndServe(ctx)
}

// restoreStoredSession loads a persisted session into the auth client, if one
// exists. Absence is not an error.
func restoreStoredSession(auth *session.Client) {
	manager, err := session.NewStoreManager()
	if err != nil {
		log.WithError(err).Warn("token store unavailable")
		return
	}
	stored, err := manager.Load()
	if err != nil {
		return
	}
	auth.SetSession(&session.Session{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
	})
	log.WithField("email", stored.Email).Debug("restored stored session")
}

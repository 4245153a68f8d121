// Package server exposes the profile lookup and auth facade over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"instaview/pkg/apierr"
	"instaview/pkg/config"
	"instaview/pkg/logger"
	"instaview/pkg/provider"
	"instaview/pkg/session"
)

// Server wires the lookup service and auth client behind a chi router.
type Server struct {
	cfg    *config.ServerConfig
	svc    *provider.Service
	auth   *session.Client
	state  *session.State
	log    logger.Logger
	router chi.Router
}

// New builds the server and its routes.
func New(cfg *config.ServerConfig, svc *provider.Service, auth *session.Client, log logger.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		svc:   svc,
		auth:  auth,
		state: session.NewState(auth),
		log:   log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(s.rateLimiter(s.cfg.RequestsPerMinute))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", s.handleProfile)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.Post("/signin", s.handleSignIn)
			r.Post("/signout", s.handleSignOut)
			r.Post("/reset", s.handleReset)
			r.Get("/user", s.handleUser)
		})
	})

	s.router = r
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// errorBody is the wire shape of a failure response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.log.WithError(err).Error("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, apiErr *apierr.Error) {
	var body errorBody
	body.Error.Code = string(apiErr.Code)
	body.Error.Message = apiErr.Message
	body.Error.Details = apiErr.Details
	s.respondJSON(w, apiErr.HTTPStatus(), body)
}

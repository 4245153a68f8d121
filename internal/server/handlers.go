package server

import (
	"encoding/json"
	"net/http"

	"instaview/pkg/apierr"
	"instaview/pkg/imageproxy"
	"instaview/pkg/instagram"
	"instaview/pkg/session"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProfile runs a lookup for the raw query in ?q=. With proxy_images=1
// the CDN image URLs are rewritten through the anti-hotlinking proxy so a
// browser client can display them directly.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	profile, apiErr := s.svc.GetProfile(r.Context(), query)
	if apiErr != nil {
		s.respondError(w, apiErr)
		return
	}

	if r.URL.Query().Get("proxy_images") == "1" {
		proxyProfileImages(profile)
	}
	s.respondJSON(w, http.StatusOK, profile)
}

func proxyProfileImages(p *instagram.Profile) {
	p.ProfilePictureURL = imageproxy.Smart(p.ProfilePictureURL, imageproxy.AvatarOptions)
	for i := range p.RecentPosts {
		p.RecentPosts[i].ImageURL = imageproxy.Smart(p.RecentPosts[i].ImageURL, imageproxy.PostOptions)
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "email and password are required",
		})
		return nil, false
	}
	return &req, true
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := s.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondAuthError(w, err)
		return
	}
	s.state.SetUser(user)
	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	sess, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondAuthError(w, err)
		return
	}
	s.state.SetUser(sess.User)
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	err := s.auth.SignOut(r.Context())
	s.state.SetUser(nil)
	if err != nil && err != session.ErrNotInitialized {
		s.log.WithError(err).Warn("sign-out failed upstream")
	}
	if err == session.ErrNotInitialized {
		s.respondAuthError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "email is required",
		})
		return
	}

	if err := s.auth.ResetPassword(r.Context(), req.Email); err != nil {
		s.respondAuthError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "recovery email sent"})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	if err := s.state.Refresh(r.Context()); err != nil {
		s.respondAuthError(w, err)
		return
	}

	snap := s.state.Snapshot()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":          snap.User,
		"authenticated": snap.Authenticated,
	})
}

// respondAuthError maps auth client failures onto the error taxonomy: a
// missing configuration is the same "not configured" condition the lookup
// path reports, everything else is classified by message.
func (s *Server) respondAuthError(w http.ResponseWriter, err error) {
	if err == session.ErrNotInitialized {
		s.respondError(w, apierr.New(apierr.CodeNotConfigured, err.Error()))
		return
	}
	if err == session.ErrNoSession {
		s.respondError(w, apierr.New(apierr.CodeUnauthorized, err.Error()))
		return
	}
	s.respondError(w, apierr.Classify(err))
}

package api

import (
	"net/http"

	"github.com/nerrad567/projecthub/internal/identity"
)

// handleSignUp registers a standard account and returns a session.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in identity.SignUpInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	session, err := s.identity.SignUp(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// handleSignIn exchanges credentials for a session.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in identity.SignInInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	session, err := s.identity.SignIn(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleCurrent returns the authenticated account.
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	a, err := s.identity.Current(r.Context(), callerFrom(r.Context()).AccountID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleWSTicket issues a single-use ticket for opening the event stream,
// so the bearer token never appears in a URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.tickets.Issue(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":    ticket,
		"expiresIn": int(s.ticketTTL.Seconds()),
	})
}

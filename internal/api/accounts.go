package api

import (
	"net/http"

	"github.com/nerrad567/projecthub/internal/account"
)

func (s *Server) handleRegisterAccount(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	a, err := s.accounts.Register(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	a, err := s.accounts.Get(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleModifyAccount applies a partial edit. Standard callers may edit only
// themselves and never their permission level or active flag.
func (s *Server) handleModifyAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var in account.ModifyInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	a, err := s.accounts.Modify(r.Context(), callerFrom(r.Context()), id, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	removal, err := s.accounts.Remove(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removal)
}

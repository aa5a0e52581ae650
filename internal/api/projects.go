package api

import (
	"net/http"

	"github.com/nerrad567/projecthub/internal/project"
)

func (s *Server) handleInitiateProject(w http.ResponseWriter, r *http.Request) {
	var in project.NewInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	p, err := s.projects.Initiate(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleListProjects returns the caller's projects, or all projects with
// owners for an elevated caller.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	p, err := s.projects.Get(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleEditProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var in project.EditInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	p, err := s.projects.Edit(r.Context(), callerFrom(r.Context()), id, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTerminateProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	t, err := s.projects.Terminate(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

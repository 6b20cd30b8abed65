package gateway

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inboxd/inboxd/internal/integrations"
)

func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleGetIntegration(w http.ResponseWriter, r *http.Request) {
	in, err := s.registry.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeIntegrationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleToggleIntegration(w http.ResponseWriter, r *http.Request) {
	in, err := s.registry.Toggle(chi.URLParam(r, "name"))
	if err != nil {
		writeIntegrationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func writeIntegrationError(w http.ResponseWriter, err error) {
	if errors.Is(err, integrations.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Integration not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

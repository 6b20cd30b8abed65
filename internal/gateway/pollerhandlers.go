package gateway

import (
	"errors"
	"net/http"

	"github.com/inboxd/inboxd/internal/poller"
)

func (s *Server) handlePollerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.poller.Status())
}

func (s *Server) handlePollerTrigger(w http.ResponseWriter, r *http.Request) {
	result, err := s.poller.TriggerCycle(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, poller.ErrAlreadyRunning):
			writeError(w, http.StatusConflict, "a poll cycle is already in flight")
		case errors.Is(err, poller.ErrCredentialsMissing):
			writeError(w, http.StatusBadRequest, "source credentials not configured")
		default:
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"detail": err.Error(),
				"result": result,
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Manual poll completed",
		"result":  result,
		"status":  s.poller.Status(),
	})
}

func (s *Server) handlePollerStart(w http.ResponseWriter, r *http.Request) {
	if err := s.poller.Start(); err != nil {
		if errors.Is(err, poller.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "poller already running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Poller started",
		"status":  s.poller.Status(),
	})
}

func (s *Server) handlePollerStop(w http.ResponseWriter, r *http.Request) {
	if err := s.poller.Stop(); err != nil {
		if errors.Is(err, poller.ErrNotRunning) {
			writeError(w, http.StatusConflict, "poller not running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Poller stopped",
		"status":  s.poller.Status(),
	})
}

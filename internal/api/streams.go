package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/showcue/showcue-core/internal/stream"
)

// createStreamRequest is the body for POST /streams. The ID is optional;
// an empty ID asks the manager to generate one.
type createStreamRequest struct {
	ID string `json:"id"`
}

// handleListStreams returns a snapshot of every registered stream.
func (s *Server) handleListStreams(w http.ResponseWriter, _ *http.Request) {
	ids := s.manager.List()
	now := time.Now()

	updates := make([]stream.StateUpdate, 0, len(ids))
	for _, id := range ids {
		orch, err := s.manager.Get(id)
		if err != nil {
			// Removed between List and Get; skip
			continue
		}
		updates = append(updates, stream.NewStateUpdate(id, orch.State(), now))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"streams": updates,
		"count":   len(updates),
	})
}

// handleCreateStream registers a new stream and starts its engine.
func (s *Server) handleCreateStream(w http.ResponseWriter, r *http.Request) {
	var req createStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	orch, err := s.manager.Create(req.ID)
	switch {
	case errors.Is(err, stream.ErrStreamExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "stream already exists: "+req.ID)
		return
	case errors.Is(err, stream.ErrManagerClosed):
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "stream manager is shutting down")
		return
	case err != nil:
		writeInternalError(w, "failed to create stream")
		return
	}

	writeJSON(w, http.StatusCreated, stream.NewStateUpdate(orch.ID(), orch.State(), time.Now()))
}

// handleGetStream returns the current state of a single stream.
func (s *Server) handleGetStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	orch, err := s.manager.Get(id)
	if errors.Is(err, stream.ErrStreamNotFound) {
		writeNotFound(w, "stream not found: "+id)
		return
	}

	writeJSON(w, http.StatusOK, stream.NewStateUpdate(id, orch.State(), time.Now()))
}

// handleDeleteStream shuts a stream's engine down and removes it.
func (s *Server) handleDeleteStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.manager.Remove(r.Context(), id); err != nil {
		if errors.Is(err, stream.ErrStreamNotFound) {
			writeNotFound(w, "stream not found: "+id)
			return
		}
		writeInternalError(w, "failed to remove stream")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

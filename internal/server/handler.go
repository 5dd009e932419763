package server

import (
	"encoding/json"
	"net/http"
)

// nowPlayingHandler always answers 200; upstream trouble shows up as
// {"isPlaying":false}.
func (s *Server) nowPlayingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	status := s.service.Status(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.log.WithError(err).Warn("failed to write now playing response")
	}
}

// healthHandler responds to container health checks.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type readiness struct {
	Status string `json:"status"`
	Source string `json:"source"`
	Cache  string `json:"cache"`
}

func (s *Server) readyHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(readiness{
		Status: "ready",
		Source: s.service.SourceName(),
		Cache:  s.service.CacheName(),
	}); err != nil {
		s.log.WithError(err).Warn("failed to write readiness response")
	}
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/Its-donkey/buildfront/logging"
)

func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(s.store.Snapshot()); err != nil {
		s.requestLog(r).Error("encode snapshot", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func requestID(r *http.Request) string {
	return logging.RequestID(r.Context())
}

// requestLog returns an "http" log context tagged with the request id.
func (s *server) requestLog(r *http.Request) *logging.LogContext {
	return s.logger.WithRequestID(requestID(r)).WithCategory("http")
}

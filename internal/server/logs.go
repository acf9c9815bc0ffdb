package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Its-donkey/buildfront/logging"
)

// handleLogs tails the logger as server-sent events. The optional level and
// category query parameters filter entries.
func (s *server) handleLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	level := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("level")))
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	entries := make(chan logging.Entry, 100)
	unsubscribe := s.logger.Subscribe(entries)
	defer unsubscribe()

	fmt.Fprintf(w, "event: ready\ndata: {\"timestamp\":%q}\n\n", s.now().UTC().Format(time.RFC3339))
	flusher.Flush()

	ticker := time.NewTicker(eventKeepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case entry := <-entries:
			if level != "" && entry.Level != level {
				continue
			}
			if category != "" && entry.Category != category {
				continue
			}
			data, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: log\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

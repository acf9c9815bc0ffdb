package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Its-donkey/buildfront/internal/store"
)

const eventKeepalive = 30 * time.Second

// handleEvents streams one "change" event per committed store mutation,
// carrying the collection counts after the change.
func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	changes := make(chan store.Counts, 16)
	reqLog := s.requestLog(r)
	unsubscribe := s.store.Subscribe(func(snap store.Snapshot) {
		// Never block the mutating goroutine on a slow reader.
		select {
		case changes <- snap.Counts():
		default:
			reqLog.Warn("event stream lagging, change dropped")
		}
	})
	defer unsubscribe()

	counts, _ := json.Marshal(s.store.Snapshot().Counts())
	fmt.Fprintf(w, "event: ready\ndata: %s\n\n", counts)
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
		case c := <-changes:
			data, err := json.Marshal(c)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

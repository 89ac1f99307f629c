package invoice

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// eventBuffer is how many events a slow client may lag behind before
// events are dropped for it
const eventBuffer = 16

// handleEvents streams store change events as server-sent events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	events := make(chan Event, eventBuffer)
	unsubscribe := s.service.Subscribe(func(e Event) {
		select {
		case events <- e:
		default:
			slog.Warn("Dropping invoice event for slow client", "kind", e.Kind, "id", e.ID)
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			data, err := json.Marshal(e)
			if err != nil {
				slog.Error("Error encoding event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
			flusher.Flush()
		}
	}
}

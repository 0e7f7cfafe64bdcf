package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ─── Live Updates ───────────────────────────────────────────────────────────
// Bus events are relayed to browsers over Server-Sent Events, one SSE event
// per bus event, named by its kind:
//
//	event: team-score-updated
//	data: {"teamId":"team-1","newScore":20,"pointChange":10}

const sseKeepAlive = 25 * time.Second

// handleEvents streams bus events until the client disconnects.
// GET /api/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, unsub := s.bus.SubscribeChan(64)
	defer unsub()
	s.log.Debug("event stream opened", "subscribers", s.bus.SubscriberCount())
	defer s.log.Debug("event stream closed", "remote", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				s.log.Warn("encode event failed", "kind", ev.Kind(), "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind(), data)
			flusher.Flush()
		}
	}
}

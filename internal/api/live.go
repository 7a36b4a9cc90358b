package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// heartbeatInterval keeps idle SSE connections open through proxies.
const heartbeatInterval = 15 * time.Second

// handleDashboardLive streams dashboard snapshots as Server-Sent Events
// until the client goes away.
func (s *Server) handleDashboardLive(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	snaps, unsubscribe := s.dash.Subscribe()
	defer unsubscribe()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	writer := bufio.NewWriter(w)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("dashboard client gone", "request_id", middleware.GetReqID(ctx))
			return
		case <-heartbeat.C:
			fmt.Fprint(writer, ": ping\n\n")
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				s.log.Warn("marshal dashboard snapshot", "error", err)
				continue
			}
			fmt.Fprintf(writer, "event: snapshot\ndata: %s\n\n", data)
		}
		writer.Flush()
		flusher.Flush()
	}
}

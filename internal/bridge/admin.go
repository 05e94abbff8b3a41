package bridge

import (
	"fmt"
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/touchbridge/internal/httputil"
	"github.com/banshee-data/touchbridge/internal/version"
)

// AttachAdminRoutes attaches the bridge debugging endpoints to mux under
// /debug/. tsweb only serves them to localhost or over Tailscale.
func (b *Bridge) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("bridge", "bridge mode, session count and last command", func(w http.ResponseWriter, r *http.Request) {
		if httputil.MethodNotAllowed(w, r, http.MethodGet) {
			return
		}
		httputil.WriteJSON(w, http.StatusOK, struct {
			Status
			Version string `json:"version"`
		}{b.Status(), version.String()})
	})

	debug.Handle("bridge-metrics", "Prometheus metrics for the bridge", b.metrics.Handler())

	// Server-Sent Events for every relayed frame and session transition.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if httputil.MethodNotAllowed(w, r, http.MethodGet) {
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			httputil.WriteJSONError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		id, c := b.tap.Subscribe()
		defer b.tap.Unsubscribe(id)

		// Send initial ping to establish connection
		w.Write([]byte(": ping\n\n"))
		flusher.Flush()

		for {
			select {
			case line, ok := <-c:
				if !ok {
					// Channel closed, exit gracefully
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", line); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}

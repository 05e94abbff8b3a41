// Package httputil holds small helpers shared by the debug HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode json response")
	}
}

// WriteJSONError writes {"error": msg} with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// MethodNotAllowed rejects r unless it uses one of methods. It reports
// whether the request was rejected.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return false
		}
	}
	if len(methods) > 0 {
		w.Header().Set("Allow", methods[0])
		for _, m := range methods[1:] {
			w.Header().Add("Allow", m)
		}
	}
	WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	return true
}

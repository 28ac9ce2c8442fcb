package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"plata/internal/format"
	"plata/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusUnauthorized, errorResponse{Error: format.Unauthorized(s.localeFor(r))})
}

func (s *Server) writeServerError(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: format.GenericError(s.localeFor(r))})
}

// localeFor picks the session's locale when authenticated, otherwise the
// configured default.
func (s *Server) localeFor(r *http.Request) string {
	if sess, ok := session.FromContext(r.Context()); ok && sess.Locale != "" {
		return sess.Locale
	}
	return s.defaultLocale
}

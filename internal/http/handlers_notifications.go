package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"plata/internal/core"
	"plata/internal/session"
)

type notificationResponse struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
	ReadAt    string `json:"readAt,omitempty"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.writeUnauthorized(w, r)
		return
	}

	opts := notificationOptionsFromQuery(r)
	notifications, err := s.notifications.ListNotifications(r.Context(), sess.UserID, opts)
	if err != nil {
		slog.ErrorContext(r.Context(), "Listing notifications failed",
			"user_id", sess.UserID,
			"error", err)
		s.writeServerError(w, r)
		return
	}

	out := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp := notificationResponse{
			ID:        n.ID,
			Kind:      n.Kind,
			Body:      n.Body,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		}
		if n.ReadAt != nil {
			resp.ReadAt = n.ReadAt.UTC().Format(time.RFC3339)
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// notificationOptionsFromQuery maps ?unread, ?limit and ?offset onto list
// options. Unparseable values fall back to the defaults.
func notificationOptionsFromQuery(r *http.Request) core.NotificationListOptions {
	q := r.URL.Query()
	var opts core.NotificationListOptions

	opts.UnreadOnly = q.Get("unread") == "true" || q.Get("unread") == "1"
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = v
	}
	return opts.Normalize()
}

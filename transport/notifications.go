package transport

import (
	"net/http"
)

// ListNotifications handles GET /api/notifications/unread — the catch-up
// read for a client that was offline while the bus fanned events out
// (spec.md §4.7 "two parallel outputs: the broadcast bus for live
// subscribers and a persisted row for offline catch-up").
func (a *App) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	rows, err := a.Notes.ListUnread(r.Context(), userID)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

// MarkNotificationsRead handles POST /api/notifications/read.
func (a *App) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	var req markReadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation", "invalid request body")
		return
	}
	if err := a.Notes.MarkRead(r.Context(), userID, req.IDs); err != nil {
		a.handleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

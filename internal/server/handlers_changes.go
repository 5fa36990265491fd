package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/planline-io/planline/internal/model"
)

// HandleListChanges handles GET /v1/changes?limit=.
func (h *Handlers) HandleListChanges(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "limit must be a positive integer")
			return
		}
		limit = v
	}
	changes := h.tracker.RecentChanges(limit)
	writeList(w, r, changes, len(changes), limit)
}

// HandleChangeStats handles GET /v1/changes/stats.
func (h *Handlers) HandleChangeStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.tracker.Stats())
}

// HandleUnreadCount handles GET /v1/changes/unread-count.
func (h *Handlers) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, model.UnreadCountResponse{Unread: h.tracker.UnreadCount()})
}

// HandleMarkAllRead handles POST /v1/changes/read-all.
func (h *Handlers) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.tracker.MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkRead handles POST /v1/changes/{change_id}/read.
func (h *Handlers) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	if !h.tracker.MarkRead(r.PathValue("change_id")) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "change not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetChange handles GET /v1/changes/{change_id}.
func (h *Handlers) HandleGetChange(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.tracker.ChangeByID(r.PathValue("change_id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "change not found")
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// HandlePlanChanges handles GET /v1/order-plans/{plan_id}/changes. The feed
// is consulted directly, so history for a deleted plan remains readable
// until it falls off the buffer.
func (h *Handlers) HandlePlanChanges(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("plan_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "plan_id must be a UUID")
		return
	}
	changes := h.tracker.ChangesForEntity(id.String())
	writeList(w, r, changes, len(changes), len(changes))
}

// HandleEntityChanges handles GET /v1/changes/entity/{entity_id}.
func (h *Handlers) HandleEntityChanges(w http.ResponseWriter, r *http.Request) {
	changes := h.tracker.ChangesForEntity(r.PathValue("entity_id"))
	writeList(w, r, changes, len(changes), len(changes))
}

// HandleSubscribeChanges handles GET /v1/changes/subscribe, streaming change
// events over Server-Sent Events until the client disconnects.
func (h *Handlers) HandleSubscribeChanges(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial comment so clients see the stream is live before any change.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ch := h.broker.Subscribe()
	defer h.broker.Unsubscribe(ch)

	h.logger.Info("sse subscriber connected",
		"request_id", RequestIDFromContext(r.Context()),
		"subscribers", h.broker.SubscriberCount())

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rewearhq/rewear-backend/internal/api/httpx"
	"github.com/rewearhq/rewear-backend/internal/engine"
	"github.com/rewearhq/rewear-backend/internal/middleware"
)

type NotificationHandler struct {
	Eng *engine.Engine
}

func NewNotificationHandler(eng *engine.Engine) *NotificationHandler {
	return &NotificationHandler{Eng: eng}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	limit, offset := pagination(r)
	ns, err := h.Eng.Notifications(r.Context(), uid, limit, offset)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	unread, err := h.Eng.UnreadNotificationCount(r.Context(), uid)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": ns,
		"unread_count":  unread,
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	if err := h.Eng.MarkNotificationRead(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	if err := h.Eng.MarkAllNotificationsRead(r.Context(), uid); err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

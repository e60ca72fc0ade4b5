package handlers

import (
	"net/http"

	"github.com/rewearhq/rewear-backend/internal/api/httpx"
	"github.com/rewearhq/rewear-backend/internal/engine"
	"github.com/rewearhq/rewear-backend/internal/middleware"
)

type PointsHandler struct {
	Eng *engine.Engine
}

func NewPointsHandler(eng *engine.Engine) *PointsHandler {
	return &PointsHandler{Eng: eng}
}

func (h *PointsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	bal, err := h.Eng.GetBalance(r.Context(), uid)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"balance": bal})
}

func (h *PointsHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	limit, offset := pagination(r)
	entries, err := h.Eng.ListLedger(r.Context(), uid, limit, offset)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

func (h *PointsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	stats, err := h.Eng.Dashboard(r.Context(), uid)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

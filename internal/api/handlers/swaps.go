package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rewearhq/rewear-backend/internal/api/httpx"
	"github.com/rewearhq/rewear-backend/internal/api/validate"
	"github.com/rewearhq/rewear-backend/internal/engine"
	"github.com/rewearhq/rewear-backend/internal/middleware"
)

type SwapHandler struct {
	Eng *engine.Engine
}

func NewSwapHandler(eng *engine.Engine) *SwapHandler {
	return &SwapHandler{Eng: eng}
}

type createSwapReq struct {
	RequesterItemID string `json:"requester_item_id"`
	RequestedItemID string `json:"requested_item_id"`
	Message         string `json:"message"`
}

func (h *SwapHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	var req createSwapReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	if errs := validate.Collect(
		validate.Required("requester_item_id", req.RequesterItemID),
		validate.Required("requested_item_id", req.RequestedItemID),
	); errs != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation", errs.Error(), errs)
		return
	}
	sr, err := h.Eng.RequestSwap(r.Context(), uid, req.RequesterItemID, req.RequestedItemID, req.Message)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sr)
}

type respondSwapReq struct {
	Decision string `json:"decision"` // accept | reject
	Message  string `json:"message"`
}

func (h *SwapHandler) Respond(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	var req respondSwapReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	sr, err := h.Eng.RespondToSwap(r.Context(), chi.URLParam(r, "id"), uid, engine.SwapDecision(req.Decision), req.Message)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sr)
}

func (h *SwapHandler) Complete(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	sr, err := h.Eng.CompleteSwap(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sr)
}

func (h *SwapHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	sr, err := h.Eng.CancelSwap(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sr)
}

func (h *SwapHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	sr, err := h.Eng.GetSwap(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sr)
}

func (h *SwapHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	limit, offset := pagination(r)
	side := r.URL.Query().Get("type") // sent | received | all
	out, err := h.Eng.ListSwaps(r.Context(), uid, side, limit, offset)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

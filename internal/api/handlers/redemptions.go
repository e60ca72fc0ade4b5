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

type RedemptionHandler struct {
	Eng *engine.Engine
}

func NewRedemptionHandler(eng *engine.Engine) *RedemptionHandler {
	return &RedemptionHandler{Eng: eng}
}

type createRedemptionReq struct {
	ItemID  string `json:"item_id"`
	Message string `json:"message"`
}

func (h *RedemptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	var req createRedemptionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	if errs := validate.Collect(validate.Required("item_id", req.ItemID)); errs != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation", errs.Error(), errs)
		return
	}
	red, err := h.Eng.RequestRedemption(r.Context(), uid, req.ItemID, req.Message)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, red)
}

type respondRedemptionReq struct {
	Decision string `json:"decision"` // approve | reject | complete
}

func (h *RedemptionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	var req respondRedemptionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	red, err := h.Eng.RespondToRedemption(r.Context(), chi.URLParam(r, "id"), uid, engine.RedemptionDecision(req.Decision))
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, red)
}

func (h *RedemptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	red, err := h.Eng.GetRedemption(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, red)
}

func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	limit, offset := pagination(r)
	out, err := h.Eng.ListRedemptions(r.Context(), uid, limit, offset)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rewearhq/rewear-backend/internal/api/httpx"
	"github.com/rewearhq/rewear-backend/internal/api/validate"
	"github.com/rewearhq/rewear-backend/internal/engine"
	"github.com/rewearhq/rewear-backend/internal/middleware"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

type ItemHandler struct {
	Eng *engine.Engine
}

func NewItemHandler(eng *engine.Engine) *ItemHandler {
	return &ItemHandler{Eng: eng}
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	// eligibility defaults to true unless the body says otherwise
	in := engine.ItemInput{SwapEligible: true, PointsEligible: true}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	if errs := validate.Collect(
		validate.Required("title", in.Title),
		validate.MinInt("points_value", in.PointsValue, 0),
	); errs != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation", errs.Error(), errs)
		return
	}
	it, err := h.Eng.ListItem(r.Context(), uid, in)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, it)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.Eng.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, it)
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.ItemFilter{
		Category:   q.Get("category"),
		Size:       q.Get("size"),
		Condition:  q.Get("condition"),
		MinPoints:  queryInt64(q.Get("min_points")),
		MaxPoints:  queryInt64(q.Get("max_points")),
		SwapOnly:   q.Get("availability") == "swap",
		PointsOnly: q.Get("availability") == "points",
		Limit:      int(queryInt64(q.Get("limit"))),
		Offset:     int(queryInt64(q.Get("offset"))),
	}
	items, err := h.Eng.ListAvailableItems(r.Context(), f)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Mine(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	items, err := h.Eng.MyItems(r.Context(), uid)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) PendingQueue(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	items, err := h.Eng.PendingItems(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

type moderateReq struct {
	Action  string `json:"action"` // approve | reject
	Message string `json:"message"`
}

func (h *ItemHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	var req moderateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	if errs := validate.Collect(validate.OneOf("action", req.Action, "approve", "reject")); errs != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation", errs.Error(), errs)
		return
	}
	it, err := h.Eng.ModerateItem(r.Context(), uid, chi.URLParam(r, "id"), req.Action == "approve", req.Message)
	if err != nil {
		httpx.WriteEngineError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, it)
}

func queryInt64(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func pagination(r *http.Request) (limit, offset int) {
	limit = int(queryInt64(r.URL.Query().Get("limit")))
	offset = int(queryInt64(r.URL.Query().Get("offset")))
	if limit == 0 {
		limit = 50
	}
	return limit, offset
}

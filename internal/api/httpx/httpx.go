package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/rewearhq/rewear-backend/internal/engine"
)

type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details any) {
	WriteJSON(w, status, APIError{Error: msg, Code: code, Details: details})
}

// WriteEngineError maps engine error kinds onto HTTP status codes.
func WriteEngineError(w http.ResponseWriter, err error) {
	kind := engine.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case engine.KindValidation:
		status = http.StatusBadRequest
	case engine.KindUnauthorized:
		status = http.StatusForbidden
	case engine.KindNotFound:
		status = http.StatusNotFound
	case engine.KindConflict:
		status = http.StatusConflict
	case engine.KindInsufficientFunds:
		status = http.StatusUnprocessableEntity
	}
	msg := err.Error()
	if kind == engine.KindInternal {
		msg = "internal error"
	}
	WriteError(w, status, string(kind), msg, nil)
}

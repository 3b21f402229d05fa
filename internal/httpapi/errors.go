package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"scrumtrack/internal/domain"
)

const (
	CodeNotFound    = "NOT_FOUND"
	CodeInvalid     = "INVALID"
	CodeUnavailable = "UNAVAILABLE"
	CodeInternal    = "INTERNAL"
)

var errAssistantDisabled = errors.New("assistant is not configured")

type ErrorItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorBody struct {
	Error ErrorItem `json:"error"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: ErrorItem{Code: code, Message: message}})
}

// writeDomainError maps err onto the JSON error body. Internal errors are
// logged and their text is not sent to the client.
func writeDomainError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalid):
		WriteError(w, http.StatusBadRequest, CodeInvalid, err.Error())
	case errors.Is(err, errAssistantDisabled):
		WriteError(w, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

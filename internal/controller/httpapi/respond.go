package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mentorhub/booking/internal/model"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps a domain error to its HTTP status and actionable message.
// Anything outside the taxonomy is a 500 and gets logged.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, model.ErrSlotUnavailable):
		status, code = http.StatusUnprocessableEntity, "slot_unavailable"
	case errors.Is(err, model.ErrSlotConflict):
		status, code = http.StatusConflict, "slot_conflict"
	case errors.Is(err, model.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, model.ErrUnauthorized):
		status, code = http.StatusForbidden, "unauthorized"
	case errors.Is(err, model.ErrCancellationWindowClosed):
		status, code = http.StatusUnprocessableEntity, "cancellation_window_closed"
	case errors.Is(err, model.ErrInvalidTimeGranularity):
		status, code = http.StatusUnprocessableEntity, "invalid_time_granularity"
	default:
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	h.writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    code,
		Message: model.UserMessage(err),
	}})
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
		Code:    "bad_request",
		Message: message,
	}})
}

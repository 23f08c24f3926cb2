package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ricorrenze/internal/core"
	applog "ricorrenze/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

var validationErrors = []error{
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrEmptyName,
	core.ErrEmptyCategory,
	core.ErrInvalidSplits,
	core.ErrInvalidOperation,
	core.ErrInvalidRecurrenceRule,
	core.ErrInvalidState,
	core.ErrOccurrenceIndexOutOfRange,
}

// statusFor maps domain errors to a response status and log category.
func statusFor(err error) (int, string) {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrTemplateNotFound), errors.Is(err, core.ErrModificationNotFound):
		return http.StatusNotFound, applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrInvalidStateTransition):
		return http.StatusConflict, applog.ErrorTypeConflict
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
		}
	}
	return http.StatusInternalServerError, applog.ErrorTypeInternal
}

// writeError logs err and writes its mapped status. Internal errors are not
// echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, errorType := statusFor(err)
	logger := applog.FromContext(r.Context())
	fields := applog.NewFields().
		WithHTTPRequest(r.Method, r.URL.Path).
		WithErrorType(errorType)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.LogError(r.Context(), "Request failed", err, fields)
		msg = "internal error"
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields.WithError(err).ToSlice()...)
	}
	writeErrorMessage(w, status, msg)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

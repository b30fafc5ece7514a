package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/logger"
	"github.com/osse101/DCM_Go/internal/payout"
)

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse lists every rejected field. Keys follow request
// paths such as "participants[1].stake" or "winning_side".
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// bufferPool is a pool of bytes.Buffer to reduce allocations during JSON encoding
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

// respondJSON encodes into a pooled buffer first so an encoding failure can
// still produce a 500 instead of a truncated body
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs err and answers with the mapped status. Engine
// validation failures carry their per-field detail to the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, opName string, err error) {
	log := logger.FromContext(r.Context())

	if errors.Is(err, domain.ErrStoredScenarioInvalid) {
		log.Error(opName+" failed", "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgStoredScenarioBrokenErr)
		return
	}

	if verr, ok := payout.AsValidationError(err); ok {
		log.Info(opName+" rejected", "error", err)
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequestSummary,
			Fields: verr.Fields(),
		})
		return
	}

	status, msg := mapServiceErrorToUserMessage(err)
	if status >= http.StatusInternalServerError {
		log.Error(opName+" failed", "error", err)
	} else {
		log.Warn(opName+" failed", "error", err)
	}
	respondError(w, status, msg)
}

// mapServiceErrorToUserMessage maps domain errors to HTTP status codes and
// messages that do not leak internals
func mapServiceErrorToUserMessage(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, ErrMsgUnknownError
	case errors.Is(err, domain.ErrScenarioNotFound):
		return http.StatusNotFound, ErrMsgScenarioNotFoundError
	case errors.Is(err, domain.ErrInvalidStake),
		errors.Is(err, domain.ErrInvalidLeverageBound),
		errors.Is(err, domain.ErrInvalidSide),
		errors.Is(err, domain.ErrInvalidConfidence),
		errors.Is(err, domain.ErrLeverageAboveMaximum),
		errors.Is(err, domain.ErrTooManyParticipants),
		errors.Is(err, domain.ErrInvalidParticipantRow),
		errors.Is(err, domain.ErrAmountOverflow),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequestError
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrMsgRequestCancelledError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrMsgUnavailableError
	default:
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/osse101/DCM_Go/internal/logger"
)

// DecodeAndValidateRequest decodes a JSON request body and validates it.
//
// If this function returns an error, the HTTP response has already been
// written and the handler should return.
//
// Example usage:
//
//	var req domain.ComputeRequest
//	if err := DecodeAndValidateRequest(r, w, &req, "Compute payouts"); err != nil {
//	    return
//	}
func DecodeAndValidateRequest(r *http.Request, w http.ResponseWriter, req interface{}, actionName string) error {
	log := logger.FromContext(r.Context())

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		log.Warn(fmt.Sprintf("Failed to decode %s request", actionName), "error", err)
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return err
	}

	log.Debug(fmt.Sprintf("%s request decoded", actionName))

	if err := GetValidator().ValidateStruct(req); err != nil {
		log.Info(fmt.Sprintf("%s request failed validation", actionName), "error", err)
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequestSummary,
			Fields: FormatValidationError(err),
		})
		return err
	}

	return nil
}

// GetOptionalQueryParam retrieves an optional query parameter from the request
func GetOptionalQueryParam(r *http.Request, paramName string, defaultValue string) string {
	value := r.URL.Query().Get(paramName)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetLimitParam parses the "limit" query parameter. Zero means the service default.
// If ok is false, the HTTP response has already been written.
func GetLimitParam(r *http.Request, w http.ResponseWriter, maxLimit int) (limit int, ok bool) {
	raw := GetOptionalQueryParam(r, QueryParamLimit, "")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxLimit {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidLimit)
		return 0, false
	}
	return limit, true
}

// Package handler exposes the HTTP API: personalised feed delivery,
// subscription management, calendar browsing, the admin surface and the
// Google OAuth connect flow.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hotrph/calsync/internal/model"
)

// apiErrorResponse is the unified error format of the API.
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse writes an error in the unified format.
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequest reports a request body that could not be decoded.
func writeInvalidRequest(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "failed to parse the request body.",
		Category: "validation",
		Action:   "Send a well-formed JSON body.",
	})
}

// handleServiceError maps a service layer error to an HTTP response.
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// Anything that is not an APIError is an internal failure.
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "an internal error occurred.",
		Category: "system",
		Action:   "Try again later.",
	})
}

// mapAPIErrorToHTTPStatus maps an APIError code to an HTTP status code.
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeCalendarNotFound, model.ErrCodeEventNotFound, model.ErrCodeSubscriberNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidFeedToken:
		return http.StatusUnauthorized
	case model.ErrCodeFeedForbidden, model.ErrCodeCalendarPrivate:
		return http.StatusForbidden
	case model.ErrCodeMissingFields, model.ErrCodeInvalidPlatform:
		return http.StatusBadRequest
	case model.ErrCodeSlugTaken:
		return http.StatusConflict
	case model.ErrCodeGoogleAuthFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

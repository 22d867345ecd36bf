package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/osse101/openduel/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"

	ErrMsgSeriesNotFoundError  = "Series not found"
	ErrMsgSeriesOverError      = "That series is already over"
	ErrMsgOpeningNotFoundError = "Opening not found"
	ErrMsgWrongPhaseError      = "That action is not available right now"
	ErrMsgNotYourTurnError     = "It is not your turn to choose"
	ErrMsgInvalidSelectionErr  = "Invalid selection"

	ErrMsgPoolFullError      = "Your pool is full"
	ErrMsgPoolAtMinimumError = "Your pool is at the minimum size"
	ErrMsgAlreadyInPoolError = "That opening is already in your pool"
	ErrMsgWinRateError       = "That opening's results are too one-sided"
	ErrMsgInvalidFENError    = "That position is not a valid FEN"

	ErrMsgNoRematchOfferError = "There is no pending rematch offer"
	ErrMsgStaleCommandError   = "That action no longer applies"
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP
// responses
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrSeriesNotFound):
		return http.StatusNotFound, ErrMsgSeriesNotFoundError
	case errors.Is(err, domain.ErrOpeningNotFound):
		return http.StatusNotFound, ErrMsgOpeningNotFoundError
	case errors.Is(err, domain.ErrSeriesOver):
		return http.StatusConflict, ErrMsgSeriesOverError
	case errors.Is(err, domain.ErrWrongPhase):
		return http.StatusConflict, ErrMsgWrongPhaseError
	case errors.Is(err, domain.ErrNotYourTurn):
		return http.StatusConflict, ErrMsgNotYourTurnError
	case errors.Is(err, domain.ErrInvalidSelection):
		return http.StatusBadRequest, ErrMsgInvalidSelectionErr
	case errors.Is(err, domain.ErrPoolFull):
		return http.StatusBadRequest, ErrMsgPoolFullError
	case errors.Is(err, domain.ErrPoolAtMinimum):
		return http.StatusBadRequest, ErrMsgPoolAtMinimumError
	case errors.Is(err, domain.ErrAlreadyInPool):
		return http.StatusBadRequest, ErrMsgAlreadyInPoolError
	case errors.Is(err, domain.ErrWinRateImbalance):
		return http.StatusBadRequest, ErrMsgWinRateError
	case errors.Is(err, domain.ErrInvalidFEN):
		return http.StatusBadRequest, ErrMsgInvalidFENError
	case errors.Is(err, domain.ErrStaleCommand):
		return http.StatusConflict, ErrMsgStaleCommandError
	case errors.Is(err, domain.ErrNoRematchOffer):
		return http.StatusConflict, ErrMsgNoRematchOfferError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequestSummary
	}

	// For wrapped errors with domain errors as the base, try unwrapping
	unwrapped := errors.Unwrap(err)
	if unwrapped != nil && unwrapped != err {
		return mapServiceErrorToUserMessage(unwrapped)
	}

	errMsg := err.Error()
	if errMsg != "" && len(errMsg) < 200 {
		return http.StatusInternalServerError, errMsg
	}
	return http.StatusInternalServerError, ErrMsgGenericServerError
}

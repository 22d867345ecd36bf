package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/logger"
	"github.com/osse101/openduel/internal/pool"
)

type PoolHandler struct {
	service pool.Service
}

func NewPoolHandler(service pool.Service) *PoolHandler {
	return &PoolHandler{service: service}
}

func (h *PoolHandler) HandleGetPool(w http.ResponseWriter, r *http.Request) {
	userIDStr, ok := GetQueryParam(r, w, "user")
	if !ok {
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	openings, err := h.service.GetPool(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to get pool", "error", err, "user_id", userID)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}
	if openings == nil {
		openings = []domain.PoolOpening{}
	}

	respondJSON(w, http.StatusOK, openings)
}

type AddOpeningRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Name   string `json:"name" validate:"required,max=100"`
	FEN    string `json:"fen" validate:"required"`
	Color  string `json:"color" validate:"required,chesscolor"`
}

func (h *PoolHandler) HandleAddOpening(w http.ResponseWriter, r *http.Request) {
	var req AddOpeningRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Add opening"); err != nil {
		return
	}

	userID, _ := uuid.Parse(req.UserID)

	opening, err := h.service.AddOpening(r.Context(), userID, req.Name, req.FEN, domain.Color(req.Color))
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to add opening", "error", err, "user_id", userID)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusCreated, opening)
}

func (h *PoolHandler) HandleRemoveOpening(w http.ResponseWriter, r *http.Request) {
	openingID, ok := URLParamUUID(r, w, "id")
	if !ok {
		return
	}
	userIDStr, ok := GetQueryParam(r, w, "user")
	if !ok {
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := h.service.RemoveOpening(r.Context(), userID, openingID); err != nil {
		logger.FromContext(r.Context()).Error("Failed to remove opening", "error", err, "user_id", userID, "opening_id", openingID)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": MsgOpeningRemoved})
}

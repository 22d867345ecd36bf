package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/osse101/openduel/internal/domain"
)

type stubPoolService struct {
	pool      []domain.PoolOpening
	added     *domain.PoolOpening
	getErr    error
	addErr    error
	removeErr error

	removedUser    uuid.UUID
	removedOpening uuid.UUID
}

func (s *stubPoolService) GetPool(ctx context.Context, userID uuid.UUID) ([]domain.PoolOpening, error) {
	return s.pool, s.getErr
}

func (s *stubPoolService) AddOpening(ctx context.Context, userID uuid.UUID, name, fen string, color domain.Color) (*domain.PoolOpening, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	return s.added, nil
}

func (s *stubPoolService) RemoveOpening(ctx context.Context, userID, openingID uuid.UUID) error {
	s.removedUser = userID
	s.removedOpening = openingID
	return s.removeErr
}

func (s *stubPoolService) Snapshot(ctx context.Context, userID uuid.UUID, owner int) ([]domain.Opening, error) {
	return nil, nil
}

func TestHandleGetPool(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name           string
		query          string
		service        *stubPoolService
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Missing user param",
			query:          "",
			service:        &stubPoolService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Missing user query parameter",
		},
		{
			name:           "Invalid user id",
			query:          "?user=not-a-uuid",
			service:        &stubPoolService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInvalidID,
		},
		{
			name:  "Success",
			query: "?user=" + userID.String(),
			service: &stubPoolService{pool: []domain.PoolOpening{
				{ID: uuid.New(), UserID: userID, Name: "Italian Game", Color: domain.ColorWhite},
			}},
			expectedStatus: http.StatusOK,
			expectedBody:   "Italian Game",
		},
		{
			name:           "Empty pool is a JSON array",
			query:          "?user=" + userID.String(),
			service:        &stubPoolService{},
			expectedStatus: http.StatusOK,
			expectedBody:   "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitValidator()
			h := NewPoolHandler(tt.service)

			req := httptest.NewRequest(http.MethodGet, "/pool"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.HandleGetPool(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
		})
	}
}

func TestHandleAddOpening(t *testing.T) {
	userID := uuid.New()
	stored := &domain.PoolOpening{ID: uuid.New(), UserID: userID, Name: "Sicilian Defense", Color: domain.ColorBlack}

	tests := []struct {
		name           string
		reqBody        interface{}
		service        *stubPoolService
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Invalid JSON",
			reqBody:        "not json",
			service:        &stubPoolService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInvalidRequest,
		},
		{
			name: "Missing color",
			reqBody: AddOpeningRequest{
				UserID: userID.String(),
				Name:   "Sicilian Defense",
				FEN:    "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
			},
			service:        &stubPoolService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "This field is required",
		},
		{
			name: "Bad color",
			reqBody: AddOpeningRequest{
				UserID: userID.String(),
				Name:   "Sicilian Defense",
				FEN:    "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
				Color:  "green",
			},
			service:        &stubPoolService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Must be white or black",
		},
		{
			name: "Pool full",
			reqBody: AddOpeningRequest{
				UserID: userID.String(),
				Name:   "Sicilian Defense",
				FEN:    "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
				Color:  "black",
			},
			service:        &stubPoolService{addErr: fmt.Errorf("%w: 10 openings", domain.ErrPoolFull)},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgPoolFullError,
		},
		{
			name: "Success",
			reqBody: AddOpeningRequest{
				UserID: userID.String(),
				Name:   "Sicilian Defense",
				FEN:    "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
				Color:  "black",
			},
			service:        &stubPoolService{added: stored},
			expectedStatus: http.StatusCreated,
			expectedBody:   "Sicilian Defense",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitValidator()
			h := NewPoolHandler(tt.service)

			var body bytes.Buffer
			if s, ok := tt.reqBody.(string); ok {
				body.WriteString(s)
			} else {
				assert.NoError(t, json.NewEncoder(&body).Encode(tt.reqBody))
			}

			req := httptest.NewRequest(http.MethodPost, "/pool", &body)
			rr := httptest.NewRecorder()
			h.HandleAddOpening(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
		})
	}
}

func TestHandleRemoveOpening(t *testing.T) {
	userID := uuid.New()
	openingID := uuid.New()

	tests := []struct {
		name           string
		paramID        string
		query          string
		service        *stubPoolService
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Invalid opening id",
			paramID:        "junk",
			query:          "?user=" + userID.String(),
			service:        &stubPoolService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInvalidID,
		},
		{
			name:           "Not found",
			paramID:        openingID.String(),
			query:          "?user=" + userID.String(),
			service:        &stubPoolService{removeErr: domain.ErrOpeningNotFound},
			expectedStatus: http.StatusNotFound,
			expectedBody:   ErrMsgOpeningNotFoundError,
		},
		{
			name:           "Pool at minimum",
			paramID:        openingID.String(),
			query:          "?user=" + userID.String(),
			service:        &stubPoolService{removeErr: domain.ErrPoolAtMinimum},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgPoolAtMinimumError,
		},
		{
			name:           "Success",
			paramID:        openingID.String(),
			query:          "?user=" + userID.String(),
			service:        &stubPoolService{},
			expectedStatus: http.StatusOK,
			expectedBody:   MsgOpeningRemoved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitValidator()
			h := NewPoolHandler(tt.service)

			req := httptest.NewRequest(http.MethodDelete, "/pool/"+tt.paramID+tt.query, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.paramID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			h.HandleRemoveOpening(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, userID, tt.service.removedUser)
				assert.Equal(t, openingID, tt.service.removedOpening)
			}
		})
	}
}

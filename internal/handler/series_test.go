package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/osse101/openduel/internal/domain"
)

type stubSeriesService struct {
	created   *domain.Series
	snapshot  *domain.Series
	createErr error
	getErr    error
	resultErr error

	reportedResult domain.GameResult
	reportedPlies  int
}

func (s *stubSeriesService) CreateSeries(ctx context.Context, userA, userB uuid.UUID) (*domain.Series, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.created, nil
}

func (s *stubSeriesService) Snapshot(ctx context.Context, id uuid.UUID) (*domain.Series, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.snapshot, nil
}

func (s *stubSeriesService) ReportGameResult(ctx context.Context, seriesID, gameID uuid.UUID, result domain.GameResult, plies int) error {
	s.reportedResult = result
	s.reportedPlies = plies
	return s.resultErr
}

func (s *stubSeriesService) ReportGameProgress(ctx context.Context, seriesID, gameID uuid.UUID, plies int) error {
	return nil
}

type stubSeriesArchive struct {
	recent  []domain.Series
	listErr error
}

func (a *stubSeriesArchive) ArchiveSeries(context.Context, *domain.Series) error { return nil }

func (a *stubSeriesArchive) GetArchivedSeries(context.Context, uuid.UUID) (*domain.Series, error) {
	return nil, domain.ErrSeriesNotFound
}

func (a *stubSeriesArchive) ListRecentSeries(context.Context, int) ([]domain.Series, error) {
	return a.recent, a.listErr
}

func liveSeries(id uuid.UUID) *domain.Series {
	s := &domain.Series{
		ID:     id,
		Status: domain.SeriesStarted,
		Phase:  domain.PhasePicking,
	}
	s.Players[0] = domain.SeriesPlayer{UserID: uuid.New(), Score: 4, Connected: true}
	s.Players[1] = domain.SeriesPlayer{UserID: uuid.New(), Score: 1, Connected: true}
	return s
}

func TestHandleCreateSeries(t *testing.T) {
	playerA := uuid.New()
	playerB := uuid.New()
	created := liveSeries(uuid.New())

	tests := []struct {
		name           string
		reqBody        interface{}
		service        *stubSeriesService
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Invalid JSON",
			reqBody:        "not json",
			service:        &stubSeriesService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInvalidRequest,
		},
		{
			name:           "Missing players",
			reqBody:        CreateSeriesRequest{PlayerA: playerA.String()},
			service:        &stubSeriesService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "This field is required",
		},
		{
			name:           "Same player on both sides",
			reqBody:        CreateSeriesRequest{PlayerA: playerA.String(), PlayerB: playerA.String()},
			service:        &stubSeriesService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgSamePlayer,
		},
		{
			name:           "Pool too small",
			reqBody:        CreateSeriesRequest{PlayerA: playerA.String(), PlayerB: playerB.String()},
			service:        &stubSeriesService{createErr: domain.ErrInvalidInput},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInvalidRequestSummary,
		},
		{
			name:           "Success",
			reqBody:        CreateSeriesRequest{PlayerA: playerA.String(), PlayerB: playerB.String()},
			service:        &stubSeriesService{created: created},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"phase":"picking"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitValidator()
			h := NewSeriesHandler(tt.service, &stubSeriesArchive{})

			var body bytes.Buffer
			if s, ok := tt.reqBody.(string); ok {
				body.WriteString(s)
			} else {
				assert.NoError(t, json.NewEncoder(&body).Encode(tt.reqBody))
			}

			req := httptest.NewRequest(http.MethodPost, "/series", &body)
			rr := httptest.NewRecorder()
			h.HandleCreateSeries(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
		})
	}
}

func TestHandleGetSeries(t *testing.T) {
	seriesID := uuid.New()

	tests := []struct {
		name           string
		paramID        string
		service        *stubSeriesService
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Invalid id",
			paramID:        "junk",
			service:        &stubSeriesService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInvalidID,
		},
		{
			name:           "Not found",
			paramID:        seriesID.String(),
			service:        &stubSeriesService{getErr: domain.ErrSeriesNotFound},
			expectedStatus: http.StatusNotFound,
			expectedBody:   ErrMsgSeriesNotFoundError,
		},
		{
			name:           "Success",
			paramID:        seriesID.String(),
			service:        &stubSeriesService{snapshot: liveSeries(seriesID)},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":20`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitValidator()
			h := NewSeriesHandler(tt.service, &stubSeriesArchive{})

			req := httptest.NewRequest(http.MethodGet, "/series/"+tt.paramID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.paramID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			h.HandleGetSeries(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
		})
	}
}

func TestSeriesViewScoresInPoints(t *testing.T) {
	s := liveSeries(uuid.New())

	view := seriesView(s)

	assert.Equal(t, 2.0, view.Players[0].Score)
	assert.Equal(t, 0.5, view.Players[1].Score)
	assert.Equal(t, "picking", view.Phase)
	assert.NotNil(t, view.Games)
}

func TestSeriesViewOmitsPhaseWhenTerminal(t *testing.T) {
	s := liveSeries(uuid.New())
	s.Status = domain.SeriesFinished
	s.Phase = domain.PhaseFinished
	winner := 0
	s.Winner = &winner

	view := seriesView(s)

	assert.Equal(t, 30, view.Status)
	assert.Empty(t, view.Phase)
	assert.Equal(t, &winner, view.Winner)
}

func TestHandleGameResult(t *testing.T) {
	seriesID := uuid.New()
	gameID := uuid.New()

	tests := []struct {
		name           string
		reqBody        interface{}
		service        *stubSeriesService
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "Unknown result code",
			reqBody: GameResultRequest{
				SeriesID: seriesID.String(),
				GameID:   gameID.String(),
				Result:   "adjourned",
			},
			service:        &stubSeriesService{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInvalidRequestSummary,
		},
		{
			name: "Superseded game",
			reqBody: GameResultRequest{
				SeriesID: seriesID.String(),
				GameID:   gameID.String(),
				Result:   "draw",
				Plies:    40,
			},
			service:        &stubSeriesService{resultErr: domain.ErrStaleCommand},
			expectedStatus: http.StatusConflict,
			expectedBody:   "",
		},
		{
			name: "Success",
			reqBody: GameResultRequest{
				SeriesID: seriesID.String(),
				GameID:   gameID.String(),
				Result:   "p1_win",
				Plies:    61,
			},
			service:        &stubSeriesService{},
			expectedStatus: http.StatusOK,
			expectedBody:   MsgGameResultRecorded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitValidator()
			h := NewSeriesHandler(tt.service, &stubSeriesArchive{})

			var body bytes.Buffer
			assert.NoError(t, json.NewEncoder(&body).Encode(tt.reqBody))

			req := httptest.NewRequest(http.MethodPost, "/internal/game-result", &body)
			rr := httptest.NewRecorder()
			h.HandleGameResult(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rr.Body.String(), tt.expectedBody)
			}
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, domain.ResultP1Win, tt.service.reportedResult)
				assert.Equal(t, 61, tt.service.reportedPlies)
			}
		})
	}
}

func TestHandleListRecentSeries(t *testing.T) {
	InitValidator()

	finished := *liveSeries(uuid.New())
	finished.Status = domain.SeriesFinished
	h := NewSeriesHandler(&stubSeriesService{}, &stubSeriesArchive{recent: []domain.Series{finished}})

	req := httptest.NewRequest(http.MethodGet, "/series", nil)
	rr := httptest.NewRecorder()
	h.HandleListRecentSeries(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":30`)
}

package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/logger"
	"github.com/osse101/openduel/internal/repository"
)

const defaultRecentSeriesLimit = 20

// SeriesService is the slice of the series manager the HTTP surface needs
type SeriesService interface {
	CreateSeries(ctx context.Context, userA, userB uuid.UUID) (*domain.Series, error)
	Snapshot(ctx context.Context, id uuid.UUID) (*domain.Series, error)
	ReportGameResult(ctx context.Context, seriesID, gameID uuid.UUID, result domain.GameResult, plies int) error
	ReportGameProgress(ctx context.Context, seriesID, gameID uuid.UUID, plies int) error
}

type SeriesHandler struct {
	manager SeriesService
	archive repository.Series
}

func NewSeriesHandler(manager SeriesService, archive repository.Series) *SeriesHandler {
	return &SeriesHandler{
		manager: manager,
		archive: archive,
	}
}

type CreateSeriesRequest struct {
	PlayerA string `json:"player_a" validate:"required,uuid"`
	PlayerB string `json:"player_b" validate:"required,uuid"`
}

// SeriesPlayerView is one side of a series in the read API
type SeriesPlayerView struct {
	UserID    uuid.UUID `json:"user_id"`
	Score     float64   `json:"score"`
	Connected bool      `json:"connected"`
}

// SeriesView is the read-API shape of a series. Status carries the numeric
// wire code; Phase is empty once the series is terminal.
type SeriesView struct {
	ID        uuid.UUID           `json:"id"`
	Status    int                 `json:"status"`
	Phase     string              `json:"phase,omitempty"`
	Players   [2]SeriesPlayerView `json:"players"`
	Openings  []domain.Opening    `json:"openings,omitempty"`
	Games     []domain.SeriesGame `json:"games"`
	Winner    *int                `json:"winner"`
	ForfeitBy *int                `json:"forfeit_by"`
	Deadline  *int64              `json:"phase_deadline,omitempty"`
}

func seriesView(s *domain.Series) SeriesView {
	view := SeriesView{
		ID:        s.ID,
		Status:    int(s.Status),
		Players:   [2]SeriesPlayerView{},
		Openings:  s.Openings,
		Games:     s.Games,
		Winner:    s.Winner,
		ForfeitBy: s.ForfeitBy,
	}
	if !s.Status.Terminal() {
		view.Phase = string(s.Phase)
		if s.PhaseDeadline != nil {
			unix := s.PhaseDeadline.UnixMilli()
			view.Deadline = &unix
		}
	}
	for i, p := range s.Players {
		view.Players[i] = SeriesPlayerView{
			UserID:    p.UserID,
			Score:     p.Points(),
			Connected: p.Connected,
		}
	}
	if view.Games == nil {
		view.Games = []domain.SeriesGame{}
	}
	return view
}

func (h *SeriesHandler) HandleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var req CreateSeriesRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create series"); err != nil {
		return
	}

	playerA, _ := uuid.Parse(req.PlayerA)
	playerB, _ := uuid.Parse(req.PlayerB)
	if playerA == playerB {
		respondError(w, http.StatusBadRequest, ErrMsgSamePlayer)
		return
	}

	s, err := h.manager.CreateSeries(r.Context(), playerA, playerB)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to create series", "error", err)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusCreated, seriesView(s))
}

func (h *SeriesHandler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := URLParamUUID(r, w, "id")
	if !ok {
		return
	}

	s, err := h.manager.Snapshot(r.Context(), seriesID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to get series", "error", err, "series_id", seriesID)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, seriesView(s))
}

// HandleGetSeriesGames returns just the per-game record of a series
func (h *SeriesHandler) HandleGetSeriesGames(w http.ResponseWriter, r *http.Request) {
	seriesID, ok := URLParamUUID(r, w, "id")
	if !ok {
		return
	}

	s, err := h.manager.Snapshot(r.Context(), seriesID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to get series games", "error", err, "series_id", seriesID)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	games := s.Games
	if games == nil {
		games = []domain.SeriesGame{}
	}
	respondJSON(w, http.StatusOK, games)
}

func (h *SeriesHandler) HandleListRecentSeries(w http.ResponseWriter, r *http.Request) {
	list, err := h.archive.ListRecentSeries(r.Context(), defaultRecentSeriesLimit)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list recent series", "error", err)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	views := make([]SeriesView, 0, len(list))
	for i := range list {
		views = append(views, seriesView(&list[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

type GameResultRequest struct {
	SeriesID string `json:"series_id" validate:"required,uuid"`
	GameID   string `json:"game_id" validate:"required,uuid"`
	Result   string `json:"result" validate:"required,oneof=p1_win p2_win draw no_start"`
	Plies    int    `json:"plies" validate:"min=0"`
}

// HandleGameResult is the callback the game host reports terminal game
// results to
func (h *SeriesHandler) HandleGameResult(w http.ResponseWriter, r *http.Request) {
	var req GameResultRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Game result"); err != nil {
		return
	}

	seriesID, _ := uuid.Parse(req.SeriesID)
	gameID, _ := uuid.Parse(req.GameID)

	err := h.manager.ReportGameResult(r.Context(), seriesID, gameID, domain.GameResult(req.Result), req.Plies)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to record game result", "error", err, "series_id", seriesID, "game_id", gameID)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": MsgGameResultRecorded})
}

type GameProgressRequest struct {
	SeriesID string `json:"series_id" validate:"required,uuid"`
	GameID   string `json:"game_id" validate:"required,uuid"`
	Plies    int    `json:"plies" validate:"min=1"`
}

// HandleGameProgress is the callback the game host reports move progress to.
// The first report for a game marks it as successfully started.
func (h *SeriesHandler) HandleGameProgress(w http.ResponseWriter, r *http.Request) {
	var req GameProgressRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Game progress"); err != nil {
		return
	}

	seriesID, _ := uuid.Parse(req.SeriesID)
	gameID, _ := uuid.Parse(req.GameID)

	err := h.manager.ReportGameProgress(r.Context(), seriesID, gameID, req.Plies)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to record game progress", "error", err, "series_id", seriesID, "game_id", gameID)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": MsgGameProgressRecorded})
}

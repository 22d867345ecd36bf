package gamehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/logger"
)

const requestTimeout = 5 * time.Second

// Client starts games on the external game host. The host later reports
// progress and results back through the engine's internal callbacks.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a game host client for the given base URL
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type startGameRequest struct {
	SeriesID string `json:"series_id"`
	GameID   string `json:"game_id"`
	FEN      string `json:"fen"`
	White    string `json:"white"`
	Black    string `json:"black"`
}

// StartGame asks the host to start a game from the given position
func (c *Client) StartGame(ctx context.Context, seriesID, gameID uuid.UUID, fen string, white, black uuid.UUID) error {
	body, err := json.Marshal(startGameRequest{
		SeriesID: seriesID.String(),
		GameID:   gameID.String(),
		FEN:      fen,
		White:    white.String(),
		Black:    black.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal start game request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/games", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build start game request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("start game %s: %w", gameID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("start game %s: host returned %d", gameID, resp.StatusCode)
	}
	return nil
}

// LogStarter is the GameStarter used when no host is configured. It only
// logs, so an unstarted game resolves through the no-start grace timer.
type LogStarter struct{}

// StartGame logs the start request and succeeds
func (LogStarter) StartGame(ctx context.Context, seriesID, gameID uuid.UUID, fen string, white, black uuid.UUID) error {
	logger.FromContext(ctx).Info("game start requested without a game host",
		"series_id", seriesID,
		"game_id", gameID,
		"fen", fen)
	return nil
}

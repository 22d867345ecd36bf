package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osse101/openduel/internal/database"
	"github.com/osse101/openduel/internal/handler"
	"github.com/osse101/openduel/internal/liveness"
	"github.com/osse101/openduel/internal/logger"
	"github.com/osse101/openduel/internal/metrics"
	"github.com/osse101/openduel/internal/pool"
	"github.com/osse101/openduel/internal/rematch"
	"github.com/osse101/openduel/internal/repository"
	"github.com/osse101/openduel/internal/series"
	"github.com/osse101/openduel/internal/sse"
	"github.com/osse101/openduel/internal/ws"
)

type Server struct {
	httpServer *http.Server
	dbPool     database.Pool
}

// NewServer wires the HTTP surface: the JSON API, the SSE spectator stream
// and the player websocket.
func NewServer(
	port int,
	apiKey string,
	trustedProxies []string,
	dbPool database.Pool,
	manager *series.Manager,
	coordinator *rematch.Coordinator,
	poolService pool.Service,
	archive repository.Series,
	monitor *liveness.Monitor,
	hub *sse.Hub,
) *Server {
	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()

	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(apiKey, trustedProxies, detector))
	r.Use(SecurityLoggingMiddleware(trustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(1 << 20)) // 1MB limit
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Spectator stream and player transport
	r.Get("/events", sse.Handler(hub))
	r.Get("/ws", ws.Handler(manager, coordinator, monitor, hub))

	seriesHandler := handler.NewSeriesHandler(manager, archive)
	poolHandler := handler.NewPoolHandler(poolService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/series", func(r chi.Router) {
			r.Post("/", seriesHandler.HandleCreateSeries)
			r.Get("/recent", seriesHandler.HandleListRecentSeries)
			r.Get("/{id}", seriesHandler.HandleGetSeries)
			r.Get("/{id}/games", seriesHandler.HandleGetSeriesGames)
		})

		r.Route("/pool", func(r chi.Router) {
			r.Get("/", poolHandler.HandleGetPool)
			r.Post("/", poolHandler.HandleAddOpening)
			r.Delete("/{id}", poolHandler.HandleRemoveOpening)
		})

		// Callbacks of the game host component
		r.Route("/internal", func(r chi.Router) {
			r.Post("/game-result", seriesHandler.HandleGameResult)
			r.Post("/game-progress", seriesHandler.HandleGameProgress)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool: dbPool,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health check endpoints, metrics and the
		// long-lived streaming routes
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") ||
			strings.HasPrefix(r.URL.Path, "/events") ||
			strings.HasPrefix(r.URL.Path, "/ws") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"duration", duration)
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

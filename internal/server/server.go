// Package server provides the HTTP server and routing for the multiply calculator.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/KingdomTeck/multiply/internal/di"
	calculatorhandlers "github.com/KingdomTeck/multiply/internal/modules/calculator/handlers"
	marketshandlers "github.com/KingdomTeck/multiply/internal/modules/markets/handlers"
	priceshandlers "github.com/KingdomTeck/multiply/internal/modules/prices/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	container      *di.Container
	systemHandlers *SystemHandlers
	sessionHandler *SessionHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container

	sessionHandler := NewSessionHandler(c.Provider, c.Calculator, c.Ticker, c.EventBus, cfg.Log)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		container:      c,
		sessionHandler: sessionHandler,
		systemHandlers: NewSystemHandlers(c.Ticker, sessionHandler, c.EventBus, cfg.Log),
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.DevMode)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Shutdown does not wait for hijacked connections.
	s.server.RegisterOnShutdown(sessionHandler.CloseAll)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures global middleware. Timeout and compression
// are applied per route group since they break upgraded connections.
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(devMode bool) {
	timed := []func(http.Handler) http.Handler{middleware.Timeout(60 * time.Second)}
	if !devMode {
		timed = append(timed, middleware.Compress(5))
	}

	s.router.With(timed...).Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Long-lived calculator sessions
		r.Get("/session/ws", s.sessionHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(timed...)

			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)

			calculatorhandlers.NewHandler(s.container.Calculator, s.log).RegisterRoutes(r)
			marketshandlers.NewHandler(s.container.Provider, s.log).RegisterRoutes(r)
			priceshandlers.NewHandler(s.container.Ticker, s.log).RegisterRoutes(r)
		})
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode health response")
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

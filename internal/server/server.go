// Package server wires the ingress pipeline — signature verification,
// payload classification, normalization, queue publishing — behind the
// gateway's HTTP endpoints.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/zarahq/zara-gw/internal/events"
	"github.com/zarahq/zara-gw/internal/publish"
	"github.com/zarahq/zara-gw/internal/signature"
)

// Config holds HTTP server configuration.
type Config struct {
	Listen      string
	ServiceName string

	// MaxBodySize caps request bodies in bytes.
	MaxBodySize int64

	// EventsToken is the bearer token protecting GET /events.
	// Empty disables the endpoint.
	EventsToken string

	// UsageText is the ephemeral reply for empty slash commands.
	UsageText string
}

// Server is the gateway HTTP server. Each request is handled by an
// independent, stateless invocation; the publisher is the only shared
// handle and is safe for concurrent reuse.
type Server struct {
	config    Config
	publisher publish.Publisher
	verifier  *signature.SlackVerifier
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
}

// New creates a gateway server. The publisher is injected as a capability
// object; the server never reaches into ambient global state for it.
func New(config Config, publisher publish.Publisher, verifier *signature.SlackVerifier, hub *events.Hub, logger *slog.Logger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 1 << 20
	}
	if config.ServiceName == "" {
		config.ServiceName = "zara-gw"
	}
	return &Server{
		config:    config,
		publisher: publisher,
		verifier:  verifier,
		hub:       hub,
		logger:    logger,
	}
}

// Start starts the HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("gateway server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("gateway server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS preflight for browser clients.
	r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
		setCORSHeaders(w)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/healthz", s.handleHealthz)
	r.Post("/v1/prompt", s.handlePrompt)
	r.Post("/v1/slack/events", s.handleSlack)

	if s.config.EventsToken != "" {
		r.With(s.eventsAuthMiddleware).Get("/events", s.handleEvents)
	}

	return r
}

// loggingMiddleware logs HTTP requests (no body content: payloads may carry
// user text and signatures).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// eventsAuthMiddleware validates the bearer token for GET /events.
func (s *Server) eventsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !validToken(token, s.config.EventsToken) {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractBearerToken extracts a token from an Authorization: Bearer <token> header.
func extractBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errors.New("missing Authorization header")
	}

	const prefix = "Bearer "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", errors.New("invalid Authorization header format")
	}

	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", errors.New("missing token")
	}
	return token, nil
}

// validToken compares tokens in constant time.
func validToken(provided, configured string) bool {
	if configured == "" || provided == "" {
		return false
	}
	if len(provided) != len(configured) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) == 1
}

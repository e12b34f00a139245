package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foliolens/foliolens/config"
)

// Server is the HTTP front of the service: the API handler plus metrics,
// wrapped in logging and CORS middleware.
type Server struct {
	httpServer *http.Server
	cfg        config.ServerConfig
	logger     *slog.Logger
}

// New assembles the server around an already-constructed handler.
func New(cfg config.ServerConfig, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	handler.RegisterHTTPHandlers("/api", mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	var root http.Handler = mux
	root = WithRequestLogging(root, logger)
	root = WithCORS(root, cfg.CORSOrigins)

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Addr,
			Handler: root,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Start serves until the listener fails or Shutdown is called. It blocks;
// a clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

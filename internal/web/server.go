package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/actionsum/ctvtcntr/internal/config"
	"github.com/actionsum/ctvtcntr/internal/storage"
)

type Server struct {
	config  *config.Config
	handler *Handler
	server  *http.Server
	logger  *slog.Logger
}

// NewServer builds the read-only API server. status may be nil when no
// tracker runs in this process.
func NewServer(cfg *config.Config, store storage.Adapter, status StatusSource, logger *slog.Logger, customPort int) *Server {
	handler := NewHandler(cfg, store, status, logger)
	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	port := cfg.Web.Port
	if customPort > 0 {
		port = customPort
	}

	addr := net.JoinHostPort(cfg.Web.Host, fmt.Sprint(port))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
		logger:  logger,
	}
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting web server", "url", "http://"+s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}

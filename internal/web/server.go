// Package web exposes the import API over HTTP: one batch-import endpoint
// plus a health probe, in front of the reconciler.
package web

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/getcher123/UD-MVP/internal/config"
	"github.com/getcher123/UD-MVP/internal/web/middleware"
)

// Server is the HTTP front of the reconciler.
type Server struct {
	cfg        *config.Config
	recon      BatchProcessor
	log        *zap.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates the server and wires its routes.
func NewServer(cfg *config.Config, recon BatchProcessor, log *zap.Logger) *Server {
	s := &Server{cfg: cfg, recon: recon, log: log}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/import/listings", s.handleImportListings).Methods("POST")
	api.Use(middleware.Authentication(s.cfg.APIKey))

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(s.log))
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", zap.Error(err))
		}
	}()

	<-stop
	s.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("shutdown error", zap.Error(err))
		return err
	}
	s.log.Info("server stopped")
	return nil
}

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/history"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	Pipeline   Pipeline
	Artifacts  ArtifactCache
	Playback   FileServer
	Exporter   Exporter
	History    history.Repository
	Logger     *slog.Logger
	StartTime  time.Time
	Version    string
	ServiceURL string
	// BaseContext, when set, parents every request context so cancelling it
	// aborts in-flight handlers and the media service calls they make.
	BaseContext context.Context
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	srv := &http.Server{
		Addr:        fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// renders and downloads can take minutes
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	if base := cfg.BaseContext; base != nil {
		srv.BaseContext = func(net.Listener) context.Context { return base }
	}

	return &Server{httpServer: srv, logger: cfg.Logger}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

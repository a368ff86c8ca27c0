package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vspreview/vspreview/internal/colorstd"
	"github.com/vspreview/vspreview/internal/outputs"
	"github.com/vspreview/vspreview/internal/plugins"
	"github.com/vspreview/vspreview/internal/session"
	"github.com/vspreview/vspreview/internal/store"
)

// SessionService is the part of *session.Session the handlers use.
type SessionService interface {
	Status() session.Status
	Rows(kind string) ([]session.Row, error)
	Rename(kind string, row int, name string) (bool, error)
	SwitchView(view outputs.View, force bool) error
	SetCurrentOutput(row, frame int) error
	Heuristics(row int, withProps bool) (colorstd.Heuristics, error)
	Reload(ctx context.Context) error
	Save(ctx context.Context) error
}

var _ SessionService = (*session.Session)(nil)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port       int
	Session    SessionService
	Repository store.Repository
	Doctor     *plugins.CachedDoctor
	Logger     *slog.Logger
	StartTime  time.Time
	DeviceID   string
	Version    string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
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

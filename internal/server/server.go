package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pageza/mealbrowser/config"
)

// Server represents the HTTP server
type Server struct {
	http *http.Server
}

// New creates a server listening on cfg.Address and serving handler
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.Address(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			// pages wait on upstream calls
			WriteTimeout: cfg.MealDBTimeout*3 + 5*time.Second,
			IdleTimeout:  2 * time.Minute,
		},
	}
}

// Start serves until Shutdown is called. A graceful shutdown is not an error.
func (s *Server) Start() error {
	logrus.Infof("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, waiting at most 5 seconds for
// in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

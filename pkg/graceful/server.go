// Package graceful runs an http.Server until its context is canceled, then drains it.
package graceful

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const defaultShutdownTimeout = 15 * time.Second

// Server wraps http.Server with graceful shutdown capabilities.
type Server struct {
	httpServer      *http.Server
	log             *slog.Logger
	shutdownTimeout time.Duration
}

func NewServer(log *slog.Logger, srv *http.Server, shutdownTimeout time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	return &Server{
		httpServer:      srv,
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

// ListenAndServe binds the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled or the server fails.
// A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", slog.String("addr", ln.Addr().String()))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.log.Error("http server error", slog.Any("error", err))
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.log.Info("shutting down http server", slog.Duration("timeout", s.shutdownTimeout))

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("http server shutdown error", slog.Any("error", err))
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

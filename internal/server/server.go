// Package server собирает HTTP сервер: хранилище, токены, limiter, маршруты.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/authapi/internal/config"
	"github.com/iudanet/authapi/internal/server/jwt"
)

// Таймауты HTTP сервера
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server HTTP сервер с graceful shutdown
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New создает сервер для handler
func New(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		logger: logger,
	}
}

// ListenAndServe слушает addr из New до отмены ctx
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает соединения ln до отмены ctx.
// При отмене ждет завершения текущих запросов не дольше shutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	s.logger.Info("HTTP server listening", slog.String("addr", ln.Addr().String()))
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Run поднимает все зависимости по cfg и обслуживает запросы до отмены ctx
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) error {
	tokens, err := jwt.NewService(cfg.JWTSecret, jwt.DefaultTTL)
	if err != nil {
		return fmt.Errorf("create token service: %w", err)
	}

	store, err := OpenStorage(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	credLimiter, stopLimiter, err := NewLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopLimiter()

	handler := NewRouter(RouterDeps{
		Logger:  logger,
		Store:   store,
		Tokens:  tokens,
		Limiter: credLimiter,
		Version: version,
	})

	return New(cfg.Addr(), handler, logger).ListenAndServe(ctx)
}

// Package server runs the cyberdna HTTP API with signal-driven reload
// and graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cyberdna/pkg/logging"
)

// ReloadFunc rebuilds state on SIGHUP
type ReloadFunc func(ctx context.Context) error

// GracefulServer wraps an HTTP server with signal handling
type GracefulServer struct {
	server          *http.Server
	listener        net.Listener
	logger          logging.Logger
	shutdownTimeout time.Duration
	shutdownCh      chan struct{}
	shutdownOnce    sync.Once

	reloadMu sync.RWMutex
	reloadFn ReloadFunc
}

// NewGracefulServer creates a server for handler on addr
func NewGracefulServer(addr string, handler http.Handler, shutdownTimeout time.Duration, logger logging.Logger) *GracefulServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger:          logger.With(logging.Component("server")),
		shutdownTimeout: shutdownTimeout,
		shutdownCh:      make(chan struct{}),
	}
}

// Listen binds the address. Run calls it when needed; calling it first
// lets callers learn the bound address of ":0".
func (gs *GracefulServer) Listen() error {
	if gs.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	if gs.server.TLSConfig != nil {
		l = tls.NewListener(l, gs.server.TLSConfig)
	}
	gs.listener = l
	return nil
}

// SetTLSConfig serves HTTPS with cfg. Call it before Listen; nil keeps
// plain HTTP.
func (gs *GracefulServer) SetTLSConfig(cfg *tls.Config) {
	gs.server.TLSConfig = cfg
}

// TLSEnabled reports whether the server terminates TLS
func (gs *GracefulServer) TLSEnabled() bool {
	return gs.server.TLSConfig != nil
}

// Addr returns the bound address, or nil before Listen
func (gs *GracefulServer) Addr() net.Addr {
	if gs.listener == nil {
		return nil
	}
	return gs.listener.Addr()
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains connections. SIGHUP calls the reload function.
func (gs *GracefulServer) Run(ctx context.Context) error {
	if err := gs.Listen(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		gs.logger.Info("listening",
			logging.String("addr", gs.listener.Addr().String()),
			logging.Bool("tls", gs.TLSEnabled()),
		)
		errCh <- gs.server.Serve(gs.listener)
	}()

	for {
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case <-ctx.Done():
			return gs.Shutdown()

		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				gs.logger.Info("received SIGHUP, reloading")
				if err := gs.Reload(ctx); err != nil {
					gs.logger.Error("reload failed", logging.Error(err))
				}
			default:
				gs.logger.Info("received signal, shutting down", logging.String("signal", sig.String()))
				return gs.Shutdown()
			}
		}
	}
}

// Shutdown stops accepting connections and waits for in-flight requests
func (gs *GracefulServer) Shutdown() error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), gs.shutdownTimeout)
		defer cancel()

		if err = gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("shutdown error", logging.Error(err))
			return
		}
		gs.logger.Info("shutdown complete")
	})
	return err
}

// IsShuttingDown reports whether shutdown has started
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// SetReloadFunc sets the SIGHUP handler
func (gs *GracefulServer) SetReloadFunc(fn ReloadFunc) {
	gs.reloadMu.Lock()
	defer gs.reloadMu.Unlock()
	gs.reloadFn = fn
}

// Reload runs the reload function, if any
func (gs *GracefulServer) Reload(ctx context.Context) error {
	gs.reloadMu.RLock()
	fn := gs.reloadFn
	gs.reloadMu.RUnlock()

	if fn == nil {
		gs.logger.Warn("reload requested but no reload function configured")
		return nil
	}
	return fn(ctx)
}

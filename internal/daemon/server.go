package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/wppmcp/internal/lock"
	"github.com/matheus3301/wppmcp/internal/store"
	"github.com/matheus3301/wppmcp/internal/tools"
)

// HTTPServer hosts the MCP streamable HTTP endpoint alongside /metrics and
// /healthz. It is only started when the transport is http.
type HTTPServer struct {
	srv      *http.Server
	listener net.Listener
	lock     *lock.Lock
	addr     string
	logger   *zap.Logger
}

// NewHTTPServer builds the server for the configured listen address. Nothing
// is bound until Start.
func NewHTTPServer(p Params, ts *tools.Server, db *store.DB, logger *zap.Logger) *HTTPServer {
	// No WriteTimeout: streamable HTTP keeps responses open for server events.
	srv := &http.Server{
		Addr:              p.Config.ListenAddr,
		Handler:           NewRouter(ts.HTTPHandler(), db, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &HTTPServer{srv: srv, addr: p.Config.ListenAddr, logger: logger}
}

// Addr returns the bound address once started, or the configured one.
func (s *HTTPServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start takes the server lock in lockDir, binds the listen address and serves
// in the background. onError is called if serving stops unexpectedly.
func (s *HTTPServer) Start(lockDir string, onError func(error)) error {
	lk, err := lock.Acquire(lockDir, s.addr)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		_ = lk.Release()
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.lock = lk
	s.listener = ln

	s.logger.Info("http server starting", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if onError != nil {
				onError(err)
			}
		}
	}()
	return nil
}

// Stop drains in-flight requests and releases the lock.
func (s *HTTPServer) Stop(ctx context.Context) {
	s.logger.Info("http server stopping")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
	_ = s.lock.Release()
	s.lock = nil
}

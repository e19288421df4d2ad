// Package server exposes the ledger over HTTP. Clients log in with their
// account number and password and use the returned bearer token for every
// account-scoped call.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/teller/internal/guard"
	"github.com/cleared-dev/teller/internal/ledger"
)

// PersistFunc is called after every state change with the action name and
// the account it touched. A failure is logged; the response has already
// been sent.
type PersistFunc func(action, account string) error

// Server is the HTTP layer over a ledger and its guard.
type Server struct {
	ledger *ledger.Ledger
	guard  *guard.Guard
	tokens *Tokens
	log    *zap.Logger

	persistMu sync.Mutex
	persist   PersistFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithPersist sets the hook run after each state change.
func WithPersist(fn PersistFunc) Option {
	return func(s *Server) { s.persist = fn }
}

// New creates a Server.
func New(l *ledger.Ledger, g *guard.Guard, tokens *Tokens, opts ...Option) *Server {
	s := &Server{ledger: l, guard: g, tokens: tokens, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// saved runs the persist hook. Calls are serialized so two requests never
// write the data files at once.
func (s *Server) saved(action, account string) {
	if s.persist == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.persist(action, account); err != nil {
		s.log.Error("persist failed", zap.String("action", action), zap.String("account", account), zap.Error(err))
	}
}

// Package server hosts the backing servers that represent the system
// under test. Servers have process-wide lifecycle: started once before
// the first batch, stopped once after the last batch and all retries.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"

	"github.com/auditlab/smokehouse/types"
)

// FixtureServer serves a directory of test fixtures over HTTP.
type FixtureServer struct {
	name   string
	addr   string
	dir    string
	log    log.Logger
	server *http.Server
	ln     net.Listener
}

// NewFixtureServer creates a fixture server from a manifest declaration.
func NewFixtureServer(cfg types.ServerConfig, logger log.Logger) (*FixtureServer, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("server %q has no listen address", cfg.Name)
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("server %q has no fixture directory", cfg.Name)
	}
	if logger == nil {
		logger = log.New()
	}

	return &FixtureServer{
		name: cfg.Name,
		addr: cfg.Addr,
		dir:  cfg.Dir,
		log:  logger.New("server", cfg.Name),
	}, nil
}

// Name returns the server's manifest name.
func (s *FixtureServer) Name() string {
	return s.name
}

// Start binds the listen address and begins serving fixtures. A bind
// failure is returned synchronously so the caller can abort the run
// before any test is spawned.
func (s *FixtureServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind server %q on %s: %w", s.name, s.addr, err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	s.server = &http.Server{
		Handler: c.Handler(http.FileServer(http.Dir(s.dir))),
		Addr:    s.addr,
	}
	s.ln = ln

	go func() {
		s.log.Info("fixture server listening", "addr", s.addr, "dir", s.dir)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("fixture server stopped unexpectedly", "err", err)
		}
	}()

	return nil
}

// Shutdown releases the server's socket. The listener is closed
// directly as well: Serve runs in a goroutine and may not have taken
// ownership of it yet when Shutdown is called. Safe to call even when
// Start failed, so cleanup paths can release unconditionally.
func (s *FixtureServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	_ = s.ln.Close()
	return err
}

// StartAll starts every declared server, releasing the ones already
// started if a later one fails to bind.
func StartAll(ctx context.Context, configs []types.ServerConfig, logger log.Logger) ([]*FixtureServer, error) {
	var servers []*FixtureServer
	for _, cfg := range configs {
		srv, err := NewFixtureServer(cfg, logger)
		if err == nil {
			err = srv.Start(ctx)
		}
		if err != nil {
			ShutdownAll(ctx, servers, logger)
			return nil, err
		}
		servers = append(servers, srv)
	}
	return servers, nil
}

// ShutdownAll stops every server, logging rather than propagating
// shutdown errors: release must run on every exit path.
func ShutdownAll(ctx context.Context, servers []*FixtureServer, logger log.Logger) {
	if logger == nil {
		logger = log.New()
	}
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("failed to shut down fixture server", "server", srv.Name(), "err", err)
		}
	}
}

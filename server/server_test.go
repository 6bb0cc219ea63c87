package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditlab/smokehouse/types"
)

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestFixtureServerServesFiles(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "page.html"), []byte("<h1>fixture</h1>"), 0644)
	require.NoError(t, err)

	addr := freePort(t)
	srv, err := NewFixtureServer(types.ServerConfig{Name: "fixtures", Addr: addr, Dir: dir}, log.New())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, srv.Start(ctx))
	defer func() {
		require.NoError(t, srv.Shutdown(ctx))
	}()

	resp, err := http.Get(fmt.Sprintf("http://%s/page.html", addr))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>fixture</h1>", string(body))
}

func TestFixtureServerBindFailure(t *testing.T) {
	dir := t.TempDir()
	addr := freePort(t)

	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	defer ln.Close()

	srv, err := NewFixtureServer(types.ServerConfig{Name: "occupied", Addr: addr, Dir: dir}, log.New())
	require.NoError(t, err)

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "occupied")

	// Shutdown after a failed Start must be a no-op.
	require.NoError(t, srv.Shutdown(context.Background()))
}

func TestNewFixtureServerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.ServerConfig
	}{
		{name: "missing addr", cfg: types.ServerConfig{Name: "a", Dir: "/tmp"}},
		{name: "missing dir", cfg: types.ServerConfig{Name: "a", Addr: "127.0.0.1:0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFixtureServer(tt.cfg, log.New())
			require.Error(t, err)
		})
	}
}

func TestStartAllReleasesOnFailure(t *testing.T) {
	dir := t.TempDir()
	goodAddr := freePort(t)
	badAddr := freePort(t)

	// Occupy the second address so StartAll fails partway through.
	ln, err := net.Listen("tcp", badAddr)
	require.NoError(t, err)
	defer ln.Close()

	configs := []types.ServerConfig{
		{Name: "good", Addr: goodAddr, Dir: dir},
		{Name: "bad", Addr: badAddr, Dir: dir},
	}

	ctx := context.Background()
	servers, err := StartAll(ctx, configs, log.New())
	require.Error(t, err)
	assert.Nil(t, servers)

	// The first server must have been released.
	ln2, err := net.Listen("tcp", goodAddr)
	require.NoError(t, err)
	require.NoError(t, ln2.Close())
}

func TestShutdownImmediatelyAfterStartReleasesSocket(t *testing.T) {
	dir := t.TempDir()
	addr := freePort(t)

	srv, err := NewFixtureServer(types.ServerConfig{Name: "fixtures", Addr: addr, Dir: dir}, log.New())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, srv.Start(ctx))
	require.NoError(t, srv.Shutdown(ctx))

	// The address must be bindable again straight away, even if the
	// serving goroutine never got scheduled before Shutdown.
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, ln.Close())
}

func TestStartAllEmpty(t *testing.T) {
	servers, err := StartAll(context.Background(), nil, log.New())
	require.NoError(t, err)
	assert.Empty(t, servers)
	ShutdownAll(context.Background(), servers, log.New())
}

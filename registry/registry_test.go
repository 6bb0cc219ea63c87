package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditlab/smokehouse/types"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRegistry(t *testing.T) {
	validManifest := `
servers:
  - name: static
    addr: 127.0.0.1:10200
    dir: ./fixtures
tests:
  - id: a11y
    expectations: a11y/expectations.js
    config: a11y/config.json
    batch: core
  - id: dbw
    expectations: dobetterweb/expectations.js
    config: dobetterweb/config.json
  - id: perf
    expectations: perf/expectations.js
    config: perf/config.json
    batch: core
`
	configPath := writeManifest(t, validManifest)

	t.Run("manifest loading", func(t *testing.T) {
		tests := []struct {
			name    string
			cfg     Config
			wantErr bool
		}{
			{
				name:    "valid manifest",
				cfg:     Config{ManifestFile: configPath},
				wantErr: false,
			},
			{
				name:    "missing manifest path",
				cfg:     Config{},
				wantErr: true,
			},
			{
				name:    "nonexistent manifest file",
				cfg:     Config{ManifestFile: "nonexistent.yaml"},
				wantErr: true,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r, err := NewRegistry(tt.cfg)
				if tt.wantErr {
					require.Error(t, err)
					return
				}
				require.NoError(t, err)
				require.NotNil(t, r.GetConfig(), "config should be loaded")
			})
		}
	})

	t.Run("definitions preserve manifest order", func(t *testing.T) {
		r, err := NewRegistry(Config{ManifestFile: configPath})
		require.NoError(t, err)

		defs := r.GetDefinitions()
		require.Len(t, defs, 3)
		assert.Equal(t, "a11y", defs[0].ID)
		assert.Equal(t, "dbw", defs[1].ID)
		assert.Equal(t, "perf", defs[2].ID)
	})

	t.Run("definitions by batch", func(t *testing.T) {
		r, err := NewRegistry(Config{ManifestFile: configPath})
		require.NoError(t, err)

		core := r.GetDefinitionsByBatch("core")
		require.Len(t, core, 2)
		assert.Equal(t, "a11y", core[0].ID)
		assert.Equal(t, "perf", core[1].ID)

		def := r.GetDefinitionsByBatch(types.DefaultBatch)
		require.Len(t, def, 1)
		assert.Equal(t, "dbw", def[0].ID)
	})

	t.Run("servers", func(t *testing.T) {
		r, err := NewRegistry(Config{ManifestFile: configPath})
		require.NoError(t, err)

		servers := r.GetServers()
		require.Len(t, servers, 1)
		assert.Equal(t, "static", servers[0].Name)
		assert.Equal(t, "127.0.0.1:10200", servers[0].Addr)
	})
}

func TestRegistryRejectsMalformedManifests(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{
			name:     "empty tests",
			manifest: "tests: []\n",
		},
		{
			name: "missing id",
			manifest: `
tests:
  - expectations: e.js
    config: c.json
`,
		},
		{
			name: "duplicate id",
			manifest: `
tests:
  - id: a11y
    expectations: e.js
    config: c.json
  - id: a11y
    expectations: e2.js
    config: c2.json
`,
		},
		{
			name: "missing expectations",
			manifest: `
tests:
  - id: a11y
    config: c.json
`,
		},
		{
			name: "missing config",
			manifest: `
tests:
  - id: a11y
    expectations: e.js
`,
		},
		{
			name:     "not yaml",
			manifest: "{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.manifest)
			_, err := NewRegistry(Config{ManifestFile: path})
			require.Error(t, err)
		})
	}
}

package registry

import (
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/auditlab/smokehouse/types"
)

// Registry holds the static, ordered collection of smoke test
// definitions and the backing servers they run against. It is immutable
// once loaded.
type Registry struct {
	config      Config
	definitions []types.TestDefinition
	servers     []types.ServerConfig
	mu          sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log          log.Logger
	ManifestFile string
}

// manifest is the on-disk shape of the definition registry.
type manifest struct {
	Servers []types.ServerConfig   `yaml:"servers,omitempty"`
	Tests   []types.TestDefinition `yaml:"tests"`
}

// NewRegistry loads the manifest and validates every definition. A
// malformed manifest is a structural error and aborts the run.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.ManifestFile == "" {
		return nil, fmt.Errorf("manifest file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config: cfg,
	}

	if err := r.loadManifest(cfg.ManifestFile); err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	cfg.Log.Debug("Registry loaded", "len(definitions)", len(r.definitions), "len(servers)", len(r.servers))

	return r, nil
}

func (r *Registry) loadManifest(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := loadManifestFile(path)
	if err != nil {
		return err
	}

	if err := validateDefinitions(m.Tests); err != nil {
		return err
	}

	r.definitions = m.Tests
	r.servers = m.Servers

	return nil
}

// validateDefinitions rejects manifests with missing ids, missing
// sources, or duplicate ids.
func validateDefinitions(defs []types.TestDefinition) error {
	if len(defs) == 0 {
		return fmt.Errorf("manifest declares no tests")
	}

	seen := make(map[string]bool, len(defs))
	for i, def := range defs {
		if def.ID == "" {
			return fmt.Errorf("test at index %d has no id", i)
		}
		if seen[def.ID] {
			return fmt.Errorf("duplicate test id %q", def.ID)
		}
		seen[def.ID] = true

		if def.Expectations == "" {
			return fmt.Errorf("test %q has no expectations source", def.ID)
		}
		if def.Config == "" {
			return fmt.Errorf("test %q has no config source", def.ID)
		}
	}
	return nil
}

// GetDefinitions returns all definitions in manifest order.
func (r *Registry) GetDefinitions() []types.TestDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.definitions
}

// GetDefinitionsByBatch returns the definitions belonging to a batch,
// preserving manifest order.
func (r *Registry) GetDefinitionsByBatch(batch string) []types.TestDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var defs []types.TestDefinition
	for _, def := range r.definitions {
		if def.BatchKey() == batch {
			defs = append(defs, def)
		}
	}
	return defs
}

// GetServers returns the backing server declarations.
func (r *Registry) GetServers() []types.ServerConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.servers
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

// loadManifestFile reads and parses a manifest from a file
func loadManifestFile(path string) (*manifest, error) {
	log.Debug("Reading manifest file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest file: %w", err)
	}

	return &m, nil
}

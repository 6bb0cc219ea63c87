package smokehouse

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/auditlab/smokehouse/flags"
	"github.com/auditlab/smokehouse/types"
	"github.com/ethereum/go-ethereum/log"
)

// Config holds the application configuration
type Config struct {
	ManifestPath string
	RunnerBinary string
	Batches      []string            // Requested batch names; empty means run everything
	Filters      types.FilterOptions // Audit/URL restrictions forwarded to every runner process
	Serial       bool                // Run each batch's tests one at a time
	Retry        bool                // Re-run each failing test once, keeping the second verdict
	Timeout      time.Duration       // Per-test timeout for spawned runner processes
	Log          log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	manifest := ctx.String(flags.Manifest.Name)
	absManifest, err := filepath.Abs(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for manifest '%s': %w", manifest, err)
	}

	timeout := ctx.Duration(flags.Timeout.Name)
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	return &Config{
		ManifestPath: absManifest,
		RunnerBinary: ctx.String(flags.RunnerBinary.Name),
		Batches:      ctx.Args().Slice(),
		Filters: types.FilterOptions{
			OnlyAudits: ctx.StringSlice(flags.OnlyAudits.Name),
			OnlyURLs:   ctx.StringSlice(flags.OnlyURLs.Name),
		},
		Serial:  ctx.Bool(flags.Serial.Name),
		Retry:   ctx.Bool(flags.Retry.Name),
		Timeout: timeout,
		Log:     logger,
	}, nil
}

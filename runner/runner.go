package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/auditlab/smokehouse/metrics"
	"github.com/auditlab/smokehouse/types"
)

// DefaultTimeout is the fixed per-test time bound. A child that has not
// exited by then is killed and recorded as ProcessTimeout.
const DefaultTimeout = 6 * time.Minute

// TestRunner executes exactly one definition as an isolated child
// process and normalizes every outcome into a TestResult. It never
// returns an error: spawn failures, non-zero exits and timeouts are all
// data on the result. This guarantee is what lets the batch executor
// treat every test uniformly.
type TestRunner interface {
	Run(ctx context.Context, def types.TestDefinition) *types.TestResult
}

// ProcessRunner is the exec-backed TestRunner.
type ProcessRunner struct {
	binary  string
	timeout time.Duration
	filters types.FilterOptions
	runID   string
	log     log.Logger
	tracer  trace.Tracer
}

// ProcessRunnerConfig holds configuration for creating a ProcessRunner
type ProcessRunnerConfig struct {
	Binary  string // path to the smoke-runner child binary
	Timeout time.Duration
	Filters types.FilterOptions
	RunID   string
	Log     log.Logger
}

// NewProcessRunner creates a new process runner instance
func NewProcessRunner(cfg ProcessRunnerConfig) (*ProcessRunner, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("runner binary is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	return &ProcessRunner{
		binary:  cfg.Binary,
		timeout: cfg.Timeout,
		filters: cfg.Filters,
		runID:   cfg.RunID,
		log:     cfg.Log,
		tracer:  otel.Tracer("process runner"),
	}, nil
}

// Run implements the TestRunner interface.
func (r *ProcessRunner) Run(ctx context.Context, def types.TestDefinition) (result *types.TestResult) {
	// A panic while spawning or waiting must not take sibling tests down
	// with it; fold it into the result like any other spawn failure.
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Panic while running smoke test", "test", def.ID, "error", rec)
			result = &types.TestResult{
				ID: def.ID,
				Failure: &types.Failure{
					Kind:    types.SpawnFailure,
					Message: fmt.Sprintf("runtime error: %v", rec),
				},
			}
		}
		metrics.RecordSmokeTest(r.runID, def.ID, result)
	}()

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("smoke test %s", def.ID))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := r.buildArgs(def)
	cmd := exec.CommandContext(ctx, r.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Info("Running smoke test", "test", def.ID)
	r.log.Debug("Running smoke test command",
		"test", def.ID,
		"command", cmd.String(),
		"timeout", r.timeout)

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result = &types.TestResult{
		ID:       def.ID,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	switch {
	case err == nil:
		// Clean exit; the run passed.
	case ctx.Err() == context.DeadlineExceeded:
		result.Failure = &types.Failure{
			Kind:    types.ProcessTimeout,
			Message: fmt.Sprintf("test timed out after %v", r.timeout),
		}
	case isExitError(err):
		result.Failure = &types.Failure{
			Kind:    types.ProcessExitNonzero,
			Message: err.Error(),
		}
	default:
		result.Failure = &types.Failure{
			Kind:    types.SpawnFailure,
			Message: fmt.Sprintf("failed to launch %s: %v", r.binary, err),
		}
	}

	r.log.Debug("Smoke test finished",
		"test", def.ID,
		"duration", duration,
		"failed", result.Failed())

	return result
}

// buildArgs constructs the command line for one child process. Filter
// options are forwarded opaquely; the orchestrator never interprets
// them.
func (r *ProcessRunner) buildArgs(def types.TestDefinition) []string {
	args := []string{
		"--expectations", def.Expectations,
		"--config", def.Config,
	}

	if len(r.filters.OnlyAudits) > 0 {
		args = append(args, "--only-audits", strings.Join(r.filters.OnlyAudits, ","))
	}
	if len(r.filters.OnlyURLs) > 0 {
		args = append(args, "--only-urls", strings.Join(r.filters.OnlyURLs, ","))
	}

	return args
}

func isExitError(err error) bool {
	exitErr := &exec.ExitError{}
	return errors.As(err, &exitErr)
}

var _ TestRunner = &ProcessRunner{}

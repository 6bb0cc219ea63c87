// Package smokehouse orchestrates smoke-test runs: it loads the
// manifest, starts the backing servers, executes every planned batch,
// retries failures when asked to, and reports the aggregate verdict.
package smokehouse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/auditlab/smokehouse/metrics"
	"github.com/auditlab/smokehouse/registry"
	"github.com/auditlab/smokehouse/runner"
	"github.com/auditlab/smokehouse/server"
	"github.com/auditlab/smokehouse/types"
)

// Smokehouse drives one smoke-test run end to end.
type Smokehouse struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry
	executor *runner.BatchExecutor
	retrier  *runner.RetryCoordinator
	runID    string
	result   *runner.RunReport
	tracer   trace.Tracer
}

func New(ctx context.Context, config *Config, version string) (*Smokehouse, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Log == nil {
		return nil, errors.New("logger is required")
	}

	config.Log.Debug("Creating smokehouse with config",
		"manifest", config.ManifestPath,
		"runnerBinary", config.RunnerBinary,
		"serial", config.Serial,
		"retry", config.Retry,
		"timeout", config.Timeout)

	reg, err := registry.NewRegistry(registry.Config{
		Log:          config.Log,
		ManifestFile: config.ManifestPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	runID := uuid.New().String()

	processRunner, err := runner.NewProcessRunner(runner.ProcessRunnerConfig{
		Binary:  config.RunnerBinary,
		Timeout: config.Timeout,
		Filters: config.Filters,
		RunID:   runID,
		Log:     config.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create process runner: %w", err)
	}

	emitter := runner.NewConsoleEmitter(os.Stdout, os.Stderr)

	return &Smokehouse{
		ctx:      ctx,
		config:   config,
		version:  version,
		registry: reg,
		executor: runner.NewBatchExecutor(processRunner, config.Serial, emitter, config.Log),
		retrier:  runner.NewRetryCoordinator(processRunner, config.Retry, emitter, config.Log),
		runID:    runID,
		tracer:   otel.Tracer("smokehouse"),
	}, nil
}

// Run executes the whole smoke run and returns nil on success, a
// TestFailureError when any test still fails after retries, and a
// RuntimeError for structural problems.
func (s *Smokehouse) Run(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("run %s", s.runID))
	defer span.End()

	s.config.Log.Info("Starting smoke run", "run_id", s.runID, "version", s.version)
	start := time.Now()

	plan := runner.PlanBatches(s.registry.GetDefinitions(), s.config.Batches, s.config.Log)
	if plan.TotalTests() == 0 {
		// Requested batches that match nothing schedule zero tests;
		// the run is still a run and still passes.
		s.config.Log.Warn("No tests matched the requested batches", "batches", s.config.Batches)
	}

	servers, err := server.StartAll(ctx, s.registry.GetServers(), s.config.Log)
	if err != nil {
		metrics.RecordErrorDetails("failed to start backing servers", err)
		return NewRuntimeError(err)
	}
	// Release on every exit path, pass and fail alike.
	defer server.ShutdownAll(ctx, servers, s.config.Log)

	results := s.executor.ExecutePlan(ctx, plan)

	results, err = s.retrier.RetryFailures(ctx, plan.Definitions(), results)
	if err != nil {
		metrics.RecordErrorDetails("retry pass failed", err)
		return NewRuntimeError(err)
	}

	s.result = runner.BuildReport(s.runID, results, time.Since(start))
	metrics.RecordRun(s.runID, s.result.Passed(), s.result.Stats.Total, s.result.Stats.Failed, s.result.Duration)

	s.printResultsTable()
	fmt.Println(s.result.String())
	s.config.Log.Info("Smoke run completed",
		"run_id", s.runID,
		"passed", s.result.Passed(),
		"failed", s.result.Stats.Failed,
		"duration", s.result.Duration)

	if !s.result.Passed() {
		return NewTestFailureError(s.result.String())
	}
	return nil
}

// Result returns the report of the last completed run, nil before Run.
func (s *Smokehouse) Result() *runner.RunReport {
	return s.result
}

// printResultsTable prints the per-test outcome table to the console.
func (s *Smokehouse) printResultsTable() {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Smoke Test Results (%.1fs)", s.result.Duration.Seconds()))

	t.AppendHeader(table.Row{"ID", "Duration", "Retried", "Status", "Failure"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "ID", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Failure", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, result := range s.result.Results {
		t.AppendRow(table.Row{
			result.ID,
			formatDuration(result.Duration),
			boolToYesNo(result.Retried),
			statusString(result),
			failureString(result),
		})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d tests", s.result.Stats.Total),
		"",
		fmt.Sprintf("%d", s.result.Stats.Retried),
		fmt.Sprintf("%d failed", s.result.Stats.Failed),
		"",
	})
	t.Render()
}

func statusString(result *types.TestResult) string {
	if result.Failed() {
		return text.FgRed.Sprint("fail")
	}
	return text.FgGreen.Sprint("pass")
}

func failureString(result *types.TestResult) string {
	if result.Failure == nil {
		return ""
	}
	return fmt.Sprintf("[%s] %s", result.Failure.Kind, result.Failure.Message)
}

func formatDuration(d time.Duration) string {
	return d.Round(10 * time.Millisecond).String()
}

func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package types

import (
	"fmt"
	"time"
)

// DefaultBatch is the batch key assigned to definitions that do not
// declare one.
const DefaultBatch = "default"

// FailureKind classifies how a smoke test process failed.
type FailureKind string

const (
	// ProcessExitNonzero means the child ran to completion and reported a
	// failing comparison against its expectations.
	ProcessExitNonzero FailureKind = "ProcessExitNonzero"
	// ProcessTimeout means the child exceeded the fixed time bound.
	ProcessTimeout FailureKind = "ProcessTimeout"
	// SpawnFailure means the child process could not be launched at all.
	SpawnFailure FailureKind = "SpawnFailure"
)

// Failure records why a smoke test run is considered failing. A nil
// *Failure on a TestResult means the run passed.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// TestDefinition describes one smoke test: an external validation run
// whose outcome is checked against stored expectations. Definitions are
// immutable once loaded from the manifest.
type TestDefinition struct {
	ID           string `yaml:"id"`
	Expectations string `yaml:"expectations"`
	Config       string `yaml:"config"`
	Batch        string `yaml:"batch,omitempty"`
}

// BatchKey returns the batch this definition belongs to, falling back
// to the implicit default group.
func (d TestDefinition) BatchKey() string {
	if d.Batch == "" {
		return DefaultBatch
	}
	return d.Batch
}

// TestResult captures the outcome of running a single definition.
// Failure is present if and only if the run is failing; it is replaced
// wholesale (never partially mutated) if the definition is retried.
type TestResult struct {
	ID       string
	Stdout   string
	Stderr   string
	Failure  *Failure
	Duration time.Duration
	Retried  bool
}

// Failed reports whether the result currently records a failure.
func (r *TestResult) Failed() bool {
	return r.Failure != nil
}

// FilterOptions are forwarded opaquely to every child process; the
// orchestrator does not interpret them.
type FilterOptions struct {
	OnlyAudits []string
	OnlyURLs   []string
}

// ServerConfig declares one backing server for the system under test.
// Servers have process-wide lifecycle: started before the first batch,
// stopped after all batches and retries complete.
type ServerConfig struct {
	Name string `yaml:"name"`
	Addr string `yaml:"addr"`
	Dir  string `yaml:"dir"`
}

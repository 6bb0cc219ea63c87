package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/auditlab/smokehouse/exitcodes"
	"github.com/auditlab/smokehouse/types"
)

// RunReport is the final aggregate over the (possibly retried) result
// sequence: one entry per selected definition, index-aligned with
// selection order, plus the derived failing set and exit code.
type RunReport struct {
	RunID      string
	Results    []*types.TestResult
	FailingIDs []string
	ExitCode   int
	Duration   time.Duration
	Stats      ReportStats
}

// ReportStats tracks pass/fail counts for a run.
type ReportStats struct {
	Total   int
	Passed  int
	Failed  int
	Retried int
}

// BuildReport computes the failing set and overall exit status from the
// collected results.
func BuildReport(runID string, results []*types.TestResult, duration time.Duration) *RunReport {
	report := &RunReport{
		RunID:    runID,
		Results:  results,
		Duration: duration,
	}

	for _, result := range results {
		report.Stats.Total++
		if result.Retried {
			report.Stats.Retried++
		}
		if result.Failed() {
			report.Stats.Failed++
			report.FailingIDs = append(report.FailingIDs, result.ID)
		} else {
			report.Stats.Passed++
		}
	}

	if len(report.FailingIDs) == 0 {
		report.ExitCode = exitcodes.Success
	} else {
		report.ExitCode = exitcodes.TestFailure
	}

	return report
}

// Passed reports whether every test passed after any retries.
func (r *RunReport) Passed() bool {
	return len(r.FailingIDs) == 0
}

// String returns the human-readable run summary, naming every failing
// id.
func (r *RunReport) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Smoke Test Results (%.1fs):\n", r.Duration.Seconds()))
	b.WriteString(fmt.Sprintf("Total: %d, Passed: %d, Failed: %d, Retried: %d\n",
		r.Stats.Total, r.Stats.Passed, r.Stats.Failed, r.Stats.Retried))

	if r.Passed() {
		b.WriteString("All smoke tests passed.\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Failing tests: %s\n", strings.Join(r.FailingIDs, ", ")))
	for _, result := range r.Results {
		if !result.Failed() {
			continue
		}
		b.WriteString(fmt.Sprintf("├── %s [%s] %s\n",
			result.ID, result.Failure.Kind, firstLine(stripansi.Strip(result.Failure.Message))))
	}
	return b.String()
}

// firstLine trims a message to its first line for summary display.
func firstLine(s string) string {
	if idx := strings.Index(s, "\n"); idx != -1 {
		return s[:idx]
	}
	return s
}

package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditlab/smokehouse/exitcodes"
	"github.com/auditlab/smokehouse/types"
)

func TestBuildReportAllPassing(t *testing.T) {
	results := []*types.TestResult{
		{ID: "a11y"},
		{ID: "dbw"},
		{ID: "perf"},
	}

	report := BuildReport("run-1", results, 3*time.Second)

	assert.Equal(t, exitcodes.Success, report.ExitCode)
	assert.Empty(t, report.FailingIDs)
	assert.True(t, report.Passed())
	assert.Equal(t, 3, report.Stats.Total)
	assert.Equal(t, 3, report.Stats.Passed)
	assert.Contains(t, report.String(), "All smoke tests passed")
}

func TestBuildReportWithFailure(t *testing.T) {
	results := []*types.TestResult{
		{ID: "a11y"},
		{ID: "dbw", Failure: &types.Failure{Kind: types.ProcessExitNonzero, Message: "exit status 1"}},
	}

	report := BuildReport("run-1", results, time.Second)

	assert.Equal(t, exitcodes.TestFailure, report.ExitCode)
	assert.Equal(t, []string{"dbw"}, report.FailingIDs)
	assert.False(t, report.Passed())

	// The summary names every failing id.
	summary := report.String()
	assert.Contains(t, summary, "dbw")
	assert.Contains(t, summary, "ProcessExitNonzero")
}

func TestBuildReportCountsRetries(t *testing.T) {
	results := []*types.TestResult{
		{ID: "a11y", Retried: true},
		{ID: "dbw"},
	}

	report := BuildReport("run-1", results, time.Second)

	assert.Equal(t, 1, report.Stats.Retried)
	assert.Equal(t, exitcodes.Success, report.ExitCode)
}

func TestBuildReportEntryCountMatchesSelection(t *testing.T) {
	definitions := defs("a", "b", "c", "d")
	results := make([]*types.TestResult, 0, len(definitions))
	for _, def := range definitions {
		results = append(results, &types.TestResult{ID: def.ID})
	}

	report := BuildReport("run-1", results, time.Second)

	require.Equal(t, len(definitions), len(report.Results))
	for i, def := range definitions {
		assert.Equal(t, def.ID, report.Results[i].ID)
	}
}

func TestReportSummaryStripsANSIFromFailures(t *testing.T) {
	results := []*types.TestResult{
		{ID: "dbw", Failure: &types.Failure{
			Kind:    types.ProcessExitNonzero,
			Message: "\x1b[31mexpectation mismatch\x1b[0m",
		}},
	}

	summary := BuildReport("run-1", results, time.Second).String()
	assert.Contains(t, summary, "expectation mismatch")
	assert.NotContains(t, summary, "\x1b[31m")
}

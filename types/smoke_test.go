package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchKey(t *testing.T) {
	tests := []struct {
		name string
		def  TestDefinition
		want string
	}{
		{
			name: "explicit batch",
			def:  TestDefinition{ID: "a11y", Batch: "perf"},
			want: "perf",
		},
		{
			name: "implicit default batch",
			def:  TestDefinition{ID: "a11y"},
			want: DefaultBatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.def.BatchKey())
		})
	}
}

func TestResultFailed(t *testing.T) {
	passing := &TestResult{ID: "dbw"}
	assert.False(t, passing.Failed())

	failing := &TestResult{
		ID:      "dbw",
		Failure: &Failure{Kind: ProcessExitNonzero, Message: "exit status 1"},
	}
	assert.True(t, failing.Failed())
	assert.Equal(t, "ProcessExitNonzero: exit status 1", failing.Failure.Error())
}

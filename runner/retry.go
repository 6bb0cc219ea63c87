package runner

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/auditlab/smokehouse/metrics"
	"github.com/auditlab/smokehouse/types"
)

// RetryCoordinator re-invokes the process runner once for every
// definition whose result records a failure after all batches complete.
// The replacement lands at the original index; a retry that also fails
// is final.
type RetryCoordinator struct {
	runner  TestRunner
	enabled bool
	emitter ResultEmitter
	log     log.Logger
}

// NewRetryCoordinator creates a retry coordinator.
func NewRetryCoordinator(runner TestRunner, enabled bool, emitter ResultEmitter, logger log.Logger) *RetryCoordinator {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if logger == nil {
		logger = log.New()
	}

	return &RetryCoordinator{
		runner:  runner,
		enabled: enabled,
		emitter: emitter,
		log:     logger.New("component", "retry-coordinator"),
	}
}

// RetryFailures scans results for failing entries and replaces each
// with the outcome of exactly one re-run. definitions must be
// index-aligned with results (plan order). With retries disabled the
// sequence is returned unchanged.
func (c *RetryCoordinator) RetryFailures(ctx context.Context, definitions []types.TestDefinition, results []*types.TestResult) ([]*types.TestResult, error) {
	if !c.enabled {
		return results, nil
	}
	if len(definitions) != len(results) {
		return nil, fmt.Errorf("definitions and results are misaligned: %d vs %d", len(definitions), len(results))
	}

	for i, result := range results {
		if !result.Failed() {
			continue
		}

		def := definitions[i]
		c.log.Info("Retrying failed smoke test", "test", def.ID, "kind", result.Failure.Kind)

		replacement := c.runner.Run(ctx, def)
		replacement.Retried = true
		results[i] = replacement

		metrics.RecordRetry(def.ID, replacement)
		if c.emitter != nil {
			c.emitter.Emit("retry", replacement)
		}
	}

	return results, nil
}

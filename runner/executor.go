package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/auditlab/smokehouse/types"
)

// BatchExecutor runs every definition in one batch and collects the
// results in definition order. In concurrent mode (the default) all
// process runs for the batch are launched without waiting between
// launches and the batch completes when the slowest resolves; serial
// mode launches one at a time, for resource-constrained environments.
type BatchExecutor struct {
	runner  TestRunner
	serial  bool
	emitter ResultEmitter
	log     log.Logger
	tracer  trace.Tracer
}

// NewBatchExecutor creates a batch executor with validation.
func NewBatchExecutor(runner TestRunner, serial bool, emitter ResultEmitter, logger log.Logger) *BatchExecutor {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if logger == nil {
		logger = log.New()
	}

	return &BatchExecutor{
		runner:  runner,
		serial:  serial,
		emitter: emitter,
		log:     logger.New("component", "batch-executor"),
		tracer:  otel.Tracer("batch executor"),
	}
}

// ExecuteBatch runs one batch and returns its results, index-aligned
// with the batch's definition order regardless of completion order. It
// does not return until every launched run has resolved.
func (e *BatchExecutor) ExecuteBatch(ctx context.Context, batch Batch) []*types.TestResult {
	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("batch %s", batch.Name))
	defer span.End()

	start := time.Now()
	mode := "concurrent"
	if e.serial {
		mode = "serial"
	}
	e.log.Info("Executing batch", "batch", batch.Name, "tests", len(batch.Definitions), "mode", mode)

	var results []*types.TestResult
	if e.serial {
		results = e.executeSerial(ctx, batch)
	} else {
		results = e.executeConcurrent(ctx, batch)
	}

	e.log.Info("Batch complete", "batch", batch.Name, "duration", time.Since(start))
	return results
}

// executeConcurrent launches every run at once and joins on all of
// them. Each result is emitted as soon as it is known and placed into
// its designated slot.
func (e *BatchExecutor) executeConcurrent(ctx context.Context, batch Batch) []*types.TestResult {
	results := make([]*types.TestResult, len(batch.Definitions))

	var wg sync.WaitGroup
	for i, def := range batch.Definitions {
		wg.Add(1)
		go func(i int, def types.TestDefinition) {
			defer wg.Done()
			result := e.runner.Run(ctx, def)
			results[i] = result
			e.emit(batch.Name, result)
		}(i, def)
	}
	wg.Wait()

	return results
}

// executeSerial runs one definition at a time; the next is not launched
// until the previous has fully resolved.
func (e *BatchExecutor) executeSerial(ctx context.Context, batch Batch) []*types.TestResult {
	results := make([]*types.TestResult, len(batch.Definitions))

	for i, def := range batch.Definitions {
		result := e.runner.Run(ctx, def)
		results[i] = result
		e.emit(batch.Name, result)
	}

	return results
}

func (e *BatchExecutor) emit(batch string, result *types.TestResult) {
	if e.emitter != nil {
		e.emitter.Emit(batch, result)
	}
}

// ExecutePlan runs every batch of the plan strictly in order: batch N+1
// is not started until batch N has fully resolved, whichever mode is
// used within batches. The returned sequence is index-aligned with
// plan.Definitions().
func (e *BatchExecutor) ExecutePlan(ctx context.Context, plan *BatchPlan) []*types.TestResult {
	results := make([]*types.TestResult, 0, plan.TotalTests())
	for _, batch := range plan.Batches {
		results = append(results, e.ExecuteBatch(ctx, batch)...)
	}
	return results
}

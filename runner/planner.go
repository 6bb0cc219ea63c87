package runner

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/auditlab/smokehouse/types"
)

// Batch is one named group of definitions that run together. Batches
// run strictly sequentially relative to each other.
type Batch struct {
	Name        string
	Definitions []types.TestDefinition
}

// BatchPlan is an ordered mapping from batch key to the definitions
// sharing that key. Batch order and within-batch order both follow
// first-seen order during selection, so the same registry and filters
// always produce the same plan.
type BatchPlan struct {
	Batches []Batch
}

// Definitions returns every selected definition flattened in plan
// order: batch by batch, in-batch order preserved. This is the order
// the final result sequence is indexed by.
func (p *BatchPlan) Definitions() []types.TestDefinition {
	var defs []types.TestDefinition
	for _, batch := range p.Batches {
		defs = append(defs, batch.Definitions...)
	}
	return defs
}

// TotalTests returns the number of definitions selected by the plan.
func (p *BatchPlan) TotalTests() int {
	n := 0
	for _, batch := range p.Batches {
		n += len(batch.Definitions)
	}
	return n
}

// PlanBatches selects definitions and groups them into batches. With no
// requested batch names every definition is selected; otherwise only
// definitions whose batch key matches a requested name are included.
// A requested name matching no definition logs a warning and is absent
// from the plan; it is never an error.
func PlanBatches(definitions []types.TestDefinition, requested []string, logger log.Logger) *BatchPlan {
	if logger == nil {
		logger = log.New()
	}

	wanted := make(map[string]bool, len(requested))
	for _, name := range requested {
		wanted[name] = true
	}

	plan := &BatchPlan{}
	index := make(map[string]int)
	matched := make(map[string]bool)

	for _, def := range definitions {
		key := def.BatchKey()
		if len(requested) > 0 {
			if !wanted[key] {
				continue
			}
			matched[key] = true
		}

		i, ok := index[key]
		if !ok {
			i = len(plan.Batches)
			index[key] = i
			plan.Batches = append(plan.Batches, Batch{Name: key})
		}
		plan.Batches[i].Definitions = append(plan.Batches[i].Definitions, def)
	}

	for _, name := range requested {
		if !matched[name] {
			logger.Warn("Requested batch matches no definitions", "batch", name)
		}
	}

	return plan
}

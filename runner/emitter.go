package runner

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/auditlab/smokehouse/types"
)

// ResultEmitter streams each result to the reporting stream the moment
// it is known. Within a concurrent batch, emission follows completion
// order, not launch order.
type ResultEmitter interface {
	Emit(batch string, result *types.TestResult)
}

// ConsoleEmitter relays child output verbatim, framed by progress lines
// identifying which test each chunk belongs to. A child's stdout goes
// to out and its stderr to errOut, so each captured stream reaches the
// parent's corresponding stream. Writes are serialized so interleaved
// completions never shear a test's output.
type ConsoleEmitter struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewConsoleEmitter creates a console emitter writing to the given
// stdout and stderr streams.
func NewConsoleEmitter(out, errOut io.Writer) *ConsoleEmitter {
	return &ConsoleEmitter{out: out, errOut: errOut}
}

// Emit implements the ResultEmitter interface.
func (e *ConsoleEmitter) Emit(batch string, result *types.TestResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	verdict := "passed"
	if result.Failed() {
		verdict = fmt.Sprintf("failed (%s)", result.Failure.Kind)
	}

	fmt.Fprintf(e.out, "=== %s/%s %s in %.1fs ===\n", batch, result.ID, verdict, result.Duration.Seconds())
	if result.Stdout != "" {
		fmt.Fprintf(e.out, "[%s stdout]\n%s", result.ID, ensureNewline(result.Stdout))
	}
	if result.Stderr != "" {
		fmt.Fprintf(e.errOut, "[%s stderr]\n%s", result.ID, ensureNewline(result.Stderr))
	}
	if result.Failed() {
		fmt.Fprintf(e.errOut, "[%s] %s\n", result.ID, stripansi.Strip(result.Failure.Message))
	}
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

var _ ResultEmitter = &ConsoleEmitter{}

package metrics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/auditlab/smokehouse/types"
)

const (
	MetricsNamespace = "smokehouse"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	smokeTestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "smoke_tests_total",
		Help:      "Count of smoke test runs",
	}, []string{
		"run_id",
		"test",
		"result",
	})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "retries_total",
		Help:      "Count of smoke test retries",
	}, []string{
		"test",
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of smoke test runs",
	}, []string{
		"run_id",
		"result",
	})

	runTestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_total",
		Help:      "Total number of smoke tests in a run",
	}, []string{
		"run_id",
	})

	runTestsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_failed",
		Help:      "Number of failed smoke tests in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration",
		Help:      "Duration of smoke test runs",
	}, []string{
		"run_id",
	})
)

// resultLabel maps a test result onto the metric result label: "pass"
// or the failure kind.
func resultLabel(result *types.TestResult) string {
	if result == nil {
		return "unknown"
	}
	if result.Failure != nil {
		return string(result.Failure.Kind)
	}
	return "pass"
}

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordSmokeTest(runID string, testID string, result *types.TestResult) {
	label := resultLabel(result)
	if Debug {
		log.Debug("metric inc",
			"m", "smoke_tests_total",
			"run_id", runID,
			"test", testID,
			"result", label)
	}
	smokeTestsTotal.WithLabelValues(runID, testID, label).Inc()
}

func RecordRetry(testID string, result *types.TestResult) {
	retriesTotal.WithLabelValues(testID, resultLabel(result)).Inc()
}

func RecordRun(
	runID string,
	passed bool,
	total int,
	failed int,
	duration time.Duration,
) {
	result := "pass"
	if !passed {
		result = "fail"
	}
	runResults.WithLabelValues(runID, result).Set(1)
	runTestsTotal.WithLabelValues(runID).Add(float64(total))
	runTestsFailed.WithLabelValues(runID).Add(float64(failed))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

package alerting

import (
	"fmt"

	"github.com/k8intel/k8intel-agent/pkg/hostmetrics"
	schemav1 "github.com/k8intel/k8intel-agent/pkg/schema/v1"
)

// Evaluator applies static thresholds to sampled metrics. Evaluation is a
// pure function of the thresholds and the input, so repeating it on the same
// sample always yields the same alerts.
type Evaluator struct {
	config Config
}

func NewEvaluator(config Config) *Evaluator {
	return &Evaluator{config: config}
}

// EvaluatePoint checks a single metric against its threshold, if it has one.
// Only CPU and memory alert; all other metrics never do.
func (e *Evaluator) EvaluatePoint(metricType string, value float64) (schemav1.Alert, bool) {
	switch metricType {
	case schemav1.MetricTypeCpu:
		if value > e.config.CpuThreshold {
			return schemav1.Alert{
				Severity: schemav1.SeverityCritical,
				Message: fmt.Sprintf(
					"High CPU usage detected: %.2f%% (Threshold: %.1f%%)",
					value, e.config.CpuThreshold),
			}, true
		}
	case schemav1.MetricTypeMemory:
		if value > e.config.MemoryThreshold {
			return schemav1.Alert{
				Severity: schemav1.SeverityWarning,
				Message: fmt.Sprintf(
					"High Memory usage detected: %.2f%% (Threshold: %.1f%%)",
					value, e.config.MemoryThreshold),
			}, true
		}
	}

	return schemav1.Alert{}, false
}

// Evaluate checks all metrics of a sample in submission order and returns
// the zero, one or two alerts they produce.
func (e *Evaluator) Evaluate(sample *hostmetrics.Sample) []schemav1.Alert {
	var alerts []schemav1.Alert
	for _, point := range sample.Points() {
		if alert, ok := e.EvaluatePoint(point.Type, point.Value); ok {
			alerts = append(alerts, alert)
		}
	}

	return alerts
}

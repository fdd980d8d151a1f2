package alerting

import (
	"reflect"
	"strings"
	"testing"

	"github.com/k8intel/k8intel-agent/pkg/hostmetrics"
	schemav1 "github.com/k8intel/k8intel-agent/pkg/schema/v1"
)

func defaultConfig() Config {
	return Config{CpuThreshold: 90.0, MemoryThreshold: 85.0}
}

func TestEvaluateCpuBreach(t *testing.T) {
	evaluator := NewEvaluator(defaultConfig())

	alerts := evaluator.Evaluate(&hostmetrics.Sample{CpuPercent: 95.0, MemoryPercent: 50.0})
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, wanted 1", len(alerts))
	}
	if alerts[0].Severity != schemav1.SeverityCritical {
		t.Errorf("got severity %s, wanted Critical", alerts[0].Severity)
	}
	if !strings.Contains(alerts[0].Message, "95.00") {
		t.Errorf("message %q does not mention the measured value", alerts[0].Message)
	}
	if !strings.Contains(alerts[0].Message, "90.0") {
		t.Errorf("message %q does not mention the threshold", alerts[0].Message)
	}
}

func TestEvaluateMemoryBreach(t *testing.T) {
	evaluator := NewEvaluator(defaultConfig())

	alerts := evaluator.Evaluate(&hostmetrics.Sample{CpuPercent: 50.0, MemoryPercent: 91.5})
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, wanted 1", len(alerts))
	}
	if alerts[0].Severity != schemav1.SeverityWarning {
		t.Errorf("got severity %s, wanted Warning", alerts[0].Severity)
	}
	if !strings.Contains(alerts[0].Message, "91.50") || !strings.Contains(alerts[0].Message, "85.0") {
		t.Errorf("message %q does not mention value and threshold", alerts[0].Message)
	}
}

func TestEvaluateNominalSample(t *testing.T) {
	evaluator := NewEvaluator(defaultConfig())

	if alerts := evaluator.Evaluate(&hostmetrics.Sample{CpuPercent: 50.0, MemoryPercent: 50.0}); len(alerts) != 0 {
		t.Errorf("got %d alerts for a nominal sample, wanted 0", len(alerts))
	}
}

func TestEvaluateBothBreachesAreOrdered(t *testing.T) {
	evaluator := NewEvaluator(defaultConfig())

	alerts := evaluator.Evaluate(&hostmetrics.Sample{CpuPercent: 99.0, MemoryPercent: 99.0})
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, wanted 2", len(alerts))
	}
	if alerts[0].Severity != schemav1.SeverityCritical || alerts[1].Severity != schemav1.SeverityWarning {
		t.Errorf("got severities %s, %s; wanted Critical, Warning", alerts[0].Severity, alerts[1].Severity)
	}
}

func TestEvaluateThresholdIsExclusive(t *testing.T) {
	evaluator := NewEvaluator(defaultConfig())

	if alerts := evaluator.Evaluate(&hostmetrics.Sample{CpuPercent: 90.0, MemoryPercent: 85.0}); len(alerts) != 0 {
		t.Errorf("got %d alerts for values equal to their thresholds, wanted 0", len(alerts))
	}
}

func TestEvaluatePointIgnoresOtherMetrics(t *testing.T) {
	evaluator := NewEvaluator(defaultConfig())

	for _, metricType := range []string{
		schemav1.MetricTypeDiskRead,
		schemav1.MetricTypeDiskWrite,
		schemav1.MetricTypeNetSent,
		schemav1.MetricTypeNetRecv,
	} {
		if _, ok := evaluator.EvaluatePoint(metricType, 1e12); ok {
			t.Errorf("%s produced an alert, but only CPU and memory may", metricType)
		}
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	evaluator := NewEvaluator(defaultConfig())
	sample := &hostmetrics.Sample{CpuPercent: 95.0, MemoryPercent: 95.0}

	first := evaluator.Evaluate(sample)
	second := evaluator.Evaluate(sample)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated evaluation differs: %v vs %v", first, second)
	}
}

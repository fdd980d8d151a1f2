package hostmetrics

import (
	"testing"
	"time"

	schemav1 "github.com/k8intel/k8intel-agent/pkg/schema/v1"
)

func TestDeriveComputesCounterDeltas(t *testing.T) {
	start := ioTotals{diskRead: 100, diskWrite: 200, netSent: 300, netRecv: 400}
	end := ioTotals{diskRead: 150, diskWrite: 260, netSent: 330, netRecv: 520}

	sample := derive(time.Now(), time.Second, 42.5, 63.1, start, end)

	if sample.CpuPercent != 42.5 {
		t.Errorf("got CPU %v, wanted 42.5", sample.CpuPercent)
	}
	if sample.MemoryPercent != 63.1 {
		t.Errorf("got memory %v, wanted 63.1", sample.MemoryPercent)
	}
	if sample.DiskReadRate != 50 {
		t.Errorf("got disk read rate %v, wanted 50", sample.DiskReadRate)
	}
	if sample.DiskWriteRate != 60 {
		t.Errorf("got disk write rate %v, wanted 60", sample.DiskWriteRate)
	}
	if sample.NetSentRate != 30 {
		t.Errorf("got net sent rate %v, wanted 30", sample.NetSentRate)
	}
	if sample.NetRecvRate != 120 {
		t.Errorf("got net recv rate %v, wanted 120", sample.NetRecvRate)
	}
}

func TestDeriveClampsCounterResets(t *testing.T) {
	start := ioTotals{diskRead: 1000, diskWrite: 1000, netSent: 1000, netRecv: 1000}
	end := ioTotals{diskRead: 10, diskWrite: 2000, netSent: 10, netRecv: 2000}

	sample := derive(time.Now(), time.Second, 0, 0, start, end)

	for _, point := range sample.Points() {
		if point.Value < 0 {
			t.Errorf("got negative rate %v for %s", point.Value, point.Type)
		}
	}
	if sample.DiskReadRate != 0 {
		t.Errorf("got disk read rate %v after counter reset, wanted 0", sample.DiskReadRate)
	}
	if sample.NetRecvRate != 1000 {
		t.Errorf("got net recv rate %v, wanted 1000", sample.NetRecvRate)
	}
}

func TestPointsSubmissionOrder(t *testing.T) {
	sample := &Sample{
		CpuPercent:    1,
		MemoryPercent: 2,
		DiskReadRate:  3,
		DiskWriteRate: 4,
		NetSentRate:   5,
		NetRecvRate:   6,
	}

	points := sample.Points()
	if len(points) != len(schemav1.MetricTypes) {
		t.Fatalf("got %d points, wanted %d", len(points), len(schemav1.MetricTypes))
	}

	for i, point := range points {
		if point.Type != schemav1.MetricTypes[i] {
			t.Errorf("point %d has type %s, wanted %s", i, point.Type, schemav1.MetricTypes[i])
		}
		if point.Value != float64(i+1) {
			t.Errorf("point %d has value %v, wanted %v", i, point.Value, float64(i+1))
		}
	}
}

func TestNewSamplerDefaultsWindow(t *testing.T) {
	if got := NewSampler(0).Window(); got != DefaultWindow {
		t.Errorf("got window %v, wanted %v", got, DefaultWindow)
	}
	if got := NewSampler(2 * time.Second).Window(); got != 2*time.Second {
		t.Errorf("got window %v, wanted 2s", got)
	}
}

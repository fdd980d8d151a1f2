package hostmetrics

import (
	"context"
	"time"

	schemav1 "github.com/k8intel/k8intel-agent/pkg/schema/v1"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// DefaultWindow is the wall-clock window one sample spans.
const DefaultWindow = time.Second

// Sample is one timestamped reading of host resource usage. The rate fields
// are counter deltas over the sampling window, not raw counters.
type Sample struct {
	Time          time.Time
	Window        time.Duration
	CpuPercent    float64
	MemoryPercent float64
	DiskReadRate  float64
	DiskWriteRate float64
	NetSentRate   float64
	NetRecvRate   float64
}

// Point is a single metric of a sample in collector terms.
type Point struct {
	Type  string
	Value float64
}

// Points returns the sample's metrics in submission order.
func (s *Sample) Points() []Point {
	return []Point{
		{schemav1.MetricTypeCpu, s.CpuPercent},
		{schemav1.MetricTypeMemory, s.MemoryPercent},
		{schemav1.MetricTypeDiskRead, s.DiskReadRate},
		{schemav1.MetricTypeDiskWrite, s.DiskWriteRate},
		{schemav1.MetricTypeNetSent, s.NetSentRate},
		{schemav1.MetricTypeNetRecv, s.NetRecvRate},
	}
}

type ioTotals struct {
	diskRead  uint64
	diskWrite uint64
	netSent   uint64
	netRecv   uint64
}

// Sampler reads host resource counters via gopsutil.
type Sampler struct {
	window time.Duration
}

func NewSampler(window time.Duration) *Sampler {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Sampler{window: window}
}

// Window returns the wall-clock window one Sample call spans.
func (s *Sampler) Window() time.Duration {
	return s.window
}

// Sample reads the disk and network counters, blocks for the sampling window
// measuring CPU usage, and reads the counters again. The mandatory CPU
// measurement delay doubles as the I/O rate measurement window, so all six
// metrics share one time base and a cycle costs one window, not two.
// Any counter read failure aborts the sample; no partial sample is returned.
func (s *Sampler) Sample(ctx context.Context) (*Sample, error) {
	start, err := readTotals(ctx)
	if err != nil {
		return nil, err
	}

	percents, err := cpu.PercentWithContext(ctx, s.window, false)
	if err != nil {
		return nil, errors.Wrap(err, "can't read CPU usage")
	}
	if len(percents) == 0 {
		return nil, errors.New("no CPU usage reported")
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "can't read virtual memory usage")
	}

	end, err := readTotals(ctx)
	if err != nil {
		return nil, err
	}

	return derive(time.Now(), s.window, percents[0], vm.UsedPercent, start, end), nil
}

func readTotals(ctx context.Context) (ioTotals, error) {
	var totals ioTotals

	diskCounters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return totals, errors.Wrap(err, "can't read disk I/O counters")
	}
	for _, counter := range diskCounters {
		totals.diskRead += counter.ReadBytes
		totals.diskWrite += counter.WriteBytes
	}

	netCounters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return totals, errors.Wrap(err, "can't read network I/O counters")
	}
	if len(netCounters) == 0 {
		return totals, errors.New("no network I/O counters reported")
	}
	totals.netSent = netCounters[0].BytesSent
	totals.netRecv = netCounters[0].BytesRecv

	return totals, nil
}

// derive computes the six metrics of one sample from two counter readings
// taken one window apart.
func derive(at time.Time, window time.Duration, cpuPercent, memoryPercent float64, start, end ioTotals) *Sample {
	return &Sample{
		Time:          at,
		Window:        window,
		CpuPercent:    cpuPercent,
		MemoryPercent: memoryPercent,
		DiskReadRate:  delta(end.diskRead, start.diskRead),
		DiskWriteRate: delta(end.diskWrite, start.diskWrite),
		NetSentRate:   delta(end.netSent, start.netSent),
		NetRecvRate:   delta(end.netRecv, start.netRecv),
	}
}

// delta clamps at zero so a counter reset within the window can't produce a
// negative rate.
func delta(end, start uint64) float64 {
	if end < start {
		return 0
	}

	return float64(end - start)
}

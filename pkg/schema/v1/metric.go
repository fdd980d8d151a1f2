package v1

// Metric types as the collector API expects them. The order of
// MetricTypes is the submission order within one sampling cycle.
const (
	MetricTypeCpu       = "CPU"
	MetricTypeMemory    = "Memory"
	MetricTypeDiskRead  = "DiskReadBPS"
	MetricTypeDiskWrite = "DiskWriteBPS"
	MetricTypeNetSent   = "NetSentBPS"
	MetricTypeNetRecv   = "NetRecvBPS"
)

var MetricTypes = []string{
	MetricTypeCpu,
	MetricTypeMemory,
	MetricTypeDiskRead,
	MetricTypeDiskWrite,
	MetricTypeNetSent,
	MetricTypeNetRecv,
}

// Metric is the payload of a single metric submission.
type Metric struct {
	ClusterId int64   `json:"clusterId"`
	Type      string  `json:"metricType"`
	Value     float64 `json:"value"`
}

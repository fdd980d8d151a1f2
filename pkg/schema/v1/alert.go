package v1

// Severity of an alert as the collector API expects it.
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// Alert is the payload of a single alert submission. The cluster ID is
// filled in by the collector client, which owns it for the process lifetime.
type Alert struct {
	ClusterId int64    `json:"clusterId"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

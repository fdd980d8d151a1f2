package internal

// Version is the agent version.
const Version = "0.1.0"

// UserAgent returns the HTTP User-Agent the agent identifies itself with,
// including the per-process instance ID.
func UserAgent(instanceId string) string {
	return "k8intel-agent/" + Version + " (" + instanceId + ")"
}

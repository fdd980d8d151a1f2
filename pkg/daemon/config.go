package daemon

import (
	"github.com/icinga/icinga-go-library/logging"
	"github.com/k8intel/k8intel-agent/pkg/agent"
	"github.com/k8intel/k8intel-agent/pkg/alerting"
	"github.com/k8intel/k8intel-agent/pkg/collector"
	"github.com/k8intel/k8intel-agent/pkg/inventory"
	"github.com/k8intel/k8intel-agent/pkg/telemetry"
)

// DefaultConfigPath specifies the default location of the agent's config.yml.
const DefaultConfigPath = "./config.yml"

// Config defines the K8Intel agent config.
type Config struct {
	Collector collector.Config `yaml:"collector"`
	Agent     agent.Config     `yaml:"agent"`
	Alerting  alerting.Config  `yaml:"alerting"`
	Inventory inventory.Config `yaml:"inventory"`
	Logging   logging.Config   `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// Validate checks constraints in the supplied configuration and returns an
// error if they are violated. Missing collector settings are a hard startup
// failure; no component runs without them.
func (c *Config) Validate() error {
	if err := c.Collector.Validate(); err != nil {
		return err
	}

	if err := c.Agent.Validate(); err != nil {
		return err
	}

	if err := c.Alerting.Validate(); err != nil {
		return err
	}

	if err := c.Inventory.Validate(); err != nil {
		return err
	}

	if err := c.Logging.Validate(); err != nil {
		return err
	}

	return c.Telemetry.Validate()
}

package alerting

import (
	"github.com/pkg/errors"
)

// Config defines the static alerting thresholds, fixed for the process
// lifetime.
type Config struct {
	CpuThreshold    float64 `yaml:"cpu_threshold" default:"90.0"`
	MemoryThreshold float64 `yaml:"memory_threshold" default:"85.0"`
}

// Validate implements the config.Validator interface.
func (c *Config) Validate() error {
	if c.CpuThreshold <= 0 || c.CpuThreshold > 100 {
		return errors.Errorf("'cpu_threshold' must be in (0, 100], got %v", c.CpuThreshold)
	}
	if c.MemoryThreshold <= 0 || c.MemoryThreshold > 100 {
		return errors.Errorf("'memory_threshold' must be in (0, 100], got %v", c.MemoryThreshold)
	}

	return nil
}

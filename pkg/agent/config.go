package agent

import (
	"time"

	"github.com/pkg/errors"
)

// Config defines the agent's reporting cadences.
type Config struct {
	PollInterval      time.Duration `yaml:"poll_interval" default:"30s"`
	InventoryInterval time.Duration `yaml:"inventory_interval" default:"5m"`
}

// Validate implements the config.Validator interface.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("'poll_interval' must be positive")
	}
	if c.InventoryInterval <= 0 {
		return errors.New("'inventory_interval' must be positive")
	}

	return nil
}

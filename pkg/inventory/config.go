package inventory

import (
	"github.com/pkg/errors"
)

// Config defines which namespaces the inventory collector scans for pods.
// Nodes are always listed cluster-wide.
type Config struct {
	Namespaces []string `yaml:"namespaces" default:"[\"default\", \"kube-system\"]"`
}

// Validate implements the config.Validator interface.
func (c *Config) Validate() error {
	if len(c.Namespaces) == 0 {
		return errors.New("at least one inventory namespace must be configured")
	}
	for _, namespace := range c.Namespaces {
		if namespace == "" {
			return errors.New("inventory namespaces must not be empty")
		}
	}

	return nil
}

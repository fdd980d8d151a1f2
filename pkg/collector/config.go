package collector

import (
	"net/url"

	"github.com/pkg/errors"
)

// Config defines the remote collector API the agent reports to.
type Config struct {
	Url       string `yaml:"url"`
	ApiKey    string `yaml:"api_key"`
	ClusterId int64  `yaml:"cluster_id"`
	// Insecure skips TLS certificate verification, e.g. for collectors
	// running with self-signed certificates during development.
	Insecure bool `yaml:"insecure"`
}

// Validate implements the config.Validator interface.
func (c *Config) Validate() error {
	if c.Url == "" {
		return errors.New("collector base 'url' must be provided")
	}
	if _, err := url.Parse(c.Url); err != nil {
		return errors.Wrapf(err, "cannot parse collector base URL: %q", c.Url)
	}
	if c.ApiKey == "" {
		return errors.New("collector 'api_key' must be provided")
	}
	if c.ClusterId <= 0 {
		return errors.New("collector 'cluster_id' must be a positive integer")
	}

	return nil
}

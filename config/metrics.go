package config

import (
	"fmt"
	"strconv"

	"github.com/kilianp07/stagger/core/factory"
)

// MetricsConfig controls the Prometheus endpoint and the epoch record sinks.
type MetricsConfig struct {
	PrometheusEnabled bool                   `json:"prometheus_enabled"`
	PrometheusPort    string                 `json:"prometheus_port"`
	Sinks             []factory.ModuleConfig `json:"sinks"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = "2112"
	}
}

// Validate checks the port when the endpoint is enabled.
func (c MetricsConfig) Validate() error {
	if !c.PrometheusEnabled {
		return nil
	}
	p, err := strconv.Atoi(c.PrometheusPort)
	if err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid prometheus_port %q", c.PrometheusPort)
	}
	return nil
}

// Addr is the listen address of the metrics endpoint.
func (c MetricsConfig) Addr() string { return ":" + c.PrometheusPort }

package config

import (
	"fmt"

	"github.com/kilianp07/stagger/core/model"
)

// NetworkConfig locates the road graph and the constants used to annotate it.
type NetworkConfig struct {
	Path string `json:"path"`
	// SpeedKPH converts arc lengths into travel times.
	SpeedKPH float64 `json:"speed_kph"`
	// MaxFlowAllowed is the minimum headway in seconds used to derive
	// capacities.
	MaxFlowAllowed float64 `json:"max_flow_allowed"`
}

// SetDefaults applies sane defaults.
func (c *NetworkConfig) SetDefaults() {
	if c.SpeedKPH == 0 {
		c.SpeedKPH = 20
	}
	if c.MaxFlowAllowed == 0 {
		c.MaxFlowAllowed = 5
	}
}

// Validate checks the annotation constants.
func (c NetworkConfig) Validate() error {
	if err := c.ArcParams().Validate(); err != nil {
		return fmt.Errorf("arc params: %w", err)
	}
	return nil
}

// ArcParams returns the annotation constants.
func (c NetworkConfig) ArcParams() model.ArcParams {
	return model.ArcParams{SpeedKPH: c.SpeedKPH, MaxFlowAllowed: c.MaxFlowAllowed}
}

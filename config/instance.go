package config

import "fmt"

// Input sources of the instance document.
const (
	InputScript  = "script"
	InputConsole = "console"
)

// InstanceConfig selects where the global instance comes from.
type InstanceConfig struct {
	Path string `json:"path"`
	// InputSource is "script" to read Path or "console" to read stdin.
	InputSource string `json:"input_source"`
}

// SetDefaults applies sane defaults.
func (c *InstanceConfig) SetDefaults() {
	if c.InputSource == "" {
		c.InputSource = InputScript
	}
}

// Validate checks the input source.
func (c InstanceConfig) Validate() error {
	switch c.InputSource {
	case InputScript, InputConsole:
		return nil
	default:
		return fmt.Errorf("unknown input_source %q", c.InputSource)
	}
}

// Package config loads the run configuration. It is built once at process
// start and handed read-only to every component.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/stagger/core/engine"
	"github.com/kilianp07/stagger/core/factory"
)

// EnvPrefix marks environment overrides. Nested keys are separated by a
// double underscore: STAGGER_ENGINE__EPOCH_SIZE=120.
const EnvPrefix = "STAGGER_"

type Config struct {
	Network   NetworkConfig        `json:"network"`
	Instance  InstanceConfig       `json:"instance"`
	Engine    engine.Config        `json:"engine"`
	Optimizer factory.ModuleConfig `json:"optimizer"`
	Metrics   MetricsConfig        `json:"metrics"`
	Logging   LoggingConfig        `json:"logging"`
	Sentry    SentryConfig         `json:"sentry"`
	Output    OutputConfig         `json:"output"`
}

// Load reads a YAML or JSON file, applies environment overrides, defaults
// and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	// Keys absent from the file keep their default; explicit zeros are kept.
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Default returns a configuration with every section defaulted.
func Default() Config {
	c := Config{Engine: engine.DefaultConfig()}
	c.SetDefaults()
	return c
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Network.SetDefaults()
	c.Instance.SetDefaults()
	c.Engine.SetDefaults()
	if c.Optimizer.Type == "" {
		c.Optimizer.Type = "lp"
	}
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
	c.Output.SetDefaults()
}

// Validate checks every section and joins the failures.
func (c Config) Validate() error {
	return errors.Join(
		prefixed("network", c.Network.Validate()),
		prefixed("instance", c.Instance.Validate()),
		c.Engine.Validate(),
		prefixed("metrics", c.Metrics.Validate()),
		prefixed("logging", c.Logging.Validate()),
	)
}

func prefixed(section string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", section, err)
}

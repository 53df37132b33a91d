package optimizer

import "github.com/kilianp07/stagger/core/factory"

// DefaultType is used when the configuration names no optimizer.
const DefaultType = "lp"

var registry = factory.NewRegistry[Optimizer]()

// Register adds an optimizer factory identified by name.
func Register(name string, f factory.Factory[Optimizer]) error {
	return registry.Register(name, f)
}

// New creates the optimizer described by cfg.
func New(cfg factory.ModuleConfig) (Optimizer, error) {
	if cfg.Type == "" {
		cfg.Type = DefaultType
	}
	return registry.Create(cfg)
}

// Registered lists the known optimizer types.
func Registered() []string { return registry.Names() }

// Package plugins registers the built-in optimizers and epoch record sinks.
// Importing it for side effects makes every built-in module resolvable from
// configuration.
package plugins

import (
	coremetrics "github.com/kilianp07/stagger/core/metrics"
	"github.com/kilianp07/stagger/core/optimizer"
)

// Kinds of pluggable modules.
const (
	KindOptimizer = "optimizer"
	KindSink      = "sink"
)

// Catalog lists the registered module types per kind.
func Catalog() map[string][]string {
	return map[string][]string{
		KindOptimizer: optimizer.Registered(),
		KindSink:      coremetrics.RegisteredSinks(),
	}
}

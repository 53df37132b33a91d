// Package factory provides the generic registry used to pick pluggable
// engine components (optimizers, epoch record stores) from configuration.
// A module is named by a type string and configured by a raw map that the
// factory decodes into its own typed settings.
//
//	reg := factory.NewRegistry[optimizer.Optimizer]()
//	_ = reg.Register("lp", func(conf map[string]any) (optimizer.Optimizer, error) {
//	    var c optimizer.LPConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return optimizer.NewLPOptimizer(c), nil
//	})
//	opt, err := reg.Create(factory.ModuleConfig{Type: "lp", Conf: map[string]any{"tolerance": 1e-9}})
package factory

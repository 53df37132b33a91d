package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/stagger/core/epoch"
	"github.com/kilianp07/stagger/core/simplify"
)

var validate = validator.New()

// Config drives the rolling-horizon loop. It is built once at process start
// and read-only afterwards.
type Config struct {
	EpochSize      float64 `json:"epoch_size" validate:"gt=0"`
	HorizonStart   float64 `json:"horizon_start" validate:"gte=0"`
	HorizonEnd     float64 `json:"horizon_end" validate:"gte=0"`
	BoundaryPolicy string  `json:"boundary_policy" validate:"oneof=later earlier"`
	// MaxStaggering bounds the delay of every newly released vehicle.
	MaxStaggering float64 `json:"max_staggering_per_vehicle" validate:"gte=0"`
	// BoundFactor scales the pruning margin of the simplifier.
	BoundFactor       float64 `json:"conflict_bound_factor" validate:"gte=1"`
	TimeBudgetSeconds float64 `json:"time_budget_seconds" validate:"gte=0"`
	// Debug makes simplification violations fatal.
	Debug bool `json:"debug"`
}

// Default staggering settings applied by DefaultConfig.
const (
	DefaultMaxStaggering     = 10
	DefaultTimeBudgetSeconds = 10
)

// DefaultConfig returns the configuration used when a field is absent from
// the configuration file.
func DefaultConfig() Config {
	c := Config{
		MaxStaggering:     DefaultMaxStaggering,
		TimeBudgetSeconds: DefaultTimeBudgetSeconds,
	}
	c.SetDefaults()
	return c
}

// SetDefaults fills the fields for which zero is not a valid value.
// MaxStaggering and TimeBudgetSeconds are left alone: zero disables
// staggering and the optimizer budget respectively.
func (c *Config) SetDefaults() {
	if c.EpochSize == 0 {
		c.EpochSize = 60
	}
	if c.BoundaryPolicy == "" {
		c.BoundaryPolicy = string(epoch.BoundaryLater)
	}
	if c.BoundFactor == 0 {
		c.BoundFactor = simplify.DefaultBoundFactor
	}
}

// Validate checks the struct tags and cross-field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.HorizonEnd != 0 && c.HorizonEnd < c.HorizonStart {
		return fmt.Errorf("horizon_end %v precedes horizon_start %v", c.HorizonEnd, c.HorizonStart)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		switch e.Tag() {
		case "gt", "gte":
			return fmt.Errorf("engine.%s: must be %s %s, got %v", e.Field(), e.Tag(), e.Param(), e.Value())
		case "oneof":
			return fmt.Errorf("engine.%s: must be one of [%s], got %q", e.Field(), e.Param(), e.Value())
		default:
			return fmt.Errorf("engine.%s: validation failed (%s)", e.Field(), e.Tag())
		}
	}
	return err
}

// EpochConfig derives the partitioner settings.
func (c Config) EpochConfig() epoch.Config {
	return epoch.Config{
		EpochSize:    c.EpochSize,
		HorizonStart: c.HorizonStart,
		HorizonEnd:   c.HorizonEnd,
		Boundary:     epoch.BoundaryPolicy(c.BoundaryPolicy),
	}
}

// SimplifyConfig derives the simplifier settings.
func (c Config) SimplifyConfig() simplify.Config {
	return simplify.Config{MaxStaggering: c.MaxStaggering, BoundFactor: c.BoundFactor}
}

// TimeBudget is the optimizer budget per epoch. Zero means unbounded.
func (c Config) TimeBudget() time.Duration {
	return time.Duration(c.TimeBudgetSeconds * float64(time.Second))
}

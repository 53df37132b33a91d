package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("not found")

// ErrInvalidInstance is matched by every InvalidInstanceError.
var ErrInvalidInstance = errors.New("invalid instance")

// ErrInvalidAttribute is matched by every InvalidAttributeError.
var ErrInvalidAttribute = errors.New("invalid attribute")

// NotFoundError reports a persisted network or instance that cannot be located.
type NotFoundError struct {
	Resource string
	Path     string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found at %s: %v", e.Resource, e.Path, e.Err)
	}
	return fmt.Sprintf("%s not found at %s", e.Resource, e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNotFound) hold for any NotFoundError.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidAttributeError reports an arc whose physical attributes are missing
// or inconsistent with its kind.
type InvalidAttributeError struct {
	Arc       ArcID
	Attribute string
	Reason    string
}

func (e *InvalidAttributeError) Error() string {
	return fmt.Sprintf("arc %s: invalid attribute %q: %s", e.Arc, e.Attribute, e.Reason)
}

func (e *InvalidAttributeError) Is(target error) bool { return target == ErrInvalidAttribute }

// InvalidInstanceError reports a malformed instance: unknown nodes or arcs on a
// path, non-monotonic release times, or an unusable release time.
type InvalidInstanceError struct {
	Vehicle VehicleID
	Reason  string
}

func (e *InvalidInstanceError) Error() string {
	if e.Vehicle == "" {
		return "invalid instance: " + e.Reason
	}
	return fmt.Sprintf("invalid instance: vehicle %s: %s", e.Vehicle, e.Reason)
}

func (e *InvalidInstanceError) Is(target error) bool { return target == ErrInvalidInstance }

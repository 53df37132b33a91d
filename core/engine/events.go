package engine

import (
	"time"

	"github.com/kilianp07/stagger/internal/eventbus"
)

// EventKind names a progress event.
type EventKind string

const (
	EventEpochStarted   EventKind = "epoch_started"
	EventEpochCompleted EventKind = "epoch_completed"
	EventRunCompleted   EventKind = "run_completed"
)

// Event reports progress of a run. Report is set on completed epochs.
type Event struct {
	Kind   EventKind
	RunID  string
	Epoch  int
	Epochs int
	Report *EpochReport
	Time   time.Time
}

// Bus carries engine events.
type Bus = eventbus.Bus[Event]

// NewBus creates an event bus sized for progress reporting.
func NewBus() *Bus { return eventbus.New[Event](0) }

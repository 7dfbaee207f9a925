package system

import (
	"time"

	"github.com/l1jgo/compoundtp/internal/core/event"
	coresys "github.com/l1jgo/compoundtp/internal/core/system"
)

// EventDispatchSystem delivers last tick's events to their subscribers.
// Phase 1 (PreUpdate).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

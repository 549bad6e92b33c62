package system

import (
	"time"

	coresys "github.com/survivordash/dash/internal/core/system"
)

// Pump is the frame-loop side of the request queue.
type Pump interface {
	Drain() bool
	Poll() int
}

// NetworkSystem dispatches at most one queued request per frame and runs
// the handlers of finished ones. It keeps running while the game is paused
// or over so session traffic still completes. Phase 0 (Input).
type NetworkSystem struct {
	pump Pump
}

func NewNetworkSystem(p Pump) *NetworkSystem {
	return &NetworkSystem{pump: p}
}

func (s *NetworkSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *NetworkSystem) Update(_ time.Duration) {
	s.pump.Drain()
	s.pump.Poll()
}

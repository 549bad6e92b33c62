package system

import (
	"math"
	"time"

	coresys "github.com/survivordash/dash/internal/core/system"
)

// MotionSystem steers enemies toward the player, integrates positions,
// culls enemies that left the field, and advances power-up pulses.
// Phase 2 (Update).
type MotionSystem struct {
	deps *Deps
}

func NewMotionSystem(deps *Deps) *MotionSystem {
	return &MotionSystem{deps: deps}
}

func (s *MotionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MotionSystem) Update(dt time.Duration) {
	ws := s.deps.World
	if ws.Frozen() {
		return
	}
	sec := dt.Seconds()
	t := s.deps.Tuning
	margin := t.Field.CullMargin

	for i := range ws.Enemies {
		e := &ws.Enemies[i]
		if !e.Active {
			continue
		}
		dx := ws.PlayerX - e.X
		dy := ws.PlayerY - e.Y
		if d := math.Hypot(dx, dy); d > 0 {
			e.VX += dx / d * t.Enemy.Steering * sec
			e.VY += dy / d * t.Enemy.Steering * sec
		}
		e.X += e.VX * sec
		e.Y += e.VY * sec

		if e.X < -margin || e.X > t.Field.Width+margin || e.Y < -margin || e.Y > t.Field.Height+margin {
			e.Active = false
		}
	}
	for i := range ws.PowerUps {
		if ws.PowerUps[i].Active {
			ws.PowerUps[i].Pulse += sec
		}
	}
}

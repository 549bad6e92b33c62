package system

import (
	"time"

	coresys "github.com/survivordash/dash/internal/core/system"
)

// CursorSource supplies the player position for a frame. ok=false keeps
// the current position.
type CursorSource interface {
	Cursor(d *Deps) (x, y float64, ok bool)
}

// InputSystem moves the player to the cursor. Phase 0 (Input).
type InputSystem struct {
	deps *Deps
	src  CursorSource
}

func NewInputSystem(deps *Deps, src CursorSource) *InputSystem {
	return &InputSystem{deps: deps, src: src}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	if s.src == nil || s.deps.World.Frozen() {
		return
	}
	x, y, ok := s.src.Cursor(s.deps)
	if !ok {
		return
	}
	MovePlayer(s.deps, x, y)
}

// MovePlayer places the player at (x, y), clamped to the field.
func MovePlayer(d *Deps, x, y float64) {
	f := d.Tuning.Field
	d.World.PlayerX = clamp(x, 0, f.Width)
	d.World.PlayerY = clamp(y, 0, f.Height)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

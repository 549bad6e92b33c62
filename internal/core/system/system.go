package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput      Phase = iota // 0: pump request queue, apply completions, read cursor
	PhasePreUpdate               // 1: dispatch last frame's events
	PhaseUpdate                  // 2: clocks, accrual, spawning, motion
	PhasePostUpdate              // 3: collisions, lives
	PhasePersist                 // 4: checkpoint snapshot + remote save
	PhaseCleanup                 // 5: purge inactive entities, derive score, game over
)

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

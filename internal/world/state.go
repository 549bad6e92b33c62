package world

import (
	"slices"
	"time"
)

// State is the mutable play field of one run. It is owned by the frame loop
// and must not be touched from other goroutines.
type State struct {
	PlayerX, PlayerY float64

	GameTime          time.Duration
	Lives             int
	LeaderboardPoints int
	SkillPoints       int
	Score             int // derived every frame, see system.Score
	PickupBonus       int // power-up bonus collected during the current frame

	Enemies  []Enemy
	PowerUps []PowerUp

	// Accrual timers.
	LeaderboardTimer time.Duration
	SkillTimer       time.Duration
	SaveTimer        time.Duration
	SaveDue          bool // set by accrual, consumed by the checkpoint system

	Paused   bool
	GameOver bool
}

// NewState returns a fresh run with the player at (x, y).
func NewState(x, y float64, lives int) *State {
	s := &State{}
	s.Reset(x, y, lives)
	return s
}

// Reset clears the run back to its initial values.
func (s *State) Reset(x, y float64, lives int) {
	*s = State{
		PlayerX:  x,
		PlayerY:  y,
		Lives:    lives,
		Enemies:  make([]Enemy, 0, 64),
		PowerUps: make([]PowerUp, 0, 8),
	}
}

// Frozen reports whether simulation and accrual are suspended.
func (s *State) Frozen() bool { return s.Paused || s.GameOver }

// LiveEnemies counts active enemies.
func (s *State) LiveEnemies() int {
	n := 0
	for i := range s.Enemies {
		if s.Enemies[i].Active {
			n++
		}
	}
	return n
}

// Purge removes inactive entities, keeping the order of survivors.
func (s *State) Purge() {
	s.Enemies = compactEnemies(s.Enemies)
	s.PowerUps = compactPowerUps(s.PowerUps)
}

// Totals returns the reportable numbers of the run.
func (s *State) Totals() Totals {
	return Totals{
		Score:             s.Score,
		LeaderboardPoints: s.LeaderboardPoints,
		SkillPoints:       s.SkillPoints,
		GameTime:          s.GameTime,
		Lives:             s.Lives,
	}
}

// Snapshot deep-copies the checkpointable part of the run. Entities already
// deactivated this frame are left out.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		GameTime:          s.GameTime,
		Score:             s.Score,
		LeaderboardPoints: s.LeaderboardPoints,
		SkillPoints:       s.SkillPoints,
		Enemies:           compactEnemies(slices.Clone(s.Enemies)),
		PowerUps:          compactPowerUps(slices.Clone(s.PowerUps)),
	}
}

// Restore replaces the run with a snapshot and resumes play with lives.
// Accrual timers restart from zero.
func (s *State) Restore(snap Snapshot, lives int) {
	s.GameTime = snap.GameTime
	s.Score = snap.Score
	s.LeaderboardPoints = snap.LeaderboardPoints
	s.SkillPoints = snap.SkillPoints
	s.Enemies = slices.Clone(snap.Enemies)
	s.PowerUps = slices.Clone(snap.PowerUps)
	s.Lives = lives
	s.PickupBonus = 0
	s.LeaderboardTimer, s.SkillTimer, s.SaveTimer = 0, 0, 0
	s.SaveDue = false
	s.Paused = false
	s.GameOver = false
}

// Totals are the point totals and clocks reported to the backend.
type Totals struct {
	Score             int
	LeaderboardPoints int
	SkillPoints       int
	GameTime          time.Duration
	Lives             int
}

// Snapshot is a checkpoint of a run used by "continue from last checkpoint".
type Snapshot struct {
	GameTime          time.Duration
	Score             int
	LeaderboardPoints int
	SkillPoints       int
	Enemies           []Enemy
	PowerUps          []PowerUp
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	s.Enemies = slices.Clone(s.Enemies)
	s.PowerUps = slices.Clone(s.PowerUps)
	return s
}

// Empty reports whether the snapshot carries no progress.
func (s Snapshot) Empty() bool { return s.GameTime <= 0 }

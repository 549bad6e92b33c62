package system

import (
	"time"

	"github.com/survivordash/dash/internal/core/event"
	coresys "github.com/survivordash/dash/internal/core/system"
)

// Intervals are the accrual timer periods.
type Intervals struct {
	Leaderboard time.Duration
	Skill       time.Duration
	Save        time.Duration
}

// AccrualSystem advances the game clock and the three point timers:
// +1 leaderboard point per Leaderboard interval, +1 skill point per Skill
// interval, and a save request per Save interval. Nothing advances while
// the game is paused or over. Phase 2 (Update).
type AccrualSystem struct {
	deps      *Deps
	intervals Intervals
}

func NewAccrualSystem(deps *Deps, iv Intervals) *AccrualSystem {
	return &AccrualSystem{deps: deps, intervals: iv}
}

func (s *AccrualSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AccrualSystem) Update(dt time.Duration) {
	ws := s.deps.World
	if ws.Frozen() || dt <= 0 {
		return
	}
	ws.GameTime += dt

	var ev event.PointsAwarded
	if accrue(&ws.LeaderboardTimer, s.intervals.Leaderboard, dt) {
		ws.LeaderboardPoints++
		ev.Leaderboard = 1
	}
	if accrue(&ws.SkillTimer, s.intervals.Skill, dt) {
		ws.SkillPoints++
		ev.Skill = 1
	}
	if accrue(&ws.SaveTimer, s.intervals.Save, dt) {
		ws.SaveDue = true
	}
	if ev.Leaderboard > 0 || ev.Skill > 0 {
		ev.TotalLP = ws.LeaderboardPoints
		ev.TotalSP = ws.SkillPoints
		event.Emit(s.deps.Bus, ev)
	}
}

// accrue adds dt to acc and reports whether the interval elapsed. A timer
// fires at most once per call; the remainder carries into the next interval
// but never past it.
func accrue(acc *time.Duration, interval, dt time.Duration) bool {
	if interval <= 0 {
		return false
	}
	*acc += dt
	if *acc < interval {
		return false
	}
	*acc -= interval
	if *acc >= interval {
		*acc = interval - 1
	}
	return true
}

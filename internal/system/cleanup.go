package system

import (
	"time"

	coresys "github.com/survivordash/dash/internal/core/system"
	"github.com/survivordash/dash/internal/data"
	"github.com/survivordash/dash/internal/world"
)

// CleanupSystem purges inactive entities and derives the score.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	deps *Deps
}

func NewCleanupSystem(deps *Deps) *CleanupSystem {
	return &CleanupSystem{deps: deps}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	ws := s.deps.World
	if ws.Frozen() {
		return
	}
	ws.Purge()
	ws.Score = Score(ws, s.deps.Tuning.Score)
	ws.PickupBonus = 0
}

// Score is floor(gameTime*perSecond) + liveEnemies*perEnemy +
// leaderboardPoints*perPoint + the pickup bonus collected this frame.
func Score(ws *world.State, st data.ScoreTuning) int {
	base := int(ws.GameTime * time.Duration(st.PerSecond) / time.Second)
	return base + ws.LiveEnemies()*st.PerLiveEnemy + ws.LeaderboardPoints*st.PerLeaderboardPoint + ws.PickupBonus
}

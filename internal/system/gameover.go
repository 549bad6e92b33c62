package system

import (
	"time"

	"github.com/survivordash/dash/internal/core/event"
	coresys "github.com/survivordash/dash/internal/core/system"
	"github.com/survivordash/dash/internal/session"
	"github.com/survivordash/dash/internal/world"
	"go.uber.org/zap"
)

// GameOverSystem freezes the run when the last life is lost and finalises
// the session. Registered after CleanupSystem so the final score includes
// this frame. Phase 5 (Cleanup).
type GameOverSystem struct {
	deps    *Deps
	session Session
}

func NewGameOverSystem(deps *Deps, sess Session) *GameOverSystem {
	return &GameOverSystem{deps: deps, session: sess}
}

func (s *GameOverSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *GameOverSystem) Update(_ time.Duration) {
	ws := s.deps.World
	if ws.GameOver || ws.Lives > 0 {
		return
	}
	ws.GameOver = true
	final := ws.Totals()
	s.session.End(final, session.ReasonDeath)

	canContinue := s.session.HasSnapshot()
	LogFinalStats(s.deps.Log, "遊戲結束", final)
	event.Emit(s.deps.Bus, event.GameOver{
		Score:       final.Score,
		GameTime:    final.GameTime,
		CanContinue: canContinue,
	})
}

// LogFinalStats writes the end-of-run summary line.
func LogFinalStats(log *zap.Logger, msg string, t world.Totals) {
	log.Info(msg,
		zap.Int("score", t.Score),
		zap.Int("leaderboard_points", t.LeaderboardPoints),
		zap.Int("skill_points", t.SkillPoints),
		zap.Duration("survived", t.GameTime.Round(time.Millisecond)),
		zap.Int("lives", t.Lives))
}

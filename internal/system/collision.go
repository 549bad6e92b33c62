package system

import (
	"time"

	"github.com/survivordash/dash/internal/core/event"
	coresys "github.com/survivordash/dash/internal/core/system"
	"github.com/survivordash/dash/internal/world"
	"go.uber.org/zap"
)

// CollisionSystem resolves player contacts: an enemy costs a life, a
// power-up adds its bonus to this frame's score. Phase 3 (PostUpdate).
type CollisionSystem struct {
	deps *Deps
}

func NewCollisionSystem(deps *Deps) *CollisionSystem {
	return &CollisionSystem{deps: deps}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *CollisionSystem) Update(_ time.Duration) {
	ws := s.deps.World
	if ws.Frozen() {
		return
	}
	t := s.deps.Tuning
	pr := t.Player.Radius

	for i := range ws.Enemies {
		e := &ws.Enemies[i]
		if !e.Active || !world.CircleHit(ws.PlayerX, ws.PlayerY, pr, e.X, e.Y, e.Radius()) {
			continue
		}
		e.Active = false
		ws.Lives--
		s.deps.Log.Info("被敵人擊中", zap.Int("type", e.Type), zap.Int("lives", ws.Lives))
		event.Emit(s.deps.Bus, event.PlayerHit{EnemyType: e.Type, LivesRemaining: ws.Lives})
	}

	for i := range ws.PowerUps {
		p := &ws.PowerUps[i]
		if !p.Active || !world.CircleHit(ws.PlayerX, ws.PlayerY, pr, p.X, p.Y, t.PowerUp.Radius) {
			continue
		}
		p.Active = false
		ws.PickupBonus += t.PowerUp.Bonus
		event.Emit(s.deps.Bus, event.PowerUpCollected{PowerUpType: p.Type, Bonus: t.PowerUp.Bonus})
	}
}

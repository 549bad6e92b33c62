package system

import (
	"math/rand/v2"
	"time"

	coresys "github.com/survivordash/dash/internal/core/system"
	"github.com/survivordash/dash/internal/world"
)

// SpawnSystem adds at most one enemy and one power-up per frame while the
// live counts are below their time-based targets. Phase 2 (Update).
type SpawnSystem struct {
	deps *Deps
	rng  *rand.Rand
}

func NewSpawnSystem(deps *Deps, rng *rand.Rand) *SpawnSystem {
	return &SpawnSystem{deps: deps, rng: rng}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SpawnSystem) Update(_ time.Duration) {
	ws := s.deps.World
	if ws.Frozen() {
		return
	}
	if ws.LiveEnemies() < EnemyTarget(ws.GameTime, s.deps.Tuning.Enemy.SpawnPerSecond) {
		ws.Enemies = append(ws.Enemies, s.newEnemy())
	}
	if livePowerUps(ws) < PowerUpTarget(ws.GameTime, s.deps.Tuning.PowerUp.SpawnEverySeconds) {
		ws.PowerUps = append(ws.PowerUps, s.newPowerUp())
	}
}

// EnemyTarget is floor(gameTime * perSecond).
func EnemyTarget(gameTime time.Duration, perSecond int) int {
	return int(gameTime * time.Duration(perSecond) / time.Second)
}

// PowerUpTarget is floor(gameTime / everySeconds).
func PowerUpTarget(gameTime time.Duration, everySeconds int) int {
	if everySeconds <= 0 {
		return 0
	}
	return int(gameTime / (time.Duration(everySeconds) * time.Second))
}

func livePowerUps(ws *world.State) int {
	n := 0
	for i := range ws.PowerUps {
		if ws.PowerUps[i].Active {
			n++
		}
	}
	return n
}

// newEnemy places an enemy just outside a random edge moving inward.
func (s *SpawnSystem) newEnemy() world.Enemy {
	t := s.deps.Tuning
	et := t.Enemy.Types[s.rng.IntN(len(t.Enemy.Types))]
	e := world.Enemy{Type: et.Type, Size: et.Size, Active: true}

	inward := float64(t.Enemy.InwardSpeedMin + s.rng.IntN(t.Enemy.InwardSpeedSpread))
	jitter := float64(s.rng.IntN(20*t.Enemy.LateralJitter)-10*t.Enemy.LateralJitter) / 10
	w, h := t.Field.Width, t.Field.Height

	switch s.rng.IntN(4) {
	case 0: // top
		e.X, e.Y = float64(s.rng.IntN(int(w))), -e.Size
		e.VX, e.VY = jitter, inward
	case 1: // right
		e.X, e.Y = w+e.Size, float64(s.rng.IntN(int(h)))
		e.VX, e.VY = -inward, jitter
	case 2: // bottom
		e.X, e.Y = float64(s.rng.IntN(int(w))), h+e.Size
		e.VX, e.VY = jitter, -inward
	default: // left
		e.X, e.Y = -e.Size, float64(s.rng.IntN(int(h)))
		e.VX, e.VY = inward, jitter
	}
	return e
}

// newPowerUp places a power-up uniformly inside the field's inner margin.
func (s *SpawnSystem) newPowerUp() world.PowerUp {
	t := s.deps.Tuning
	m := t.PowerUp.EdgeMargin
	pt := t.PowerUp.Types[s.rng.IntN(len(t.PowerUp.Types))]
	return world.PowerUp{
		X:      float64(m + s.rng.IntN(int(t.Field.Width)-2*m)),
		Y:      float64(m + s.rng.IntN(int(t.Field.Height)-2*m)),
		Type:   pt.Type,
		Active: true,
	}
}

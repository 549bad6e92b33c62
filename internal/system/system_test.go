package system

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/survivordash/dash/internal/core/event"
	coresys "github.com/survivordash/dash/internal/core/system"
	"github.com/survivordash/dash/internal/data"
	"github.com/survivordash/dash/internal/session"
	"github.com/survivordash/dash/internal/world"
	"go.uber.org/zap"
)

var testIntervals = Intervals{
	Leaderboard: 500 * time.Millisecond,
	Skill:       time.Second,
	Save:        5 * time.Second,
}

func newDeps() *Deps {
	t := data.DefaultTuning()
	return &Deps{
		World:  world.NewState(t.Player.StartX, t.Player.StartY, 3),
		Tuning: t,
		Bus:    event.NewBus(),
		Log:    zap.NewNop(),
	}
}

type fakeSession struct {
	snapshots   []world.Snapshot
	checkpoints []world.Totals
	ended       []world.Totals
	err         error
}

func (f *fakeSession) SaveSnapshot(s world.Snapshot) { f.snapshots = append(f.snapshots, s.Clone()) }
func (f *fakeSession) HasSnapshot() bool             { return len(f.snapshots) > 0 }
func (f *fakeSession) Checkpoint(t world.Totals) error {
	if f.err != nil {
		return f.err
	}
	f.checkpoints = append(f.checkpoints, t)
	return nil
}
func (f *fakeSession) End(t world.Totals, _ string) { f.ended = append(f.ended, t) }

type fakeStore struct{ saved int }

func (f *fakeStore) Save(world.Snapshot) error { f.saved++; return nil }

func TestAccrualFireCounts(t *testing.T) {
	d := newDeps()
	sess := &fakeSession{}
	r := coresys.NewRunner()
	r.Register(NewAccrualSystem(d, testIntervals))
	r.Register(NewCheckpointSystem(d, sess, nil))

	saves := 0
	event.Subscribe(d.Bus, func(event.CheckpointTaken) { saves++ })
	r.Register(NewEventDispatchSystem(d.Bus))

	for range 246 { // 12.3s in 50ms frames
		r.Tick(50 * time.Millisecond)
	}
	r.Tick(0) // deliver the last frame's events

	assert.Equal(t, 12300*time.Millisecond, d.World.GameTime)
	assert.Equal(t, 24, d.World.LeaderboardPoints)
	assert.Equal(t, 12, d.World.SkillPoints)
	assert.Len(t, sess.snapshots, 2)
	assert.Len(t, sess.checkpoints, 2)
	assert.Equal(t, 2, saves)
}

func TestAccrualFireCountsUnevenFrames(t *testing.T) {
	d := newDeps()
	s := NewAccrualSystem(d, testIntervals)
	frames := []time.Duration{16 * time.Millisecond, 17 * time.Millisecond, 33 * time.Millisecond, 7 * time.Millisecond}
	var elapsed time.Duration
	for i := 0; elapsed < 20*time.Second; i++ {
		dt := frames[i%len(frames)]
		s.Update(dt)
		elapsed += dt
	}
	assert.Equal(t, int(elapsed/(500*time.Millisecond)), d.World.LeaderboardPoints)
	assert.Equal(t, int(elapsed/time.Second), d.World.SkillPoints)
}

func TestAccrualFrozen(t *testing.T) {
	d := newDeps()
	s := NewAccrualSystem(d, testIntervals)
	d.World.Paused = true
	s.Update(time.Second)
	assert.Zero(t, d.World.GameTime)
	assert.Zero(t, d.World.LeaderboardPoints)

	d.World.Paused = false
	d.World.GameOver = true
	s.Update(time.Second)
	assert.Zero(t, d.World.SkillPoints)
}

func TestAccrueSingleFireCarry(t *testing.T) {
	var acc time.Duration
	assert.True(t, accrue(&acc, 500*time.Millisecond, 1400*time.Millisecond))
	assert.Equal(t, 500*time.Millisecond-1, acc, "carry clamped below one interval")
	assert.True(t, accrue(&acc, 500*time.Millisecond, time.Millisecond))
	assert.Zero(t, acc)
	assert.False(t, accrue(&acc, 500*time.Millisecond, 499*time.Millisecond))
}

func TestScoreFormula(t *testing.T) {
	d := newDeps()
	ws := d.World
	ws.GameTime = 12300 * time.Millisecond
	ws.LeaderboardPoints = 24
	ws.Enemies = []world.Enemy{{Active: true}, {Active: true}, {Active: false}}

	c := NewCleanupSystem(d)
	c.Update(0)
	assert.Len(t, ws.Enemies, 2, "inactive purged")
	assert.Equal(t, 307+2*10+24*2, ws.Score)

	ws.PickupBonus = 100
	c.Update(0)
	assert.Equal(t, 307+20+48+100, ws.Score, "pickup bonus counted on its frame")
	assert.Zero(t, ws.PickupBonus)

	c.Update(0)
	assert.Equal(t, 307+20+48, ws.Score)
}

func TestCollisionExamples(t *testing.T) {
	d := newDeps()
	ws := d.World
	ws.PlayerX, ws.PlayerY = 100, 100
	ws.Enemies = []world.Enemy{
		{X: 105, Y: 100, Size: 20, Active: true},
		{X: 130, Y: 100, Size: 20, Active: true},
	}
	NewCollisionSystem(d).Update(0)

	assert.False(t, ws.Enemies[0].Active)
	assert.True(t, ws.Enemies[1].Active)
	assert.Equal(t, 2, ws.Lives)
}

func TestCollisionPowerUp(t *testing.T) {
	d := newDeps()
	ws := d.World
	ws.PlayerX, ws.PlayerY = 300, 300
	ws.PowerUps = []world.PowerUp{{X: 328, Y: 300, Active: true}, {X: 300, Y: 320, Active: true}}
	NewCollisionSystem(d).Update(0)

	assert.True(t, ws.PowerUps[0].Active, "touching is not a hit")
	assert.False(t, ws.PowerUps[1].Active)
	assert.Equal(t, 50, ws.PickupBonus)
}

func TestSpawnConverges(t *testing.T) {
	d := newDeps()
	ws := d.World
	ws.PlayerX, ws.PlayerY = -10000, -10000 // keep enemies clear of the player
	s := NewSpawnSystem(d, rand.New(rand.NewPCG(1, 2)))

	ws.GameTime = 3 * time.Second
	s.Update(0)
	assert.Equal(t, 1, ws.LiveEnemies(), "one per frame, no burst")

	for range 10 {
		s.Update(0)
	}
	assert.Equal(t, EnemyTarget(ws.GameTime, 2), ws.LiveEnemies())
	assert.Len(t, ws.PowerUps, 0)

	ws.GameTime = 10 * time.Second
	s.Update(0)
	s.Update(0)
	s.Update(0)
	assert.Len(t, ws.PowerUps, 2)
}

func TestSpawnPlacement(t *testing.T) {
	d := newDeps()
	tu := d.Tuning
	s := NewSpawnSystem(d, rand.New(rand.NewPCG(7, 7)))
	for range 200 {
		e := s.newEnemy()
		assert.Equal(t, tu.EnemySize(e.Type), e.Size)
		assert.Equal(t, 20+5*float64(e.Type), e.Size)
		outside := e.X < 0 || e.X > tu.Field.Width || e.Y < 0 || e.Y > tu.Field.Height
		assert.True(t, outside, "spawned off field")
		speed := max(abs(e.VX), abs(e.VY))
		assert.GreaterOrEqual(t, speed, 50.0)
		assert.Less(t, speed, 100.0)
		assert.LessOrEqual(t, min(abs(e.VX), abs(e.VY)), 5.0)

		p := s.newPowerUp()
		assert.GreaterOrEqual(t, p.X, 100.0)
		assert.Less(t, p.X, tu.Field.Width-100)
		assert.GreaterOrEqual(t, p.Y, 100.0)
		assert.Less(t, p.Y, tu.Field.Height-100)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestMotionSteersAndCulls(t *testing.T) {
	d := newDeps()
	ws := d.World
	ws.PlayerX, ws.PlayerY = 100, 0
	ws.Enemies = []world.Enemy{
		{X: 0, Y: 0, Active: true},
		{X: -150, Y: 0, VX: -100, Active: true},
	}
	ws.PowerUps = []world.PowerUp{{Active: true}}
	NewMotionSystem(d).Update(time.Second)

	assert.InDelta(t, 20.0, ws.Enemies[0].VX, 1e-9)
	assert.InDelta(t, 20.0, ws.Enemies[0].X, 1e-9)
	assert.False(t, ws.Enemies[1].Active, "more than 100 past the edge")
	assert.InDelta(t, 1.0, ws.PowerUps[0].Pulse, 1e-9)
}

func TestGameOverEndsSessionOnce(t *testing.T) {
	d := newDeps()
	sess := &fakeSession{}
	sess.SaveSnapshot(world.Snapshot{GameTime: 5 * time.Second})

	var over []event.GameOver
	event.Subscribe(d.Bus, func(e event.GameOver) { over = append(over, e) })

	d.World.Lives = 0
	d.World.Score = 900
	g := NewGameOverSystem(d, sess)
	g.Update(0)
	g.Update(0)
	d.Bus.SwapBuffers()
	d.Bus.DispatchAll()

	assert.True(t, d.World.GameOver)
	require.Len(t, sess.ended, 1)
	assert.Equal(t, 900, sess.ended[0].Score)
	require.Len(t, over, 1)
	assert.True(t, over[0].CanContinue)
}

func TestCheckpointOfflineStillSnapshots(t *testing.T) {
	d := newDeps()
	sess := &fakeSession{err: session.ErrOffline}
	store := &fakeStore{}
	d.World.SaveDue = true
	d.World.GameTime = 5 * time.Second

	NewCheckpointSystem(d, sess, store).Update(0)

	assert.False(t, d.World.SaveDue)
	assert.Len(t, sess.snapshots, 1)
	assert.Empty(t, sess.checkpoints)
	assert.Equal(t, 1, store.saved)
}

func TestCheckpointBeforeCleanupOmitsCollected(t *testing.T) {
	d := newDeps()
	sess := &fakeSession{}
	d.World.SaveDue = true
	d.World.GameTime = 5 * time.Second
	d.World.Enemies = append(d.World.Enemies, world.Enemy{X: 10, Active: true})
	// collected this frame, purged only in Cleanup
	d.World.PowerUps = append(d.World.PowerUps, world.PowerUp{X: 20})

	r := coresys.NewRunner()
	r.Register(NewCleanupSystem(d))
	r.Register(NewCheckpointSystem(d, sess, nil))
	r.Tick(0)

	require.Len(t, sess.snapshots, 1)
	assert.Len(t, sess.snapshots[0].Enemies, 1)
	assert.Empty(t, sess.snapshots[0].PowerUps)
	assert.Empty(t, d.World.PowerUps, "cleanup still purges")
}

type fixedCursor struct{ x, y float64 }

func (f fixedCursor) Cursor(*Deps) (float64, float64, bool) { return f.x, f.y, true }

func TestInputClampsToField(t *testing.T) {
	d := newDeps()
	NewInputSystem(d, fixedCursor{-5, 5000}).Update(0)
	assert.Equal(t, 0.0, d.World.PlayerX)
	assert.Equal(t, d.Tuning.Field.Height, d.World.PlayerY)
}

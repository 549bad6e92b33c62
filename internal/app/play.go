package app

import (
	"math/rand/v2"
	"time"

	"github.com/survivordash/dash/internal/api"
	"github.com/survivordash/dash/internal/core/event"
	coresys "github.com/survivordash/dash/internal/core/system"
	"github.com/survivordash/dash/internal/session"
	"github.com/survivordash/dash/internal/system"
	"github.com/survivordash/dash/internal/world"
	"go.uber.org/zap"
)

// PlayScreen is one survival run: the frame pipeline plus the session
// controller driving persistence.
type PlayScreen struct {
	app    *App
	deps   *system.Deps
	runner *coresys.Runner
	store  CheckpointStore // optional

	recovered bool // a crash checkpoint was loaded on enter
	hits      int
	pickups   int
}

func newPlayScreen(a *App, store CheckpointStore, cursor system.CursorSource) *PlayScreen {
	t := a.tuning
	g := a.cfg.Game
	deps := &system.Deps{
		Tuning: t,
		Bus:    event.NewBus(),
		Log:    a.log.Named("play"),
	}
	p := &PlayScreen{app: a, deps: deps, store: store}
	p.resetWorld()

	seed := g.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))

	r := coresys.NewRunner()
	if a.api != nil {
		r.Register(system.NewNetworkSystem(a.api))
	}
	r.Register(system.NewInputSystem(deps, cursor))
	r.Register(system.NewEventDispatchSystem(deps.Bus))
	r.Register(system.NewAccrualSystem(deps, system.Intervals{
		Leaderboard: g.LeaderboardInterval,
		Skill:       g.SkillInterval,
		Save:        g.SaveInterval,
	}))
	r.Register(system.NewSpawnSystem(deps, rng))
	r.Register(system.NewMotionSystem(deps))
	r.Register(system.NewCollisionSystem(deps))
	r.Register(system.NewCheckpointSystem(deps, a.session, store))
	r.Register(system.NewCleanupSystem(deps))
	r.Register(system.NewGameOverSystem(deps, a.session))
	p.runner = r

	event.Subscribe(deps.Bus, func(event.PlayerHit) { p.hits++ })
	event.Subscribe(deps.Bus, func(event.PowerUpCollected) { p.pickups++ })
	event.Subscribe(deps.Bus, func(e event.SessionChanged) {
		deps.Log.Debug("會話事件", zap.String("from", e.From), zap.String("to", e.To), zap.String("session", e.SessionID))
	})
	a.session.OnTransition(func(from, to session.State, id string) {
		event.Emit(deps.Bus, event.SessionChanged{From: from.String(), To: to.String(), SessionID: id})
	})
	return p
}

func (p *PlayScreen) resetWorld() {
	t := p.app.tuning
	if p.deps.World == nil {
		p.deps.World = world.NewState(t.Player.StartX, t.Player.StartY, p.app.cfg.Game.StartLives)
	} else {
		p.deps.World.Reset(t.Player.StartX, t.Player.StartY, p.app.cfg.Game.StartLives)
	}
	p.deps.Bus.Clear()
	p.hits, p.pickups = 0, 0
}

func (p *PlayScreen) enter() {
	p.resetWorld()
	p.recovered = false
	p.app.session.ClearSnapshot()
	if p.store != nil {
		snap, ok, err := p.store.Load()
		switch {
		case err != nil:
			p.deps.Log.Warn("讀取本地檢查點失敗", zap.Error(err))
		case ok:
			p.app.session.SaveSnapshot(snap)
			p.recovered = true
			p.deps.Log.Info("發現未完成的檢查點", zap.Duration("game_time", snap.GameTime))
		}
	}
	p.app.session.Start()
}

// exit finalises a still-open or still-starting session. Leaving play
// normally discards the crash checkpoint.
func (p *PlayScreen) exit() {
	final := p.deps.World.Totals()
	system.LogFinalStats(p.deps.Log, "離開遊戲", final)
	p.app.session.End(final, session.ReasonQuit)
	p.removeCheckpoint()
}

func (p *PlayScreen) removeCheckpoint() {
	if p.store == nil {
		return
	}
	if err := p.store.Remove(); err != nil {
		p.deps.Log.Warn("刪除本地檢查點失敗", zap.Error(err))
	}
}

func (p *PlayScreen) tick(dt time.Duration) {
	p.runner.Tick(dt)
}

func (p *PlayScreen) moveCursor(x, y float64) {
	if p.deps.World.GameOver {
		return
	}
	system.MovePlayer(p.deps, x, y)
}

// togglePause has no effect once the game is over.
func (p *PlayScreen) togglePause() {
	ws := p.deps.World
	if ws.GameOver {
		return
	}
	ws.Paused = !ws.Paused
}

// quit saves progress, ends the session and returns to Home.
func (p *PlayScreen) quit(a *App) {
	p.saveProgress()
	if a.session.Started() {
		a.session.End(p.deps.World.Totals(), session.ReasonQuit)
	}
	a.requestScreen(ScreenHome)
}

func (p *PlayScreen) mainMenu(a *App) {
	if !p.deps.World.GameOver {
		return
	}
	a.requestScreen(ScreenHome)
}

func (p *PlayScreen) saveProgress() {
	a := p.app
	if a.api == nil || a.cfg.Game.Offline {
		return
	}
	t := p.deps.World.Totals()
	body := api.ProgressSave{
		LeaderboardPoints: t.LeaderboardPoints,
		SkillPoints:       t.SkillPoints,
		CurrentScore:      t.Score,
		SurvivalTime:      t.GameTime.Seconds(),
	}
	log := p.deps.Log
	a.api.SaveProgress(a.api.Root(), body, func(err error) {
		if err != nil {
			log.Warn("保存進度失敗", zap.Error(err))
			return
		}
		log.Info("進度已保存", zap.Int("score", body.CurrentScore))
	})
}

// canContinue reports whether a checkpoint can be resumed now: after game
// over, or before the first frame of a run that recovered one from disk.
func (p *PlayScreen) canContinue() bool {
	snap, ok := p.app.session.Snapshot()
	if !ok || snap.Empty() {
		return false
	}
	ws := p.deps.World
	return ws.GameOver || (p.recovered && ws.GameTime == 0)
}

// continueRun resumes from the last checkpoint with a fresh set of lives.
// The session is not restarted.
func (p *PlayScreen) continueRun() {
	if !p.canContinue() {
		return
	}
	snap, _ := p.app.session.Snapshot()
	p.deps.World.Restore(snap, p.app.cfg.Game.ContinueLives)
	p.deps.Bus.Clear()
	p.recovered = false
	p.deps.Log.Info("從檢查點繼續", zap.Duration("game_time", snap.GameTime))
}

// restart throws the run and its checkpoints away and opens a new session.
// Like the main menu it is only offered on the game over screen.
func (p *PlayScreen) restart() {
	if !p.deps.World.GameOver {
		return
	}
	a := p.app
	a.session.End(p.deps.World.Totals(), session.ReasonQuit)
	a.session.ClearSnapshot()
	p.removeCheckpoint()
	p.resetWorld()
	p.recovered = false
	p.deps.Log.Info("重新開始")
	a.session.Start()
}

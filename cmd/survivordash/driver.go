package main

import (
	"time"

	"github.com/survivordash/dash/internal/app"
	"github.com/survivordash/dash/internal/config"
	"go.uber.org/zap"
)

const (
	reportEvery  = 5 * time.Second
	maxContinues = 3
	maxUpgrades  = 5 // per visit to Home
)

// driver plays the screens without a human: it signs in with the configured
// credentials, spends skill points, starts one run, continues it from the
// checkpoint a few times and leaves when the run is over.
type driver struct {
	app *app.App
	cfg *config.Config
	log *zap.Logger

	authTried  bool
	upgrades   int
	runs       int
	continues  int
	lastReport time.Duration
}

func newDriver(a *app.App, cfg *config.Config, log *zap.Logger) *driver {
	return &driver{app: a, cfg: cfg, log: log}
}

func (d *driver) step() {
	v := d.app.View()
	switch v.Screen {
	case app.ScreenAuth:
		d.signIn(v.Auth)
	case app.ScreenHome:
		d.home(v)
	case app.ScreenPlay:
		d.play(v.Play)
	}
}

func (d *driver) handle(in app.Intent) {
	if err := d.app.Handle(in); err != nil {
		d.log.Warn("操作失敗", zap.Stringer("intent", in.Kind), zap.Error(err))
	}
}

func (d *driver) signIn(v *app.AuthView) {
	if v.Busy {
		return
	}
	if v.Error != "" {
		d.log.Error("登入失敗", zap.String("error", v.Error))
		d.app.RequestQuit()
		return
	}
	if d.authTried {
		return
	}
	d.authTried = true
	c := d.cfg.Auth
	switch {
	case c.Email != "" && c.Password != "":
		d.handle(app.Intent{Kind: app.LoginEmail, Email: c.Email, Password: c.Password})
	case c.SteamID != "":
		d.handle(app.Intent{Kind: app.LoginSteam})
	default:
		d.handle(app.Intent{Kind: app.DevLogin})
	}
}

func (d *driver) home(v app.View) {
	if d.runs > 0 {
		d.app.RequestQuit()
		return
	}
	if v.Loading || v.Home.Loading {
		return
	}
	if d.spendSkillPoint(v.Home) {
		return
	}
	if p := v.Home.Progress; p != nil {
		d.log.Info("帳號進度",
			zap.String("user", p.Username),
			zap.Int("best_score", p.BestScore),
			zap.Int("leaderboard_points", p.LeaderboardPoints),
			zap.Int("total_games", p.TotalGames))
	}
	if lb := v.Home.Leaderboard; len(lb) > 0 {
		d.log.Info("排行榜第一",
			zap.String("user", lb[0].Username),
			zap.Int("score", lb[0].Score),
			zap.Int("entries", len(lb)))
	}
	d.runs++
	d.handle(app.Intent{Kind: app.StartGame})
}

// spendSkillPoint buys the cheapest affordable skill level. Reports whether
// a purchase was requested.
func (d *driver) spendSkillPoint(v *app.HomeView) bool {
	if v.Skills == nil || v.Error != "" || d.upgrades >= maxUpgrades {
		return false
	}
	best := -1
	for i, sk := range v.Skills.Skills {
		if sk.CanUpgrade && (best < 0 || sk.NextLevelCost < v.Skills.Skills[best].NextLevelCost) {
			best = i
		}
	}
	if best < 0 {
		return false
	}
	sk := v.Skills.Skills[best]
	d.upgrades++
	d.log.Info("購買技能", zap.String("skill", sk.SkillID), zap.Int("cost", sk.NextLevelCost))
	d.handle(app.Intent{Kind: app.UpgradeSkill, SkillID: sk.SkillID})
	return true
}

func (d *driver) play(v *app.PlayView) {
	if v.GameTime-d.lastReport >= reportEvery {
		d.lastReport = v.GameTime
		d.log.Info("進行中",
			zap.Duration("time", v.GameTime.Round(time.Second)),
			zap.Int("score", v.Score),
			zap.Int("lives", v.Lives),
			zap.Int("enemies", len(v.Enemies)),
			zap.String("session", v.SessionState))
	}
	if !v.GameOver {
		return
	}
	if v.CanContinue && d.continues < maxContinues {
		d.continues++
		d.lastReport = 0
		d.handle(app.Intent{Kind: app.Continue})
		return
	}
	d.handle(app.Intent{Kind: app.MainMenu})
}

package app

import (
	"slices"
	"time"

	"github.com/survivordash/dash/internal/api"
	"github.com/survivordash/dash/internal/world"
)

// View is the read-only model the presentation layer renders. Exactly one
// of Auth, Home, Play is set, matching Screen.
type View struct {
	Screen  ScreenID
	Loading bool // requests queued or in flight
	Auth    *AuthView
	Home    *HomeView
	Play    *PlayView
}

type AuthView struct {
	Busy   bool
	Status string
	Error  string
}

type HomeView struct {
	User        api.User
	Progress    *api.Progress // nil until fetched
	Skills      *api.SkillTree
	Leaderboard []api.LeaderboardEntry // top scores, best first
	Loading     bool
	Error       string
}

type PlayView struct {
	PlayerX, PlayerY  float64
	Score             int
	LeaderboardPoints int
	SkillPoints       int
	Lives             int
	GameTime          time.Duration
	Paused            bool
	GameOver          bool
	CanContinue       bool
	Hits              int
	Pickups           int
	SessionState      string
	SessionID         string
	Offline           bool
	Enemies           []world.Enemy
	PowerUps          []world.PowerUp
}

func (p *PlayScreen) view() PlayView {
	ws := p.deps.World
	s := p.app.session
	return PlayView{
		PlayerX:           ws.PlayerX,
		PlayerY:           ws.PlayerY,
		Score:             ws.Score,
		LeaderboardPoints: ws.LeaderboardPoints,
		SkillPoints:       ws.SkillPoints,
		Lives:             ws.Lives,
		GameTime:          ws.GameTime,
		Paused:            ws.Paused,
		GameOver:          ws.GameOver,
		CanContinue:       p.canContinue(),
		Hits:              p.hits,
		Pickups:           p.pickups,
		SessionState:      s.State().String(),
		SessionID:         s.ID(),
		Offline:           s.Offline(),
		Enemies:           slices.Clone(ws.Enemies),
		PowerUps:          slices.Clone(ws.PowerUps),
	}
}

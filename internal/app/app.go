// Package app drives the client's screens: authentication, the home
// screen, and play. It owns no rendering; a presentation layer feeds it
// intents and reads View.
package app

import (
	"context"
	"time"

	"github.com/survivordash/dash/internal/api"
	"github.com/survivordash/dash/internal/config"
	"github.com/survivordash/dash/internal/data"
	"github.com/survivordash/dash/internal/session"
	"github.com/survivordash/dash/internal/system"
	"github.com/survivordash/dash/internal/world"
	"go.uber.org/zap"
)

// API is the backend surface the screens use. *api.Client satisfies it.
type API interface {
	session.Backend
	Drain() bool
	Poll() int
	IsLoading() bool
	SetAuthToken(tok string)

	DevLogin(cb api.AuthCallback)
	RegisterEmail(username, email, password string, cb api.AuthCallback)
	LoginEmail(email, password string, cb api.AuthCallback)
	LoginSteam(steamID string, cb api.AuthCallback)
	CreateSteamUser(steamID, username, avatar string, cb api.AuthCallback)
	CreateLinkedUser(username, email, password, steamID, avatar string, cb api.AuthCallback)
	CheckEmail(email string, cb func(exists bool, err error))
	Me(ctx context.Context, cb func(api.User, error))
	GetProgress(ctx context.Context, cb func(api.Progress, error))
	SaveProgress(ctx context.Context, p api.ProgressSave, cb func(error))
	GetLeaderboard(ctx context.Context, kind api.LeaderboardKind, limit int, cb func(api.Leaderboard, error))
	GetSkills(ctx context.Context, cb func(api.SkillTree, error))
	UpgradeSkill(ctx context.Context, skillID string, cb func(api.SkillUpgrade, error))
}

// TokenStore persists the auth token between launches.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// CheckpointStore keeps the latest snapshot on disk for crash recovery.
type CheckpointStore interface {
	Save(world.Snapshot) error
	Load() (world.Snapshot, bool, error)
	Remove() error
}

// Options wires an App. API nil runs fully offline; the stores and Cursor
// are optional.
type Options struct {
	Config      *config.Config
	Tuning      *data.Tuning
	API         API
	Tokens      TokenStore
	Checkpoints CheckpointStore
	Cursor      system.CursorSource
	Log         *zap.Logger
}

// App is the screen state machine. Every method runs on the frame loop.
type App struct {
	cfg     *config.Config
	tuning  *data.Tuning
	api     API
	tokens  TokenStore
	log     *zap.Logger
	reg     *Registry
	session *session.Controller

	current ScreenID
	pending ScreenID
	user    *api.User

	auth AuthScreen
	home HomeScreen
	play *PlayScreen

	quitting bool
}

func New(opts Options) *App {
	a := &App{
		cfg:    opts.Config,
		tuning: opts.Tuning,
		api:    opts.API,
		tokens: opts.Tokens,
		log:    opts.Log,
		reg:    NewRegistry(opts.Log),
	}
	var backend session.Backend
	if opts.API != nil && !opts.Config.Game.Offline {
		backend = opts.API
	}
	a.session = session.NewController(backend, opts.Log.Named("session"))
	a.play = newPlayScreen(a, opts.Checkpoints, opts.Cursor)
	registerIntents(a.reg)
	return a
}

// Start enters the first screen: Home when offline or when a saved token
// exists, Auth otherwise.
func (a *App) Start() {
	if a.api == nil {
		a.user = &api.User{Username: "offline", Level: 1}
		a.switchTo(ScreenHome)
		return
	}
	if a.tokens != nil {
		tok, err := a.tokens.Load()
		if err != nil {
			a.log.Warn("讀取登入憑證失敗", zap.Error(err))
		}
		if tok != "" {
			a.api.SetAuthToken(tok)
			a.switchTo(ScreenHome)
			return
		}
	}
	a.switchTo(ScreenAuth)
}

// Screen returns the active screen.
func (a *App) Screen() ScreenID { return a.current }

// Session exposes the session controller.
func (a *App) Session() *session.Controller { return a.session }

// User returns the signed-in account, nil before login.
func (a *App) User() *api.User { return a.user }

// Handle applies one intent to the active screen.
func (a *App) Handle(in Intent) error {
	err := a.reg.Dispatch(a, a.current, in)
	a.applyPending()
	return err
}

// Tick advances one frame. dt is capped at the configured maximum.
func (a *App) Tick(dt time.Duration) {
	if limit := a.cfg.Game.MaxFrameDT; limit > 0 && dt > limit {
		dt = limit
	}
	if a.current == ScreenPlay {
		// the play pipeline pumps the network itself
		a.play.tick(dt)
	} else if a.api != nil {
		a.api.Drain()
		a.api.Poll()
	}
	a.applyPending()
}

// Close leaves the active screen so a running session is finalised.
func (a *App) Close() {
	a.exit(a.current)
	a.current = ScreenNone
}

// Quitting reports whether the user asked to leave the application.
func (a *App) Quitting() bool { return a.quitting }

// RequestQuit marks the application for shutdown.
func (a *App) RequestQuit() { a.quitting = true }

// requestScreen schedules a screen change for the end of the current
// intent or frame.
func (a *App) requestScreen(id ScreenID) { a.pending = id }

func (a *App) applyPending() {
	for a.pending != ScreenNone {
		next := a.pending
		a.pending = ScreenNone
		a.switchTo(next)
	}
}

func (a *App) switchTo(to ScreenID) {
	from := a.current
	if from == to {
		return
	}
	if !canTransition(from, to) {
		a.log.Error("不允許的畫面切換", zap.Stringer("from", from), zap.Stringer("to", to))
		return
	}
	a.exit(from)
	a.current = to
	a.log.Info("畫面切換", zap.Stringer("from", from), zap.Stringer("to", to))
	switch to {
	case ScreenAuth:
		a.auth.enter(a)
	case ScreenHome:
		a.home.enter(a)
	case ScreenPlay:
		a.play.enter()
	}
}

func (a *App) exit(id ScreenID) {
	switch id {
	case ScreenAuth:
		a.auth.exit()
	case ScreenHome:
		a.home.exit()
	case ScreenPlay:
		a.play.exit()
	}
}

// signedIn finishes any successful authentication.
func (a *App) signedIn(res api.AuthResult, how string) {
	a.api.SetAuthToken(res.Token)
	user := res.User
	a.user = &user
	if a.tokens != nil {
		if err := a.tokens.Save(res.Token); err != nil {
			a.log.Warn("保存登入憑證失敗", zap.Error(err))
		}
	}
	a.log.Info("登入成功", zap.String("method", how), zap.String("user", user.Username))
	a.requestScreen(ScreenHome)
}

func (a *App) logout() {
	if a.api == nil {
		return
	}
	a.api.SetAuthToken("")
	a.user = nil
	if a.tokens != nil {
		if err := a.tokens.Clear(); err != nil {
			a.log.Warn("清除登入憑證失敗", zap.Error(err))
		}
	}
	a.requestScreen(ScreenAuth)
}

// View returns the read-only model of the active screen.
func (a *App) View() View {
	v := View{Screen: a.current}
	if a.api != nil {
		v.Loading = a.api.IsLoading()
	}
	switch a.current {
	case ScreenAuth:
		av := a.auth.view()
		v.Auth = &av
	case ScreenHome:
		hv := a.home.view(a.user)
		v.Home = &hv
	case ScreenPlay:
		pv := a.play.view()
		v.Play = &pv
	}
	return v
}

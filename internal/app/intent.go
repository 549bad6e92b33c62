package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// IntentKind names a user action.
type IntentKind int

const (
	MoveCursor IntentKind = iota
	TogglePause
	Quit
	Continue
	Restart
	MainMenu
	StartGame
	UpgradeSkill
	DevLogin
	LoginEmail
	RegisterEmail
	LoginSteam
	RegisterLinked
	Logout
)

var intentNames = [...]string{
	MoveCursor:     "MoveCursor",
	TogglePause:    "TogglePause",
	Quit:           "Quit",
	Continue:       "Continue",
	Restart:        "Restart",
	MainMenu:       "MainMenu",
	StartGame:      "StartGame",
	UpgradeSkill:   "UpgradeSkill",
	DevLogin:       "DevLogin",
	LoginEmail:     "LoginEmail",
	RegisterEmail:  "RegisterEmail",
	LoginSteam:     "LoginSteam",
	RegisterLinked: "RegisterLinked",
	Logout:         "Logout",
}

func (k IntentKind) String() string {
	if int(k) >= 0 && int(k) < len(intentNames) {
		return intentNames[k]
	}
	return fmt.Sprintf("Unknown(%d)", int(k))
}

// Intent is one user action emitted by the presentation layer.
type Intent struct {
	Kind IntentKind

	X, Y float64 // MoveCursor

	SkillID string // UpgradeSkill

	Username string
	Email    string
	Password string
	Confirm  string
}

// ErrIntentNotAllowed is returned for an intent the current screen does not accept.
var ErrIntentNotAllowed = errors.New("intent not allowed on this screen")

// IntentFunc handles one intent.
type IntentFunc func(a *App, in Intent)

type intentEntry struct {
	fn      IntentFunc
	screens map[ScreenID]bool
}

// Registry maps intents to handlers with screen-based access control.
type Registry struct {
	handlers map[IntentKind]*intentEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[IntentKind]*intentEntry),
		log:      log,
	}
}

// Register maps an intent to a handler, restricted to the given screens.
func (reg *Registry) Register(kind IntentKind, screens []ScreenID, fn IntentFunc) {
	allowed := make(map[ScreenID]bool, len(screens))
	for _, s := range screens {
		allowed[s] = true
	}
	reg.handlers[kind] = &intentEntry{fn: fn, screens: allowed}
}

// Dispatch validates the screen and calls the handler. Unknown intents are
// ignored.
func (reg *Registry) Dispatch(a *App, screen ScreenID, in Intent) error {
	entry, ok := reg.handlers[in.Kind]
	if !ok {
		reg.log.Debug("未知操作", zap.Stringer("intent", in.Kind))
		return nil
	}
	if !entry.screens[screen] {
		reg.log.Debug("操作在此畫面不允許",
			zap.Stringer("intent", in.Kind),
			zap.Stringer("screen", screen))
		return fmt.Errorf("%w: %s on %s", ErrIntentNotAllowed, in.Kind, screen)
	}
	return reg.safeCall(entry.fn, a, in)
}

// safeCall recovers a handler panic so one bad intent cannot stop the loop.
func (reg *Registry) safeCall(fn IntentFunc, a *App, in Intent) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("處理器 panic 已恢復",
				zap.Stringer("intent", in.Kind),
				zap.Any("panic", rec))
			err = fmt.Errorf("handler panic for %s: %v", in.Kind, rec)
		}
	}()
	fn(a, in)
	return nil
}

// registerIntents builds the intent table.
func registerIntents(reg *Registry) {
	auth := []ScreenID{ScreenAuth}
	home := []ScreenID{ScreenHome}
	play := []ScreenID{ScreenPlay}

	reg.Register(DevLogin, auth, func(a *App, _ Intent) { a.auth.devLogin(a) })
	reg.Register(LoginEmail, auth, func(a *App, in Intent) { a.auth.loginEmail(a, in) })
	reg.Register(RegisterEmail, auth, func(a *App, in Intent) { a.auth.registerEmail(a, in) })
	reg.Register(LoginSteam, auth, func(a *App, _ Intent) { a.auth.loginSteam(a) })
	reg.Register(RegisterLinked, auth, func(a *App, in Intent) { a.auth.registerLinked(a, in) })

	reg.Register(StartGame, home, func(a *App, _ Intent) { a.requestScreen(ScreenPlay) })
	reg.Register(UpgradeSkill, home, func(a *App, in Intent) { a.home.upgradeSkill(a, in.SkillID) })
	reg.Register(Logout, home, func(a *App, _ Intent) { a.logout() })

	reg.Register(MoveCursor, play, func(a *App, in Intent) { a.play.moveCursor(in.X, in.Y) })
	reg.Register(TogglePause, play, func(a *App, _ Intent) { a.play.togglePause() })
	reg.Register(Quit, play, func(a *App, _ Intent) { a.play.quit(a) })
	reg.Register(Continue, play, func(a *App, _ Intent) { a.play.continueRun() })
	reg.Register(Restart, play, func(a *App, _ Intent) { a.play.restart() })
	reg.Register(MainMenu, play, func(a *App, _ Intent) { a.play.mainMenu(a) })
}

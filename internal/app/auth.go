package app

import (
	"errors"

	"github.com/survivordash/dash/internal/api"
	"github.com/survivordash/dash/internal/auth"
	"go.uber.org/zap"
)

// AuthScreen runs the sign-in and registration flows. At most one flow is
// in flight; intents arriving meanwhile are ignored.
type AuthScreen struct {
	busy   bool
	status string
	err    string
	gen    int // bumped on exit so late callbacks are ignored
}

func (s *AuthScreen) enter(a *App) {
	s.busy, s.status, s.err = false, "", ""
	if a.cfg.Auth.DevLogin {
		s.devLogin(a)
	}
}

func (s *AuthScreen) exit() {
	s.gen++
	s.busy = false
}

func (s *AuthScreen) begin(status string) bool {
	if s.busy {
		return false
	}
	s.busy, s.status, s.err = true, status, ""
	return true
}

func (s *AuthScreen) fail(err error) { s.failMsg(errorText(err)) }

func (s *AuthScreen) failMsg(msg string) {
	s.busy = false
	s.status = ""
	s.err = msg
}

// guard wraps a callback so it only runs while this screen visit is live.
func (s *AuthScreen) guard(fn api.AuthCallback) api.AuthCallback {
	gen := s.gen
	return func(res api.AuthResult, err error) {
		if gen != s.gen {
			return
		}
		fn(res, err)
	}
}

func (s *AuthScreen) finish(a *App, how string) api.AuthCallback {
	return s.guard(func(res api.AuthResult, err error) {
		if err != nil {
			a.log.Warn("登入失敗", zap.String("method", how), zap.Error(err))
			s.fail(err)
			return
		}
		s.busy = false
		s.status = "Success! Logging in..."
		a.signedIn(res, how)
	})
}

func (s *AuthScreen) devLogin(a *App) {
	if !s.begin("Logging in (development)...") {
		return
	}
	a.api.DevLogin(s.finish(a, "dev"))
}

func (s *AuthScreen) loginEmail(a *App, in Intent) {
	email, err := auth.ValidateLogin(in.Email, in.Password)
	if err != nil {
		s.err = errorText(err)
		return
	}
	if !s.begin("Logging in...") {
		return
	}
	a.api.LoginEmail(email, in.Password, s.finish(a, "email"))
}

// registerEmail validates the form, checks the address is free, then
// creates the account.
func (s *AuthScreen) registerEmail(a *App, in Intent) {
	reg, err := auth.ValidateRegistration(in.Username, in.Email, in.Password, in.Confirm)
	if err != nil {
		s.err = errorText(err)
		return
	}
	if !s.begin("Checking email...") {
		return
	}
	s.checkEmail(a, reg.Email, "Email is already in use. Please login or use a different email.", func() {
		s.status = "Creating account..."
		a.api.RegisterEmail(reg.Username, reg.Email, reg.Password, s.finish(a, "email"))
	})
}

// loginSteam signs in with the configured Steam identity and creates the
// Steam account when the backend does not know it yet.
func (s *AuthScreen) loginSteam(a *App) {
	steamID := a.cfg.Auth.SteamID
	if err := auth.ValidateSteam(steamID); err != nil {
		s.err = errorText(err)
		return
	}
	if !s.begin("Authenticating with Steam...") {
		return
	}
	a.api.LoginSteam(steamID, s.guard(func(res api.AuthResult, err error) {
		if err == nil {
			s.busy = false
			a.signedIn(res, "steam")
			return
		}
		a.log.Info("Steam 帳號不存在，建立新帳號", zap.Error(err))
		s.status = "Creating Steam account..."
		a.api.CreateSteamUser(steamID, "steam_"+steamID, "", s.finish(a, "steam"))
	}))
}

func (s *AuthScreen) registerLinked(a *App, in Intent) {
	steamID := a.cfg.Auth.SteamID
	if steamID == "" {
		s.err = "Steam is required for linked accounts"
		return
	}
	reg, err := auth.ValidateRegistration(in.Username, in.Email, in.Password, in.Confirm)
	if err != nil {
		s.err = errorText(err)
		return
	}
	if !s.begin("Checking email...") {
		return
	}
	s.checkEmail(a, reg.Email, "Email is already in use. Please use a different email.", func() {
		s.status = "Creating linked account..."
		a.api.CreateLinkedUser(reg.Username, reg.Email, reg.Password, steamID, "", s.finish(a, "linked"))
	})
}

func (s *AuthScreen) checkEmail(a *App, email, inUse string, next func()) {
	gen := s.gen
	a.api.CheckEmail(email, func(exists bool, err error) {
		if gen != s.gen {
			return
		}
		switch {
		case err != nil:
			s.failMsg("Network error: " + api.Message(err))
		case exists:
			s.failMsg(inUse)
		default:
			next()
		}
	})
}

func (s *AuthScreen) view() AuthView {
	return AuthView{Busy: s.busy, Status: s.status, Error: s.err}
}

// errorText is the message shown on screen for err.
func errorText(err error) string {
	var le *auth.LogicError
	if errors.As(err, &le) {
		return le.Message
	}
	return api.Message(err)
}

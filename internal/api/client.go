package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/survivordash/dash/internal/config"
	"go.uber.org/zap"
)

// Client is the game's view of the backend API: typed endpoints on top of
// the request queue. Every callback runs on the frame loop during Poll.
type Client struct {
	*Dispatcher
	transport *HTTPTransport
	log       *zap.Logger
}

// NewClient starts the worker pool against cfg.BaseURL.
func NewClient(cfg config.APIConfig, log *zap.Logger) *Client {
	t := NewHTTPTransport(cfg.BaseURL, &http.Client{})
	return &Client{
		Dispatcher: NewDispatcher(t, cfg.Workers, cfg.Timeout, log),
		transport:  t,
		log:        log,
	}
}

func (c *Client) SetBaseURL(u string) { c.transport.SetBaseURL(u) }

// SetAuthToken sets the bearer token for subsequent requests.
func (c *Client) SetAuthToken(tok string) { c.transport.SetToken(tok) }

func (c *Client) AuthToken() string { return c.transport.Token() }

func (c *Client) send(ctx context.Context, kind Kind, method, path string, body any, handle func(Response)) {
	req := &Request{
		ID:      uuid.NewString(),
		Path:    path,
		Method:  method,
		Kind:    kind,
		Handler: handle,
		Ctx:     ctx,
	}
	if req.Ctx == nil {
		req.Ctx = c.Root()
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.log.Error("請求編碼失敗", zap.String("path", path), zap.Error(err))
			c.post(req, Response{Err: fmt.Errorf("encode %s: %w", path, err)})
			return
		}
		req.Body = raw
	}
	c.Enqueue(req)
}

// AuthCallback receives the outcome of an auth endpoint.
type AuthCallback func(AuthResult, error)

func (c *Client) auth(path string, body any, cb AuthCallback) {
	c.send(c.Root(), KindAuth, http.MethodPost, path, body, func(resp Response) {
		cb(DecodeAuth(resp))
	})
}

// ── Auth ──────────────────────────────────────────────────────────

type steamData struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type chooseMethodBody struct {
	AuthMethod string     `json:"authMethod"`
	Username   string     `json:"username,omitempty"`
	Email      string     `json:"email,omitempty"`
	Password   string     `json:"password,omitempty"`
	SteamID    string     `json:"steamId,omitempty"`
	SteamData  *steamData `json:"steamData,omitempty"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DevLogin asks the backend for a development account token.
func (c *Client) DevLogin(cb AuthCallback) {
	c.auth("/api/auth/dev-login", struct{}{}, cb)
}

func (c *Client) RegisterEmail(username, email, password string, cb AuthCallback) {
	c.auth("/api/auth/choose-method", chooseMethodBody{
		AuthMethod: "email",
		Username:   username,
		Email:      email,
		Password:   password,
	}, cb)
}

func (c *Client) LoginEmail(email, password string, cb AuthCallback) {
	c.auth("/api/auth/login", loginBody{Email: email, Password: password}, cb)
}

func (c *Client) LoginSteam(steamID string, cb AuthCallback) {
	c.auth("/api/auth/steam", chooseMethodBody{AuthMethod: "steam", SteamID: steamID}, cb)
}

func (c *Client) CreateSteamUser(steamID, username, avatar string, cb AuthCallback) {
	c.auth("/api/auth/choose-method", chooseMethodBody{
		AuthMethod: "steam",
		SteamID:    steamID,
		SteamData:  &steamData{Username: username, Avatar: avatar},
	}, cb)
}

func (c *Client) CreateLinkedUser(username, email, password, steamID, avatar string, cb AuthCallback) {
	c.auth("/api/auth/choose-method", chooseMethodBody{
		AuthMethod: "linked",
		Username:   username,
		Email:      email,
		Password:   password,
		SteamID:    steamID,
		SteamData:  &steamData{Username: username, Avatar: avatar},
	}, cb)
}

// CheckEmail reports whether an account already uses email.
func (c *Client) CheckEmail(email string, cb func(exists bool, err error)) {
	path := "/api/auth/check-email?email=" + url.QueryEscape(email)
	c.send(c.Root(), KindHTTP, http.MethodGet, path, nil, func(resp Response) {
		if _, err := DecodeEnvelope(resp); err != nil {
			cb(false, err)
			return
		}
		var body struct {
			Exists bool `json:"exists"`
		}
		if err := json.Unmarshal(resp.Data, &body); err != nil {
			cb(false, &ParseError{What: "check-email", Err: err})
			return
		}
		cb(body.Exists, nil)
	})
}

// Me fetches the account behind the current token.
func (c *Client) Me(ctx context.Context, cb func(User, error)) {
	c.send(ctx, KindHTTP, http.MethodGet, "/api/auth/me", nil, func(resp Response) {
		var data struct {
			User *userWire `json:"user"`
		}
		if err := DecodeData(resp, &data); err != nil {
			cb(User{}, err)
			return
		}
		if data.User == nil {
			cb(User{}, &ParseError{What: "account", Err: errors.New("missing user")})
			return
		}
		cb(data.User.user(), nil)
	})
}

// ── Game sessions ────────────────────────────────────────────────

// SessionProgress is the periodic checkpoint payload.
type SessionProgress struct {
	SessionID         string  `json:"sessionId"`
	CurrentScore      int     `json:"currentScore"`
	LeaderboardPoints int     `json:"leaderboardPoints"`
	SkillPoints       int     `json:"skillPoints"`
	SurvivalTime      float64 `json:"survivalTime"`
	LivesRemaining    int     `json:"livesRemaining"`
}

// SessionResult is the finalisation payload.
type SessionResult struct {
	SessionID               string  `json:"sessionId"`
	FinalScore              int     `json:"finalScore"`
	LeaderboardPointsEarned int     `json:"leaderboardPointsEarned"`
	SkillPointsEarned       int     `json:"skillPointsEarned"`
	SurvivalTime            float64 `json:"survivalTime"`
	Kills                   int     `json:"kills"`
	DamageDealt             int     `json:"damageDealt"`
	DamageTaken             int     `json:"damageTaken"`
	WaveReached             int     `json:"waveReached"`
	EndReason               string  `json:"endReason"`
}

// ProgressSave is the body of the generic progress save.
type ProgressSave struct {
	LeaderboardPoints int     `json:"leaderboard_points"`
	SkillPoints       int     `json:"skill_points"`
	CurrentScore      int     `json:"current_score"`
	SurvivalTime      float64 `json:"survival_time"`
}

// StartSession creates a server-side session. An empty id with a nil error
// means the server acknowledged without assigning one.
func (c *Client) StartSession(ctx context.Context, gameMode string, cb func(id string, err error)) {
	body := struct {
		GameMode string `json:"gameMode"`
	}{GameMode: gameMode}
	c.send(ctx, KindHTTP, http.MethodPost, "/api/game/session/start", body, func(resp Response) {
		cb(DecodeSessionStart(resp))
	})
}

func (c *Client) SaveSessionProgress(ctx context.Context, p SessionProgress, cb func(error)) {
	c.send(ctx, KindHTTP, http.MethodPost, "/api/game/progress/save", p, func(resp Response) {
		_, err := DecodeEnvelope(resp)
		cb(err)
	})
}

func (c *Client) EndSession(ctx context.Context, r SessionResult, cb func(error)) {
	c.send(ctx, KindHTTP, http.MethodPost, "/api/game/session/end", r, func(resp Response) {
		_, err := DecodeEnvelope(resp)
		cb(err)
	})
}

// GetProgress fetches the account's saved progress.
func (c *Client) GetProgress(ctx context.Context, cb func(Progress, error)) {
	c.send(ctx, KindHTTP, http.MethodGet, "/api/game/progress", nil, func(resp Response) {
		var p Progress
		err := DecodeData(resp, &p)
		cb(p, err)
	})
}

func (c *Client) SaveProgress(ctx context.Context, p ProgressSave, cb func(error)) {
	c.send(ctx, KindHTTP, http.MethodPost, "/api/game/save-progress", p, func(resp Response) {
		_, err := DecodeEnvelope(resp)
		cb(err)
	})
}

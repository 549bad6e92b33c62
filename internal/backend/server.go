package backend

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/survivordash/dash/internal/api"
	"github.com/survivordash/dash/internal/config"
	"github.com/survivordash/dash/internal/data"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Development account created on first dev-login.
const (
	DevEmail    = "test@development.local"
	DevUsername = "TestUser"
	devPassword = "testpassword123"
)

const maxRequestBody = 64 << 10

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// Server serves the game API over a Store.
type Server struct {
	store  Store
	skills *data.SkillCatalog
	cfg    config.BackendConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewServer serves the shipped skill tree until SetSkills replaces it.
func NewServer(store Store, cfg config.BackendConfig, log *zap.Logger) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	return &Server{store: store, skills: data.DefaultSkills(), cfg: cfg, log: log, now: time.Now}
}

// SetSkills replaces the skill tree. Call it before Handler.
func (s *Server) SetSkills(c *data.SkillCatalog) { s.skills = c }

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/auth/dev-login", s.handleDevLogin)
	mux.HandleFunc("POST /api/auth/choose-method", s.handleChooseMethod)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/steam", s.handleSteam)
	mux.HandleFunc("GET /api/auth/check-email", s.handleCheckEmail)
	mux.Handle("GET /api/auth/me", s.authed(s.handleMe))

	mux.Handle("POST /api/game/session/start", s.authed(s.handleSessionStart))
	mux.Handle("POST /api/game/progress/save", s.authed(s.handleSessionSave))
	mux.Handle("POST /api/game/session/end", s.authed(s.handleSessionEnd))
	mux.Handle("GET /api/game/progress", s.authed(s.handleGetProgress))
	mux.Handle("POST /api/game/save-progress", s.authed(s.handleSaveProgress))

	for _, b := range boardRoutes {
		mux.HandleFunc("GET /api/leaderboard/"+b.path, s.handleLeaderboard(b))
	}

	mux.HandleFunc("GET /api/skills", s.handleSkillCatalog)
	mux.Handle("GET /api/skills/user", s.authed(s.handleUserSkills))
	mux.Handle("POST /api/skills/upgrade", s.authed(s.handleSkillUpgrade))

	return s.logRequests(mux)
}

// ── plumbing ─────────────────────────────────────────────────────

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("HTTP",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, what string, err error) {
	s.log.Error(what, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Server error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

type ctxKey struct{}

func accountFrom(ctx context.Context) *Account {
	a, _ := ctx.Value(ctxKey{}).(*Account)
	return a
}

// authed resolves the bearer token to an account.
func (s *Server) authed(fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tok == "" {
			writeError(w, http.StatusUnauthorized, "No token provided, authorization denied")
			return
		}
		acc, err := s.store.AccountByToken(r.Context(), tok, s.now())
		if err != nil {
			s.internalError(w, "查詢憑證失敗", err)
			return
		}
		if acc == nil {
			writeError(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		fn(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, acc)))
	})
}

func newToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

func userOf(a *Account) api.User {
	return api.User{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		SteamID:     a.SteamID,
		Avatar:      a.Avatar,
		AuthMethod:  a.AuthMethod,
		Level:       a.Level,
		Experience:  a.Experience,
		SkillPoints: a.SkillPoints,
		Coins:       a.Coins,
	}
}

// issue writes a fresh token and the account as an auth response.
func (s *Server) issue(w http.ResponseWriter, r *http.Request, code int, a *Account) {
	tok, err := newToken()
	if err != nil {
		s.internalError(w, "產生憑證失敗", err)
		return
	}
	if err := s.store.SaveToken(r.Context(), tok, a.ID, s.now().Add(s.cfg.TokenTTL)); err != nil {
		s.internalError(w, "保存憑證失敗", err)
		return
	}
	writeJSON(w, code, map[string]any{
		"success": true,
		"data": map[string]any{
			"user":  userOf(a),
			"token": tok,
		},
	})
}

func newAccount(username, email, steamID, avatar, method, password string, now time.Time) (*Account, error) {
	a := &Account{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		SteamID:    steamID,
		Avatar:     avatar,
		AuthMethod: method,
		Level:      1,
		Coins:      50,
		CreatedAt:  now,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		a.PasswordHash = string(hash)
	}
	return a, nil
}

// ── auth ─────────────────────────────────────────────────────────

func (s *Server) handleDevLogin(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Production {
		writeError(w, http.StatusForbidden, "Development authentication not available in production")
		return
	}
	acc, err := s.store.AccountByEmail(r.Context(), DevEmail)
	if err != nil {
		s.internalError(w, "查詢開發帳號失敗", err)
		return
	}
	if acc == nil {
		acc, err = newAccount(DevUsername, DevEmail, "", "", "email", devPassword, s.now())
		if err != nil {
			s.internalError(w, "建立開發帳號失敗", err)
			return
		}
		if err := s.store.CreateAccount(r.Context(), acc); err != nil {
			s.internalError(w, "建立開發帳號失敗", err)
			return
		}
		s.log.Info("建立開發帳號", zap.String("id", acc.ID))
	}
	s.issue(w, r, http.StatusOK, acc)
}

type chooseMethodReq struct {
	AuthMethod string `json:"authMethod"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	SteamID    string `json:"steamId"`
	SteamData  *struct {
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	} `json:"steamData"`
}

func (req *chooseMethodReq) validate() string {
	switch req.AuthMethod {
	case "steam", "email", "linked":
	default:
		return "Authentication method must be steam, email, or linked"
	}
	if !usernamePattern.MatchString(req.Username) {
		return "Username must be 3-32 letters, numbers, or underscores"
	}
	if req.AuthMethod != "steam" {
		if !strings.Contains(req.Email, "@") {
			return "Valid email is required for email or linked authentication"
		}
		if len(req.Password) < 6 {
			return "Password must be at least 6 characters for email or linked authentication"
		}
	}
	if req.AuthMethod != "email" && req.SteamID == "" {
		return "Steam ID is required for Steam or linked authentication"
	}
	return ""
}

func (s *Server) handleChooseMethod(w http.ResponseWriter, r *http.Request) {
	var req chooseMethodReq
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" && req.SteamData != nil {
		req.Username = req.SteamData.Username
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	avatar := ""
	if req.SteamData != nil {
		avatar = req.SteamData.Avatar
	}
	email, steamID, password := req.Email, req.SteamID, req.Password
	switch req.AuthMethod {
	case "steam":
		email, password = "", ""
	case "email":
		steamID = ""
	}
	acc, err := newAccount(req.Username, email, steamID, avatar, req.AuthMethod, password, s.now())
	if err != nil {
		s.internalError(w, "建立帳號失敗", err)
		return
	}
	if err := s.store.CreateAccount(r.Context(), acc); err != nil {
		if errors.Is(err, ErrConflict) {
			writeError(w, http.StatusConflict, "Username, email or Steam ID already registered")
			return
		}
		s.internalError(w, "建立帳號失敗", err)
		return
	}
	s.log.Info("建立帳號", zap.String("id", acc.ID), zap.String("method", acc.AuthMethod))
	s.issue(w, r, http.StatusCreated, acc)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	acc, err := s.store.AccountByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		s.internalError(w, "查詢帳號失敗", err)
		return
	}
	if acc == nil || acc.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.issue(w, r, http.StatusOK, acc)
}

func (s *Server) handleSteam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SteamID string `json:"steamId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SteamID == "" {
		writeError(w, http.StatusBadRequest, "Steam ID is required")
		return
	}
	acc, err := s.store.AccountBySteamID(r.Context(), req.SteamID)
	if err != nil {
		s.internalError(w, "查詢帳號失敗", err)
		return
	}
	if acc == nil {
		writeError(w, http.StatusNotFound, "Steam account not found. Please register first.")
		return
	}
	s.issue(w, r, http.StatusOK, acc)
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	acc, err := s.store.AccountByEmail(r.Context(), email)
	if err != nil {
		s.internalError(w, "查詢帳號失敗", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "exists": acc != nil})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acc, err := s.store.AccountByID(r.Context(), accountFrom(r.Context()).ID)
	if err != nil {
		s.internalError(w, "查詢帳號失敗", err)
		return
	}
	if acc == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"user": userOf(acc)},
	})
}

// ── game ─────────────────────────────────────────────────────────

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	var req struct {
		GameMode string `json:"gameMode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.GameMode == "" {
		req.GameMode = "normal"
	}
	gs := &GameSession{
		ID:        uuid.NewString(),
		AccountID: acc.ID,
		GameMode:  req.GameMode,
		Status:    StatusActive,
		StartedAt: s.now(),
	}
	if err := s.store.StartSession(r.Context(), gs); err != nil {
		s.internalError(w, "建立會話失敗", err)
		return
	}
	s.log.Info("會話開始", zap.String("account", acc.ID), zap.String("session", gs.ID), zap.String("mode", gs.GameMode))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": gs.ID,
		"message":   "Game session started successfully",
	})
}

func (s *Server) handleSessionSave(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	var req api.SessionProgress
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}
	err := s.store.SaveSessionProgress(r.Context(), acc.ID, req.SessionID, SessionProgress{
		Score:             req.CurrentScore,
		LeaderboardPoints: req.LeaderboardPoints,
		SkillPoints:       req.SkillPoints,
		SurvivalTime:      req.SurvivalTime,
		LivesRemaining:    req.LivesRemaining,
	})
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "No active session")
	case err != nil:
		s.internalError(w, "保存會話進度失敗", err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Progress saved successfully"})
	}
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	var req api.SessionResult
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}
	if req.EndReason == "" {
		req.EndReason = "player_death"
	}
	err := s.store.EndSession(r.Context(), acc.ID, req.SessionID, SessionResult{
		Score:             req.FinalScore,
		LeaderboardPoints: req.LeaderboardPointsEarned,
		SkillPoints:       req.SkillPointsEarned,
		SurvivalTime:      req.SurvivalTime,
		Kills:             req.Kills,
		DamageDealt:       req.DamageDealt,
		DamageTaken:       req.DamageTaken,
		WaveReached:       max(req.WaveReached, 1),
		EndReason:         req.EndReason,
	}, s.now())
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "No active session")
	case err != nil:
		s.internalError(w, "結束會話失敗", err)
	default:
		s.log.Info("會話結束", zap.String("account", acc.ID), zap.String("session", req.SessionID), zap.Int("score", req.FinalScore))
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"sessionId": req.SessionID,
			"message":   "Game session ended and scores saved successfully",
		})
	}
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	acc, err := s.store.AccountByID(r.Context(), accountFrom(r.Context()).ID)
	if err != nil {
		s.internalError(w, "讀取進度失敗", err)
		return
	}
	if acc == nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": api.Progress{
			Username:          acc.Username,
			Level:             acc.Level,
			Experience:        acc.Experience,
			LeaderboardPoints: acc.LeaderboardPoints,
			SkillPoints:       acc.SkillPoints,
			Coins:             acc.Coins,
			BestScore:         acc.BestScore,
			TotalGames:        acc.TotalGames,
		},
	})
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	var req api.ProgressSave
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.store.AddProgress(r.Context(), acc.ID, req.LeaderboardPoints, req.SkillPoints, req.CurrentScore); err != nil {
		s.internalError(w, "保存進度失敗", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Progress saved"})
}

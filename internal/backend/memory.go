package backend

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and database-less runs.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
	tokens   map[string]memToken
	sessions map[string]*GameSession
	skills   map[string]map[string]int // account ID -> skill ID -> level
}

type memToken struct {
	accountID string
	expires   time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
		tokens:   make(map[string]memToken),
		sessions: make(map[string]*GameSession),
		skills:   make(map[string]map[string]int),
	}
}

func (m *MemoryStore) CreateAccount(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.accounts {
		if strings.EqualFold(o.Username, a.Username) ||
			(a.Email != "" && o.Email == a.Email) ||
			(a.SteamID != "" && o.SteamID == a.SteamID) {
			return ErrConflict
		}
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *MemoryStore) find(match func(*Account) bool) *Account {
	for _, a := range m.accounts {
		if match(a) {
			cp := *a
			return &cp
		}
	}
	return nil
}

func (m *MemoryStore) AccountByID(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(a *Account) bool { return a.ID == id }), nil
}

func (m *MemoryStore) AccountByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(a *Account) bool { return email != "" && a.Email == email }), nil
}

func (m *MemoryStore) AccountBySteamID(_ context.Context, steamID string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(a *Account) bool { return steamID != "" && a.SteamID == steamID }), nil
}

func (m *MemoryStore) SaveToken(_ context.Context, token, accountID string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = memToken{accountID: accountID, expires: expires}
	return nil
}

func (m *MemoryStore) AccountByToken(_ context.Context, token string, now time.Time) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok || !now.Before(t.expires) {
		return nil, nil
	}
	return m.find(func(a *Account) bool { return a.ID == t.accountID }), nil
}

func (m *MemoryStore) StartSession(_ context.Context, s *GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemoryStore) activeSession(accountID, sessionID string) (*GameSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.AccountID != accountID || s.Status != StatusActive {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) SaveSessionProgress(_ context.Context, accountID, sessionID string, p SessionProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.activeSession(accountID, sessionID)
	if err != nil {
		return err
	}
	s.Score = p.Score
	s.LeaderboardPoints = p.LeaderboardPoints
	s.SkillPoints = p.SkillPoints
	s.SurvivalTime = p.SurvivalTime
	s.LivesRemaining = p.LivesRemaining
	return nil
}

func (m *MemoryStore) EndSession(_ context.Context, accountID, sessionID string, r SessionResult, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.activeSession(accountID, sessionID)
	if err != nil {
		return err
	}
	s.Status = StatusEnded
	s.Score = r.Score
	s.LeaderboardPoints = r.LeaderboardPoints
	s.SkillPoints = r.SkillPoints
	s.SurvivalTime = r.SurvivalTime
	s.Kills = r.Kills
	s.DamageDealt = r.DamageDealt
	s.DamageTaken = r.DamageTaken
	s.WaveReached = r.WaveReached
	s.EndReason = r.EndReason
	s.EndedAt = &at

	a := m.accounts[accountID]
	a.LeaderboardPoints += r.LeaderboardPoints
	a.SkillPoints += r.SkillPoints
	a.BestScore = max(a.BestScore, r.Score)
	a.TotalGames++
	return nil
}

func (m *MemoryStore) AddProgress(_ context.Context, accountID string, lp, sp, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.LeaderboardPoints += lp
	a.SkillPoints += sp
	a.BestScore = max(a.BestScore, score)
	return nil
}

func (m *MemoryStore) Leaderboard(_ context.Context, board Board, since time.Time, limit int) ([]Ranking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []Ranking
	if board == BoardPoints {
		for _, a := range m.accounts {
			rows = append(rows, Ranking{
				Username:   a.Username,
				Level:      a.Level,
				Avatar:     a.Avatar,
				Score:      a.LeaderboardPoints,
				AchievedAt: a.CreatedAt,
			})
		}
	} else {
		for _, s := range m.sessions {
			if s.Status != StatusEnded || s.EndedAt == nil || s.EndedAt.Before(since) {
				continue
			}
			a := m.accounts[s.AccountID]
			rows = append(rows, Ranking{
				Username:     a.Username,
				Level:        a.Level,
				Avatar:       a.Avatar,
				Score:        s.Score,
				SurvivalTime: s.SurvivalTime,
				Kills:        s.Kills,
				AchievedAt:   *s.EndedAt,
			})
		}
	}

	slices.SortFunc(rows, func(x, y Ranking) int {
		var c int
		if board == BoardSurvival {
			c = cmp.Compare(y.SurvivalTime, x.SurvivalTime)
		} else {
			c = cmp.Compare(y.Score, x.Score)
		}
		if c != 0 {
			return c
		}
		return x.AchievedAt.Compare(y.AchievedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *MemoryStore) SkillLevels(_ context.Context, accountID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.skills[accountID]))
	for id, lvl := range m.skills[accountID] {
		out[id] = lvl
	}
	return out, nil
}

func (m *MemoryStore) UpgradeSkill(_ context.Context, accountID, skillID string, from, cost int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return 0, ErrNotFound
	}
	levels := m.skills[accountID]
	if levels[skillID] != from || a.SkillPoints < cost {
		return 0, ErrConflict
	}
	if levels == nil {
		levels = make(map[string]int)
		m.skills[accountID] = levels
	}
	levels[skillID] = from + 1
	a.SkillPoints -= cost
	return a.SkillPoints, nil
}

// Session returns a copy of a stored session, for inspection.
func (m *MemoryStore) Session(id string) (GameSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return GameSession{}, false
	}
	return *s, true
}

// Sessions returns copies of every stored session of an account, for
// inspection.
func (m *MemoryStore) Sessions(accountID string) []GameSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []GameSession
	for _, s := range m.sessions {
		if s.AccountID == accountID {
			out = append(out, *s)
		}
	}
	return out
}

// Package backend is a development server for the game API: accounts,
// bearer tokens, game sessions, account progress, leaderboards and the
// skill tree.
package backend

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConflict is returned when a unique account field is already taken.
	ErrConflict = errors.New("already exists")
	// ErrNotFound is returned for a missing or foreign game session.
	ErrNotFound = errors.New("not found")
)

// Account is one player account with its lifetime totals.
type Account struct {
	ID                string
	Username          string
	Email             string
	SteamID           string
	Avatar            string
	AuthMethod        string // email, steam, linked
	PasswordHash      string
	Level             int
	Experience        int
	SkillPoints       int
	Coins             int
	LeaderboardPoints int
	BestScore         int
	TotalGames        int
	CreatedAt         time.Time
}

// Session statuses.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// GameSession is one server-tracked play attempt.
type GameSession struct {
	ID                string
	AccountID         string
	GameMode          string
	Status            string
	Score             int
	LeaderboardPoints int
	SkillPoints       int
	SurvivalTime      float64
	LivesRemaining    int
	Kills             int
	DamageDealt       int
	DamageTaken       int
	WaveReached       int
	EndReason         string
	StartedAt         time.Time
	EndedAt           *time.Time
}

// SessionProgress is a mid-session checkpoint.
type SessionProgress struct {
	Score             int
	LeaderboardPoints int
	SkillPoints       int
	SurvivalTime      float64
	LivesRemaining    int
}

// SessionResult finalises a session.
type SessionResult struct {
	Score             int
	LeaderboardPoints int
	SkillPoints       int
	SurvivalTime      float64
	Kills             int
	DamageDealt       int
	DamageTaken       int
	WaveReached       int
	EndReason         string
}

// Board selects a leaderboard ordering.
type Board int

const (
	// BoardScores ranks ended sessions by final score.
	BoardScores Board = iota
	// BoardSurvival ranks ended sessions by survival time.
	BoardSurvival
	// BoardPoints ranks accounts by accumulated leaderboard points.
	BoardPoints
)

// Ranking is one leaderboard row, best first, before ranks are numbered.
// On BoardPoints Score holds the account's leaderboard points.
type Ranking struct {
	Username     string
	Level        int
	Avatar       string
	Score        int
	SurvivalTime float64
	Kills        int
	AchievedAt   time.Time
}

// Store is the persistence the server needs. Lookups return nil, nil when
// the row does not exist.
type Store interface {
	CreateAccount(ctx context.Context, a *Account) error
	AccountByID(ctx context.Context, id string) (*Account, error)
	AccountByEmail(ctx context.Context, email string) (*Account, error)
	AccountBySteamID(ctx context.Context, steamID string) (*Account, error)

	SaveToken(ctx context.Context, token, accountID string, expires time.Time) error
	AccountByToken(ctx context.Context, token string, now time.Time) (*Account, error)

	StartSession(ctx context.Context, s *GameSession) error
	SaveSessionProgress(ctx context.Context, accountID, sessionID string, p SessionProgress) error
	// EndSession closes an active session and adds its points to the
	// account totals. Ending an already ended session is ErrNotFound.
	EndSession(ctx context.Context, accountID, sessionID string, r SessionResult, at time.Time) error
	// AddProgress adds points outside a session and raises the best score.
	AddProgress(ctx context.Context, accountID string, leaderboardPoints, skillPoints, score int) error

	// Leaderboard returns up to limit rows of board. Session boards only
	// count sessions ended at or after since; a zero since means all time.
	// Ties go to the earlier achievement.
	Leaderboard(ctx context.Context, board Board, since time.Time, limit int) ([]Ranking, error)

	// SkillLevels maps skill ID to the account's level; unlearned skills
	// are absent.
	SkillLevels(ctx context.Context, accountID string) (map[string]int, error)
	// UpgradeSkill raises skillID from level from to from+1 and deducts
	// cost skill points, returning the points left. ErrConflict when the
	// level is no longer from or the points do not cover cost.
	UpgradeSkill(ctx context.Context, accountID, skillID string, from, cost int) (int, error)
}

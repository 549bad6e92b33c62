package persist

import (
	"context"
	"time"

	"github.com/survivordash/dash/internal/backend"
)

// PgStore is the PostgreSQL backend.Store.
type PgStore struct {
	Accounts *AccountRepo
	Tokens   *TokenRepo
	Sessions *SessionRepo
	Boards   *LeaderboardRepo
	Skills   *SkillRepo
}

var _ backend.Store = (*PgStore)(nil)

func NewPgStore(db *DB) *PgStore {
	return &PgStore{
		Accounts: NewAccountRepo(db),
		Tokens:   NewTokenRepo(db),
		Sessions: NewSessionRepo(db),
		Boards:   NewLeaderboardRepo(db),
		Skills:   NewSkillRepo(db),
	}
}

func (s *PgStore) CreateAccount(ctx context.Context, a *backend.Account) error {
	return s.Accounts.Create(ctx, a)
}

func (s *PgStore) AccountByID(ctx context.Context, id string) (*backend.Account, error) {
	return s.Accounts.ByID(ctx, id)
}

func (s *PgStore) AccountByEmail(ctx context.Context, email string) (*backend.Account, error) {
	return s.Accounts.ByEmail(ctx, email)
}

func (s *PgStore) AccountBySteamID(ctx context.Context, steamID string) (*backend.Account, error) {
	return s.Accounts.BySteamID(ctx, steamID)
}

func (s *PgStore) SaveToken(ctx context.Context, token, accountID string, expires time.Time) error {
	return s.Tokens.Save(ctx, token, accountID, expires)
}

func (s *PgStore) AccountByToken(ctx context.Context, token string, now time.Time) (*backend.Account, error) {
	return s.Tokens.Account(ctx, token, now)
}

func (s *PgStore) StartSession(ctx context.Context, gs *backend.GameSession) error {
	return s.Sessions.Start(ctx, gs)
}

func (s *PgStore) SaveSessionProgress(ctx context.Context, accountID, sessionID string, p backend.SessionProgress) error {
	return s.Sessions.SaveProgress(ctx, accountID, sessionID, p)
}

func (s *PgStore) EndSession(ctx context.Context, accountID, sessionID string, r backend.SessionResult, at time.Time) error {
	return s.Sessions.End(ctx, accountID, sessionID, r, at)
}

func (s *PgStore) AddProgress(ctx context.Context, accountID string, lp, sp, score int) error {
	return s.Accounts.AddProgress(ctx, accountID, lp, sp, score)
}

func (s *PgStore) Leaderboard(ctx context.Context, board backend.Board, since time.Time, limit int) ([]backend.Ranking, error) {
	return s.Boards.Top(ctx, board, since, limit)
}

func (s *PgStore) SkillLevels(ctx context.Context, accountID string) (map[string]int, error) {
	return s.Skills.Levels(ctx, accountID)
}

func (s *PgStore) UpgradeSkill(ctx context.Context, accountID, skillID string, from, cost int) (int, error) {
	return s.Skills.Upgrade(ctx, accountID, skillID, from, cost)
}

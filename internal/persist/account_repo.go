package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/survivordash/dash/internal/backend"
)

const accountColumns = `id, username, COALESCE(email,''), COALESCE(steam_id,''), avatar, auth_method,
	password_hash, level, experience, skill_points, coins, leaderboard_points,
	best_score, total_games, created_at`

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, a *backend.Account) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO accounts (id, username, email, steam_id, avatar, auth_method, password_hash,
		                       level, experience, skill_points, coins, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.Username, nullIfEmpty(a.Email), nullIfEmpty(a.SteamID), a.Avatar, a.AuthMethod,
		a.PasswordHash, a.Level, a.Experience, a.SkillPoints, a.Coins, a.CreatedAt,
	)
	if isUniqueViolation(err) {
		return backend.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepo) ByID(ctx context.Context, id string) (*backend.Account, error) {
	return r.loadWhere(ctx, `id = $1`, id)
}

func (r *AccountRepo) ByEmail(ctx context.Context, email string) (*backend.Account, error) {
	return r.loadWhere(ctx, `email = $1`, email)
}

func (r *AccountRepo) BySteamID(ctx context.Context, steamID string) (*backend.Account, error) {
	return r.loadWhere(ctx, `steam_id = $1`, steamID)
}

func (r *AccountRepo) loadWhere(ctx context.Context, cond string, arg any) (*backend.Account, error) {
	a, err := scanAccount(r.db.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+cond, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

// AddProgress adds points earned outside a session.
func (r *AccountRepo) AddProgress(ctx context.Context, id string, lp, sp, score int) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET leaderboard_points = leaderboard_points + $2,
		                     skill_points = skill_points + $3,
		                     best_score = GREATEST(best_score, $4)
		 WHERE id = $1`, id, lp, sp, score)
	if err != nil {
		return fmt.Errorf("add progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*backend.Account, error) {
	a := &backend.Account{}
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.SteamID, &a.Avatar, &a.AuthMethod,
		&a.PasswordHash, &a.Level, &a.Experience, &a.SkillPoints, &a.Coins, &a.LeaderboardPoints,
		&a.BestScore, &a.TotalGames, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

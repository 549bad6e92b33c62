package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/survivordash/dash/internal/backend"
)

type SessionRepo struct {
	db *DB
}

func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Start(ctx context.Context, s *backend.GameSession) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO game_sessions (id, account_id, game_mode, status, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.AccountID, s.GameMode, s.Status, s.StartedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) SaveProgress(ctx context.Context, accountID, sessionID string, p backend.SessionProgress) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE game_sessions SET score = $3, leaderboard_points = $4, skill_points = $5,
		                          survival_time = $6, lives_remaining = $7
		 WHERE id = $1 AND account_id = $2 AND status = 'active'`,
		sessionID, accountID, p.Score, p.LeaderboardPoints, p.SkillPoints, p.SurvivalTime, p.LivesRemaining)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return backend.ErrNotFound
	}
	return nil
}

// End closes the session and credits the account in one transaction.
func (r *SessionRepo) End(ctx context.Context, accountID, sessionID string, res backend.SessionResult, at time.Time) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("end session begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE game_sessions SET status = 'ended', score = $3, leaderboard_points = $4,
		        skill_points = $5, survival_time = $6, kills = $7, damage_dealt = $8,
		        damage_taken = $9, wave_reached = $10, end_reason = $11, ended_at = $12
		 WHERE id = $1 AND account_id = $2 AND status = 'active'`,
		sessionID, accountID, res.Score, res.LeaderboardPoints, res.SkillPoints, res.SurvivalTime,
		res.Kills, res.DamageDealt, res.DamageTaken, res.WaveReached, res.EndReason, at)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return backend.ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET leaderboard_points = leaderboard_points + $2,
		                     skill_points = skill_points + $3,
		                     best_score = GREATEST(best_score, $4),
		                     total_games = total_games + 1
		 WHERE id = $1`,
		accountID, res.LeaderboardPoints, res.SkillPoints, res.Score); err != nil {
		return fmt.Errorf("credit account: %w", err)
	}

	return tx.Commit(ctx)
}

package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/survivordash/dash/internal/backend"
)

type LeaderboardRepo struct {
	db *DB
}

func NewLeaderboardRepo(db *DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

const sessionBoardQuery = `SELECT a.username, a.level, a.avatar, s.score, s.survival_time, s.kills, s.ended_at
	 FROM game_sessions s JOIN accounts a ON a.id = s.account_id
	 WHERE s.status = 'ended' AND ($1::timestamptz IS NULL OR s.ended_at >= $1)
	 ORDER BY %s DESC, s.ended_at ASC
	 LIMIT $2`

// Top returns up to limit rows of board, best first.
func (r *LeaderboardRepo) Top(ctx context.Context, board backend.Board, since time.Time, limit int) ([]backend.Ranking, error) {
	var (
		query string
		args  []any
	)
	switch board {
	case backend.BoardPoints:
		query = `SELECT username, level, avatar, leaderboard_points, 0::float8, 0, created_at
		 FROM accounts
		 ORDER BY leaderboard_points DESC, created_at ASC
		 LIMIT $1`
		args = []any{limit}
	case backend.BoardSurvival, backend.BoardScores:
		order := "s.score"
		if board == backend.BoardSurvival {
			order = "s.survival_time"
		}
		var sinceArg any
		if !since.IsZero() {
			sinceArg = since
		}
		query = fmt.Sprintf(sessionBoardQuery, order)
		args = []any{sinceArg, limit}
	default:
		return nil, fmt.Errorf("unknown board %d", board)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var result []backend.Ranking
	for rows.Next() {
		var row backend.Ranking
		if err := rows.Scan(&row.Username, &row.Level, &row.Avatar, &row.Score,
			&row.SurvivalTime, &row.Kills, &row.AchievedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

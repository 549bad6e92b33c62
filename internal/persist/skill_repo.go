package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/survivordash/dash/internal/backend"
)

type SkillRepo struct {
	db *DB
}

func NewSkillRepo(db *DB) *SkillRepo {
	return &SkillRepo{db: db}
}

func (r *SkillRepo) Levels(ctx context.Context, accountID string) (map[string]int, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT skill_id, level FROM account_skills WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	levels := make(map[string]int)
	for rows.Next() {
		var id string
		var lvl int
		if err := rows.Scan(&id, &lvl); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		levels[id] = lvl
	}
	return levels, rows.Err()
}

// Upgrade deducts cost and raises the skill from level from in one
// transaction. Either guard failing is backend.ErrConflict.
func (r *SkillRepo) Upgrade(ctx context.Context, accountID, skillID string, from, cost int) (int, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("upgrade skill begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var remaining int
	err = tx.QueryRow(ctx,
		`UPDATE accounts SET skill_points = skill_points - $2
		 WHERE id = $1 AND skill_points >= $2
		 RETURNING skill_points`, accountID, cost).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, backend.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("spend skill points: %w", err)
	}

	var stmt string
	if from == 0 {
		stmt = `INSERT INTO account_skills (account_id, skill_id, level)
		       VALUES ($1, $2, $3 + 1)
		       ON CONFLICT (account_id, skill_id) DO NOTHING`
	} else {
		stmt = `UPDATE account_skills SET level = $3 + 1, updated_at = NOW()
		       WHERE account_id = $1 AND skill_id = $2 AND level = $3`
	}
	tag, err := tx.Exec(ctx, stmt, accountID, skillID, from)
	if err != nil {
		return 0, fmt.Errorf("raise skill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, backend.ErrConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("upgrade skill commit: %w", err)
	}
	return remaining, nil
}

package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/survivordash/dash/internal/backend"
)

type TokenRepo struct {
	db *DB
}

func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

func (r *TokenRepo) Save(ctx context.Context, token, accountID string, expires time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO auth_tokens (token, account_id, expires_at) VALUES ($1, $2, $3)`,
		token, accountID, expires)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// Account resolves an unexpired token.
func (r *TokenRepo) Account(ctx context.Context, token string, now time.Time) (*backend.Account, error) {
	a, err := scanAccount(r.db.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE id = (SELECT account_id FROM auth_tokens WHERE token = $1 AND expires_at > $2)`,
		token, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	return a, nil
}

// PurgeExpired deletes tokens past their expiry.
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

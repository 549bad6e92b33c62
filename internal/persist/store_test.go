package persist

import (
	"context"
	"fmt"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/survivordash/dash/internal/backend"
	"github.com/survivordash/dash/internal/config"
	"go.uber.org/zap"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	require.NotNil(t, nullIfEmpty("x"))
	assert.Equal(t, "x", *nullIfEmpty("x"))
}

// Runs against a real database when DASH_TEST_DSN is set.
func TestPgStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("DASH_TEST_DSN")
	if dsn == "" {
		t.Skip("DASH_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, config.BackendConfig{DSN: dsn, MaxOpenConns: 2}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	version, err := RunMigrations(ctx, db.Pool, zap.NewNop())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))

	s := NewPgStore(db)
	suffix := uuid.NewString()[:8]
	a := &backend.Account{
		ID:         uuid.NewString(),
		Username:   "pg_" + suffix,
		Email:      suffix + "@example.com",
		AuthMethod: "email",
		Level:      1,
		Coins:      50,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, s.CreateAccount(ctx, a))
	assert.ErrorIs(t, s.CreateAccount(ctx, &backend.Account{ID: uuid.NewString(), Username: a.Username, AuthMethod: "email", CreatedAt: time.Now()}), backend.ErrConflict)

	got, err := s.AccountByEmail(ctx, a.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.SteamID)

	missing, err := s.AccountBySteamID(ctx, "none-"+suffix)
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.Now()
	require.NoError(t, s.SaveToken(ctx, "tok-"+suffix, a.ID, now.Add(time.Hour)))
	byTok, err := s.AccountByToken(ctx, "tok-"+suffix, now)
	require.NoError(t, err)
	require.NotNil(t, byTok)
	expired, err := s.AccountByToken(ctx, "tok-"+suffix, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, expired)

	gs := &backend.GameSession{ID: uuid.NewString(), AccountID: a.ID, GameMode: "survival", Status: backend.StatusActive, StartedAt: now}
	require.NoError(t, s.StartSession(ctx, gs))
	require.NoError(t, s.SaveSessionProgress(ctx, a.ID, gs.ID, backend.SessionProgress{Score: 10}))
	require.NoError(t, s.EndSession(ctx, a.ID, gs.ID, backend.SessionResult{Score: 77, LeaderboardPoints: 3, WaveReached: 1, EndReason: "quit"}, now))
	assert.ErrorIs(t, s.EndSession(ctx, a.ID, gs.ID, backend.SessionResult{}, now), backend.ErrNotFound)

	got, err = s.AccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 77, got.BestScore)
	assert.Equal(t, 3, got.LeaderboardPoints)
	assert.Equal(t, 1, got.TotalGames)

	board, err := s.Leaderboard(ctx, backend.BoardScores, now.Add(-time.Minute), 100)
	require.NoError(t, err)
	assert.True(t, slices.ContainsFunc(board, func(r backend.Ranking) bool {
		return r.Username == a.Username && r.Score == 77
	}))
	points, err := s.Leaderboard(ctx, backend.BoardPoints, time.Time{}, 1000)
	require.NoError(t, err)
	assert.True(t, slices.IsSortedFunc(points, func(x, y backend.Ranking) int { return y.Score - x.Score }))

	levels, err := s.SkillLevels(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, levels)

	require.NoError(t, s.AddProgress(ctx, a.ID, 0, 30, 0))
	left, err := s.UpgradeSkill(ctx, a.ID, "cursor_speed", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, left)
	_, err = s.UpgradeSkill(ctx, a.ID, "cursor_speed", 0, 10)
	assert.ErrorIs(t, err, backend.ErrConflict, "level moved")
	_, err = s.UpgradeSkill(ctx, a.ID, "cursor_speed", 1, 500)
	assert.ErrorIs(t, err, backend.ErrConflict, "points short")

	levels, err = s.SkillLevels(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"cursor_speed": 1}, levels)
}

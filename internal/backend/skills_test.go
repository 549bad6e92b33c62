package backend

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/survivordash/dash/internal/config"
)

func devToken(t *testing.T, h http.Handler) string {
	t.Helper()
	_, body := call(t, h, http.MethodPost, "/api/auth/dev-login", "", struct{}{})
	return tokenOf(t, body)
}

func skillByID(t *testing.T, body map[string]any, id string) map[string]any {
	t.Helper()
	for _, raw := range body["data"].(map[string]any)["skills"].([]any) {
		sk := raw.(map[string]any)
		if sk["skillId"] == id {
			return sk
		}
	}
	t.Fatalf("skill %s missing", id)
	return nil
}

func TestSkillCatalogIsPublic(t *testing.T) {
	_, _, h := newTestServer(t, config.BackendConfig{})
	code, body := call(t, h, http.MethodGet, "/api/skills", "", nil)
	require.Equal(t, http.StatusOK, code)
	sk := skillByID(t, body, "magnet_range")
	assert.EqualValues(t, 15, sk["baseCost"])
	assert.Len(t, sk["prerequisites"], 1)
}

func TestSkillUpgradeSpendsPoints(t *testing.T) {
	_, store, h := newTestServer(t, config.BackendConfig{})
	tok := devToken(t, h)
	acc, _ := store.AccountByEmail(context.Background(), DevEmail)
	require.NoError(t, store.AddProgress(context.Background(), acc.ID, 0, 30, 0))

	code, body := call(t, h, http.MethodGet, "/api/skills/user", tok, nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 30, data["currency"].(map[string]any)["skillPoints"])
	assert.EqualValues(t, 1, data["userLevel"])
	speed := skillByID(t, body, "cursor_speed")
	assert.Equal(t, true, speed["canUpgrade"])
	assert.EqualValues(t, 10, speed["nextLevelCost"])
	magnet := skillByID(t, body, "magnet_range")
	assert.Equal(t, false, magnet["prerequisitesMet"])
	assert.Equal(t, false, magnet["canUpgrade"])
	assert.Equal(t, false, skillByID(t, body, "extra_life")["isUnlocked"])

	code, body = call(t, h, http.MethodPost, "/api/skills/upgrade", tok, map[string]string{"skillId": "cursor_speed"})
	require.Equal(t, http.StatusOK, code, body)
	data = body["data"].(map[string]any)
	assert.EqualValues(t, 20, data["remainingSkillPoints"])
	assert.EqualValues(t, 1, data["skill"].(map[string]any)["newLevel"])
	assert.EqualValues(t, 10, data["skill"].(map[string]any)["costPaid"])

	levels, _ := store.SkillLevels(context.Background(), acc.ID)
	assert.Equal(t, map[string]int{"cursor_speed": 1}, levels)

	_, body = call(t, h, http.MethodGet, "/api/skills/user", tok, nil)
	speed = skillByID(t, body, "cursor_speed")
	assert.EqualValues(t, 1, speed["currentLevel"])
	assert.EqualValues(t, 15, speed["nextLevelCost"])
	assert.Equal(t, true, skillByID(t, body, "magnet_range")["prerequisitesMet"])

	// 20 left: magnet costs 15, then speed level 2 costs 15 and is refused
	code, _ = call(t, h, http.MethodPost, "/api/skills/upgrade", tok, map[string]string{"skillId": "magnet_range"})
	require.Equal(t, http.StatusOK, code)
	code, body = call(t, h, http.MethodPost, "/api/skills/upgrade", tok, map[string]string{"skillId": "cursor_speed"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cannot upgrade this skill", body["error"])

	after, _ := store.AccountByID(context.Background(), acc.ID)
	assert.Equal(t, 5, after.SkillPoints)
}

func TestSkillUpgradeValidation(t *testing.T) {
	_, _, h := newTestServer(t, config.BackendConfig{})
	tok := devToken(t, h)

	code, body := call(t, h, http.MethodPost, "/api/skills/upgrade", tok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Skill ID is required", body["error"])

	code, body = call(t, h, http.MethodPost, "/api/skills/upgrade", tok, map[string]string{"skillId": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Skill not found", body["error"])

	code, _ = call(t, h, http.MethodGet, "/api/skills/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestMemoryUpgradeSkillGuards(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, &Account{ID: "a1", Username: "amy", SkillPoints: 12}))

	left, err := store.UpgradeSkill(ctx, "a1", "cursor_speed", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	_, err = store.UpgradeSkill(ctx, "a1", "cursor_speed", 0, 1)
	assert.ErrorIs(t, err, ErrConflict, "stale level")
	_, err = store.UpgradeSkill(ctx, "a1", "point_boost", 0, 3)
	assert.ErrorIs(t, err, ErrConflict, "not enough points")
	_, err = store.UpgradeSkill(ctx, "ghost", "cursor_speed", 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMeReturnsAccount(t *testing.T) {
	_, _, h := newTestServer(t, config.BackendConfig{})
	tok := devToken(t, h)

	code, body := call(t, h, http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, code)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, DevUsername, user["username"])
	assert.Equal(t, "email", user["authMethod"])

	code, _ = call(t, h, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

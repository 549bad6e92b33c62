package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.LeaderboardInterval)
	assert.Equal(t, 3, cfg.Game.ContinueLives)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.toml")
	body := `
[api]
base_url = "http://api.example:9000"
timeout = "2s"

[game]
save_interval = "3s"
continue_lives = 1
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.example:9000", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Game.SaveInterval)
	assert.Equal(t, 1, cfg.Game.ContinueLives)
	// untouched keys keep their defaults
	assert.Equal(t, time.Second, cfg.Game.SkillInterval)
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nbase_url="), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DASH_API_BASE_URL", "http://env:1")
	t.Setenv("DASH_OFFLINE", "1")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://env:1", cfg.API.BaseURL)
	assert.True(t, cfg.Game.Offline)
}

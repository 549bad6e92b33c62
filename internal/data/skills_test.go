package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedSkillsMatchDefaults(t *testing.T) {
	c, err := LoadSkills(filepath.Join("..", "..", "data", "skills.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSkills(), c)
}

func TestUpgradeCostGrowsGeometrically(t *testing.T) {
	s := DefaultSkills().Find("cursor_speed")
	require.NotNil(t, s)
	// 10 * 1.5^n, floored
	assert.Equal(t, []int{10, 15, 22, 33, 50},
		[]int{s.UpgradeCost(0), s.UpgradeCost(1), s.UpgradeCost(2), s.UpgradeCost(3), s.UpgradeCost(4)})
}

func TestCanUpgrade(t *testing.T) {
	c := DefaultSkills()
	speed, magnet, life := c.Find("cursor_speed"), c.Find("magnet_range"), c.Find("extra_life")

	assert.True(t, speed.CanUpgrade(nil, 10, 1))
	assert.False(t, speed.CanUpgrade(nil, 9, 1), "not enough points")
	assert.False(t, speed.CanUpgrade(map[string]int{"cursor_speed": 5}, 1000, 1), "max level")

	assert.False(t, magnet.CanUpgrade(nil, 100, 1), "prerequisite missing")
	assert.True(t, magnet.CanUpgrade(map[string]int{"cursor_speed": 1}, 100, 1))

	levels := map[string]int{"shield_duration": 3}
	assert.False(t, life.CanUpgrade(levels, 1000, 4), "account level too low")
	assert.True(t, life.CanUpgrade(levels, 1000, 5))
}

func TestEffectValue(t *testing.T) {
	e := SkillEffect{BaseValue: 1, PerLevel: 0.5}
	assert.Zero(t, e.Value(0))
	assert.Equal(t, 1.5, e.Value(1))
	assert.Equal(t, 3.5, e.Value(5))
}

func TestLoadSkillsRejectsUnknownPrerequisite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skills.yaml")
	body := "skills:\n  - { id: a, max_level: 1, base_cost: 1, cost_multiplier: 1, prerequisites: [{ skill: b, level: 1 }] }\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	_, err := LoadSkills(path)
	require.Error(t, err)

	assert.Nil(t, DefaultSkills().Find("missing"))
}

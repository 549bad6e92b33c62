package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldTuning describes the visible play field.
type FieldTuning struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	CullMargin float64 `yaml:"cull_margin"` // distance past an edge before an enemy is dropped
}

type PlayerTuning struct {
	Radius float64 `yaml:"radius"`
	StartX float64 `yaml:"start_x"`
	StartY float64 `yaml:"start_y"`
}

// EnemyType is one row of the enemy type table. Type only affects size.
type EnemyType struct {
	Type int     `yaml:"type"`
	Name string  `yaml:"name"`
	Size float64 `yaml:"size"`
}

type EnemyTuning struct {
	SpawnPerSecond    int         `yaml:"spawn_per_second"`
	Steering          float64     `yaml:"steering"` // acceleration toward the player, u/s²
	InwardSpeedMin    int         `yaml:"inward_speed_min"`
	InwardSpeedSpread int         `yaml:"inward_speed_spread"`
	LateralJitter     int         `yaml:"lateral_jitter"`
	Types             []EnemyType `yaml:"types"`
}

type PowerUpType struct {
	Type int    `yaml:"type"`
	Name string `yaml:"name"`
}

type PowerUpTuning struct {
	SpawnEverySeconds int           `yaml:"spawn_every_seconds"`
	Radius            float64       `yaml:"radius"`
	Bonus             int           `yaml:"bonus"`
	EdgeMargin        int           `yaml:"edge_margin"`
	Types             []PowerUpType `yaml:"types"`
}

type ScoreTuning struct {
	PerSecond           int `yaml:"per_second"`
	PerLiveEnemy        int `yaml:"per_live_enemy"`
	PerLeaderboardPoint int `yaml:"per_leaderboard_point"`
}

// Tuning holds every gameplay constant of the play field.
type Tuning struct {
	Field   FieldTuning   `yaml:"field"`
	Player  PlayerTuning  `yaml:"player"`
	Enemy   EnemyTuning   `yaml:"enemy"`
	PowerUp PowerUpTuning `yaml:"power_up"`
	Score   ScoreTuning   `yaml:"score"`
}

// LoadTuning loads tuning.yaml over the built-in defaults.
func LoadTuning(path string) (*Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning: %w", err)
	}
	t := DefaultTuning()
	if err := yaml.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("parse tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// DefaultTuning returns the shipped constants.
func DefaultTuning() *Tuning {
	return &Tuning{
		Field:  FieldTuning{Width: 1280, Height: 720, CullMargin: 100},
		Player: PlayerTuning{Radius: 8, StartX: 640, StartY: 360},
		Enemy: EnemyTuning{
			SpawnPerSecond:    2,
			Steering:          20,
			InwardSpeedMin:    50,
			InwardSpeedSpread: 50,
			LateralJitter:     5,
			Types: []EnemyType{
				{Type: 0, Name: "error_dialog", Size: 20},
				{Type: 1, Name: "loading_circle", Size: 25},
				{Type: 2, Name: "warning_triangle", Size: 30},
				{Type: 3, Name: "file_icon", Size: 35},
			},
		},
		PowerUp: PowerUpTuning{
			SpawnEverySeconds: 5,
			Radius:            20,
			Bonus:             50,
			EdgeMargin:        100,
			Types: []PowerUpType{
				{Type: 0, Name: "shield"},
				{Type: 1, Name: "magnet"},
				{Type: 2, Name: "slowdown"},
			},
		},
		Score: ScoreTuning{PerSecond: 25, PerLiveEnemy: 10, PerLeaderboardPoint: 2},
	}
}

// Validate rejects tables the simulation cannot run with.
func (t *Tuning) Validate() error {
	switch {
	case t.Field.Width <= 0 || t.Field.Height <= 0:
		return fmt.Errorf("field size must be positive")
	case len(t.Enemy.Types) == 0:
		return fmt.Errorf("no enemy types")
	case len(t.PowerUp.Types) == 0:
		return fmt.Errorf("no power-up types")
	case t.PowerUp.SpawnEverySeconds <= 0:
		return fmt.Errorf("power_up.spawn_every_seconds must be positive")
	case t.Enemy.InwardSpeedSpread <= 0 || t.Enemy.LateralJitter <= 0:
		return fmt.Errorf("enemy speed spread and jitter must be positive")
	case 2*t.PowerUp.EdgeMargin >= int(t.Field.Width) || 2*t.PowerUp.EdgeMargin >= int(t.Field.Height):
		return fmt.Errorf("power_up.edge_margin leaves no room on the field")
	}
	return nil
}

// EnemySize returns the size for an enemy type, falling back to the first row.
func (t *Tuning) EnemySize(typ int) float64 {
	for _, et := range t.Enemy.Types {
		if et.Type == typ {
			return et.Size
		}
	}
	return t.Enemy.Types[0].Size
}

package data

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// SkillEffect is one stat a skill raises. Values grow linearly per level.
type SkillEffect struct {
	Type       string  `yaml:"type"`
	BaseValue  float64 `yaml:"base_value"`
	PerLevel   float64 `yaml:"per_level"`
	Percentage bool    `yaml:"percentage"`
}

// Value returns the effect at level; an unlearned skill has none.
func (e SkillEffect) Value(level int) float64 {
	if level <= 0 {
		return 0
	}
	return e.BaseValue + float64(level)*e.PerLevel
}

type SkillPrerequisite struct {
	Skill string `yaml:"skill"`
	Level int    `yaml:"level"`
}

// Skill is one purchasable upgrade of the skill tree.
type Skill struct {
	ID             string              `yaml:"id"`
	Name           string              `yaml:"name"`
	Description    string              `yaml:"description"`
	Category       string              `yaml:"category"`
	Icon           string              `yaml:"icon"`
	MaxLevel       int                 `yaml:"max_level"`
	BaseCost       int                 `yaml:"base_cost"`
	CostMultiplier float64             `yaml:"cost_multiplier"`
	UnlockLevel    int                 `yaml:"unlock_level"`
	Effects        []SkillEffect       `yaml:"effects"`
	Prerequisites  []SkillPrerequisite `yaml:"prerequisites"`
}

// UpgradeCost is the skill point price of raising the skill from current
// to current+1: base_cost * cost_multiplier^current, rounded down.
func (s *Skill) UpgradeCost(current int) int {
	return int(math.Floor(float64(s.BaseCost) * math.Pow(s.CostMultiplier, float64(current))))
}

// PrerequisitesMet reports whether every required skill has its level.
func (s *Skill) PrerequisitesMet(levels map[string]int) bool {
	for _, p := range s.Prerequisites {
		if levels[p.Skill] < p.Level {
			return false
		}
	}
	return true
}

// CanUpgrade reports whether an account at accountLevel holding
// skillPoints may buy the next level given its current skill levels.
func (s *Skill) CanUpgrade(levels map[string]int, skillPoints, accountLevel int) bool {
	current := levels[s.ID]
	return current < s.MaxLevel &&
		skillPoints >= s.UpgradeCost(current) &&
		accountLevel >= s.UnlockLevel &&
		s.PrerequisitesMet(levels)
}

// SkillCatalog is the full skill tree in display order.
type SkillCatalog struct {
	Skills []Skill `yaml:"skills"`
}

// Find returns the skill with id, nil when unknown.
func (c *SkillCatalog) Find(id string) *Skill {
	for i := range c.Skills {
		if c.Skills[i].ID == id {
			return &c.Skills[i]
		}
	}
	return nil
}

// LoadSkills reads a skill catalogue. Unlike tuning it replaces the
// defaults entirely.
func LoadSkills(path string) (*SkillCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills: %w", err)
	}
	c := &SkillCatalog{}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("skills %s: %w", path, err)
	}
	return c, nil
}

// Validate rejects catalogues the upgrade rules cannot price.
func (c *SkillCatalog) Validate() error {
	seen := make(map[string]bool, len(c.Skills))
	for _, s := range c.Skills {
		switch {
		case s.ID == "":
			return fmt.Errorf("skill without id")
		case seen[s.ID]:
			return fmt.Errorf("duplicate skill %q", s.ID)
		case s.MaxLevel <= 0:
			return fmt.Errorf("skill %q: max_level must be positive", s.ID)
		case s.BaseCost <= 0:
			return fmt.Errorf("skill %q: base_cost must be positive", s.ID)
		case s.CostMultiplier < 1:
			return fmt.Errorf("skill %q: cost_multiplier below 1", s.ID)
		}
		seen[s.ID] = true
	}
	for _, s := range c.Skills {
		for _, p := range s.Prerequisites {
			if !seen[p.Skill] || p.Skill == s.ID {
				return fmt.Errorf("skill %q: bad prerequisite %q", s.ID, p.Skill)
			}
		}
	}
	return nil
}

// DefaultSkills returns the shipped skill tree.
func DefaultSkills() *SkillCatalog {
	return &SkillCatalog{Skills: []Skill{
		{
			ID: "cursor_speed", Name: "Quick Cursor", Category: "movement", Icon: "cursor",
			Description: "Move the cursor faster.",
			MaxLevel:    5, BaseCost: 10, CostMultiplier: 1.5, UnlockLevel: 1,
			Effects: []SkillEffect{{Type: "movement_speed", PerLevel: 5, Percentage: true}},
		},
		{
			ID: "magnet_range", Name: "Magnet", Category: "utility", Icon: "magnet",
			Description: "Collect power-ups from further away.",
			MaxLevel:    5, BaseCost: 15, CostMultiplier: 1.6, UnlockLevel: 1,
			Effects:       []SkillEffect{{Type: "pickup_radius", BaseValue: 5, PerLevel: 5}},
			Prerequisites: []SkillPrerequisite{{Skill: "cursor_speed", Level: 1}},
		},
		{
			ID: "point_boost", Name: "Point Boost", Category: "economy", Icon: "star",
			Description: "Earn leaderboard points faster.",
			MaxLevel:    10, BaseCost: 20, CostMultiplier: 1.4, UnlockLevel: 1,
			Effects: []SkillEffect{{Type: "leaderboard_points", PerLevel: 5, Percentage: true}},
		},
		{
			ID: "shield_duration", Name: "Firewall", Category: "defense", Icon: "shield",
			Description: "Shields last longer.",
			MaxLevel:    5, BaseCost: 25, CostMultiplier: 1.6, UnlockLevel: 3,
			Effects: []SkillEffect{{Type: "shield_seconds", BaseValue: 1, PerLevel: 0.5}},
		},
		{
			ID: "extra_life", Name: "Backup Drive", Category: "defense", Icon: "heart",
			Description: "Start every run with another life.",
			MaxLevel:    2, BaseCost: 100, CostMultiplier: 2.5, UnlockLevel: 5,
			Effects:       []SkillEffect{{Type: "starting_lives", PerLevel: 1}},
			Prerequisites: []SkillPrerequisite{{Skill: "shield_duration", Level: 3}},
		},
	}}
}

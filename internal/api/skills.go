package api

import (
	"context"
	"net/http"
)

// SkillEffect is one stat of a skill at the account's level and the next.
type SkillEffect struct {
	Type         string  `json:"type"`
	CurrentValue float64 `json:"currentValue"`
	NextValue    float64 `json:"nextValue"`
	IsPercentage bool    `json:"isPercentage"`
}

type SkillRequirement struct {
	SkillID string `json:"skillId"`
	Level   int    `json:"level"`
}

// Skill is one node of the account's skill tree.
type Skill struct {
	SkillID          string             `json:"skillId"`
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	Category         string             `json:"category"`
	Icon             string             `json:"icon,omitempty"`
	MaxLevel         int                `json:"maxLevel"`
	CurrentLevel     int                `json:"currentLevel"`
	IsUnlocked       bool               `json:"isUnlocked"`
	PrerequisitesMet bool               `json:"prerequisitesMet"`
	CanUpgrade       bool               `json:"canUpgrade"`
	NextLevelCost    int                `json:"nextLevelCost"`
	IsMaxLevel       bool               `json:"isMaxLevel"`
	UnlockLevel      int                `json:"unlockLevel"`
	Effects          []SkillEffect      `json:"effects"`
	Prerequisites    []SkillRequirement `json:"prerequisites"`
}

type Currency struct {
	SkillPoints int `json:"skillPoints"`
	Coins       int `json:"coins"`
}

// SkillTree is the signed-in account's view of every skill.
type SkillTree struct {
	Skills    []Skill  `json:"skills"`
	Currency  Currency `json:"currency"`
	UserLevel int      `json:"userLevel"`
}

// SkillUpgrade is the outcome of one purchase.
type SkillUpgrade struct {
	SkillID              string
	NewLevel             int
	CostPaid             int
	RemainingSkillPoints int
}

// GetSkills fetches the account's skill tree.
func (c *Client) GetSkills(ctx context.Context, cb func(SkillTree, error)) {
	c.send(ctx, KindHTTP, http.MethodGet, "/api/skills/user", nil, func(resp Response) {
		var tree SkillTree
		err := DecodeData(resp, &tree)
		cb(tree, err)
	})
}

// UpgradeSkill buys the next level of skillID with skill points.
func (c *Client) UpgradeSkill(ctx context.Context, skillID string, cb func(SkillUpgrade, error)) {
	body := struct {
		SkillID string `json:"skillId"`
	}{SkillID: skillID}
	c.send(ctx, KindHTTP, http.MethodPost, "/api/skills/upgrade", body, func(resp Response) {
		var data struct {
			Skill struct {
				SkillID  string `json:"skillId"`
				NewLevel int    `json:"newLevel"`
				CostPaid int    `json:"costPaid"`
			} `json:"skill"`
			RemainingSkillPoints int `json:"remainingSkillPoints"`
		}
		if err := DecodeData(resp, &data); err != nil {
			cb(SkillUpgrade{}, err)
			return
		}
		cb(SkillUpgrade{
			SkillID:              data.Skill.SkillID,
			NewLevel:             data.Skill.NewLevel,
			CostPaid:             data.Skill.CostPaid,
			RemainingSkillPoints: data.RemainingSkillPoints,
		}, nil)
	})
}

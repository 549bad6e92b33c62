package backend

import (
	"errors"
	"net/http"

	"github.com/survivordash/dash/internal/api"
	"github.com/survivordash/dash/internal/data"
	"go.uber.org/zap"
)

// skillView is a skill as listed by the public catalogue.
type skillView struct {
	SkillID        string                 `json:"skillId"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category"`
	Icon           string                 `json:"icon,omitempty"`
	MaxLevel       int                    `json:"maxLevel"`
	BaseCost       int                    `json:"baseCost"`
	CostMultiplier float64                `json:"costMultiplier"`
	UnlockLevel    int                    `json:"unlockLevel"`
	Effects        []skillEffectView      `json:"effects"`
	Prerequisites  []api.SkillRequirement `json:"prerequisites"`
}

type skillEffectView struct {
	Type         string  `json:"type"`
	BaseValue    float64 `json:"baseValue"`
	PerLevel     float64 `json:"perLevelIncrease"`
	IsPercentage bool    `json:"isPercentage"`
}

func requirements(sk *data.Skill) []api.SkillRequirement {
	out := make([]api.SkillRequirement, len(sk.Prerequisites))
	for i, p := range sk.Prerequisites {
		out[i] = api.SkillRequirement{SkillID: p.Skill, Level: p.Level}
	}
	return out
}

func (s *Server) handleSkillCatalog(w http.ResponseWriter, _ *http.Request) {
	views := make([]skillView, len(s.skills.Skills))
	for i := range s.skills.Skills {
		sk := &s.skills.Skills[i]
		effects := make([]skillEffectView, len(sk.Effects))
		for j, e := range sk.Effects {
			effects[j] = skillEffectView{Type: e.Type, BaseValue: e.BaseValue, PerLevel: e.PerLevel, IsPercentage: e.Percentage}
		}
		views[i] = skillView{
			SkillID:        sk.ID,
			Name:           sk.Name,
			Description:    sk.Description,
			Category:       sk.Category,
			Icon:           sk.Icon,
			MaxLevel:       sk.MaxLevel,
			BaseCost:       sk.BaseCost,
			CostMultiplier: sk.CostMultiplier,
			UnlockLevel:    sk.UnlockLevel,
			Effects:        effects,
			Prerequisites:  requirements(sk),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"skills": views},
	})
}

// userSkill is one skill as seen by an account with the given levels.
func userSkill(sk *data.Skill, levels map[string]int, acc *Account) api.Skill {
	cur := levels[sk.ID]
	v := api.Skill{
		SkillID:          sk.ID,
		Name:             sk.Name,
		Description:      sk.Description,
		Category:         sk.Category,
		Icon:             sk.Icon,
		MaxLevel:         sk.MaxLevel,
		CurrentLevel:     cur,
		IsUnlocked:       acc.Level >= sk.UnlockLevel,
		PrerequisitesMet: sk.PrerequisitesMet(levels),
		CanUpgrade:       sk.CanUpgrade(levels, acc.SkillPoints, acc.Level),
		IsMaxLevel:       cur >= sk.MaxLevel,
		UnlockLevel:      sk.UnlockLevel,
		Effects:          make([]api.SkillEffect, len(sk.Effects)),
		Prerequisites:    requirements(sk),
	}
	if !v.IsMaxLevel {
		v.NextLevelCost = sk.UpgradeCost(cur)
	}
	for i, e := range sk.Effects {
		v.Effects[i] = api.SkillEffect{Type: e.Type, CurrentValue: e.Value(cur), IsPercentage: e.Percentage}
		if !v.IsMaxLevel {
			v.Effects[i].NextValue = e.Value(cur + 1)
		}
	}
	return v
}

func (s *Server) handleUserSkills(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	levels, err := s.store.SkillLevels(r.Context(), acc.ID)
	if err != nil {
		s.internalError(w, "讀取技能失敗", err)
		return
	}
	tree := api.SkillTree{
		Skills:    make([]api.Skill, len(s.skills.Skills)),
		Currency:  api.Currency{SkillPoints: acc.SkillPoints, Coins: acc.Coins},
		UserLevel: acc.Level,
	}
	for i := range s.skills.Skills {
		tree.Skills[i] = userSkill(&s.skills.Skills[i], levels, acc)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": tree})
}

func (s *Server) handleSkillUpgrade(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	var req struct {
		SkillID string `json:"skillId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SkillID == "" {
		writeError(w, http.StatusBadRequest, "Skill ID is required")
		return
	}
	sk := s.skills.Find(req.SkillID)
	if sk == nil {
		writeError(w, http.StatusBadRequest, "Skill not found")
		return
	}
	levels, err := s.store.SkillLevels(r.Context(), acc.ID)
	if err != nil {
		s.internalError(w, "讀取技能失敗", err)
		return
	}
	if !sk.CanUpgrade(levels, acc.SkillPoints, acc.Level) {
		writeError(w, http.StatusBadRequest, "Cannot upgrade this skill")
		return
	}
	cur := levels[sk.ID]
	cost := sk.UpgradeCost(cur)
	remaining, err := s.store.UpgradeSkill(r.Context(), acc.ID, sk.ID, cur, cost)
	switch {
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound):
		writeError(w, http.StatusBadRequest, "Cannot upgrade this skill")
		return
	case err != nil:
		s.internalError(w, "升級技能失敗", err)
		return
	}
	s.log.Info("技能升級",
		zap.String("account", acc.ID),
		zap.String("skill", sk.ID),
		zap.Int("level", cur+1),
		zap.Int("cost", cost))

	effects := make([]map[string]any, len(sk.Effects))
	for i, e := range sk.Effects {
		effects[i] = map[string]any{"type": e.Type, "newValue": e.Value(cur + 1), "isPercentage": e.Percentage}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"skill": map[string]any{
				"skillId":  sk.ID,
				"newLevel": cur + 1,
				"costPaid": cost,
				"effects":  effects,
			},
			"remainingSkillPoints": remaining,
		},
	})
}

package app

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/survivordash/dash/internal/api"
	"go.uber.org/zap"
)

// homeBoardSize is how many score leaderboard rows Home shows.
const homeBoardSize = 10

// HomeScreen shows the account, its saved progress, the skill tree and the
// score leaderboard, all fetched on every visit.
type HomeScreen struct {
	progress    *api.Progress
	leaderboard []api.LeaderboardEntry
	skills      *api.SkillTree
	pending     int
	err         string

	ctx    context.Context
	cancel context.CancelFunc
}

func (s *HomeScreen) enter(a *App) {
	s.progress, s.leaderboard, s.skills, s.err = nil, nil, nil, ""
	if a.api == nil {
		return
	}
	s.ctx, s.cancel = a.api.NewScope()
	if a.user == nil {
		s.fetchUser(a)
	}
	s.fetchProgress(a)
	s.fetchSkills(a)
	s.fetchLeaderboard(a)
}

func (s *HomeScreen) exit() {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = nil, nil
	s.pending = 0
}

func unauthorized(err error) bool {
	var hs *api.HTTPStatusError
	return errors.As(err, &hs) && hs.Code == http.StatusUnauthorized
}

// failed records a fetch error. A rejected token signs the user out.
func (s *HomeScreen) failed(a *App, msg string, err error) {
	if unauthorized(err) {
		a.log.Info("登入憑證已失效")
		a.logout()
		return
	}
	a.log.Warn(msg, zap.Error(err))
	s.err = api.Message(err)
}

// fetchUser loads the account when Home was entered with a saved token.
func (s *HomeScreen) fetchUser(a *App) {
	s.pending++
	a.api.Me(s.ctx, func(u api.User, err error) {
		s.pending--
		if err != nil {
			s.failed(a, "讀取帳號失敗", err)
			return
		}
		a.user = &u
	})
}

func (s *HomeScreen) fetchProgress(a *App) {
	s.pending++
	a.api.GetProgress(s.ctx, func(p api.Progress, err error) {
		s.pending--
		if err != nil {
			s.failed(a, "讀取進度失敗", err)
			return
		}
		s.progress = &p
	})
}

func (s *HomeScreen) fetchSkills(a *App) {
	s.pending++
	a.api.GetSkills(s.ctx, func(t api.SkillTree, err error) {
		s.pending--
		if err != nil {
			s.failed(a, "讀取技能失敗", err)
			return
		}
		s.skills = &t
		if a.user != nil {
			a.user.SkillPoints = t.Currency.SkillPoints
		}
	})
}

func (s *HomeScreen) fetchLeaderboard(a *App) {
	s.pending++
	a.api.GetLeaderboard(s.ctx, api.LeaderboardScores, homeBoardSize, func(lb api.Leaderboard, err error) {
		s.pending--
		if err != nil {
			s.failed(a, "讀取排行榜失敗", err)
			return
		}
		s.leaderboard = lb.Entries
	})
}

// upgradeSkill buys the next level of a skill. A skill the loaded tree
// already marks as not upgradable is refused without a request.
func (s *HomeScreen) upgradeSkill(a *App, skillID string) {
	if a.api == nil || s.ctx == nil {
		return
	}
	if s.skills != nil {
		i := slices.IndexFunc(s.skills.Skills, func(sk api.Skill) bool { return sk.SkillID == skillID })
		if i < 0 || !s.skills.Skills[i].CanUpgrade {
			s.err = "Cannot upgrade this skill"
			return
		}
	}
	s.err = ""
	s.pending++
	a.api.UpgradeSkill(s.ctx, skillID, func(u api.SkillUpgrade, err error) {
		s.pending--
		if err != nil {
			s.failed(a, "技能升級失敗", err)
			return
		}
		a.log.Info("技能已升級",
			zap.String("skill", u.SkillID),
			zap.Int("level", u.NewLevel),
			zap.Int("remaining", u.RemainingSkillPoints))
		if a.user != nil {
			a.user.SkillPoints = u.RemainingSkillPoints
		}
		s.fetchSkills(a)
		s.fetchProgress(a)
	})
}

func (s *HomeScreen) view(user *api.User) HomeView {
	v := HomeView{
		Loading:     s.pending > 0,
		Error:       s.err,
		Leaderboard: slices.Clone(s.leaderboard),
	}
	if user != nil {
		v.User = *user
	}
	if s.progress != nil {
		p := *s.progress
		v.Progress = &p
	}
	if s.skills != nil {
		t := *s.skills
		t.Skills = slices.Clone(t.Skills)
		v.Skills = &t
	}
	return v
}

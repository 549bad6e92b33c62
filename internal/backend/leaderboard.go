package backend

import (
	"net/http"
	"strconv"
	"time"

	"github.com/survivordash/dash/internal/api"
)

// boardRoute is one public leaderboard endpoint.
type boardRoute struct {
	path         string
	board        Board
	title        string
	description  string
	defaultLimit int
	maxLimit     int
	timeframes   bool          // honours ?timeframe=
	window       time.Duration // fixed look-back when timeframes is false
	label        string        // reported timeframe of a fixed window
}

var boardRoutes = []boardRoute{
	{
		path: "scores", board: BoardScores,
		title: "Game Scores", description: "Highest individual game session scores",
		defaultLimit: 50, maxLimit: 100, timeframes: true,
	},
	{
		path: "leaderboard-points", board: BoardPoints,
		title: "Leaderboard Points", description: "Players ranked by accumulated leaderboard points",
		defaultLimit: 50, maxLimit: 100, label: "all",
	},
	{
		path: "survival", board: BoardSurvival,
		title: "Survival Time", description: "Longest survival times in seconds",
		defaultLimit: 50, maxLimit: 100, timeframes: true,
	},
	{
		path: "recent", board: BoardScores,
		title: "Recent Scores", description: "Recent high scores from the last 24 hours",
		defaultLimit: 20, maxLimit: 50, window: 24 * time.Hour, label: "Last 24 hours",
	},
}

var timeframeWindows = map[string]time.Duration{
	"all":     0,
	"daily":   24 * time.Hour,
	"weekly":  7 * 24 * time.Hour,
	"monthly": 30 * 24 * time.Hour,
}

// clampLimit parses a ?limit= value. Missing or non-positive takes def.
func clampLimit(raw string, def, limit int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return min(n, limit)
}

func (s *Server) handleLeaderboard(b boardRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := clampLimit(q.Get("limit"), b.defaultLimit, b.maxLimit)

		timeframe, window := b.label, b.window
		if b.timeframes {
			timeframe = q.Get("timeframe")
			if timeframe == "" {
				timeframe = "all"
			}
			var ok bool
			if window, ok = timeframeWindows[timeframe]; !ok {
				writeError(w, http.StatusBadRequest, "Timeframe must be all, daily, weekly, or monthly")
				return
			}
		}
		var since time.Time
		if window > 0 {
			since = s.now().Add(-window)
		}

		rows, err := s.store.Leaderboard(r.Context(), b.board, since, limit)
		if err != nil {
			s.internalError(w, "讀取排行榜失敗", err)
			return
		}
		entries := make([]api.LeaderboardEntry, len(rows))
		for i, row := range rows {
			entries[i] = api.LeaderboardEntry{
				Rank:         i + 1,
				Username:     row.Username,
				Level:        row.Level,
				Avatar:       row.Avatar,
				Score:        row.Score,
				SurvivalTime: row.SurvivalTime,
				Kills:        row.Kills,
				AchievedAt:   row.AchievedAt,
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": api.Leaderboard{
				Entries:      entries,
				Type:         b.title,
				Description:  b.description,
				Timeframe:    timeframe,
				TotalEntries: len(entries),
			},
		})
	}
}

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// LeaderboardKind names one public ranking.
type LeaderboardKind string

const (
	LeaderboardScores   LeaderboardKind = "scores"
	LeaderboardPoints   LeaderboardKind = "leaderboard-points"
	LeaderboardSurvival LeaderboardKind = "survival"
	LeaderboardRecent   LeaderboardKind = "recent"
)

// LeaderboardEntry is one ranked row. On the points board Score is the
// account's accumulated leaderboard points.
type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	Username     string    `json:"username"`
	Level        int       `json:"level"`
	Avatar       string    `json:"avatar,omitempty"`
	Score        int       `json:"score"`
	SurvivalTime float64   `json:"survivalTime"`
	Kills        int       `json:"kills"`
	AchievedAt   time.Time `json:"achievedAt"`
}

// Leaderboard is one ranking as served, best first.
type Leaderboard struct {
	Entries      []LeaderboardEntry `json:"leaderboard"`
	Type         string             `json:"type"`
	Description  string             `json:"description"`
	Timeframe    string             `json:"timeframe"`
	TotalEntries int                `json:"totalEntries"`
}

// GetLeaderboard fetches a public ranking. limit <= 0 takes the server
// default. No token is needed.
func (c *Client) GetLeaderboard(ctx context.Context, kind LeaderboardKind, limit int, cb func(Leaderboard, error)) {
	path := "/api/leaderboard/" + string(kind)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	c.send(ctx, KindHTTP, http.MethodGet, path, nil, func(resp Response) {
		var lb Leaderboard
		err := DecodeData(resp, &lb)
		cb(lb, err)
	})
}

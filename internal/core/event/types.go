package event

import "time"

// PointsAwarded is emitted when an accrual timer fires.
type PointsAwarded struct {
	Leaderboard int // points added this fire
	Skill       int
	TotalLP     int
	TotalSP     int
}

// PlayerHit is emitted when an enemy collides with the player.
type PlayerHit struct {
	EnemyType      int
	LivesRemaining int
}

// PowerUpCollected is emitted on a power-up pickup.
type PowerUpCollected struct {
	PowerUpType int
	Bonus       int
}

// CheckpointTaken is emitted after a local snapshot is stored.
type CheckpointTaken struct {
	GameTime time.Duration
	Remote   bool // a remote save was queued as well
}

// GameOver is emitted once when lives reach zero.
type GameOver struct {
	Score       int
	GameTime    time.Duration
	CanContinue bool
}

// SessionChanged mirrors session controller transitions.
type SessionChanged struct {
	From, To  string
	SessionID string
}

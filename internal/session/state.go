package session

import "errors"

// State is the lifecycle position of the server-side game session.
type State int

const (
	NoSession State = iota
	Starting
	Active
	Ending
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "NoSession"
	case Starting:
		return "Starting"
	case Active:
		return "Active"
	case Ending:
		return "Ending"
	default:
		return "Unknown"
	}
}

var (
	// ErrNoActiveSession is returned by Checkpoint outside Active.
	ErrNoActiveSession = errors.New("no active session")
	// ErrOffline is returned by Checkpoint when this run plays without a backend session.
	ErrOffline = errors.New("session offline")
)

// GameMode is sent with every session start.
const GameMode = "survival"

// End reasons reported to the backend.
const (
	ReasonDeath = "death"
	ReasonQuit  = "quit"
)

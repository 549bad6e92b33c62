package app

import "fmt"

// ScreenID tags the active screen variant.
type ScreenID int

const (
	ScreenNone ScreenID = iota
	ScreenAuth
	ScreenHome
	ScreenPlay
)

func (s ScreenID) String() string {
	switch s {
	case ScreenNone:
		return "None"
	case ScreenAuth:
		return "Auth"
	case ScreenHome:
		return "Home"
	case ScreenPlay:
		return "Play"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// transitions lists every allowed screen change.
var transitions = map[ScreenID][]ScreenID{
	ScreenNone: {ScreenAuth, ScreenHome},
	ScreenAuth: {ScreenHome},
	ScreenHome: {ScreenPlay, ScreenAuth},
	ScreenPlay: {ScreenHome},
}

func canTransition(from, to ScreenID) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

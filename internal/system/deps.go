package system

import (
	"github.com/survivordash/dash/internal/core/event"
	"github.com/survivordash/dash/internal/data"
	"github.com/survivordash/dash/internal/world"
	"go.uber.org/zap"
)

// Deps is the shared frame state every play system reads and writes.
// Everything here belongs to the frame loop goroutine.
type Deps struct {
	World  *world.State
	Tuning *data.Tuning
	Bus    *event.Bus
	Log    *zap.Logger
}

package system

import (
	"errors"
	"time"

	"github.com/survivordash/dash/internal/core/event"
	coresys "github.com/survivordash/dash/internal/core/system"
	"github.com/survivordash/dash/internal/session"
	"github.com/survivordash/dash/internal/world"
	"go.uber.org/zap"
)

// Session is the part of the session controller the play systems drive.
type Session interface {
	SaveSnapshot(world.Snapshot)
	HasSnapshot() bool
	Checkpoint(world.Totals) error
	End(final world.Totals, reason string)
}

// SnapshotStore keeps a copy of the latest checkpoint outside the process.
type SnapshotStore interface {
	Save(world.Snapshot) error
}

// CheckpointSystem takes the local snapshot and queues the remote save
// whenever the save timer fired this frame. Phase 4 (Persist).
type CheckpointSystem struct {
	deps    *Deps
	session Session
	store   SnapshotStore // optional
}

func NewCheckpointSystem(deps *Deps, sess Session, store SnapshotStore) *CheckpointSystem {
	return &CheckpointSystem{deps: deps, session: sess, store: store}
}

func (s *CheckpointSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *CheckpointSystem) Update(_ time.Duration) {
	ws := s.deps.World
	if !ws.SaveDue {
		return
	}
	ws.SaveDue = false

	snap := ws.Snapshot()
	s.session.SaveSnapshot(snap)

	remote := true
	if err := s.session.Checkpoint(ws.Totals()); err != nil {
		remote = false
		if !errors.Is(err, session.ErrOffline) && !errors.Is(err, session.ErrNoActiveSession) {
			s.deps.Log.Warn("遠端存檔失敗", zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Save(snap); err != nil {
			s.deps.Log.Warn("本地存檔寫入失敗", zap.Error(err))
		}
	}
	s.deps.Log.Debug("檢查點",
		zap.Duration("game_time", ws.GameTime),
		zap.Int("score", ws.Score),
		zap.Bool("remote", remote))
	event.Emit(s.deps.Bus, event.CheckpointTaken{GameTime: ws.GameTime, Remote: remote})
}

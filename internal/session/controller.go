package session

import (
	"context"
	"time"

	"github.com/survivordash/dash/internal/api"
	"github.com/survivordash/dash/internal/world"
	"go.uber.org/zap"
)

// Backend is the network collaborator. *api.Client satisfies it.
type Backend interface {
	Root() context.Context
	NewScope() (context.Context, context.CancelFunc)
	StartSession(ctx context.Context, gameMode string, cb func(id string, err error))
	SaveSessionProgress(ctx context.Context, p api.SessionProgress, cb func(error))
	EndSession(ctx context.Context, r api.SessionResult, cb func(error))
}

// Controller tracks one play-through's server session. All methods and all
// backend callbacks run on the frame loop goroutine.
type Controller struct {
	backend Backend
	log     *zap.Logger

	state   State
	id      string
	started bool
	offline bool

	scope  context.Context
	cancel context.CancelFunc
	start  *startAttempt

	snapshot *world.Snapshot

	onTransition func(from, to State, id string)
}

// startAttempt is one StartSession request. An End that arrives before the
// reply records the final totals here so the late session can be closed.
type startAttempt struct {
	ended  bool
	final  world.Totals
	reason string
}

// NewController returns a controller in NoSession. A nil backend puts every
// session in offline mode.
func NewController(backend Backend, log *zap.Logger) *Controller {
	return &Controller{backend: backend, log: log}
}

// OnTransition registers fn to observe every state change.
func (c *Controller) OnTransition(fn func(from, to State, id string)) { c.onTransition = fn }

func (c *Controller) State() State { return c.state }
func (c *Controller) ID() string   { return c.id }

// Started reports whether a server session is open.
func (c *Controller) Started() bool { return c.started }

// Offline reports whether this session plays without a server session.
func (c *Controller) Offline() bool { return c.offline }

func (c *Controller) setState(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.log.Debug("會話狀態變更",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("session", c.id))
	if c.onTransition != nil {
		c.onTransition(from, to, c.id)
	}
}

// Start opens a new server session. Any session still open is abandoned
// first. Without a backend the controller stays in NoSession, offline.
func (c *Controller) Start() {
	if c.state != NoSession {
		c.Reset()
	}
	c.offline = false
	if c.backend == nil {
		c.offline = true
		c.log.Info("離線模式：不建立伺服器會話")
		return
	}

	scope, cancel := c.backend.NewScope()
	c.scope, c.cancel = scope, cancel
	att := &startAttempt{}
	c.start = att
	c.setState(Starting)

	// Sent on the root scope: a superseded start still reports its ID.
	c.backend.StartSession(c.backend.Root(), GameMode, func(id string, err error) {
		if c.start != att || c.state != Starting {
			c.closeLateStart(att, id, err)
			return
		}
		c.start = nil
		switch {
		case err != nil:
			c.log.Warn("建立會話失敗，改為離線", zap.String("error", api.Message(err)))
			c.goOffline()
		case id == "":
			c.log.Warn("伺服器未回傳會話 ID，改為離線")
			c.goOffline()
		default:
			c.id = id
			c.started = true
			c.log.Info("會話已建立", zap.String("session", id))
			c.setState(Active)
		}
	})
}

// closeLateStart ends a server session whose start reply arrived after the
// run that asked for it was ended.
func (c *Controller) closeLateStart(att *startAttempt, id string, err error) {
	if !att.ended || err != nil || id == "" {
		return
	}
	c.log.Info("結束過期的會話", zap.String("session", id))
	c.sendEnd(Result(id, att.final, att.reason))
}

func (c *Controller) goOffline() {
	c.offline = true
	c.dropScope()
	c.setState(NoSession)
}

// Checkpoint sends a progress save for the open session. Outside Active it
// sends nothing and reports why.
func (c *Controller) Checkpoint(t world.Totals) error {
	if c.state != Active {
		if c.offline {
			return ErrOffline
		}
		return ErrNoActiveSession
	}
	p := api.SessionProgress{
		SessionID:         c.id,
		CurrentScore:      t.Score,
		LeaderboardPoints: t.LeaderboardPoints,
		SkillPoints:       t.SkillPoints,
		SurvivalTime:      t.GameTime.Seconds(),
		LivesRemaining:    t.Lives,
	}
	id := c.id
	c.backend.SaveSessionProgress(c.scope, p, func(err error) {
		if err != nil {
			c.log.Warn("進度保存失敗", zap.String("session", id), zap.String("error", api.Message(err)))
			return
		}
		c.log.Debug("進度已保存", zap.String("session", id), zap.Int("score", p.CurrentScore))
	})
	return nil
}

// End finalises the open session. The end request is fire-and-forget: the
// controller is back in NoSession when End returns whatever the server says.
// End in NoSession does nothing. End while Starting returns to NoSession at
// once and ends the server session when the start reply arrives.
func (c *Controller) End(final world.Totals, reason string) {
	switch c.state {
	case NoSession:
		return
	case Starting:
		if c.start != nil {
			c.start.ended = true
			c.start.final = final
			c.start.reason = reason
		}
		c.Reset()
		return
	}

	c.setState(Ending)
	c.sendEnd(Result(c.id, final, reason))
	c.dropScope()
	c.id = ""
	c.started = false
	c.setState(NoSession)
}

// sendEnd uses the root scope so the request outlives the session scope.
func (c *Controller) sendEnd(res api.SessionResult) {
	id := res.SessionID
	c.backend.EndSession(c.backend.Root(), res, func(err error) {
		if err != nil {
			c.log.Warn("結束會話失敗", zap.String("session", id), zap.String("error", api.Message(err)))
			return
		}
		c.log.Info("會話已結束", zap.String("session", id), zap.Int("score", res.FinalScore))
	})
}

// Reset abandons any session without notifying the server.
func (c *Controller) Reset() {
	c.start = nil
	c.dropScope()
	c.id = ""
	c.started = false
	c.setState(NoSession)
}

func (c *Controller) dropScope() {
	if c.cancel != nil {
		c.cancel()
	}
	c.scope, c.cancel = nil, nil
}

// waveLength is the survival time per reported wave.
const waveLength = 30 * time.Second

// Result builds the end-of-session payload with its derived fields.
func Result(id string, final world.Totals, reason string) api.SessionResult {
	return api.SessionResult{
		SessionID:               id,
		FinalScore:              final.Score,
		LeaderboardPointsEarned: final.LeaderboardPoints,
		SkillPointsEarned:       final.SkillPoints,
		SurvivalTime:            final.GameTime.Seconds(),
		DamageTaken:             (3 - final.Lives) * 100,
		WaveReached:             int(final.GameTime/waveLength) + 1,
		EndReason:               reason,
	}
}

// SaveSnapshot replaces the stored checkpoint snapshot with a copy of s.
func (c *Controller) SaveSnapshot(s world.Snapshot) {
	cp := s.Clone()
	c.snapshot = &cp
}

// Snapshot returns a copy of the stored snapshot.
func (c *Controller) Snapshot() (world.Snapshot, bool) {
	if c.snapshot == nil {
		return world.Snapshot{}, false
	}
	return c.snapshot.Clone(), true
}

func (c *Controller) HasSnapshot() bool { return c.snapshot != nil }

func (c *Controller) ClearSnapshot() { c.snapshot = nil }

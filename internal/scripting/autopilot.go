package scripting

import (
	"github.com/survivordash/dash/internal/system"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// SteerFunc is the Lua global the autopilot calls each frame.
const SteerFunc = "steer_cursor"

// Autopilot moves the cursor from Lua when no human is at the controls.
// It implements system.CursorSource.
type Autopilot struct {
	engine *Engine
	warned bool
}

func NewAutopilot(e *Engine) *Autopilot {
	return &Autopilot{engine: e}
}

// Cursor calls steer_cursor(ctx) and returns the position it chose. Any Lua
// failure leaves the cursor where it is.
func (a *Autopilot) Cursor(d *system.Deps) (float64, float64, bool) {
	vm := a.engine.vm
	fn := vm.GetGlobal(SteerFunc)
	if fn == lua.LNil {
		if !a.warned {
			a.engine.log.Warn("lua function steer_cursor not found")
			a.warned = true
		}
		return 0, 0, false
	}

	if err := vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, a.context(d)); err != nil {
		a.engine.log.Error("lua steer_cursor error", zap.Error(err))
		return 0, 0, false
	}

	result := vm.Get(-1)
	vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return 0, 0, false
	}
	x, xok := rt.RawGetString("x").(lua.LNumber)
	y, yok := rt.RawGetString("y").(lua.LNumber)
	if !xok || !yok {
		a.engine.log.Error("lua steer_cursor returned table without x/y")
		return 0, 0, false
	}
	return float64(x), float64(y), true
}

// context packs the frame state for the script.
func (a *Autopilot) context(d *system.Deps) *lua.LTable {
	vm := a.engine.vm
	ws := d.World
	t := vm.NewTable()

	player := vm.NewTable()
	player.RawSetString("x", lua.LNumber(ws.PlayerX))
	player.RawSetString("y", lua.LNumber(ws.PlayerY))
	player.RawSetString("r", lua.LNumber(d.Tuning.Player.Radius))
	t.RawSetString("player", player)

	field := vm.NewTable()
	field.RawSetString("width", lua.LNumber(d.Tuning.Field.Width))
	field.RawSetString("height", lua.LNumber(d.Tuning.Field.Height))
	t.RawSetString("field", field)

	t.RawSetString("game_time", lua.LNumber(ws.GameTime.Seconds()))
	t.RawSetString("lives", lua.LNumber(ws.Lives))

	enemies := vm.NewTable()
	for i := range ws.Enemies {
		e := &ws.Enemies[i]
		if !e.Active {
			continue
		}
		et := vm.NewTable()
		et.RawSetString("x", lua.LNumber(e.X))
		et.RawSetString("y", lua.LNumber(e.Y))
		et.RawSetString("vx", lua.LNumber(e.VX))
		et.RawSetString("vy", lua.LNumber(e.VY))
		et.RawSetString("r", lua.LNumber(e.Radius()))
		enemies.Append(et)
	}
	t.RawSetString("enemies", enemies)

	powerUps := vm.NewTable()
	for i := range ws.PowerUps {
		p := &ws.PowerUps[i]
		if !p.Active {
			continue
		}
		pt := vm.NewTable()
		pt.RawSetString("x", lua.LNumber(p.X))
		pt.RawSetString("y", lua.LNumber(p.Y))
		pt.RawSetString("r", lua.LNumber(d.Tuning.PowerUp.Radius))
		powerUps.Append(pt)
	}
	t.RawSetString("power_ups", powerUps)

	return t
}

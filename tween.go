package umbrella

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	lua "github.com/yuin/gopher-lua"
)

const tweenTypeName = "umbrella.tween"

// Easings lists the easing functions scripts can reach as ease.<name> and by
// name in tween(...).
var Easings = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inSine":     ease.InSine,
	"outSine":    ease.OutSine,
	"inOutSine":  ease.InOutSine,
	"outBounce":  ease.OutBounce,
	"outElastic": ease.OutElastic,
}

// Tween is a single float tween driven from scripts.
type Tween struct {
	tw       *gween.Tween
	value    float32
	finished bool
}

// NewTween creates a tween from begin to end over duration seconds. A nil
// easing is linear.
func NewTween(begin, end, duration float32, fn ease.TweenFunc) *Tween {
	if fn == nil {
		fn = ease.Linear
	}
	return &Tween{tw: gween.New(begin, end, duration, fn), value: begin}
}

// Update advances the tween by dt seconds.
func (t *Tween) Update(dt float32) (float32, bool) {
	t.value, t.finished = t.tw.Update(dt)
	return t.value, t.finished
}

// Reset rewinds the tween to its start.
func (t *Tween) Reset() {
	t.tw.Reset()
	t.finished = false
}

// Value returns the value computed by the last Update.
func (t *Tween) Value() float32 { return t.value }

// Finished reports whether the last Update reached the end.
func (t *Tween) Finished() bool { return t.finished }

// registerEasing publishes the ease table and the tween constructor.
//
//	ease.outQuad(t, b, c, d) -> value
//	local tw = tween(from, to, duration, "outQuad")
//	local v, done = tw:update(delta)
//	tw:reset()
func registerEasing(L *lua.LState) {
	tbl := L.NewTable()
	for name, fn := range Easings {
		L.SetField(tbl, name, L.NewFunction(func(L *lua.LState) int {
			v := fn(
				float32(L.CheckNumber(1)),
				float32(L.CheckNumber(2)),
				float32(L.CheckNumber(3)),
				float32(L.CheckNumber(4)),
			)
			L.Push(lua.LNumber(v))
			return 1
		}))
	}
	L.SetGlobal("ease", tbl)

	mt := L.NewTypeMetatable(tweenTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"update": func(L *lua.LState) int {
			tw := checkTween(L)
			v, done := tw.Update(float32(L.CheckNumber(2)))
			L.Push(lua.LNumber(v))
			L.Push(lua.LBool(done))
			return 2
		},
		"reset": func(L *lua.LState) int {
			checkTween(L).Reset()
			return 0
		},
		"value": func(L *lua.LState) int {
			L.Push(lua.LNumber(checkTween(L).Value()))
			return 1
		},
	}))

	L.SetGlobal("tween", L.NewFunction(func(L *lua.LState) int {
		from := float32(L.CheckNumber(1))
		to := float32(L.CheckNumber(2))
		dur := float32(L.CheckNumber(3))
		var fn ease.TweenFunc
		if L.GetTop() >= 4 {
			name := L.CheckString(4)
			f, ok := Easings[name]
			if !ok {
				L.ArgError(4, "unknown easing "+name)
				return 0
			}
			fn = f
		}
		ud := L.NewUserData()
		ud.Value = NewTween(from, to, dur, fn)
		L.SetMetatable(ud, L.GetTypeMetatable(tweenTypeName))
		L.Push(ud)
		return 1
	}))
}

func checkTween(L *lua.LState) *Tween {
	ud := L.CheckUserData(1)
	if t, ok := ud.Value.(*Tween); ok {
		return t
	}
	L.ArgError(1, "tween expected")
	return nil
}

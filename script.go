package umbrella

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"

	lua "github.com/yuin/gopher-lua"
)

// Script globals published by the engine.
const (
	globalObject   = "object"
	globalControls = "controls"
	globalDelta    = "delta"
	globalGravity  = "gravity"
	globalInit     = "init"
	globalUpdate   = "update"
)

const (
	objectTypeName   = "umbrella.object"
	controlsTypeName = "umbrella.controls"
)

// DefaultGravity is the gravity global published at startup.
const DefaultGravity = 500.0

// Controls is the input state scripts read through the controls global.
type Controls struct {
	Up, Down, Left, Right bool
	A, B                  bool
}

// Get returns the control named name.
func (c Controls) Get(name string) (pressed, ok bool) {
	switch name {
	case "up":
		return c.Up, true
	case "down":
		return c.Down, true
	case "left":
		return c.Left, true
	case "right":
		return c.Right, true
	case "a":
		return c.A, true
	case "b":
		return c.B, true
	}
	return false, false
}

// Set sets the control named name. Unknown names are ignored.
func (c *Controls) Set(name string, pressed bool) bool {
	switch name {
	case "up":
		c.Up = pressed
	case "down":
		c.Down = pressed
	case "left":
		c.Left = pressed
	case "right":
		c.Right = pressed
	case "a":
		c.A = pressed
	case "b":
		c.B = pressed
	default:
		return false
	}
	return true
}

func (c Controls) String() string {
	return fmt.Sprintf("Controls {\n    up: %t,\n    down: %t,\n    left: %t,\n    right: %t,\n    a: %t,\n    b: %t\n}",
		c.Up, c.Down, c.Left, c.Right, c.A, c.B)
}

// Script is a compiled tile script.
type Script struct {
	Path string
	Fn   *lua.LFunction
}

// Scripts is the process-wide script environment. It owns one Lua state;
// every tile script and the init/update entry points share its globals.
// Not safe for concurrent use.
type Scripts struct {
	L    *lua.LState
	fsys fs.FS
	root string
	log  *slog.Logger

	controls *Controls
	methods  map[string]*lua.LFunction
	compiled int
}

// ScriptsOption configures a script environment.
type ScriptsOption func(*Scripts)

// WithScriptsRoot sets the directory script properties are resolved under.
func WithScriptsRoot(root string) ScriptsOption {
	return func(s *Scripts) { s.root = root }
}

// WithScriptLogger sets the logger for script diagnostics.
func WithScriptLogger(l *slog.Logger) ScriptsOption {
	return func(s *Scripts) { s.log = l }
}

// NewScripts creates a script environment reading script files from fsys.
// controls, delta and gravity are published immediately.
func NewScripts(fsys fs.FS, opts ...ScriptsOption) *Scripts {
	s := &Scripts{
		L:        lua.NewState(),
		fsys:     fsys,
		root:     "assets/tiled",
		log:      slog.Default(),
		controls: &Controls{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerObject()
	s.registerControls()
	registerEasing(s.L)

	ud := s.L.NewUserData()
	ud.Value = s.controls
	s.L.SetMetatable(ud, s.L.GetTypeMetatable(controlsTypeName))
	s.L.SetGlobal(globalControls, ud)
	s.SetDelta(0)
	s.SetGravity(DefaultGravity)
	return s
}

// Close releases the Lua state.
func (s *Scripts) Close() {
	s.L.Close()
}

// Compiled returns the number of script files compiled so far.
func (s *Scripts) Compiled() int { return s.compiled }

// Compile loads and compiles the script at name, relative to the scripts
// root, without running it.
func (s *Scripts) Compile(name string) (*Script, error) {
	full, err := joinAsset(s.root, name)
	if err != nil {
		return nil, fmt.Errorf("compile script %s: %w", name, err)
	}
	src, err := fs.ReadFile(s.fsys, full)
	if err != nil {
		return nil, fmt.Errorf("compile script %s: %w", full, err)
	}
	fn, err := s.L.Load(bytes.NewReader(src), full)
	if err != nil {
		return nil, fmt.Errorf("compile script %s: %w", full, err)
	}
	s.compiled++
	return &Script{Path: full, Fn: fn}, nil
}

// Exec runs a chunk of source in the global environment.
func (s *Scripts) Exec(src string) error {
	return s.L.DoString(src)
}

// Controls returns the published input state.
func (s *Scripts) Controls() Controls {
	return *s.controls
}

// SetControls replaces the published input state.
func (s *Scripts) SetControls(c Controls) {
	*s.controls = c
}

// SetDelta publishes the frame delta in seconds.
func (s *Scripts) SetDelta(dt float64) {
	s.L.SetGlobal(globalDelta, lua.LNumber(dt))
}

// SetGravity publishes the gravity global.
func (s *Scripts) SetGravity(g float64) {
	s.L.SetGlobal(globalGravity, lua.LNumber(g))
}

// Init runs an object's initializer: the tile script, then the global init.
func (s *Scripts) Init(o *Object, sc *Script) error {
	return s.invoke(o, sc, globalInit, ErrNoInit)
}

// Run runs an object's per-frame step: the tile script, then the global
// update.
func (s *Scripts) Run(o *Object, sc *Script) error {
	return s.invoke(o, sc, globalUpdate, ErrNoUpdate)
}

// invoke publishes a copy of o as the object global, calls the tile script
// and the named entry point, then commits the object global back into o. On
// any error o is left untouched.
func (s *Scripts) invoke(o *Object, sc *Script, entry string, missing error) error {
	work := o.clone()
	s.L.SetGlobal(globalObject, s.newObject(work))

	if err := s.L.CallByParam(lua.P{Fn: sc.Fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("script %s: %w", sc.Path, err)
	}
	fn, ok := s.L.GetGlobal(entry).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("script %s: %w", sc.Path, missing)
	}
	if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("script %s: %s: %w", sc.Path, entry, err)
	}

	ud, ok := s.L.GetGlobal(globalObject).(*lua.LUserData)
	if !ok {
		return fmt.Errorf("script %s: %w", sc.Path, ErrObjectVanished)
	}
	back, ok := ud.Value.(*Object)
	if !ok || back.ID != o.ID {
		return fmt.Errorf("script %s: %w", sc.Path, ErrObjectVanished)
	}
	*o = *back
	return nil
}

func (s *Scripts) newObject(o *Object) *lua.LUserData {
	ud := s.L.NewUserData()
	ud.Value = o
	s.L.SetMetatable(ud, s.L.GetTypeMetatable(objectTypeName))
	return ud
}

func (s *Scripts) registerObject() {
	L := s.L
	s.methods = map[string]*lua.LFunction{
		"move": L.NewFunction(func(L *lua.LState) int {
			o := checkObject(L, 1)
			o.Move(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
			return 0
		}),
		"rotate": L.NewFunction(func(L *lua.LState) int {
			o := checkObject(L, 1)
			o.Rotate(L.CheckInt(2))
			return 0
		}),
		"flip": L.NewFunction(func(L *lua.LState) int {
			o := checkObject(L, 1)
			o.Flip(L.ToBool(2))
			return 0
		}),
	}

	mt := L.NewTypeMetatable(objectTypeName)
	L.SetField(mt, "__index", L.NewFunction(s.objectIndex))
	L.SetField(mt, "__newindex", L.NewFunction(objectNewIndex))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkObject(L, 1).String()))
		return 1
	}))
}

func (s *Scripts) objectIndex(L *lua.LState) int {
	o := checkObject(L, 1)
	key := L.CheckString(2)
	switch key {
	case "x":
		L.Push(lua.LNumber(o.ScriptX()))
	case "y":
		L.Push(lua.LNumber(o.ScriptY()))
	case "width":
		L.Push(lua.LNumber(o.Width))
	case "height":
		L.Push(lua.LNumber(o.Height))
	case "rotation":
		L.Push(lua.LNumber(o.Rotation))
	case "flipped":
		L.Push(lua.LBool(o.Flipped))
	default:
		if fn, ok := s.methods[key]; ok {
			L.Push(fn)
		} else {
			L.Push(toLua(o.Fields.Get(key)))
		}
	}
	return 1
}

// objectNewIndex stores any assignment in the custom field store, including
// names that reads resolve to derived values.
func objectNewIndex(L *lua.LState) int {
	o := checkObject(L, 1)
	key := L.CheckString(2)
	v, ok := fromLua(L.Get(3))
	if !ok {
		L.RaiseError("object field %q cannot hold a %s", key, L.Get(3).Type().String())
		return 0
	}
	o.Fields.Set(key, v)
	return 0
}

func checkObject(L *lua.LState, n int) *Object {
	ud := L.CheckUserData(n)
	if o, ok := ud.Value.(*Object); ok {
		return o
	}
	L.ArgError(n, "object expected")
	return nil
}

func (s *Scripts) registerControls() {
	L := s.L
	mt := L.NewTypeMetatable(controlsTypeName)
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		c := checkControls(L, 1)
		key := L.CheckString(2)
		pressed, ok := c.Get(key)
		if !ok {
			s.log.Warn("unknown control", "name", key)
		}
		L.Push(lua.LBool(pressed))
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("controls are read-only")
		return 0
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkControls(L, 1).String()))
		return 1
	}))
}

func checkControls(L *lua.LState, n int) *Controls {
	ud := L.CheckUserData(n)
	if c, ok := ud.Value.(*Controls); ok {
		return c
	}
	L.ArgError(n, "controls expected")
	return nil
}

func toLua(v Value) lua.LValue {
	switch v.Kind {
	case NumberValue:
		return lua.LNumber(v.Num)
	case BoolValue:
		return lua.LBool(v.Bool)
	case StringValue:
		return lua.LString(v.Str)
	default:
		return lua.LNil
	}
}

func fromLua(lv lua.LValue) (Value, bool) {
	switch lv.Type() {
	case lua.LTNil:
		return Value{}, true
	case lua.LTNumber:
		return Number(float64(lv.(lua.LNumber))), true
	case lua.LTBool:
		return Bool(bool(lv.(lua.LBool))), true
	case lua.LTString:
		return String(string(lv.(lua.LString))), true
	}
	return Value{}, false
}

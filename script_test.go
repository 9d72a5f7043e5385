package umbrella

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"
)

// newScriptEnv returns a script environment whose scripts root holds the
// given files.
func newScriptEnv(t *testing.T, files map[string]string) *Scripts {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, src := range files {
		fsys["assets/tiled/"+name] = &fstest.MapFile{Data: []byte(src)}
	}
	s := NewScripts(fsys, WithScriptLogger(discardLogger()))
	t.Cleanup(s.Close)
	return s
}

func compile(t *testing.T, s *Scripts, name string) *Script {
	t.Helper()
	sc, err := s.Compile(name)
	if err != nil {
		t.Fatalf("Compile(%s): %v", name, err)
	}
	return sc
}

func TestScriptsGlobals(t *testing.T) {
	s := newScriptEnv(t, nil)
	if err := s.Exec(`assert(gravity == 500, "gravity") assert(delta == 0, "delta")`); err != nil {
		t.Fatal(err)
	}
	s.SetDelta(0.5)
	s.SetGravity(9.8)
	if err := s.Exec(`assert(gravity == 9.8, "gravity") assert(delta == 0.5, "delta")`); err != nil {
		t.Fatal(err)
	}
}

func TestScriptsInitThenUpdate(t *testing.T) {
	s := newScriptEnv(t, map[string]string{"a.lua": `
loads = (loads or 0) + 1
function init()
	object.hp = 3
	object.name = "slime"
	object.alive = true
end
function update()
	object.hp = object.hp - 1
	object:move(4, 0)
end
`})
	sc := compile(t, s, "a.lua")
	o := &Object{ID: 7, Width: 16, Height: 16}

	if err := s.Init(o, sc); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(o, sc); err != nil {
		t.Fatal(err)
	}
	if o.Fields.Get("hp") != Number(2) || o.Fields.Get("name") != String("slime") || o.Fields.Get("alive") != Bool(true) {
		t.Errorf("fields = %v", o.Fields.Keys())
	}
	if o.MoveX != 4 || o.MoveY != 0 {
		t.Errorf("pending = (%v, %v), want (4, 0)", o.MoveX, o.MoveY)
	}
	if o.X != 0 {
		t.Error("move changed the position directly")
	}
	// The tile script body runs before every entry point.
	if err := s.Exec(`assert(loads == 2, "loads " .. tostring(loads))`); err != nil {
		t.Error(err)
	}
	if s.Compiled() != 1 {
		t.Errorf("Compiled = %d, want 1", s.Compiled())
	}
}

func TestScriptsUpdateIsShared(t *testing.T) {
	s := newScriptEnv(t, map[string]string{
		"a.lua": `
function update()
	object:move(1, 0)
end
`,
		"b.lua": `object.b = true`,
	})
	a := compile(t, s, "a.lua")
	b := compile(t, s, "b.lua")
	oa := &Object{ID: 0, Width: 16, Height: 16}
	ob := &Object{ID: 1, Width: 16, Height: 16}

	if err := s.Run(oa, a); err != nil {
		t.Fatal(err)
	}
	// b.lua defines no update; the global one left by a.lua still runs.
	if err := s.Run(ob, b); err != nil {
		t.Fatal(err)
	}
	if ob.MoveX != 1 || ob.MoveY != 0 {
		t.Errorf("b pending = (%v, %v), want (1, 0)", ob.MoveX, ob.MoveY)
	}
	if ob.Fields.Get("b") != Bool(true) {
		t.Errorf("b field = %v, want true", ob.Fields.Get("b"))
	}
	if oa.MoveX != 1 {
		t.Errorf("a pending x = %v, want 1", oa.MoveX)
	}
}

func TestScriptsDerivedProperties(t *testing.T) {
	s := newScriptEnv(t, map[string]string{"p.lua": `
function update()
	object.seen_x = object.x
	object.seen_y = object.y
	object.seen_w = object.width
	object.seen_rot = object.rotation
	object.seen_flip = object.flipped
	object.text = tostring(object)
	object:rotate(5)
	object:flip(true)
end
`})
	sc := compile(t, s, "p.lua")
	o := &Object{X: 10, Y: 20, Width: 16, Height: 8, Rotation: 1}
	if err := s.Run(o, sc); err != nil {
		t.Fatal(err)
	}
	want := map[string]Value{
		"seen_x":    Number(20),
		"seen_y":    Number(ScriptSpan - 10),
		"seen_w":    Number(16),
		"seen_rot":  Number(1),
		"seen_flip": Bool(false),
		"text":      String("x: 10\ny: 20, rotation: 1"),
	}
	for k, v := range want {
		if got := o.Fields.Get(k); got != v {
			t.Errorf("%s = %v, want %v", k, got, v)
		}
	}
	if o.Rotation != 1 || !o.Flipped {
		t.Errorf("rotation %d flipped %v, want 1 true", o.Rotation, o.Flipped)
	}
}

func TestScriptsAssignmentShadowsNothing(t *testing.T) {
	s := newScriptEnv(t, map[string]string{"w.lua": `
function update()
	object.x = 99
	object.note = nil
end
`})
	sc := compile(t, s, "w.lua")
	o := &Object{X: 5}
	o.Fields.Set("note", String("bye"))
	if err := s.Run(o, sc); err != nil {
		t.Fatal(err)
	}
	// Writes land in the field store; reads of x stay derived.
	if o.X != 5 || o.Fields.Get("x") != Number(99) {
		t.Errorf("X = %v, field x = %v", o.X, o.Fields.Get("x"))
	}
	if !o.Fields.Get("note").IsNil() {
		t.Error("assigning nil should remove the field")
	}
}

func TestScriptsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		init bool
		want error
	}{
		{"no update", `function init() end`, false, ErrNoUpdate},
		{"no init", `function update() end`, true, ErrNoInit},
		{"object replaced", `function update() object = nil end`, false, ErrObjectVanished},
		{"object swapped", `function update() object = controls end`, false, ErrObjectVanished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScriptEnv(t, map[string]string{"e.lua": tt.src})
			sc := compile(t, s, "e.lua")
			o := &Object{ID: 1}
			var err error
			if tt.init {
				err = s.Init(o, sc)
			} else {
				err = s.Run(o, sc)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestScriptsRuntimeErrorLeavesObject(t *testing.T) {
	s := newScriptEnv(t, map[string]string{"boom.lua": `
function update()
	object.hp = 0
	object:move(5, 5)
	error("boom")
end
`})
	sc := compile(t, s, "boom.lua")
	o := &Object{ID: 2}
	o.Fields.Set("hp", Number(10))
	err := s.Run(o, sc)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want boom", err)
	}
	if o.Fields.Get("hp") != Number(10) || o.MoveX != 0 {
		t.Errorf("failed run modified the object: hp %v, pending %v", o.Fields.Get("hp"), o.MoveX)
	}
}

func TestScriptsTableFieldRejected(t *testing.T) {
	s := newScriptEnv(t, map[string]string{"t.lua": `function update() object.list = {} end`})
	sc := compile(t, s, "t.lua")
	if err := s.Run(&Object{}, sc); err == nil {
		t.Error("expected error storing a table")
	}
}

func TestScriptsCompileErrors(t *testing.T) {
	s := newScriptEnv(t, map[string]string{"bad.lua": `function (`})
	if _, err := s.Compile("bad.lua"); err == nil || !strings.Contains(err.Error(), "bad.lua") {
		t.Errorf("syntax error = %v, want it to name the file", err)
	}
	if _, err := s.Compile("missing.lua"); err == nil {
		t.Error("expected error for missing script")
	}
	if _, err := s.Compile("../../../x.lua"); !errors.Is(err, ErrBadAssetPath) {
		t.Errorf("escaping path err = %v", err)
	}
	if s.Compiled() != 0 {
		t.Errorf("Compiled = %d, want 0", s.Compiled())
	}
}

func TestScriptsControls(t *testing.T) {
	var buf bytes.Buffer
	s := NewScripts(fstest.MapFS{}, WithScriptLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	t.Cleanup(s.Close)

	s.SetControls(Controls{Right: true, A: true})
	if err := s.Exec(`assert(controls.right and controls.a and not controls.left, "controls")`); err != nil {
		t.Fatal(err)
	}
	if err := s.Exec(`assert(controls.jump == false)`); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "unknown control") {
		t.Errorf("unknown control not logged: %q", buf.String())
	}
	if err := s.Exec(`controls.right = false`); err == nil {
		t.Error("controls should be read-only")
	}
	if !s.Controls().Right {
		t.Error("failed write changed the controls")
	}
	if err := s.Exec(`assert(string.find(tostring(controls), "right: true"))`); err != nil {
		t.Error(err)
	}
}

func TestControlsGetSet(t *testing.T) {
	var c Controls
	for _, name := range []string{"up", "down", "left", "right", "a", "b"} {
		if !c.Set(name, true) {
			t.Errorf("Set(%q) rejected", name)
		}
		if v, ok := c.Get(name); !v || !ok {
			t.Errorf("Get(%q) = %v, %v", name, v, ok)
		}
	}
	if c.Set("start", true) {
		t.Error("Set accepted an unknown control")
	}
	if _, ok := c.Get("start"); ok {
		t.Error("Get accepted an unknown control")
	}
}

func TestScriptsTween(t *testing.T) {
	s := newScriptEnv(t, nil)
	err := s.Exec(`
local tw = tween(0, 10, 1)
local v, done = tw:update(0.5)
assert(math.abs(v - 5) < 1e-4, "half way " .. v)
assert(not done)
v, done = tw:update(0.6)
assert(v == 10 and done, "finished")
assert(tw:value() == 10)
tw:reset()
v = tw:update(0)
assert(v == 0, "reset " .. v)

assert(ease.linear(0.5, 0, 10, 1) == 5)
assert(ease.outQuad(1, 0, 10, 1) == 10)
`)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Exec(`tween(0, 1, 1, "wobble")`); err == nil {
		t.Error("expected error for unknown easing")
	}
}

func TestTween(t *testing.T) {
	tw := NewTween(0, 100, 2, Easings["inQuad"])
	if v, done := tw.Update(1); v != 25 || done {
		t.Errorf("Update(1) = %v, %v, want 25, false", v, done)
	}
	if v, done := tw.Update(1); v != 100 || !done || !tw.Finished() {
		t.Errorf("Update(1) = %v, %v, want 100, true", v, done)
	}
	tw.Reset()
	if tw.Finished() {
		t.Error("Reset did not rewind")
	}
	for name, fn := range Easings {
		if got := fn(0, 3, 4, 1); got != 3 {
			t.Errorf("%s(0) = %v, want begin", name, got)
		}
	}
}

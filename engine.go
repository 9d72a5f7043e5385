package umbrella

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/phanxgames/umbrella/collision"
)

// DefaultReferenceSize is the width and height of the coordinate space draw
// positions are given in.
const DefaultReferenceSize = 2048

// DrawCall is one sprite draw: a rotation quad of a palette-indexed texture at
// an integer world position.
type DrawCall struct {
	Quad    Resource
	Palette Resource
	Index   Resource
	Texture TextureHandle

	// X and Y are in reference units.
	X, Y int
	// Width and Height are the reference dimensions of the whole view.
	Width, Height float32
	// Flip is +1 for normal and -1 for mirrored.
	Flip float32
	// Rotation selects Quad among the texture's four variants.
	Rotation Rotation
}

// Renderer receives a frame's draw calls. Clear is called once before any
// Draw.
type Renderer interface {
	Clear(c Color)
	Draw(dc *DrawCall)
}

// CollisionEvent reports a movement shortened by a contact.
type CollisionEvent struct {
	// Object is the arena index of the moving object.
	Object int
	// Other is the collision handle of the shape hit.
	Other collision.Handle
	// OtherObject is the arena index of the shape hit, or -1 for map shapes.
	OtherObject int
	// Time is the fraction of the requested move that was applied.
	Time float64
}

// EventStore receives collision events from the frame loop.
type EventStore interface {
	EmitCollision(event CollisionEvent)
}

// Engine runs the frame loop over a loaded map.
type Engine struct {
	Graphics *Graphics
	Tiles    *Tiles
	Scripts  *Scripts
	Map      *Map

	log     *slog.Logger
	refW    float32
	refH    float32
	elapsed float64
	debug   bool
	stats   FrameStats
	store   EventStore
	draws   []DrawCall

	testRunner *TestRunner
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithReferenceSize sets the reference dimensions sent with each draw.
func WithReferenceSize(w, h int) EngineOption {
	return func(e *Engine) {
		e.refW = float32(w)
		e.refH = float32(h)
	}
}

// NewEngine wires a loaded map to its graphics, tiles and scripts.
func NewEngine(g *Graphics, tiles *Tiles, scripts *Scripts, m *Map, opts ...EngineOption) *Engine {
	e := &Engine{
		Graphics: g,
		Tiles:    tiles,
		Scripts:  scripts,
		Map:      m,
		log:      slog.Default(),
		refW:     DefaultReferenceSize,
		refH:     DefaultReferenceSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetEventStore sets the receiver of collision events. nil disables them.
func (e *Engine) SetEventStore(s EventStore) { e.store = s }

// SetDebugMode enables per-frame stats logging at debug level.
func (e *Engine) SetDebugMode(enabled bool) { e.debug = enabled }

// Elapsed returns the animation clock in seconds.
func (e *Engine) Elapsed() float64 { return e.elapsed }

// Stats returns the stats of the last Update.
func (e *Engine) Stats() FrameStats { return e.stats }

// SetControls publishes the input state for the next Update.
func (e *Engine) SetControls(c Controls) {
	if e.Scripts != nil {
		e.Scripts.SetControls(c)
	}
}

// ResetControls releases every control, as on focus loss.
func (e *Engine) ResetControls() {
	e.SetControls(Controls{})
}

// DrawCalls returns the draw calls recorded by the last Update. The slice
// is reused by the next Update.
func (e *Engine) DrawCalls() []DrawCall { return e.draws }

// Update advances the simulation by dt seconds and records the frame's draw
// calls: every placed tile in grid order, then each object after its script
// and movement step, in handle order. Script errors and collision invariant
// violations are returned and leave the frame incomplete.
func (e *Engine) Update(dt float64) error {
	start := time.Now()
	e.stats = FrameStats{}
	e.elapsed += dt
	e.draws = e.draws[:0]
	if e.Scripts != nil {
		if e.testRunner != nil {
			c := e.Scripts.Controls()
			e.testRunner.step(&c)
			e.Scripts.SetControls(c)
		}
		e.Scripts.SetDelta(dt)
	}

	for _, c := range e.Map.Cells() {
		e.record(c.Tile, float64(c.X*e.Map.TileWidth), float64(c.Y*e.Map.TileHeight), c.Rotation, c.Flipped)
	}

	for _, o := range e.Map.Objects() {
		tile := e.Tiles.Tile(o.Tile)
		if tile.Script != nil {
			t := time.Now()
			if e.Scripts == nil {
				return fmt.Errorf("object %d: script %s: no script environment", o.ID, tile.Script.Path)
			}
			if err := e.Scripts.Run(o, tile.Script); err != nil {
				return fmt.Errorf("update object %d: %w", o.ID, err)
			}
			e.stats.ScriptTime += time.Since(t)
			e.stats.Scripts++
		}
		t := time.Now()
		if err := e.resolveMovement(o); err != nil {
			return err
		}
		e.stats.MoveTime += time.Since(t)
		e.record(o.Tile, o.X, o.Y, o.Rotation, o.Flipped)
	}

	e.stats.FrameTime = time.Since(start)
	e.stats.DrawCalls = len(e.draws)
	if e.debug {
		e.stats.log(e.log)
	}
	return nil
}

// Frame runs Update and then submits the recorded frame to r.
func (e *Engine) Frame(dt float64, r Renderer) error {
	if err := e.Update(dt); err != nil {
		return err
	}
	e.Draw(r)
	return nil
}

// Draw clears r to the map background and submits the recorded draw calls.
func (e *Engine) Draw(r Renderer) {
	r.Clear(e.Map.Background)
	for i := range e.draws {
		r.Draw(&e.draws[i])
	}
}

// resolveMovement applies an object's pending delta, shortened to the
// earliest time of impact among the contacts the move starts. The sweep is
// done once along the requested direction; blocked moves do not slide.
func (e *Engine) resolveMovement(o *Object) error {
	delta := o.Pending()
	if delta[0] == 0 && delta[1] == 0 {
		return nil
	}
	w := e.Map.World()
	self, err := w.Object(o.Handle)
	if err != nil {
		return fmt.Errorf("object %d: %w", o.ID, err)
	}
	shape, from := self.Shape, self.Position

	if err := w.SetPosition(o.Handle, from.Add(delta)); err != nil {
		return fmt.Errorf("object %d: %w", o.ID, err)
	}
	w.Update()

	toi := 1.0
	hit := collision.Handle(-1)
	for _, ev := range w.ContactEvents() {
		if !ev.Started {
			continue
		}
		other, ok := ev.Other(o.Handle)
		if !ok {
			continue
		}
		oc, err := w.Object(other)
		if err != nil {
			return fmt.Errorf("object %d: contact: %w", o.ID, err)
		}
		e.stats.Contacts++
		t, ok := collision.TimeOfImpact(from, delta, shape, oc.Position, mgl64.Vec2{}, oc.Shape)
		if ok && t < toi {
			toi = t
			hit = other
		}
	}

	o.X += delta[0] * toi
	o.Y += delta[1] * toi
	o.MoveX, o.MoveY = 0, 0
	if err := w.SetPosition(o.Handle, o.Position()); err != nil {
		return fmt.Errorf("object %d: %w", o.ID, err)
	}
	w.Update()

	if hit >= 0 && e.store != nil {
		oc, err := w.Object(hit)
		if err != nil {
			return fmt.Errorf("object %d: %w", o.ID, err)
		}
		e.store.EmitCollision(CollisionEvent{Object: o.ID, Other: hit, OtherObject: oc.Data, Time: toi})
	}
	return nil
}

// record appends the draw call for catalog entry idx at a world position,
// following its animation.
func (e *Engine) record(idx int, x, y float64, rot Rotation, flipped bool) {
	th := e.Tiles.Tile(e.Tiles.Resolve(idx, e.elapsed)).Texture
	tex := e.Graphics.Texture(th)
	e.draws = append(e.draws, DrawCall{
		Quad:     tex.Quad(rot),
		Palette:  tex.PaletteTexture(),
		Index:    tex.IndexTexture(),
		Texture:  th,
		X:        int(x),
		Y:        int(y),
		Width:    e.refW,
		Height:   e.refH,
		Flip:     Flip(flipped),
		Rotation: rot,
	})
}

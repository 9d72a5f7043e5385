// Package collision is a small 2D collision world: static and dynamic shapes
// in collision groups, contact-begin events per update, and swept time of
// impact queries.
package collision

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrNoObject is returned for a handle that is not live in the world.
var ErrNoObject = errors.New("collision: no such object")

// Handle identifies a collision object. Handles are never reused.
type Handle int

// Groups filters which objects may interact. Two objects interact when each
// one's membership intersects the other's whitelist.
type Groups struct {
	Membership uint32
	Whitelist  uint32
}

// Group returns the membership bit for group n (0..31).
func Group(n uint) uint32 { return 1 << n }

// CanInteract reports whether objects in g and o may produce contacts.
func (g Groups) CanInteract(o Groups) bool {
	return g.Membership&o.Whitelist != 0 && o.Membership&g.Whitelist != 0
}

// Object is a shape placed in the world.
type Object struct {
	Handle   Handle
	Position mgl64.Vec2
	Shape    Shape
	Groups   Groups
	// Data is a caller payload, typically an arena index.
	Data int

	cells []cellKey
}

// ContactEvent reports that a pair started or stopped touching during the
// last Update.
type ContactEvent struct {
	A, B    Handle
	Started bool
}

// Other returns the handle paired with h, or false if h is not in the event.
func (e ContactEvent) Other(h Handle) (Handle, bool) {
	switch h {
	case e.A:
		return e.B, true
	case e.B:
		return e.A, true
	}
	return 0, false
}

type pair struct{ a, b Handle }

func makePair(a, b Handle) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

type cellKey struct{ x, y int }

// DefaultCellSize is the broad phase grid cell edge in world units.
const DefaultCellSize = 256

// World tracks shapes and their contact pairs. It is not safe for concurrent
// use.
type World struct {
	margin   float64
	cellSize float64

	objects []*Object
	live    int
	grid    map[cellKey][]Handle
	planes  []Handle

	dirty   []Handle
	isDirty map[Handle]bool
	pairs   map[pair]bool
	events  []ContactEvent
}

// NewWorld creates an empty world. margin loosens broad phase bounds.
func NewWorld(margin float64) *World {
	return &World{
		margin:   margin,
		cellSize: DefaultCellSize,
		grid:     make(map[cellKey][]Handle),
		isDirty:  make(map[Handle]bool),
		pairs:    make(map[pair]bool),
	}
}

// Margin returns the broad phase margin.
func (w *World) Margin() float64 { return w.margin }

// Len returns the number of live objects.
func (w *World) Len() int { return w.live }

// Add places a shape and returns its handle. The new object takes part in
// contact detection from the next Update.
func (w *World) Add(pos mgl64.Vec2, shape Shape, groups Groups, data int) Handle {
	h := Handle(len(w.objects))
	o := &Object{Handle: h, Position: pos, Shape: shape, Groups: groups, Data: data}
	w.objects = append(w.objects, o)
	w.live++
	w.insert(o)
	w.markDirty(h)
	return h
}

// Remove deletes an object. Pairs it was part of end silently.
func (w *World) Remove(h Handle) error {
	o, err := w.Object(h)
	if err != nil {
		return err
	}
	w.unlink(o)
	for p := range w.pairs {
		if p.a == h || p.b == h {
			delete(w.pairs, p)
		}
	}
	w.objects[h] = nil
	w.live--
	return nil
}

// Object returns the live object for h.
func (w *World) Object(h Handle) (*Object, error) {
	if h < 0 || int(h) >= len(w.objects) || w.objects[h] == nil {
		return nil, fmt.Errorf("%w: handle %d", ErrNoObject, h)
	}
	return w.objects[h], nil
}

// SetPosition moves an object. Contacts are refreshed by the next Update.
func (w *World) SetPosition(h Handle, pos mgl64.Vec2) error {
	o, err := w.Object(h)
	if err != nil {
		return err
	}
	if o.Position == pos {
		return nil
	}
	w.unlink(o)
	o.Position = pos
	w.insert(o)
	w.markDirty(h)
	return nil
}

// Update recomputes contacts for every object added or moved since the
// previous Update and replaces the event list.
func (w *World) Update() {
	w.events = w.events[:0]
	for _, h := range w.dirty {
		delete(w.isDirty, h)
		o := w.objects[h]
		if o == nil {
			continue
		}
		touching := make(map[Handle]bool)
		for _, c := range w.candidates(o) {
			other := w.objects[c]
			if !o.Groups.CanInteract(other.Groups) {
				continue
			}
			if Penetration(o.Position, o.Shape, other.Position, other.Shape) > Epsilon {
				touching[c] = true
			}
		}
		for p := range w.pairs {
			if p.a != h && p.b != h {
				continue
			}
			other := p.a
			if other == h {
				other = p.b
			}
			if !touching[other] {
				delete(w.pairs, p)
				w.events = append(w.events, ContactEvent{A: p.a, B: p.b})
			}
		}
		for c := range touching {
			p := makePair(h, c)
			if !w.pairs[p] {
				w.pairs[p] = true
				w.events = append(w.events, ContactEvent{A: h, B: c, Started: true})
			}
		}
	}
	w.dirty = w.dirty[:0]
}

// ContactEvents returns the events produced by the last Update. The slice is
// reused by the next Update.
func (w *World) ContactEvents() []ContactEvent {
	return w.events
}

// InContact reports whether a and b are currently a contact pair.
func (w *World) InContact(a, b Handle) bool {
	return w.pairs[makePair(a, b)]
}

// Objects calls fn for every live object in handle order.
func (w *World) Objects(fn func(*Object)) {
	for _, o := range w.objects {
		if o != nil {
			fn(o)
		}
	}
}

func (w *World) markDirty(h Handle) {
	if !w.isDirty[h] {
		w.isDirty[h] = true
		w.dirty = append(w.dirty, h)
	}
}

// candidates returns the handles whose broad phase bounds may touch o, in
// ascending order without duplicates.
func (w *World) candidates(o *Object) []Handle {
	seen := make(map[Handle]bool)
	var out []Handle
	add := func(h Handle) {
		if h != o.Handle && !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	for _, h := range w.planes {
		add(h)
	}
	if len(o.cells) == 0 {
		// Unbounded shapes test against everything.
		for _, other := range w.objects {
			if other != nil {
				add(other.Handle)
			}
		}
	} else {
		for _, k := range o.cells {
			for _, h := range w.grid[k] {
				add(h)
			}
		}
	}
	sortHandles(out)
	return out
}

func (w *World) insert(o *Object) {
	box, ok := o.Shape.Bounds(o.Position)
	if !ok {
		w.planes = append(w.planes, o.Handle)
		return
	}
	box = box.Loosen(w.margin)
	x0, y0 := w.cell(box.Min)
	x1, y1 := w.cell(box.Max)
	o.cells = o.cells[:0]
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			k := cellKey{x, y}
			w.grid[k] = append(w.grid[k], o.Handle)
			o.cells = append(o.cells, k)
		}
	}
}

func (w *World) unlink(o *Object) {
	if len(o.cells) == 0 {
		w.planes = removeHandle(w.planes, o.Handle)
		return
	}
	for _, k := range o.cells {
		w.grid[k] = removeHandle(w.grid[k], o.Handle)
		if len(w.grid[k]) == 0 {
			delete(w.grid, k)
		}
	}
	o.cells = o.cells[:0]
}

func (w *World) cell(p mgl64.Vec2) (int, int) {
	return int(math.Floor(p[0] / w.cellSize)), int(math.Floor(p[1] / w.cellSize))
}

func removeHandle(s []Handle, h Handle) []Handle {
	for i, v := range s {
		if v == h {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// sortHandles is an insertion sort; candidate lists are short.
func sortHandles(s []Handle) {
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j] > key {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}

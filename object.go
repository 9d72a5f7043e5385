package umbrella

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/phanxgames/umbrella/collision"
)

// ScriptSpan is the fixed coordinate span scripts measure rotated positions
// against. It does not follow the loaded map's size.
const ScriptSpan = 2048

// Object is a dynamic map entity. X and Y are the raw top-left position and
// never depend on Rotation; scripts see them through ScriptX and ScriptY.
type Object struct {
	// ID is the object's index in its map's arena.
	ID int
	// Tile is the catalog index the object draws and scripts with.
	Tile int
	// Handle is the object's collision world handle.
	Handle collision.Handle

	X, Y float64
	// MoveX and MoveY accumulate the movement requested this frame. The frame
	// loop clears them after resolution.
	MoveX, MoveY float64

	Width, Height float64
	Rotation      Rotation
	Flipped       bool

	Fields Fields
}

// Position returns the raw position as a vector.
func (o *Object) Position() mgl64.Vec2 {
	return mgl64.Vec2{o.X, o.Y}
}

// Pending returns the requested movement delta.
func (o *Object) Pending() mgl64.Vec2 {
	return mgl64.Vec2{o.MoveX, o.MoveY}
}

// Move adds a delta given in the object's facing frame: +x is forward
// whatever the rotation.
func (o *Object) Move(dx, dy float64) {
	switch o.Rotation & 3 {
	case 0:
	case 1:
		dx, dy = -dy, dx
	case 2:
		dx, dy = -dx, -dy
	case 3:
		dx, dy = dy, -dx
	}
	o.MoveX += dx
	o.MoveY += dy
}

// Rotate sets the rotation to n modulo 4.
func (o *Object) Rotate(n int) {
	o.Rotation = NormalizeRotation(n)
}

// Flip sets the mirrored flag.
func (o *Object) Flip(flipped bool) {
	o.Flipped = flipped
}

// ScriptX returns x as scripts see it for the current rotation.
func (o *Object) ScriptX() float64 {
	switch o.Rotation & 3 {
	case 1:
		return o.Y
	case 2:
		return ScriptSpan - o.X
	case 3:
		return ScriptSpan - o.Y
	default:
		return o.X
	}
}

// ScriptY returns y as scripts see it for the current rotation. For
// rotation 0 it is the bottom edge of the object.
func (o *Object) ScriptY() float64 {
	switch o.Rotation & 3 {
	case 1:
		return ScriptSpan - o.X
	case 2:
		return ScriptSpan - o.Y
	case 3:
		return o.X + o.Height
	default:
		return o.Y + o.Height
	}
}

func (o *Object) String() string {
	return fmt.Sprintf("x: %v\ny: %v, rotation: %d", o.X, o.Y, o.Rotation)
}

// clone returns a copy whose Fields are independent of o's.
func (o *Object) clone() *Object {
	c := *o
	c.Fields = o.Fields.Clone()
	return &c
}

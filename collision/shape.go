package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the penetration depth below which two shapes count as merely
// touching rather than in contact.
const Epsilon = 1e-9

// AABB is an axis-aligned bounding box given by its min and max corners.
type AABB struct {
	Min, Max mgl64.Vec2
}

// Loosen returns the box grown by m on every side.
func (b AABB) Loosen(m float64) AABB {
	return AABB{
		Min: mgl64.Vec2{b.Min[0] - m, b.Min[1] - m},
		Max: mgl64.Vec2{b.Max[0] + m, b.Max[1] + m},
	}
}

// Intersects reports whether b and o overlap or touch.
func (b AABB) Intersects(o AABB) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1]
}

// Shape is a collision shape placed by a position in world space.
type Shape interface {
	// Bounds returns the world-space bounds of the shape at pos. Unbounded
	// shapes return ok=false.
	Bounds(pos mgl64.Vec2) (box AABB, ok bool)
}

// Box is an axis-aligned rectangle anchored at its top-left corner, so a box
// placed at a sprite's position covers exactly the sprite.
type Box struct {
	Width, Height float64
}

// Bounds implements Shape.
func (b Box) Bounds(pos mgl64.Vec2) (AABB, bool) {
	return AABB{Min: pos, Max: mgl64.Vec2{pos[0] + b.Width, pos[1] + b.Height}}, true
}

// HalfPlane is an infinite wall through its position. Normal points out of
// the solid side: everything p with (p - pos)·Normal < 0 is inside.
type HalfPlane struct {
	Normal mgl64.Vec2
}

// Bounds implements Shape. Half-planes are unbounded.
func (HalfPlane) Bounds(mgl64.Vec2) (AABB, bool) {
	return AABB{}, false
}

// Penetration returns how deep two placed shapes overlap. Zero or negative
// means separated or touching. Pairs of half-planes never overlap.
func Penetration(pa mgl64.Vec2, a Shape, pb mgl64.Vec2, b Shape) float64 {
	switch sa := a.(type) {
	case Box:
		switch sb := b.(type) {
		case Box:
			return boxBoxPenetration(pa, sa, pb, sb)
		case HalfPlane:
			return -boxPlaneDistance(pa, sa, pb, sb)
		}
	case HalfPlane:
		if sb, ok := b.(Box); ok {
			return -boxPlaneDistance(pb, sb, pa, sa)
		}
	}
	return math.Inf(-1)
}

func boxBoxPenetration(pa mgl64.Vec2, a Box, pb mgl64.Vec2, b Box) float64 {
	ba, _ := a.Bounds(pa)
	bb, _ := b.Bounds(pb)
	ox := math.Min(ba.Max[0], bb.Max[0]) - math.Max(ba.Min[0], bb.Min[0])
	oy := math.Min(ba.Max[1], bb.Max[1]) - math.Max(ba.Min[1], bb.Min[1])
	return math.Min(ox, oy)
}

// boxPlaneDistance returns the signed distance from the plane to the box's
// corner deepest along -Normal.
func boxPlaneDistance(pa mgl64.Vec2, a Box, pp mgl64.Vec2, p HalfPlane) float64 {
	return support(pa, a, p.Normal.Mul(-1)).Sub(pp).Dot(p.Normal)
}

// support returns the corner of the placed box furthest along dir.
func support(pos mgl64.Vec2, b Box, dir mgl64.Vec2) mgl64.Vec2 {
	s := pos
	if dir[0] > 0 {
		s[0] += b.Width
	}
	if dir[1] > 0 {
		s[1] += b.Height
	}
	return s
}

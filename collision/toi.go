package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// TimeOfImpact returns the fraction t in [0, 1] of the motion at which shape
// a, starting at pa and moving by va, first touches shape b, starting at pb
// and moving by vb. Shapes already in contact yield 0. ok is false when they
// never touch within the motion.
func TimeOfImpact(pa, va mgl64.Vec2, a Shape, pb, vb mgl64.Vec2, b Shape) (t float64, ok bool) {
	if Penetration(pa, a, pb, b) > Epsilon {
		return 0, true
	}
	rel := va.Sub(vb)
	switch sa := a.(type) {
	case Box:
		switch sb := b.(type) {
		case Box:
			return sweepBoxBox(pa, sa, pb, sb, rel)
		case HalfPlane:
			return sweepBoxPlane(pa, sa, pb, sb, rel)
		}
	case HalfPlane:
		if sb, ok := b.(Box); ok {
			return sweepBoxPlane(pb, sb, pa, sa, rel.Mul(-1))
		}
	}
	return 0, false
}

// sweepBoxBox runs the slab test for box a moving by v against a static b.
func sweepBoxBox(pa mgl64.Vec2, a Box, pb mgl64.Vec2, b Box, v mgl64.Vec2) (float64, bool) {
	ba, _ := a.Bounds(pa)
	bb, _ := b.Bounds(pb)
	enter, exit := math.Inf(-1), math.Inf(1)
	for i := 0; i < 2; i++ {
		if v[i] == 0 {
			if ba.Max[i] <= bb.Min[i] || ba.Min[i] >= bb.Max[i] {
				return 0, false
			}
			continue
		}
		t0 := (bb.Min[i] - ba.Max[i]) / v[i]
		t1 := (bb.Max[i] - ba.Min[i]) / v[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		enter = math.Max(enter, t0)
		exit = math.Min(exit, t1)
	}
	if enter >= exit || enter > 1 || exit <= 0 {
		return 0, false
	}
	return clamp01(enter), true
}

// sweepBoxPlane finds when the deepest corner of box a, moving by v, reaches
// the plane.
func sweepBoxPlane(pa mgl64.Vec2, a Box, pp mgl64.Vec2, p HalfPlane, v mgl64.Vec2) (float64, bool) {
	d := boxPlaneDistance(pa, a, pp, p)
	vn := v.Dot(p.Normal)
	if vn >= 0 {
		return 0, false
	}
	t := d / -vn
	if t > 1 {
		return 0, false
	}
	return clamp01(t), true
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

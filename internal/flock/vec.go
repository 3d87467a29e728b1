package flock

import "math"

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X float64
	Y float64
}

// Add returns v + u.
func (v Vec2) Add(u Vec2) Vec2 { return Vec2{v.X + u.X, v.Y + u.Y} }

// Sub returns v - u.
func (v Vec2) Sub(u Vec2) Vec2 { return Vec2{v.X - u.X, v.Y - u.Y} }

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Dot returns the dot product of v and u.
func (v Vec2) Dot(u Vec2) float64 { return v.X*u.X + v.Y*u.Y }

// Len returns the magnitude of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Finite reports whether both components are finite numbers.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// minNormLen is the smallest magnitude Normalize will accept.
const minNormLen = 1e-12

// Normalize returns v scaled to unit length. ok is false when v is too short
// (or non-finite) to have a direction; callers must then keep a known heading.
func Normalize(v Vec2) (u Vec2, ok bool) {
	n := v.Len()
	if n < minNormLen || math.IsNaN(n) || math.IsInf(n, 0) {
		return Vec2{}, false
	}
	return Vec2{v.X / n, v.Y / n}, true
}

// HeadingAngle returns the angle of v from the +x axis in degrees, in [0, 360).
// The zero vector has heading 0.
func HeadingAngle(v Vec2) float64 {
	deg := math.Atan2(v.Y, v.X) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// WrapDelta returns the toroidal displacement from a to b along an axis of
// length extent, choosing the shorter of the direct and wraparound paths.
// The result lies in (-extent/2, extent/2].
func WrapDelta(a, b, extent float64) float64 {
	d := math.Mod(b-a, extent)
	if 2*d <= -extent {
		d += extent
	} else if 2*d > extent {
		d -= extent
	}
	return d
}

// Wrap maps x into [-extent/2, extent/2), shifting by whole multiples of extent.
func Wrap(x, extent float64) float64 {
	h := extent / 2
	x = math.Mod(x+h, extent)
	if x < 0 {
		x += extent
	}
	x -= h
	// x+h may round up to exactly extent.
	if x >= h {
		x = -h
	}
	return x
}

// Displacement returns the toroidal vector from a to b in a width x height world.
func Displacement(a, b Vec2, width, height float64) Vec2 {
	return Vec2{WrapDelta(a.X, b.X, width), WrapDelta(a.Y, b.Y, height)}
}

// angleBetween returns the unsigned angle between u and v in degrees, [0, 180].
// Both vectors must be non-zero.
func angleBetween(u, v Vec2) float64 {
	cos := u.Dot(v) / (u.Len() * v.Len())
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

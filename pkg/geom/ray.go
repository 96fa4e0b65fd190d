package geom

import (
	gomath "math"

	"github.com/Faultbox/midgard-octree/pkg/math"
)

// Infinity is the hit distance reported for a miss.
var Infinity = float32(gomath.Inf(1))

// Ray is a half-line with a normalized direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// NewRay creates a ray, normalizing direction.
func NewRay(origin, direction math.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// Point returns the point at distance t along the ray.
func (r Ray) Point(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// HitDistance returns the distance along the ray to the first point of box.
// It is zero when the origin is inside the box and Infinity when the ray
// misses or the box is undefined.
func (r Ray) HitDistance(box BoundingBox) float32 {
	if !box.Defined() {
		return Infinity
	}
	if box.IsInsidePoint(r.Origin) == Inside {
		return 0
	}

	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)
	for i := 0; i < 3; i++ {
		o := r.Origin.Component(i)
		d := r.Direction.Component(i)
		lo, hi := box.Min.Component(i), box.Max.Component(i)
		if d == 0 {
			if o < lo || o > hi {
				return Infinity
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return Infinity
	}
	if tmin < 0 {
		return 0
	}
	return tmin
}

// HitDistanceSphere returns the distance to the first point of s, zero when
// the origin is inside and Infinity on a miss.
func (r Ray) HitDistanceSphere(s Sphere) float32 {
	if !s.Defined() {
		return Infinity
	}
	centeredOrigin := r.Origin.Sub(s.Center)
	squaredRadius := s.Radius * s.Radius
	if centeredOrigin.LengthSquared() <= squaredRadius {
		return 0
	}

	b := 2 * centeredOrigin.Dot(r.Direction)
	c := centeredOrigin.LengthSquared() - squaredRadius
	d := b*b - 4*c
	if d < 0 {
		return Infinity
	}
	dSqrt := float32(gomath.Sqrt(float64(d)))
	dist := (-b - dSqrt) / 2
	if dist >= 0 {
		return dist
	}
	dist = (-b + dSqrt) / 2
	if dist >= 0 {
		return dist
	}
	return Infinity
}

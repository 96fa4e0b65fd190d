package geom

import "github.com/Faultbox/midgard-octree/pkg/math"

// Sphere is a bounding sphere. A negative radius marks an undefined sphere.
type Sphere struct {
	Center math.Vec3
	Radius float32
}

// Defined reports whether the sphere has a non-negative radius.
func (s Sphere) Defined() bool {
	return s.Radius >= 0
}

// IsInsidePoint reports whether p lies strictly inside the sphere.
func (s Sphere) IsInsidePoint(p math.Vec3) Intersection {
	if p.Sub(s.Center).LengthSquared() < s.Radius*s.Radius {
		return Inside
	}
	return Outside
}

// IsInsideSphere tests another sphere. Touching spheres are outside.
func (s Sphere) IsInsideSphere(other Sphere) Intersection {
	dist := other.Center.Distance(s.Center)
	if dist >= other.Radius+s.Radius {
		return Outside
	}
	if dist+other.Radius < s.Radius {
		return Inside
	}
	return Intersects
}

// IsInside tests a box against the sphere. The box is inside only when all
// eight corners are strictly inside.
func (s Sphere) IsInside(box BoundingBox) Intersection {
	if !s.Defined() || !box.Defined() {
		return Outside
	}
	radiusSquared := s.Radius * s.Radius
	if closestDistanceSquared(s.Center, box) >= radiusSquared {
		return Outside
	}

	lo := box.Min.Sub(s.Center)
	hi := box.Max.Sub(s.Center)
	for i := 0; i < 8; i++ {
		corner := lo
		if i&1 != 0 {
			corner.X = hi.X
		}
		if i&2 != 0 {
			corner.Y = hi.Y
		}
		if i&4 != 0 {
			corner.Z = hi.Z
		}
		if corner.LengthSquared() >= radiusSquared {
			return Intersects
		}
	}
	return Inside
}

// IsInsideFast is IsInside without distinguishing Intersects from Inside.
func (s Sphere) IsInsideFast(box BoundingBox) Intersection {
	if !s.Defined() || !box.Defined() {
		return Outside
	}
	if closestDistanceSquared(s.Center, box) >= s.Radius*s.Radius {
		return Outside
	}
	return Inside
}

// closestDistanceSquared returns the squared distance from p to the nearest
// point of box, or zero when p is inside.
func closestDistanceSquared(p math.Vec3, box BoundingBox) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		c := p.Component(i)
		if lo := box.Min.Component(i); c < lo {
			d += (c - lo) * (c - lo)
		} else if hi := box.Max.Component(i); c > hi {
			d += (c - hi) * (c - hi)
		}
	}
	return d
}

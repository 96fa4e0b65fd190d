package geom

import "github.com/Faultbox/midgard-octree/pkg/math"

// Plane is the half-space Normal·p + D >= 0. The normal points into the
// positive side.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// NewPlane creates a plane from a normal and a point on it.
func NewPlane(normal, point math.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, D: -n.Dot(point)}
}

// planeFromCoefficients normalizes ax + by + cz + d = 0.
func planeFromCoefficients(a, b, c, d float32) Plane {
	n := math.Vec3{X: a, Y: b, Z: c}
	l := n.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Scale(1 / l), D: d / l}
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(point math.Vec3) float32 {
	return p.Normal.Dot(point) + p.D
}

package geom

import "github.com/Faultbox/midgard-octree/pkg/math"

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// Frustum is a convex volume bounded by six planes whose normals point
// inward.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the frustum of a column-major view-projection
// matrix using the Gribb/Hartmann method.
func FrustumFromMatrix(viewProj math.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)

	var f Frustum
	f.Planes[FrustumLeft] = planeFromCoefficients(r3[0]+r0[0], r3[1]+r0[1], r3[2]+r0[2], r3[3]+r0[3])
	f.Planes[FrustumRight] = planeFromCoefficients(r3[0]-r0[0], r3[1]-r0[1], r3[2]-r0[2], r3[3]-r0[3])
	f.Planes[FrustumBottom] = planeFromCoefficients(r3[0]+r1[0], r3[1]+r1[1], r3[2]+r1[2], r3[3]+r1[3])
	f.Planes[FrustumTop] = planeFromCoefficients(r3[0]-r1[0], r3[1]-r1[1], r3[2]-r1[2], r3[3]-r1[3])
	f.Planes[FrustumNear] = planeFromCoefficients(r3[0]+r2[0], r3[1]+r2[1], r3[2]+r2[2], r3[3]+r2[3])
	f.Planes[FrustumFar] = planeFromCoefficients(r3[0]-r2[0], r3[1]-r2[1], r3[2]-r2[2], r3[3]-r2[3])
	return f
}

// FrustumFromBox returns the frustum whose planes are the faces of box.
func FrustumFromBox(box BoundingBox) Frustum {
	var f Frustum
	f.Planes[FrustumLeft] = NewPlane(math.Vec3X, box.Min)
	f.Planes[FrustumRight] = NewPlane(math.Vec3X.Scale(-1), box.Max)
	f.Planes[FrustumBottom] = NewPlane(math.Vec3Y, box.Min)
	f.Planes[FrustumTop] = NewPlane(math.Vec3Y.Scale(-1), box.Max)
	f.Planes[FrustumNear] = NewPlane(math.Vec3Z, box.Min)
	f.Planes[FrustumFar] = NewPlane(math.Vec3Z.Scale(-1), box.Max)
	return f
}

// IsInsidePoint reports whether p is on the inner side of every plane.
func (f *Frustum) IsInsidePoint(p math.Vec3) Intersection {
	for i := range f.Planes {
		if f.Planes[i].Distance(p) < 0 {
			return Outside
		}
	}
	return Inside
}

// IsInsideSphere tests a sphere against the frustum.
func (f *Frustum) IsInsideSphere(s Sphere) Intersection {
	allInside := true
	for i := range f.Planes {
		dist := f.Planes[i].Distance(s.Center)
		if dist < -s.Radius {
			return Outside
		}
		if dist < s.Radius {
			allInside = false
		}
	}
	if allInside {
		return Inside
	}
	return Intersects
}

// IsInside tests a box against the frustum. Boxes near frustum corners may
// be reported as intersecting although they are outside; they are never
// reported outside when they overlap.
func (f *Frustum) IsInside(box BoundingBox) Intersection {
	if !box.Defined() {
		return Outside
	}
	center := box.Center()
	edge := box.HalfSize()
	allInside := true
	for i := range f.Planes {
		p := &f.Planes[i]
		dist := p.Distance(center)
		absDist := p.Normal.Abs().Dot(edge)
		if dist < -absDist {
			return Outside
		}
		if dist < absDist {
			allInside = false
		}
	}
	if allInside {
		return Inside
	}
	return Intersects
}

// IsInsideFast is IsInside without distinguishing Intersects from Inside.
func (f *Frustum) IsInsideFast(box BoundingBox) Intersection {
	if !box.Defined() {
		return Outside
	}
	center := box.Center()
	edge := box.HalfSize()
	for i := range f.Planes {
		p := &f.Planes[i]
		if p.Distance(center) < -p.Normal.Abs().Dot(edge) {
			return Outside
		}
	}
	return Inside
}

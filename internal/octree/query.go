package octree

import (
	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// VolumeQuery visits the octree. TestOctant classifies an octant's culling
// box against the query volume; inside is true when an ancestor was already
// found fully inside. TestDrawables receives the drawables of every octant
// not classified Outside.
type VolumeQuery interface {
	Reset()
	TestOctant(box geom.BoundingBox, inside bool) geom.Intersection
	TestDrawables(drawables []Drawable, inside bool)
}

// PointQuery collects drawables whose box contains Point.
type PointQuery struct {
	Point    math.Vec3
	Flags    Flags
	ViewMask uint32
	Result   []Drawable
}

func NewPointQuery(p math.Vec3, flags Flags) *PointQuery {
	return &PointQuery{Point: p, Flags: flags, ViewMask: DefaultViewMask}
}

func (q *PointQuery) Reset() {
	q.Result = q.Result[:0]
}

// TestOctant never reports Inside: an octant containing the point says
// nothing about its drawables.
func (q *PointQuery) TestOctant(box geom.BoundingBox, _ bool) geom.Intersection {
	if box.IsInsidePoint(q.Point) == geom.Outside {
		return geom.Outside
	}
	return geom.Intersects
}

func (q *PointQuery) TestDrawables(drawables []Drawable, _ bool) {
	for _, d := range drawables {
		if matches(d, q.Flags, q.ViewMask) && d.WorldBoundingBox().IsInsidePoint(q.Point) != geom.Outside {
			q.Result = append(q.Result, d)
		}
	}
}

// BoxQuery collects drawables whose box overlaps Box.
type BoxQuery struct {
	Box      geom.BoundingBox
	Flags    Flags
	ViewMask uint32
	Result   []Drawable
}

func NewBoxQuery(box geom.BoundingBox, flags Flags) *BoxQuery {
	return &BoxQuery{Box: box, Flags: flags, ViewMask: DefaultViewMask}
}

func (q *BoxQuery) Reset() {
	q.Result = q.Result[:0]
}

func (q *BoxQuery) TestOctant(box geom.BoundingBox, inside bool) geom.Intersection {
	if inside {
		return geom.Inside
	}
	return q.Box.IsInside(box)
}

func (q *BoxQuery) TestDrawables(drawables []Drawable, inside bool) {
	for _, d := range drawables {
		if !matches(d, q.Flags, q.ViewMask) {
			continue
		}
		if inside || q.Box.IsInsideFast(d.WorldBoundingBox()) != geom.Outside {
			q.Result = append(q.Result, d)
		}
	}
}

// SphereQuery collects drawables whose box overlaps Sphere.
type SphereQuery struct {
	Sphere   geom.Sphere
	Flags    Flags
	ViewMask uint32
	Result   []Drawable
}

func NewSphereQuery(s geom.Sphere, flags Flags) *SphereQuery {
	return &SphereQuery{Sphere: s, Flags: flags, ViewMask: DefaultViewMask}
}

func (q *SphereQuery) Reset() {
	q.Result = q.Result[:0]
}

func (q *SphereQuery) TestOctant(box geom.BoundingBox, inside bool) geom.Intersection {
	if inside {
		return geom.Inside
	}
	return q.Sphere.IsInside(box)
}

func (q *SphereQuery) TestDrawables(drawables []Drawable, inside bool) {
	for _, d := range drawables {
		if !matches(d, q.Flags, q.ViewMask) {
			continue
		}
		if inside || q.Sphere.IsInsideFast(d.WorldBoundingBox()) != geom.Outside {
			q.Result = append(q.Result, d)
		}
	}
}

// FrustumQuery collects drawables whose box may be visible in Frustum.
// Boxes near frustum corners can be reported although they are outside.
type FrustumQuery struct {
	Frustum  geom.Frustum
	Flags    Flags
	ViewMask uint32
	Result   []Drawable
}

func NewFrustumQuery(f geom.Frustum, flags Flags) *FrustumQuery {
	return &FrustumQuery{Frustum: f, Flags: flags, ViewMask: DefaultViewMask}
}

func (q *FrustumQuery) Reset() {
	q.Result = q.Result[:0]
}

func (q *FrustumQuery) TestOctant(box geom.BoundingBox, inside bool) geom.Intersection {
	if inside {
		return geom.Inside
	}
	return q.Frustum.IsInside(box)
}

func (q *FrustumQuery) TestDrawables(drawables []Drawable, inside bool) {
	for _, d := range drawables {
		if !matches(d, q.Flags, q.ViewMask) {
			continue
		}
		if inside || q.Frustum.IsInsideFast(d.WorldBoundingBox()) != geom.Outside {
			q.Result = append(q.Result, d)
		}
	}
}

// AllContentQuery collects every drawable that passes the filter.
type AllContentQuery struct {
	Flags    Flags
	ViewMask uint32
	Result   []Drawable
}

func NewAllContentQuery(flags Flags) *AllContentQuery {
	return &AllContentQuery{Flags: flags, ViewMask: DefaultViewMask}
}

func (q *AllContentQuery) Reset() {
	q.Result = q.Result[:0]
}

func (q *AllContentQuery) TestOctant(geom.BoundingBox, bool) geom.Intersection {
	return geom.Inside
}

func (q *AllContentQuery) TestDrawables(drawables []Drawable, _ bool) {
	for _, d := range drawables {
		if matches(d, q.Flags, q.ViewMask) {
			q.Result = append(q.Result, d)
		}
	}
}

func queryKind(q VolumeQuery) string {
	switch q.(type) {
	case *PointQuery:
		return "point"
	case *BoxQuery:
		return "box"
	case *SphereQuery:
		return "sphere"
	case *FrustumQuery:
		return "frustum"
	case *AllContentQuery:
		return "all"
	default:
		return "custom"
	}
}

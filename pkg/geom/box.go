package geom

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-octree/pkg/math"
)

// BoundingBox is an axis-aligned bounding box.
type BoundingBox struct {
	Min math.Vec3
	Max math.Vec3
}

// NewBox creates a box from two corners, swapping components so that
// Min <= Max on every axis.
func NewBox(a, b math.Vec3) BoundingBox {
	return BoundingBox{Min: a.Min(b), Max: a.Max(b)}
}

// BoxFromCenterSize creates a box from its center and full size.
func BoxFromCenterSize(center, size math.Vec3) BoundingBox {
	half := size.Abs().Scale(0.5)
	return BoundingBox{Min: center.Sub(half), Max: center.Add(half)}
}

// CubeBox creates a box spanning [-halfSize, halfSize] on every axis.
func CubeBox(halfSize float32) BoundingBox {
	return BoundingBox{Min: math.Splat(-halfSize), Max: math.Splat(halfSize)}
}

// EmptyBox returns an undefined box that merges as the identity.
func EmptyBox() BoundingBox {
	return BoundingBox{
		Min: math.Splat(gomath.MaxFloat32),
		Max: math.Splat(-gomath.MaxFloat32),
	}
}

// Defined reports whether Min <= Max on every axis.
// Zero-size boxes are defined.
func (b BoundingBox) Defined() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Center returns the box center.
func (b BoundingBox) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the full extent along each axis.
func (b BoundingBox) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// HalfSize returns half the extent along each axis.
func (b BoundingBox) HalfSize() math.Vec3 {
	return b.Size().Scale(0.5)
}

// Expanded returns the box grown by v on every side.
func (b BoundingBox) Expanded(v math.Vec3) BoundingBox {
	return BoundingBox{Min: b.Min.Sub(v), Max: b.Max.Add(v)}
}

// Translated returns the box moved by offset.
func (b BoundingBox) Translated(offset math.Vec3) BoundingBox {
	return BoundingBox{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

// Merge returns the smallest box enclosing both boxes.
func (b BoundingBox) Merge(other BoundingBox) BoundingBox {
	if !other.Defined() {
		return b
	}
	if !b.Defined() {
		return other
	}
	return BoundingBox{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// MergePoint returns the smallest box enclosing b and p.
func (b BoundingBox) MergePoint(p math.Vec3) BoundingBox {
	if !b.Defined() {
		return BoundingBox{Min: p, Max: p}
	}
	return BoundingBox{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Transformed returns the world-space box enclosing b after transforming it
// by m. Rotation grows the box to keep it axis-aligned.
func (b BoundingBox) Transformed(m math.Mat4) BoundingBox {
	if !b.Defined() {
		return b
	}
	center := m.TransformVec3(b.Center())
	edge := m.AbsRotation().TransformDirection(b.HalfSize())
	return BoundingBox{Min: center.Sub(edge), Max: center.Add(edge)}
}

// IsInsidePoint reports whether p lies inside the box (boundary included).
func (b BoundingBox) IsInsidePoint(p math.Vec3) Intersection {
	if p.X < b.Min.X || p.X > b.Max.X ||
		p.Y < b.Min.Y || p.Y > b.Max.Y ||
		p.Z < b.Min.Z || p.Z > b.Max.Z {
		return Outside
	}
	return Inside
}

// IsInside tests whether other is outside, intersecting or fully inside b.
func (b BoundingBox) IsInside(other BoundingBox) Intersection {
	if !b.Defined() || !other.Defined() {
		return Outside
	}
	if other.Max.X < b.Min.X || other.Min.X > b.Max.X ||
		other.Max.Y < b.Min.Y || other.Min.Y > b.Max.Y ||
		other.Max.Z < b.Min.Z || other.Min.Z > b.Max.Z {
		return Outside
	}
	if other.Min.X < b.Min.X || other.Max.X > b.Max.X ||
		other.Min.Y < b.Min.Y || other.Max.Y > b.Max.Y ||
		other.Min.Z < b.Min.Z || other.Max.Z > b.Max.Z {
		return Intersects
	}
	return Inside
}

// IsInsideFast is IsInside without distinguishing Intersects from Inside.
func (b BoundingBox) IsInsideFast(other BoundingBox) Intersection {
	if !b.Defined() || !other.Defined() {
		return Outside
	}
	if other.Max.X < b.Min.X || other.Min.X > b.Max.X ||
		other.Max.Y < b.Min.Y || other.Min.Y > b.Max.Y ||
		other.Max.Z < b.Min.Z || other.Min.Z > b.Max.Z {
		return Outside
	}
	return Inside
}

// Intersects reports whether the two boxes overlap (touching counts).
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.IsInsideFast(other) != Outside
}

// IsInsideSphere tests a sphere against the box.
func (b BoundingBox) IsInsideSphere(s Sphere) Intersection {
	if !b.Defined() {
		return Outside
	}
	distSquared := closestDistanceSquared(s.Center, b)
	if distSquared >= s.Radius*s.Radius {
		return Outside
	}
	if s.Center.X-s.Radius < b.Min.X || s.Center.X+s.Radius > b.Max.X ||
		s.Center.Y-s.Radius < b.Min.Y || s.Center.Y+s.Radius > b.Max.Y ||
		s.Center.Z-s.Radius < b.Min.Z || s.Center.Z+s.Radius > b.Max.Z {
		return Intersects
	}
	return Inside
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%g %g %g)-(%g %g %g)", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

// Package drawable provides the concrete objects kept in the octree:
// static models, point lights and animated movers.
package drawable

import (
	"github.com/Faultbox/midgard-octree/internal/octree"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// Transform places an object in the world.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// NewTransform returns an unrotated, unscaled transform at position.
func NewTransform(position math.Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3One,
	}
}

// Matrix returns translation * rotation * scale.
func (t Transform) Matrix() math.Mat4 {
	return math.Translate(t.Position.X, t.Position.Y, t.Position.Z).
		Mul(t.Rotation.ToMat4()).
		Mul(math.Scale(t.Scale.X, t.Scale.Y, t.Scale.Z))
}

// base carries the octree slot and the query filter shared by all drawables.
type base struct {
	octree.Slot
	name     string
	flags    octree.Flags
	viewMask uint32
}

func newBase(name string, flags octree.Flags) base {
	return base{name: name, flags: flags, viewMask: octree.DefaultViewMask}
}

func (b *base) Name() string { return b.name }
func (b *base) DrawableFlags() octree.Flags { return b.flags }
func (b *base) ViewMask() uint32 { return b.viewMask }
func (b *base) SetViewMask(mask uint32) { b.viewMask = mask }
func (b *base) SetDrawableFlags(f octree.Flags) { b.flags = f }

// markForUpdate queues d in its octree, if it has one.
func markForUpdate(d octree.Drawable) {
	if t := d.OctreeSlot().Octree(); t != nil {
		t.QueueUpdate(d)
	}
}

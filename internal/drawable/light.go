package drawable

import (
	"github.com/Faultbox/midgard-octree/internal/octree"
	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// Light is a point light. Lights are never occludees, so the octree keeps
// them in the root.
type Light struct {
	base

	position math.Vec3
	radius   float32
	Color    [3]float32
}

// NewPointLight creates a white light reaching radius units from position.
func NewPointLight(name string, position math.Vec3, radius float32) *Light {
	return &Light{
		base:     newBase(name, octree.FlagLight),
		position: position,
		radius:   max(radius, 0),
		Color:    [3]float32{1, 1, 1},
	}
}

func (l *Light) Position() math.Vec3 { return l.position }
func (l *Light) Radius() float32 { return l.radius }

// SetPosition moves the light and queues it for update.
func (l *Light) SetPosition(p math.Vec3) {
	l.position = p
	markForUpdate(l)
}

// SetRadius changes the light range and queues it for update.
func (l *Light) SetRadius(radius float32) {
	l.radius = max(radius, 0)
	markForUpdate(l)
}

// Sphere returns the lit volume.
func (l *Light) Sphere() geom.Sphere {
	return geom.Sphere{Center: l.position, Radius: l.radius}
}

func (l *Light) WorldBoundingBox() geom.BoundingBox {
	return geom.BoxFromCenterSize(l.position, math.Splat(2*l.radius))
}

func (l *Light) IsOccludee() bool { return false }

func (l *Light) Update(*octree.FrameInfo) {}

// ProcessRayQuery hits the light's box for RayAABB queries and its sphere
// otherwise.
func (l *Light) ProcessRayQuery(q *octree.RayQuery, results []octree.RayQueryResult) []octree.RayQueryResult {
	var dist float32
	if q.Level == octree.RayAABB {
		dist = q.Ray.HitDistance(l.WorldBoundingBox())
	} else {
		dist = q.Ray.HitDistanceSphere(l.Sphere())
	}
	if dist >= q.MaxDistance {
		return results
	}
	return append(results, octree.RayQueryResult{
		Position: q.Ray.Point(dist),
		Distance: dist,
		Drawable: l,
	})
}

package drawable

import (
	"github.com/Faultbox/midgard-octree/internal/octree"
	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// StaticModel is a geometry object with a fixed local bounding box. It only
// needs an update when its transform changes.
type StaticModel struct {
	base

	local     geom.BoundingBox
	transform Transform
	world     geom.BoundingBox
	inverse   math.Mat4
	occludee  bool
}

// NewStaticModel creates a model whose local-space bounds are local.
func NewStaticModel(name string, local geom.BoundingBox, transform Transform) *StaticModel {
	m := &StaticModel{
		base:     newBase(name, octree.FlagGeometry),
		local:    local,
		occludee: true,
	}
	m.setTransform(transform)
	return m
}

func (m *StaticModel) setTransform(transform Transform) {
	m.transform = transform
	matrix := transform.Matrix()
	m.world = m.local.Transformed(matrix)
	m.inverse = matrix.Inverse()
}

// SetTransform moves the model and queues it for reinsertion.
func (m *StaticModel) SetTransform(transform Transform) {
	m.setTransform(transform)
	markForUpdate(m)
}

func (m *StaticModel) Transform() Transform { return m.transform }
func (m *StaticModel) LocalBoundingBox() geom.BoundingBox { return m.local }
func (m *StaticModel) WorldBoundingBox() geom.BoundingBox { return m.world }
func (m *StaticModel) IsOccludee() bool { return m.occludee }

// SetOccludee controls whether the model may be culled by the tree.
func (m *StaticModel) SetOccludee(occludee bool) {
	m.occludee = occludee
	markForUpdate(m)
}

// Update does nothing: the world box is recomputed when the transform is set.
func (m *StaticModel) Update(*octree.FrameInfo) {}

// ProcessRayQuery tests the world box, and for finer levels the local box
// in model space.
func (m *StaticModel) ProcessRayQuery(q *octree.RayQuery, results []octree.RayQueryResult) []octree.RayQueryResult {
	dist := q.Ray.HitDistance(m.world)
	if dist >= q.MaxDistance {
		return results
	}

	if q.Level != octree.RayAABB {
		dir := m.inverse.TransformDirection(q.Ray.Direction)
		scale := dir.Length()
		if scale == 0 {
			return results
		}
		local := geom.Ray{
			Origin:    m.inverse.TransformVec3(q.Ray.Origin),
			Direction: dir.Scale(1 / scale),
		}
		dist = local.HitDistance(m.local) / scale
		if dist >= q.MaxDistance {
			return results
		}
	}

	return append(results, octree.RayQueryResult{
		Position: q.Ray.Point(dist),
		Distance: dist,
		Drawable: m,
	})
}

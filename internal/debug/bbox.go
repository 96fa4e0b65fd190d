// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/Faultbox/midgard-octree/internal/octree"
	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// BoxWireframeVertexCount is the number of vertices for a box wireframe (12 edges × 2).
const BoxWireframeVertexCount = 24

// DefaultBoxPadding is the default padding for selection boxes.
const DefaultBoxPadding = 1.0

// AppendBoxWireframe appends line vertices for a wireframe box to dst,
// format: [x, y, z] per vertex. Undefined boxes are skipped.
func AppendBoxWireframe(dst []float32, box geom.BoundingBox) []float32 {
	if !box.Defined() {
		return dst
	}
	minX, minY, minZ := box.Min.X, box.Min.Y, box.Min.Z
	maxX, maxY, maxZ := box.Max.X, box.Max.Y, box.Max.Z
	return append(dst,
		// Bottom face (4 edges)
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face (4 edges)
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges (4 edges)
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	)
}

// BoxWireframe returns the 24 line vertices of box.
func BoxWireframe(box geom.BoundingBox) []float32 {
	return AppendBoxWireframe(make([]float32, 0, BoxWireframeVertexCount*3), box)
}

// OctreeWireframe returns line vertices for every octant region visible in
// frustum, or for all octants when frustum is nil.
func OctreeWireframe(tree *octree.Octree, frustum *geom.Frustum) []float32 {
	boxes := tree.DebugBoxes(frustum)
	vertices := make([]float32, 0, len(boxes)*BoxWireframeVertexCount*3)
	for _, box := range boxes {
		vertices = AppendBoxWireframe(vertices, box)
	}
	return vertices
}

// DrawablesWireframe returns selection boxes around drawables, each
// expanded by padding on all sides.
func DrawablesWireframe(drawables []octree.Drawable, padding float32) []float32 {
	vertices := make([]float32, 0, len(drawables)*BoxWireframeVertexCount*3)
	pad := math.Splat(padding)
	for _, d := range drawables {
		vertices = AppendBoxWireframe(vertices, d.WorldBoundingBox().Expanded(pad))
	}
	return vertices
}

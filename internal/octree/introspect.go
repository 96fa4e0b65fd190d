package octree

import (
	"github.com/Faultbox/midgard-octree/pkg/geom"
)

// OctantInfo is a read-only snapshot of one octant.
type OctantInfo struct {
	Region     geom.BoundingBox
	CullingBox geom.BoundingBox
	Level      int
	// Drawables held directly by the octant.
	Drawables int
	// Drawables held by the octant and all of its descendants.
	SubtreeDrawables int
	Children         int
}

// Stats summarises the tree shape.
type Stats struct {
	Name          string  `json:"name"`
	Octants       int     `json:"octants"`
	Drawables     int     `json:"drawables"`
	QueuedUpdates int     `json:"queued_updates"`
	MaxDepth      int     `json:"max_depth"`
	DeepestLevel  int     `json:"deepest_level"`
	RootDrawables int     `json:"root_drawables"`
	PerLevel      []Level `json:"per_level"`
}

// Level holds per-depth counts.
type Level struct {
	Octants   int `json:"octants"`
	Drawables int `json:"drawables"`
}

func (t *Octree) info(id octantID) OctantInfo {
	o := t.octant(id)
	children := 0
	for _, c := range o.children {
		if c != noOctant {
			children++
		}
	}
	return OctantInfo{
		Region:           o.region,
		CullingBox:       o.cullingBox,
		Level:            o.level,
		Drawables:        len(o.objects),
		SubtreeDrawables: o.numDrawables,
		Children:         children,
	}
}

// Walk visits octants depth first, parents before children. Returning false
// from fn skips the octant's children.
func (t *Octree) Walk(fn func(OctantInfo) bool) {
	t.walk(rootOctant, fn)
}

func (t *Octree) walk(id octantID, fn func(OctantInfo) bool) {
	if !fn(t.info(id)) {
		return
	}
	for _, c := range t.octant(id).children {
		if c != noOctant {
			t.walk(c, fn)
		}
	}
}

// OctantOf returns the octant holding d, or false when d is not in this tree.
func (t *Octree) OctantOf(d Drawable) (OctantInfo, bool) {
	slot := d.OctreeSlot()
	if slot.tree != t || slot.octant == noOctant {
		return OctantInfo{}, false
	}
	return t.info(slot.octant), true
}

// Stats returns counts describing the current tree.
func (t *Octree) Stats() Stats {
	s := Stats{
		Name:          t.name,
		Octants:       t.numOctants,
		Drawables:     t.NumDrawables(),
		QueuedUpdates: len(t.updateQueue),
		MaxDepth:      t.maxDepth,
		RootDrawables: len(t.octants[rootOctant].objects),
		PerLevel:      make([]Level, t.maxDepth+1),
	}
	t.Walk(func(o OctantInfo) bool {
		s.PerLevel[o.Level].Octants++
		s.PerLevel[o.Level].Drawables += o.Drawables
		s.DeepestLevel = max(s.DeepestLevel, o.Level)
		return true
	})
	return s
}

// DebugBoxes returns the regions of every octant visible in frustum, or of
// all octants when frustum is nil.
func (t *Octree) DebugBoxes(frustum *geom.Frustum) []geom.BoundingBox {
	var boxes []geom.BoundingBox
	t.Walk(func(o OctantInfo) bool {
		if frustum != nil && frustum.IsInsideFast(o.Region) == geom.Outside {
			return false
		}
		boxes = append(boxes, o.Region)
		return true
	})
	return boxes
}

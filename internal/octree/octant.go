package octree

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// octantID addresses an octant in the tree's arena. IDs stay valid until
// the octant is freed; freed IDs are reused.
type octantID int32

const (
	noOctant   octantID = -1
	rootOctant octantID = 0
)

// Octant indices: bit 0 selects the +X half, bit 1 +Y, bit 2 +Z.
const numOctants = 8

type octant struct {
	region     geom.BoundingBox
	cullingBox geom.BoundingBox
	center     math.Vec3
	halfSize   math.Vec3
	level      int

	parent   octantID
	index    int
	children [numOctants]octantID

	objects []Drawable
	// count of drawables in this octant and all of its descendants
	numDrawables int
	inUse        bool
}

func (o *octant) init(region geom.BoundingBox, level int, parent octantID, index int) {
	o.region = region
	o.center = region.Center()
	o.halfSize = region.HalfSize()
	o.cullingBox = region.Expanded(o.halfSize)
	o.level = level
	o.parent = parent
	o.index = index
	for i := range o.children {
		o.children[i] = noOctant
	}
	o.objects = o.objects[:0]
	o.numDrawables = 0
	o.inUse = true
}

func (o *octant) hasChildren() bool {
	for _, c := range o.children {
		if c != noOctant {
			return true
		}
	}
	return false
}

func (t *Octree) octant(id octantID) *octant {
	return &t.octants[id]
}

// allocOctant returns a free arena slot, reusing freed IDs first.
func (t *Octree) allocOctant() octantID {
	if n := len(t.freeList); n > 0 {
		id := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		return id
	}
	t.octants = append(t.octants, octant{})
	return octantID(len(t.octants) - 1)
}

func (t *Octree) getOrCreateChild(id octantID, index int) octantID {
	if child := t.octants[id].children[index]; child != noOctant {
		return child
	}

	// allocOctant may grow the arena, so take the parent pointer afterwards
	child := t.allocOctant()
	parent := t.octant(id)

	newMin, newMax := parent.region.Min, parent.region.Max
	if index&1 != 0 {
		newMin.X = parent.center.X
	} else {
		newMax.X = parent.center.X
	}
	if index&2 != 0 {
		newMin.Y = parent.center.Y
	} else {
		newMax.Y = parent.center.Y
	}
	if index&4 != 0 {
		newMin.Z = parent.center.Z
	} else {
		newMax.Z = parent.center.Z
	}

	t.octant(child).init(geom.BoundingBox{Min: newMin, Max: newMax}, parent.level+1, id, index)
	parent.children[index] = child
	t.numOctants++
	t.metrics.instrumentOctants(t.numOctants)
	return child
}

// fits reports whether box should be stored in octant id rather than in
// one of its children: the octant is at maximum depth, the box is at least
// half the octant's size on some axis, or the box pokes out of the slack
// that any child's culling box would offer.
func (t *Octree) fits(id octantID, box geom.BoundingBox) bool {
	o := t.octant(id)
	if o.level >= t.maxDepth {
		return true
	}

	size := box.Size()
	if size.X >= o.halfSize.X || size.Y >= o.halfSize.Y || size.Z >= o.halfSize.Z {
		return true
	}

	slack := o.halfSize.Scale(0.5)
	lo := o.region.Min.Sub(slack)
	hi := o.region.Max.Add(slack)
	return box.Min.X <= lo.X || box.Max.X >= hi.X ||
		box.Min.Y <= lo.Y || box.Max.Y >= hi.Y ||
		box.Min.Z <= lo.Z || box.Max.Z >= hi.Z
}

// insertDrawable walks down from octant id to the smallest octant that
// should hold d and moves d there.
func (t *Octree) insertDrawable(id octantID, d Drawable) {
	box := d.WorldBoundingBox()

	for {
		o := t.octant(id)
		var here bool
		if id == rootOctant {
			here = !d.IsOccludee() || o.cullingBox.IsInside(box) != geom.Inside || t.fits(id, box)
		} else {
			here = t.fits(id, box)
		}

		if here {
			slot := d.OctreeSlot()
			old := slot.octant
			if slot.tree != t {
				old = noOctant
			}
			if old != id {
				// add first so the old branch is not pruned away underneath us
				t.addDrawable(id, d)
				if old != noOctant {
					t.removeDrawable(old, d, false)
				}
			}
			if t.verifyInsertion {
				t.verifyContainment(id, box)
			}
			return
		}

		c := box.Center()
		index := 0
		if c.X >= o.center.X {
			index |= 1
		}
		if c.Y >= o.center.Y {
			index |= 2
		}
		if c.Z >= o.center.Z {
			index |= 4
		}
		id = t.getOrCreateChild(id, index)
	}
}

func (t *Octree) verifyContainment(id octantID, box geom.BoundingBox) {
	if id == rootOctant {
		return
	}
	if o := t.octant(id); o.cullingBox.IsInside(box) != geom.Inside {
		t.log.Error("drawable box is not inside its octant culling box",
			zap.Stringer("box", box),
			zap.Stringer("culling_box", o.cullingBox),
			zap.Int("level", o.level))
	}
}

func (t *Octree) addDrawable(id octantID, d Drawable) {
	d.OctreeSlot().attach(t, id)
	o := t.octant(id)
	o.objects = append(o.objects, d)
	t.incDrawableCount(id)
}

// removeDrawable detaches d from octant id. When resetSlot is set the
// drawable's back-reference is cleared as well.
func (t *Octree) removeDrawable(id octantID, d Drawable, resetSlot bool) {
	o := t.octant(id)
	for i, obj := range o.objects {
		if obj != d {
			continue
		}
		last := len(o.objects) - 1
		o.objects[i] = o.objects[last]
		o.objects[last] = nil
		o.objects = o.objects[:last]

		if resetSlot {
			d.OctreeSlot().detach()
		}
		t.decDrawableCount(id)
		return
	}
}

func (t *Octree) incDrawableCount(id octantID) {
	for id != noOctant {
		o := t.octant(id)
		o.numDrawables++
		id = o.parent
	}
}

// decDrawableCount walks up from id, freeing every non-root octant whose
// subtree became empty when pruning is enabled.
func (t *Octree) decDrawableCount(id octantID) {
	for id != noOctant {
		o := t.octant(id)
		o.numDrawables--
		parent := o.parent
		if o.numDrawables == 0 && parent != noOctant && t.pruneEmpty {
			t.deleteChild(parent, o.index)
		}
		id = parent
	}
}

func (t *Octree) deleteChild(parent octantID, index int) {
	child := t.octant(parent).children[index]
	if child == noOctant {
		return
	}
	t.octant(parent).children[index] = noOctant
	t.freeOctant(child)
}

// freeOctant releases id and its whole subtree back to the arena. Drawables
// still held there are moved to the root and queued for update.
func (t *Octree) freeOctant(id octantID) {
	o := t.octant(id)
	for _, child := range o.children {
		if child != noOctant {
			t.freeOctant(child)
		}
	}

	root := t.octant(rootOctant)
	for i, d := range o.objects {
		root.objects = append(root.objects, d)
		d.OctreeSlot().attach(t, rootOctant)
		t.QueueUpdate(d)
		o.objects[i] = nil
	}

	o.objects = o.objects[:0]
	o.numDrawables = 0
	o.inUse = false
	for i := range o.children {
		o.children[i] = noOctant
	}
	t.freeList = append(t.freeList, id)
	t.numOctants--
	t.metrics.instrumentOctants(t.numOctants)
}

// collectDrawables runs a volume query over the subtree rooted at id.
func (t *Octree) collectDrawables(id octantID, q VolumeQuery, inside bool) {
	o := t.octant(id)
	if id != rootOctant {
		res := q.TestOctant(o.cullingBox, inside)
		if res == geom.Outside {
			return
		}
		inside = res == geom.Inside
	}

	if len(o.objects) > 0 {
		q.TestDrawables(o.objects, inside)
	}

	for _, child := range o.children {
		if child != noOctant {
			t.collectDrawables(child, q, inside)
		}
	}
}

// collectRayHits appends every hit in the subtree rooted at id to q.Result.
func (t *Octree) collectRayHits(id octantID, q *RayQuery) {
	o := t.octant(id)
	if q.Ray.HitDistance(o.cullingBox) >= q.MaxDistance {
		return
	}

	for _, d := range o.objects {
		if matches(d, q.Flags, q.ViewMask) {
			q.Result = processRayQuery(d, q, q.Result)
		}
	}

	for _, child := range o.children {
		if child != noOctant {
			t.collectRayHits(child, q)
		}
	}
}

// collectRayCandidates gathers drawables whose octants the ray reaches
// without testing the drawables themselves.
func (t *Octree) collectRayCandidates(id octantID, q *RayQuery, out []Drawable) []Drawable {
	o := t.octant(id)
	if q.Ray.HitDistance(o.cullingBox) >= q.MaxDistance {
		return out
	}

	for _, d := range o.objects {
		if matches(d, q.Flags, q.ViewMask) {
			out = append(out, d)
		}
	}

	for _, child := range o.children {
		if child != noOctant {
			out = t.collectRayCandidates(child, q, out)
		}
	}
	return out
}

package octree

import (
	"sync/atomic"

	"github.com/Faultbox/midgard-octree/pkg/geom"
)

// Flags classifies drawables so queries can select by kind.
type Flags uint8

const (
	FlagGeometry Flags = 1 << iota
	FlagLight
	FlagZone
	FlagGeometry2D
	FlagAny Flags = 0xff
)

// DefaultViewMask matches every view.
const DefaultViewMask uint32 = 0xffffffff

// FrameInfo describes the frame being updated.
type FrameInfo struct {
	FrameNumber uint64
	TimeStep    float32
}

// Drawable is an object managed by the octree. The octree never owns
// drawables; it only keeps references and maintains the Slot.
//
// Update is called from worker goroutines during Octree.Update. It may
// change the drawable's own state, including its bounding box, and may call
// Octree.QueueUpdate on itself, but must not call any other Octree method.
type Drawable interface {
	WorldBoundingBox() geom.BoundingBox
	IsOccludee() bool
	DrawableFlags() Flags
	ViewMask() uint32
	Update(frame *FrameInfo)
	OctreeSlot() *Slot
}

// RayTester is implemented by drawables that refine ray hits beyond their
// bounding box. ProcessRayQuery appends hits closer than q.MaxDistance and
// returns the extended slice. It may run concurrently with other drawables'
// ray tests but never with Update.
type RayTester interface {
	ProcessRayQuery(q *RayQuery, results []RayQueryResult) []RayQueryResult
}

// Slot is the octree's back-reference stored inside a drawable. Embed it by
// value and expose it through OctreeSlot; only the octree writes to it.
type Slot struct {
	tree   *Octree
	octant octantID

	// updateQueued is set while the drawable sits in the main update queue.
	updateQueued atomic.Bool
	// threadedQueued is set while it sits in the lock-protected queue.
	threadedQueued atomic.Bool
}

// OctreeSlot returns s, so that embedding a Slot satisfies part of Drawable.
func (s *Slot) OctreeSlot() *Slot {
	return s
}

// Octree returns the tree the drawable is inserted in, or nil.
func (s *Slot) Octree() *Octree {
	return s.tree
}

// InOctree reports whether the drawable is currently assigned to an octant.
func (s *Slot) InOctree() bool {
	return s.tree != nil && s.octant != noOctant
}

// UpdateQueued reports whether the drawable is waiting for reinsertion.
func (s *Slot) UpdateQueued() bool {
	return s.updateQueued.Load()
}

func (s *Slot) attach(t *Octree, id octantID) {
	s.tree = t
	s.octant = id
}

func (s *Slot) detach() {
	s.tree = nil
	s.octant = noOctant
}

// matches reports whether a drawable passes a flags/view-mask filter.
func matches(d Drawable, flags Flags, viewMask uint32) bool {
	return d.DrawableFlags()&flags != 0 && d.ViewMask()&viewMask != 0
}

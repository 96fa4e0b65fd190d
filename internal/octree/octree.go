// Package octree implements a dynamic loose octree that keeps drawables
// spatially sorted for visibility and ray queries.
//
// All structural operations run on one goroutine, the owner. Only drawable
// Update callbacks run in parallel, on the injected Dispatcher, and they may
// only call QueueUpdate on the tree.
package octree

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-octree/internal/logger"
	"github.com/Faultbox/midgard-octree/internal/workqueue"
	"github.com/Faultbox/midgard-octree/pkg/geom"
)

const (
	DefaultSize     = 1000
	DefaultMaxDepth = 8
	DefaultName     = "default"
)

// Dispatcher runs drawable updates in parallel. workqueue.Pool and
// workqueue.Inline implement it.
type Dispatcher interface {
	NumThreads() int
	Submit(item workqueue.Item)
	WaitAll(priority uint32)
}

// Octree is a loose octree of drawables.
type Octree struct {
	name            string
	log             *zap.Logger
	metrics         *treeMetrics
	dispatcher      Dispatcher
	maxDepth        int
	verifyInsertion bool
	pruneEmpty      bool

	octants    []octant
	freeList   []octantID
	numOctants int

	updateQueue []Drawable

	threadedMu     sync.Mutex
	threadedQueue  []Drawable
	threadedUpdate atomic.Bool
	updating       bool

	updateFinished []func(frame *FrameInfo)

	rayCandidates []rayCandidate
}

// Option configures an Octree.
type Option func(*Octree)

// WithName sets the name used in logs and metric labels. Trees sharing a
// name share their metric series, so concurrently live trees should be
// named apart.
func WithName(name string) Option {
	return func(t *Octree) {
		t.name = name
	}
}

// WithBounds sets the root region.
func WithBounds(box geom.BoundingBox) Option {
	return func(t *Octree) {
		t.octants[rootOctant].init(box, 0, noOctant, 0)
	}
}

// WithMaxDepth sets the deepest octant level. Values below 1 are raised to 1.
func WithMaxDepth(depth int) Option {
	return func(t *Octree) {
		t.maxDepth = max(depth, 1)
	}
}

// WithDispatcher sets where drawable updates run.
func WithDispatcher(d Dispatcher) Option {
	return func(t *Octree) {
		t.dispatcher = d
	}
}

// WithVerifyInsertion logs an error whenever a drawable ends up in an octant
// whose culling box does not contain it.
func WithVerifyInsertion(verify bool) Option {
	return func(t *Octree) {
		t.verifyInsertion = verify
	}
}

// WithPruneEmptyOctants controls whether octants are freed as soon as their
// subtree holds no drawables.
func WithPruneEmptyOctants(prune bool) Option {
	return func(t *Octree) {
		t.pruneEmpty = prune
	}
}

// New creates an octree spanning ±DefaultSize on every axis with
// DefaultMaxDepth levels and an inline dispatcher, then applies opts.
func New(opts ...Option) *Octree {
	t := &Octree{
		name:       DefaultName,
		dispatcher: workqueue.Inline{},
		maxDepth:   DefaultMaxDepth,
		pruneEmpty: true,
		octants:    make([]octant, 1, 64),
		numOctants: 1,
	}
	t.octants[rootOctant].init(geom.CubeBox(DefaultSize), 0, noOctant, 0)

	for _, opt := range opts {
		opt(t)
	}

	t.log = logger.Named("octree").With(zap.String("octree", t.name))
	t.metrics = newTreeMetrics(t.name)
	t.metrics.instrumentOctants(t.numOctants)
	t.metrics.instrumentDrawables(0)
	return t
}

// Name returns the tree name.
func (t *Octree) Name() string {
	return t.name
}

// Bounds returns the root region.
func (t *Octree) Bounds() geom.BoundingBox {
	return t.octants[rootOctant].region
}

// MaxDepth returns the deepest octant level.
func (t *Octree) MaxDepth() int {
	return t.maxDepth
}

// NumOctants returns the number of live octants, root included.
func (t *Octree) NumOctants() int {
	return t.numOctants
}

// NumDrawables returns the number of drawables in the tree.
func (t *Octree) NumDrawables() int {
	return t.octants[rootOctant].numDrawables
}

// QueuedUpdates returns the number of drawables waiting for the next Update.
func (t *Octree) QueuedUpdates() int {
	return len(t.updateQueue)
}

// refuse logs and reports misuse: structural changes while drawables are
// being updated in parallel.
func (t *Octree) refuse(op string) bool {
	if t.threadedUpdate.Load() {
		t.log.Error("octree operation refused during threaded update", zap.String("op", op))
		return true
	}
	return false
}

// Insert adds a drawable to the tree and queues it for an update, so it is
// moved to its final octant by the next Update.
func (t *Octree) Insert(d Drawable) {
	if d == nil || t.refuse("insert") {
		return
	}
	slot := d.OctreeSlot()
	if slot.tree != nil && slot.tree != t {
		t.log.Error("drawable already belongs to another octree",
			zap.String("other", slot.tree.name))
		return
	}

	t.insertDrawable(rootOctant, d)
	t.QueueUpdate(d)
	t.metrics.instrumentDrawables(t.NumDrawables())
}

// Remove cancels any pending update of d and detaches it from the tree.
func (t *Octree) Remove(d Drawable) {
	if d == nil || t.refuse("remove") {
		return
	}
	t.CancelUpdate(d)
	t.detach(d)
}

// AddManualDrawable stores d directly in the root without queueing an
// update. Drawables already in a tree are ignored.
func (t *Octree) AddManualDrawable(d Drawable) {
	if d == nil || t.refuse("add manual drawable") {
		return
	}
	if d.OctreeSlot().InOctree() {
		return
	}
	t.addDrawable(rootOctant, d)
	t.metrics.instrumentDrawables(t.NumDrawables())
}

// RemoveManualDrawable detaches d from the tree.
func (t *Octree) RemoveManualDrawable(d Drawable) {
	if d == nil || t.refuse("remove manual drawable") {
		return
	}
	t.detach(d)
}

func (t *Octree) detach(d Drawable) {
	slot := d.OctreeSlot()
	if slot.tree != t || slot.octant == noOctant {
		return
	}
	t.removeDrawable(slot.octant, d, true)
	t.metrics.instrumentDrawables(t.NumDrawables())
}

// QueueUpdate marks d for an Update callback and reinsertion on the next
// Update. It is the only method drawables may call from their own Update;
// such calls are deferred to the owner goroutine and still complete within
// the current frame.
func (t *Octree) QueueUpdate(d Drawable) {
	if d == nil {
		return
	}
	slot := d.OctreeSlot()

	if t.threadedUpdate.Load() {
		if !slot.threadedQueued.CompareAndSwap(false, true) {
			return
		}
		t.threadedMu.Lock()
		t.threadedQueue = append(t.threadedQueue, d)
		t.threadedMu.Unlock()
		return
	}

	if slot.updateQueued.CompareAndSwap(false, true) {
		t.updateQueue = append(t.updateQueue, d)
	}
}

// CancelUpdate removes d from the update queue.
func (t *Octree) CancelUpdate(d Drawable) {
	if d == nil || t.refuse("cancel update") {
		return
	}
	slot := d.OctreeSlot()
	if !slot.updateQueued.Swap(false) {
		return
	}
	if i := slices.Index(t.updateQueue, d); i >= 0 {
		t.updateQueue = slices.Delete(t.updateQueue, i, i+1)
	}
}

// OnUpdateFinished registers fn to run after every drawable update of a
// frame, before reinsertion.
func (t *Octree) OnUpdateFinished(fn func(frame *FrameInfo)) {
	t.updateFinished = append(t.updateFinished, fn)
}

// Update runs the Update callback of every queued drawable in parallel,
// waits for all of them and then moves drawables that outgrew their octants.
// Queries issued after Update returns see the new positions.
func (t *Octree) Update(frame *FrameInfo) {
	if t.refuse("update") {
		return
	}
	if t.updating {
		t.log.Error("octree update called recursively")
		return
	}
	t.updating = true
	defer func() { t.updating = false }()
	defer t.metrics.instrumentUpdateDuration(time.Now())

	updated := len(t.updateQueue)
	if updated > 0 {
		t.updateParallel(frame)
	}

	// drawables that queued themselves during the parallel phase
	t.threadedMu.Lock()
	threaded := t.threadedQueue
	t.threadedQueue = nil
	t.threadedMu.Unlock()
	for _, d := range threaded {
		slot := d.OctreeSlot()
		slot.threadedQueued.Store(false)
		d.Update(frame)
		if slot.updateQueued.CompareAndSwap(false, true) {
			t.updateQueue = append(t.updateQueue, d)
		}
	}
	updated += len(threaded)
	t.metrics.instrumentDrawableUpdates(updated)

	for _, fn := range t.updateFinished {
		fn(frame)
	}

	reinserted := 0
	for i, d := range t.updateQueue {
		slot := d.OctreeSlot()
		slot.updateQueued.Store(false)
		t.updateQueue[i] = nil

		if slot.octant == noOctant || slot.tree != t {
			continue
		}
		box := d.WorldBoundingBox()
		o := t.octant(slot.octant)
		if d.IsOccludee() && o.cullingBox.IsInside(box) == geom.Inside && t.fits(slot.octant, box) {
			continue
		}
		t.insertDrawable(rootOctant, d)
		reinserted++
	}
	t.updateQueue = t.updateQueue[:0]
	t.metrics.instrumentReinsertions(reinserted)
}

// updateParallel splits the update queue into one slice per worker plus
// one for the calling goroutine and waits for all of them.
func (t *Octree) updateParallel(frame *FrameInfo) {
	t.threadedUpdate.Store(true)
	defer t.threadedUpdate.Store(false)

	queue := t.updateQueue
	numItems := t.dispatcher.NumThreads() + 1
	perItem := max(len(queue)/numItems, 1)

	start := 0
	for i := 0; i < numItems && start < len(queue); i++ {
		end := len(queue)
		if i < numItems-1 && end-start > perItem {
			end = start + perItem
		}
		slice := queue[start:end]
		t.dispatcher.Submit(workqueue.Item{
			Priority: workqueue.PriorityMax,
			Work: func() {
				for _, d := range slice {
					d.Update(frame)
				}
			},
		})
		start = end
	}

	t.dispatcher.WaitAll(workqueue.PriorityMax)
}

// GetDrawables resets q and runs it against the whole tree.
func (t *Octree) GetDrawables(q VolumeQuery) {
	q.Reset()
	t.collectDrawables(rootOctant, q, false)
	t.metrics.instrumentQuery(queryKind(q))
}

// SetSize resets the root region and depth. Every drawable is moved to the
// root and queued for update, so the next Update reinserts them.
func (t *Octree) SetSize(box geom.BoundingBox, maxDepth int) {
	if t.refuse("set size") {
		return
	}

	root := t.octant(rootOctant)
	for i, child := range root.children {
		if child != noOctant {
			root.children[i] = noOctant
			t.freeOctant(child)
		}
	}

	// init truncates the object list, keep the drawables across it
	root = t.octant(rootOctant)
	objects := root.objects
	root.objects = nil
	root.init(box, 0, noOctant, 0)
	root.objects = objects
	root.numDrawables = len(objects)

	t.maxDepth = max(maxDepth, 1)
	t.log.Debug("octree resized",
		zap.Stringer("bounds", box),
		zap.Int("max_depth", t.maxDepth),
		zap.Int("drawables", len(objects)))
}

// Close detaches every drawable and drops all queued updates. The tree is
// left empty and can be reused.
func (t *Octree) Close() {
	if t.refuse("close") {
		return
	}

	for i := range t.octants {
		o := &t.octants[i]
		if !o.inUse {
			continue
		}
		for _, d := range o.objects {
			d.OctreeSlot().detach()
		}
	}
	for _, d := range t.updateQueue {
		d.OctreeSlot().updateQueued.Store(false)
	}
	t.updateQueue = t.updateQueue[:0]

	region := t.octants[rootOctant].region
	clear(t.octants)
	t.octants = t.octants[:1]
	t.octants[rootOctant].init(region, 0, noOctant, 0)
	t.freeList = t.freeList[:0]
	t.numOctants = 1

	t.metrics.instrumentOctants(t.numOctants)
	t.metrics.instrumentDrawables(0)
}

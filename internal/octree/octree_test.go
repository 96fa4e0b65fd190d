package octree

import (
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-octree/internal/workqueue"
	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

type testDrawable struct {
	Slot

	box      geom.BoundingBox
	occludee bool
	flags    Flags
	viewMask uint32

	updates  atomic.Int32
	onUpdate func(d *testDrawable, frame *FrameInfo)
}

func newTestDrawable(center math.Vec3, size float32) *testDrawable {
	return &testDrawable{
		box:      geom.BoxFromCenterSize(center, math.Splat(size)),
		occludee: true,
		flags:    FlagGeometry,
		viewMask: DefaultViewMask,
	}
}

func (d *testDrawable) WorldBoundingBox() geom.BoundingBox { return d.box }
func (d *testDrawable) IsOccludee() bool { return d.occludee }
func (d *testDrawable) DrawableFlags() Flags { return d.flags }
func (d *testDrawable) ViewMask() uint32 { return d.viewMask }

func (d *testDrawable) Update(frame *FrameInfo) {
	d.updates.Add(1)
	if d.onUpdate != nil {
		d.onUpdate(d, frame)
	}
}

var dispatchers = map[string]func(t *testing.T) Dispatcher{
	"inline": func(*testing.T) Dispatcher { return workqueue.Inline{} },
	"pool": func(t *testing.T) Dispatcher {
		p := workqueue.NewPool(workqueue.PoolConfig{Workers: 3, QueueSize: 16})
		t.Cleanup(p.Close)
		return p
	},
}

func randomDrawables(rng *rand.Rand, n int, extent, size float32) []*testDrawable {
	drawables := make([]*testDrawable, n)
	for i := range drawables {
		center := math.Vec3{
			X: (rng.Float32()*2 - 1) * extent,
			Y: (rng.Float32()*2 - 1) * extent,
			Z: (rng.Float32()*2 - 1) * extent,
		}
		drawables[i] = newTestDrawable(center, size)
	}
	return drawables
}

func requireContained(t *testing.T, tree *Octree, d *testDrawable) OctantInfo {
	t.Helper()
	info, ok := tree.OctantOf(d)
	require.True(t, ok)
	if info.Level > 0 {
		require.Equal(t, geom.Inside, info.CullingBox.IsInside(d.box),
			"box %v not inside culling box %v", d.box, info.CullingBox)
	}
	return info
}

func TestRandomDrawablesAreContained(t *testing.T) {
	for name, newDispatcher := range dispatchers {
		t.Run(name, func(t *testing.T) {
			tree := New(
				WithName("random-"+name),
				WithDispatcher(newDispatcher(t)),
				WithVerifyInsertion(true),
			)
			rng := rand.New(rand.NewPCG(1, 2))
			drawables := randomDrawables(rng, 1000, 999, 1)
			for _, d := range drawables {
				tree.Insert(d)
			}
			require.Equal(t, 1000, tree.QueuedUpdates())

			tree.Update(&FrameInfo{FrameNumber: 1, TimeStep: 1.0 / 60})
			require.Equal(t, 0, tree.QueuedUpdates())
			require.Equal(t, 1000, tree.NumDrawables())

			for _, d := range drawables {
				require.Equal(t, int32(1), d.updates.Load())
				require.False(t, d.UpdateQueued())
				info := requireContained(t, tree, d)
				require.Equal(t, DefaultMaxDepth, info.Level)
			}

			region := geom.NewBox(math.Splat(-1000), math.Vec3Zero)
			q := NewBoxQuery(region, FlagAny)
			tree.GetDrawables(q)

			var expected []Drawable
			for _, d := range drawables {
				if region.Intersects(d.box) {
					expected = append(expected, d)
				}
			}
			require.NotEmpty(t, expected)
			require.ElementsMatch(t, expected, q.Result)
		})
	}
}

func TestLargeDrawableStaysAtRoot(t *testing.T) {
	tree := New()
	d := newTestDrawable(math.Vec3Zero, 1900)
	tree.Insert(d)
	tree.Update(&FrameInfo{FrameNumber: 1})

	info, ok := tree.OctantOf(d)
	require.True(t, ok)
	require.Equal(t, 0, info.Level)
	require.Equal(t, 1, tree.NumOctants())
}

func TestRootHoldsNonOccludeesAndOutsiders(t *testing.T) {
	tree := New()

	light := newTestDrawable(math.Vec3{X: 10, Y: 10, Z: 10}, 1)
	light.occludee = false
	far := newTestDrawable(math.Vec3{X: 5000}, 1)
	tree.Insert(light)
	tree.Insert(far)
	tree.Update(&FrameInfo{FrameNumber: 1})

	for _, d := range []*testDrawable{light, far} {
		info, ok := tree.OctantOf(d)
		require.True(t, ok)
		require.Equal(t, 0, info.Level)
	}
}

func TestFitsBoundary(t *testing.T) {
	tree := New()

	tests := []struct {
		name string
		box  geom.BoundingBox
		fits bool
	}{
		{
			name: "exactly half size",
			box:  geom.NewBox(math.Vec3{X: 0}, math.Vec3{X: 1000, Y: 1, Z: 1}),
			fits: true,
		},
		{
			name: "just below half size",
			box:  geom.NewBox(math.Vec3{X: 0}, math.Vec3{X: 999, Y: 1, Z: 1}),
			fits: false,
		},
		{
			name: "touching slack bound",
			box:  geom.NewBox(math.Vec3{X: -1500}, math.Vec3{X: -1499, Y: 1, Z: 1}),
			fits: true,
		},
		{
			name: "inside slack bound",
			box:  geom.NewBox(math.Vec3{X: -1499}, math.Vec3{X: -1498, Y: 1, Z: 1}),
			fits: false,
		},
		{
			name: "touching upper slack bound",
			box:  geom.NewBox(math.Vec3{Z: 1499}, math.Vec3{X: 1, Y: 1, Z: 1500}),
			fits: true,
		},
		{
			name: "small point",
			box:  geom.NewBox(math.Vec3{X: 3}, math.Vec3{X: 3}),
			fits: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.fits, tree.fits(rootOctant, test.box))
		})
	}

	t.Run("max depth always fits", func(t *testing.T) {
		shallow := New(WithMaxDepth(1))
		child := shallow.getOrCreateChild(rootOctant, 0)
		tiny := geom.BoxFromCenterSize(math.Splat(-500), math.Splat(0.001))
		require.True(t, shallow.fits(child, tiny))
		require.False(t, shallow.fits(rootOctant, tiny))
	})
}

func TestChildRegions(t *testing.T) {
	tree := New()
	for i := 0; i < numOctants; i++ {
		child := tree.getOrCreateChild(rootOctant, i)
		o := tree.octant(child)

		require.Equal(t, 1, o.level)
		require.Equal(t, float32(500), o.halfSize.X)
		require.Equal(t, i&1 != 0, o.center.X > 0)
		require.Equal(t, i&2 != 0, o.center.Y > 0)
		require.Equal(t, i&4 != 0, o.center.Z > 0)
		require.Equal(t, child, tree.getOrCreateChild(rootOctant, i))
	}
	require.Equal(t, 9, tree.NumOctants())
}

func TestEmptyOctantsArePruned(t *testing.T) {
	tree := New()
	d := newTestDrawable(math.Vec3{X: 100, Y: -200, Z: 300}, 1)
	tree.Insert(d)
	require.Equal(t, DefaultMaxDepth+1, tree.NumOctants())

	tree.Remove(d)
	require.Equal(t, 1, tree.NumOctants())
	require.Equal(t, 0, tree.NumDrawables())
	require.False(t, d.InOctree())
	require.Equal(t, 0, tree.QueuedUpdates())

	// freed octants are reused
	tree.Insert(d)
	require.Equal(t, DefaultMaxDepth+1, tree.NumOctants())
	require.Len(t, tree.octants, DefaultMaxDepth+1)
}

func TestPruningCanBeDisabled(t *testing.T) {
	tree := New(WithPruneEmptyOctants(false))
	d := newTestDrawable(math.Vec3{X: 100}, 1)
	tree.Insert(d)
	tree.Remove(d)

	require.Equal(t, DefaultMaxDepth+1, tree.NumOctants())
	require.Equal(t, 0, tree.NumDrawables())
}

func TestPruningKeepsSharedAncestors(t *testing.T) {
	tree := New()
	a := newTestDrawable(math.Vec3{X: 100, Y: 100, Z: 100}, 1)
	b := newTestDrawable(math.Vec3{X: 900, Y: 900, Z: 900}, 1)
	tree.Insert(a)
	tree.Insert(b)
	withBoth := tree.NumOctants()

	tree.Remove(a)
	require.Less(t, tree.NumOctants(), withBoth)
	requireContained(t, tree, b)

	info, ok := tree.OctantOf(b)
	require.True(t, ok)
	require.Equal(t, DefaultMaxDepth, info.Level)
	require.Equal(t, DefaultMaxDepth+1, tree.NumOctants())
}

func TestReinsertionIsIdempotent(t *testing.T) {
	tree := New()
	d := newTestDrawable(math.Vec3{X: 12, Y: 34, Z: 56}, 2)
	tree.Insert(d)
	tree.Update(&FrameInfo{FrameNumber: 1})

	before, ok := tree.OctantOf(d)
	require.True(t, ok)
	slotBefore := d.octant
	octants := tree.NumOctants()

	tree.QueueUpdate(d)
	tree.Update(&FrameInfo{FrameNumber: 2})

	after, ok := tree.OctantOf(d)
	require.True(t, ok)
	require.Equal(t, before, after)
	require.Equal(t, slotBefore, d.octant)
	require.Equal(t, octants, tree.NumOctants())

	// a move within the culling slack does not reinsert either
	d.box = d.box.Translated(math.Vec3{X: 0.5})
	tree.QueueUpdate(d)
	tree.Update(&FrameInfo{FrameNumber: 3})
	require.Equal(t, slotBefore, d.octant)
}

func TestMovedDrawableIsReinserted(t *testing.T) {
	for name, newDispatcher := range dispatchers {
		t.Run(name, func(t *testing.T) {
			tree := New(WithDispatcher(newDispatcher(t)), WithVerifyInsertion(true))
			d := newTestDrawable(math.Vec3{X: -500, Y: -500, Z: -500}, 1)
			d.onUpdate = func(d *testDrawable, _ *FrameInfo) {
				d.box = d.box.Translated(math.Vec3{X: 1000, Y: 1000, Z: 1000})
			}
			tree.Insert(d)
			tree.Update(&FrameInfo{FrameNumber: 1})

			info := requireContained(t, tree, d)
			require.Equal(t, DefaultMaxDepth, info.Level)
			require.True(t, info.Region.IsInsidePoint(d.box.Center()) == geom.Inside)
			require.Equal(t, DefaultMaxDepth+1, tree.NumOctants())
		})
	}
}

func TestUpdateRunsEveryQueuedDrawableOnce(t *testing.T) {
	for name, newDispatcher := range dispatchers {
		t.Run(name, func(t *testing.T) {
			tree := New(WithDispatcher(newDispatcher(t)))
			rng := rand.New(rand.NewPCG(3, 4))
			drawables := randomDrawables(rng, 101, 900, 2)
			for _, d := range drawables {
				tree.Insert(d)
				tree.QueueUpdate(d)
			}
			require.Equal(t, 101, tree.QueuedUpdates())

			var finished []FrameInfo
			tree.OnUpdateFinished(func(frame *FrameInfo) {
				finished = append(finished, *frame)
			})

			tree.Update(&FrameInfo{FrameNumber: 7, TimeStep: 0.5})
			for _, d := range drawables {
				require.Equal(t, int32(1), d.updates.Load())
			}
			require.Equal(t, []FrameInfo{{FrameNumber: 7, TimeStep: 0.5}}, finished)

			// nothing queued: no drawable updates, notification still sent
			tree.Update(&FrameInfo{FrameNumber: 8})
			for _, d := range drawables {
				require.Equal(t, int32(1), d.updates.Load())
			}
			require.Len(t, finished, 2)
		})
	}
}

func TestSelfQueueDuringUpdate(t *testing.T) {
	for name, newDispatcher := range dispatchers {
		t.Run(name, func(t *testing.T) {
			tree := New(WithDispatcher(newDispatcher(t)))
			rng := rand.New(rand.NewPCG(5, 6))
			drawables := randomDrawables(rng, 20, 900, 1)
			for _, d := range drawables {
				d.onUpdate = func(d *testDrawable, _ *FrameInfo) {
					if d.updates.Load() == 1 {
						d.box = d.box.Translated(math.Vec3{Y: 50})
						tree.QueueUpdate(d)
						tree.QueueUpdate(d)
					}
				}
				tree.Insert(d)
			}

			tree.Update(&FrameInfo{FrameNumber: 1})

			require.Equal(t, 0, tree.QueuedUpdates())
			for _, d := range drawables {
				require.Equal(t, int32(2), d.updates.Load())
				require.False(t, d.UpdateQueued())
				requireContained(t, tree, d)
			}
		})
	}
}

func TestMisuseDuringUpdateIsRefused(t *testing.T) {
	for name, newDispatcher := range dispatchers {
		t.Run(name, func(t *testing.T) {
			tree := New(WithDispatcher(newDispatcher(t)))
			other := newTestDrawable(math.Vec3{X: 10}, 1)
			d := newTestDrawable(math.Vec3{X: -10}, 1)
			d.onUpdate = func(*testDrawable, *FrameInfo) {
				tree.Insert(other)
				tree.Remove(d)
				tree.SetSize(geom.CubeBox(10), 2)
				tree.Update(&FrameInfo{})
			}
			tree.Insert(d)
			tree.Update(&FrameInfo{FrameNumber: 1})

			require.False(t, other.InOctree())
			require.True(t, d.InOctree())
			require.Equal(t, int32(1), d.updates.Load())
			require.Equal(t, geom.CubeBox(DefaultSize), tree.Bounds())
		})
	}
}

func TestRecursiveUpdateIsRefused(t *testing.T) {
	tree := New()
	d := newTestDrawable(math.Vec3Zero, 1)
	tree.Insert(d)

	calls := 0
	tree.OnUpdateFinished(func(frame *FrameInfo) {
		calls++
		tree.QueueUpdate(d)
		tree.Update(frame)
	})
	tree.Update(&FrameInfo{FrameNumber: 1})

	require.Equal(t, 1, calls)
	require.Equal(t, int32(1), d.updates.Load())
}

func TestCancelUpdate(t *testing.T) {
	tree := New()
	a := newTestDrawable(math.Vec3{X: 1}, 1)
	b := newTestDrawable(math.Vec3{X: 2}, 1)
	tree.Insert(a)
	tree.Insert(b)

	tree.CancelUpdate(a)
	require.Equal(t, 1, tree.QueuedUpdates())
	require.False(t, a.UpdateQueued())

	tree.Update(&FrameInfo{FrameNumber: 1})
	require.Equal(t, int32(0), a.updates.Load())
	require.Equal(t, int32(1), b.updates.Load())
	require.True(t, a.InOctree())
}

func TestRemovedDrawableIsNotUpdated(t *testing.T) {
	tree := New()
	d := newTestDrawable(math.Vec3{X: 1}, 1)
	tree.Insert(d)
	tree.Remove(d)
	tree.Update(&FrameInfo{FrameNumber: 1})

	require.Equal(t, int32(0), d.updates.Load())
	require.Nil(t, d.Octree())
}

func TestDrawableInAnotherTreeIsRefused(t *testing.T) {
	a := New(WithName("a"))
	b := New(WithName("b"))
	d := newTestDrawable(math.Vec3{X: 1}, 1)
	a.Insert(d)
	b.Insert(d)

	require.Same(t, a, d.Octree())
	require.Equal(t, 0, b.NumDrawables())

	// an update queued in the wrong tree runs but is skipped at reinsertion
	a.Update(&FrameInfo{FrameNumber: 1})
	b.QueueUpdate(d)
	require.Equal(t, 1, b.QueuedUpdates())
	b.Update(&FrameInfo{FrameNumber: 1})
	require.Equal(t, int32(2), d.updates.Load())
	require.Same(t, a, d.Octree())
	require.Equal(t, 0, b.NumDrawables())
}

func TestManualDrawables(t *testing.T) {
	tree := New()
	d := newTestDrawable(math.Vec3{X: 300}, 1)

	tree.AddManualDrawable(d)
	require.Equal(t, 0, tree.QueuedUpdates())
	info, ok := tree.OctantOf(d)
	require.True(t, ok)
	require.Equal(t, 0, info.Level)
	require.Equal(t, 1, tree.NumDrawables())

	// already in the tree
	tree.AddManualDrawable(d)
	require.Equal(t, 1, tree.NumDrawables())

	tree.RemoveManualDrawable(d)
	require.False(t, d.InOctree())
	require.Equal(t, 0, tree.NumDrawables())
}

func TestSetSize(t *testing.T) {
	tree := New()
	rng := rand.New(rand.NewPCG(7, 8))
	drawables := randomDrawables(rng, 50, 400, 1)
	for _, d := range drawables {
		tree.Insert(d)
	}
	tree.Update(&FrameInfo{FrameNumber: 1})
	require.Greater(t, tree.NumOctants(), 1)

	tree.SetSize(geom.CubeBox(500), 4)
	require.Equal(t, 1, tree.NumOctants())
	require.Equal(t, 4, tree.MaxDepth())
	require.Equal(t, geom.CubeBox(500), tree.Bounds())
	require.Equal(t, 50, tree.NumDrawables())
	require.Equal(t, 50, tree.QueuedUpdates())
	for _, d := range drawables {
		info, ok := tree.OctantOf(d)
		require.True(t, ok)
		require.Equal(t, 0, info.Level)
	}

	tree.Update(&FrameInfo{FrameNumber: 2})
	for _, d := range drawables {
		info := requireContained(t, tree, d)
		require.Equal(t, 4, info.Level)
	}

	tree.SetSize(geom.CubeBox(500), 0)
	require.Equal(t, 1, tree.MaxDepth())
}

func TestCloseDetachesDrawables(t *testing.T) {
	tree := New()
	rng := rand.New(rand.NewPCG(9, 10))
	drawables := randomDrawables(rng, 30, 900, 1)
	for _, d := range drawables {
		tree.Insert(d)
	}
	tree.Close()

	require.Equal(t, 1, tree.NumOctants())
	require.Equal(t, 0, tree.NumDrawables())
	require.Equal(t, 0, tree.QueuedUpdates())
	for _, d := range drawables {
		require.False(t, d.InOctree())
		require.False(t, d.UpdateQueued())
	}

	tree.Insert(drawables[0])
	tree.Update(&FrameInfo{FrameNumber: 1})
	requireContained(t, tree, drawables[0])
	require.Equal(t, 1, tree.NumDrawables())
}

func TestStats(t *testing.T) {
	tree := New(WithName("stats"))
	big := newTestDrawable(math.Vec3Zero, 1900)
	small := newTestDrawable(math.Vec3{X: 10, Y: 10, Z: 10}, 1)
	tree.Insert(big)
	tree.Insert(small)

	s := tree.Stats()
	require.Equal(t, "stats", s.Name)
	require.Equal(t, 2, s.Drawables)
	require.Equal(t, 1, s.RootDrawables)
	require.Equal(t, DefaultMaxDepth+1, s.Octants)
	require.Equal(t, DefaultMaxDepth, s.DeepestLevel)
	require.Len(t, s.PerLevel, DefaultMaxDepth+1)
	require.Equal(t, 1, s.PerLevel[DefaultMaxDepth].Drawables)
	require.Equal(t, 2, s.QueuedUpdates)
}

func TestWalkAndDebugBoxes(t *testing.T) {
	tree := New()
	tree.Insert(newTestDrawable(math.Vec3{X: 500, Y: 500, Z: 500}, 1))
	tree.Insert(newTestDrawable(math.Vec3{X: -500, Y: -500, Z: -500}, 1))

	visited := 0
	tree.Walk(func(o OctantInfo) bool {
		visited++
		return true
	})
	require.Equal(t, tree.NumOctants(), visited)

	require.Len(t, tree.DebugBoxes(nil), tree.NumOctants())

	// only the positive branch and the root are visible
	frustum := geom.FrustumFromBox(geom.NewBox(math.Splat(400), math.Splat(600)))
	boxes := tree.DebugBoxes(&frustum)
	require.Len(t, boxes, DefaultMaxDepth+1)
	require.Equal(t, geom.CubeBox(DefaultSize), boxes[0])
}

func TestMovingDrawablesAreNeverDuplicated(t *testing.T) {
	for name, newDispatcher := range dispatchers {
		t.Run(name, func(t *testing.T) {
			tree := New(WithName("moving-"+name), WithDispatcher(newDispatcher(t)))
			rng := rand.New(rand.NewPCG(31, 32))

			drawables := randomDrawables(rng, 500, 800, 2)
			all := make([]Drawable, len(drawables))
			for i, d := range drawables {
				velocity := math.Vec3{
					X: (rng.Float32()*2 - 1) * 30,
					Y: (rng.Float32()*2 - 1) * 30,
					Z: (rng.Float32()*2 - 1) * 30,
				}
				d.onUpdate = func(d *testDrawable, frame *FrameInfo) {
					step := velocity
					if (frame.FrameNumber/5)%2 == 1 {
						step = step.Scale(-1)
					}
					d.box = geom.NewBox(d.box.Min.Add(step), d.box.Max.Add(step))
				}
				all[i] = d
				tree.Insert(d)
			}

			q := NewAllContentQuery(FlagAny)
			for frame := uint64(1); frame <= 12; frame++ {
				for _, d := range drawables {
					tree.QueueUpdate(d)
				}
				tree.Update(&FrameInfo{FrameNumber: frame, TimeStep: 1.0 / 60})

				tree.GetDrawables(q)
				require.ElementsMatch(t, all, q.Result, "frame %d", frame)
			}

			held := 0
			tree.Walk(func(o OctantInfo) bool {
				held += o.Drawables
				return true
			})
			require.Equal(t, len(drawables), held)
			for _, d := range drawables {
				requireContained(t, tree, d)
			}
		})
	}
}

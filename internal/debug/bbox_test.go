package debug

import (
	"testing"

	"github.com/Faultbox/midgard-octree/internal/drawable"
	"github.com/Faultbox/midgard-octree/internal/octree"
	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

func TestBoxWireframe(t *testing.T) {
	box := geom.NewBox(math.Vec3{X: -1, Y: -2, Z: -3}, math.Vec3{X: 1, Y: 2, Z: 3})
	v := BoxWireframe(box)

	if len(v) != BoxWireframeVertexCount*3 {
		t.Fatalf("got %d floats, want %d", len(v), BoxWireframeVertexCount*3)
	}

	// every vertex is a corner of the box
	for i := 0; i < len(v); i += 3 {
		p := math.Vec3{X: v[i], Y: v[i+1], Z: v[i+2]}
		if (p.X != box.Min.X && p.X != box.Max.X) ||
			(p.Y != box.Min.Y && p.Y != box.Max.Y) ||
			(p.Z != box.Min.Z && p.Z != box.Max.Z) {
			t.Errorf("vertex %d = %v is not a box corner", i/3, p)
		}
	}

	// every edge is axis aligned
	for i := 0; i < len(v); i += 6 {
		diff := 0
		for axis := 0; axis < 3; axis++ {
			if v[i+axis] != v[i+3+axis] {
				diff++
			}
		}
		if diff != 1 {
			t.Errorf("edge %d changes %d axes, want 1", i/6, diff)
		}
	}
}

func TestUndefinedBoxIsSkipped(t *testing.T) {
	if v := BoxWireframe(geom.EmptyBox()); len(v) != 0 {
		t.Errorf("got %d floats for an undefined box, want 0", len(v))
	}
}

func TestOctreeWireframe(t *testing.T) {
	tree := octree.New()
	tree.Insert(drawable.NewStaticModel("a", geom.CubeBox(0.5), drawable.NewTransform(math.Splat(500))))
	tree.Insert(drawable.NewStaticModel("b", geom.CubeBox(0.5), drawable.NewTransform(math.Splat(-500))))
	tree.Update(&octree.FrameInfo{FrameNumber: 1})

	all := OctreeWireframe(tree, nil)
	if want := tree.NumOctants() * BoxWireframeVertexCount * 3; len(all) != want {
		t.Errorf("got %d floats, want %d", len(all), want)
	}

	frustum := geom.FrustumFromBox(geom.NewBox(math.Splat(400), math.Splat(600)))
	visible := OctreeWireframe(tree, &frustum)
	if len(visible) == 0 || len(visible) >= len(all) {
		t.Errorf("frustum wireframe has %d floats, want between 0 and %d", len(visible), len(all))
	}
}

func TestDrawablesWireframe(t *testing.T) {
	m := drawable.NewStaticModel("crate", geom.CubeBox(1), drawable.NewTransform(math.Vec3Zero))
	v := DrawablesWireframe([]octree.Drawable{m}, DefaultBoxPadding)

	if len(v) != BoxWireframeVertexCount*3 {
		t.Fatalf("got %d floats, want %d", len(v), BoxWireframeVertexCount*3)
	}
	if v[0] != -2 || v[3] != 2 {
		t.Errorf("padded edge = %v..%v, want -2..2", v[0], v[3])
	}
}

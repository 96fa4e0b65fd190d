package geom

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-octree/pkg/math"
)

// cameraFrustum looks down -Z from the origin with a 90 degree field of view.
func cameraFrustum() Frustum {
	proj := math.Perspective(gomath.Pi/2, 1, 1, 100)
	view := math.LookAt(math.Vec3{}, math.Vec3{Z: -1}, math.Vec3Y)
	return FrustumFromMatrix(proj.Mul(view))
}

func TestFrustumFromMatrix(t *testing.T) {
	f := cameraFrustum()

	tests := []struct {
		name string
		box  BoundingBox
		want Intersection
	}{
		{"ahead", BoxFromCenterSize(math.Vec3{Z: -10}, math.Splat(2)), Inside},
		{"behind", BoxFromCenterSize(math.Vec3{Z: 10}, math.Splat(2)), Outside},
		{"beyond far", BoxFromCenterSize(math.Vec3{Z: -200}, math.Splat(2)), Outside},
		{"crossing near", BoxFromCenterSize(math.Vec3{Z: -1}, math.Splat(1)), Intersects},
		{"off to the side", BoxFromCenterSize(math.Vec3{X: 50, Z: -10}, math.Splat(2)), Outside},
		{"undefined", EmptyBox(), Outside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IsInside(tt.box); got != tt.want {
				t.Errorf("IsInside() = %v, want %v", got, tt.want)
			}
			fast := f.IsInsideFast(tt.box)
			if (fast == Outside) != (tt.want == Outside) {
				t.Errorf("IsInsideFast() = %v, disagrees with %v", fast, tt.want)
			}
		})
	}
}

func TestFrustumPointAndSphere(t *testing.T) {
	f := cameraFrustum()
	if f.IsInsidePoint(math.Vec3{Z: -50}) != Inside {
		t.Error("point ahead should be inside")
	}
	if f.IsInsidePoint(math.Vec3{Z: 5}) != Outside {
		t.Error("point behind should be outside")
	}
	if got := f.IsInsideSphere(Sphere{Center: math.Vec3{Z: -50}, Radius: 1}); got != Inside {
		t.Errorf("sphere ahead = %v, want inside", got)
	}
	if got := f.IsInsideSphere(Sphere{Center: math.Vec3{Z: 3}, Radius: 1}); got != Outside {
		t.Errorf("sphere behind = %v, want outside", got)
	}
}

func TestFrustumFromBoxMatchesBox(t *testing.T) {
	region := CubeBox(10)
	f := FrustumFromBox(region)

	boxes := []BoundingBox{
		CubeBox(2),
		BoxFromCenterSize(math.Vec3{X: 10}, math.Splat(2)),
		BoxFromCenterSize(math.Vec3{Y: -30}, math.Splat(2)),
	}
	for _, b := range boxes {
		if got, want := f.IsInside(b), region.IsInside(b); got != want {
			t.Errorf("frustum %v vs box %v for %v", got, want, b)
		}
	}
}

package geom

import (
	"testing"

	"github.com/Faultbox/midgard-octree/pkg/math"
)

func TestRayHitDistance(t *testing.T) {
	box := CubeBox(1)

	tests := []struct {
		name string
		ray  Ray
		want float32
	}{
		{"hit from -X", NewRay(math.Vec3{X: -10}, math.Vec3X), 9},
		{"hit from +Z", NewRay(math.Vec3{Z: 5}, math.Vec3{Z: -1}), 4},
		{"origin inside", NewRay(math.Vec3{}, math.Vec3Y), 0},
		{"pointing away", NewRay(math.Vec3{X: -10}, math.Vec3{X: -1}), Infinity},
		{"parallel miss", NewRay(math.Vec3{X: -10, Y: 5}, math.Vec3X), Infinity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ray.HitDistance(box); got != tt.want {
				t.Errorf("HitDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRayHitDistanceUndefinedBox(t *testing.T) {
	r := NewRay(math.Vec3{}, math.Vec3X)
	if got := r.HitDistance(EmptyBox()); got != Infinity {
		t.Errorf("HitDistance(undefined) = %v, want +Inf", got)
	}
}

func TestRayHitDistanceSphere(t *testing.T) {
	s := Sphere{Center: math.Vec3{X: 10}, Radius: 2}

	if got := NewRay(math.Vec3{}, math.Vec3X).HitDistanceSphere(s); abs32(got-8) > 0.001 {
		t.Errorf("HitDistanceSphere() = %v, want 8", got)
	}
	if got := NewRay(math.Vec3{}, math.Vec3Y).HitDistanceSphere(s); got != Infinity {
		t.Errorf("miss = %v, want +Inf", got)
	}
	if got := NewRay(math.Vec3{X: 10}, math.Vec3Y).HitDistanceSphere(s); got != 0 {
		t.Errorf("inside = %v, want 0", got)
	}
}

func TestRayPoint(t *testing.T) {
	r := NewRay(math.Vec3{X: 1}, math.Vec3{Y: 10})
	if got := r.Point(3); got != (math.Vec3{X: 1, Y: 3}) {
		t.Errorf("Point(3) = %v", got)
	}
}

package geom

import (
	"testing"

	"github.com/Faultbox/midgard-octree/pkg/math"
)

func TestSphereIsInsideBox(t *testing.T) {
	s := Sphere{Radius: 10}

	tests := []struct {
		name string
		box  BoundingBox
		want Intersection
		fast Intersection
	}{
		{"small centered", CubeBox(1), Inside, Inside},
		{"corner pokes out", CubeBox(6), Intersects, Inside},
		{"far away", BoxFromCenterSize(math.Vec3{X: 50}, math.Splat(2)), Outside, Outside},
		{"diagonal gap", BoxFromCenterSize(math.Splat(8), math.Splat(2)), Outside, Outside},
		{"undefined", EmptyBox(), Outside, Outside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsInside(tt.box); got != tt.want {
				t.Errorf("IsInside() = %v, want %v", got, tt.want)
			}
			if got := s.IsInsideFast(tt.box); got != tt.fast {
				t.Errorf("IsInsideFast() = %v, want %v", got, tt.fast)
			}
		})
	}
}

func TestSphereIsInsideSphere(t *testing.T) {
	s := Sphere{Radius: 5}
	tests := []struct {
		other Sphere
		want  Intersection
	}{
		{Sphere{Radius: 1}, Inside},
		{Sphere{Center: math.Vec3{X: 5}, Radius: 1}, Intersects},
		{Sphere{Center: math.Vec3{X: 6}, Radius: 1}, Outside},
	}
	for _, tt := range tests {
		if got := s.IsInsideSphere(tt.other); got != tt.want {
			t.Errorf("IsInsideSphere(%v) = %v, want %v", tt.other, got, tt.want)
		}
	}
}

func TestSphereIsInsidePoint(t *testing.T) {
	s := Sphere{Center: math.Vec3{Y: 1}, Radius: 2}
	if s.IsInsidePoint(math.Vec3{Y: 2}) != Inside {
		t.Error("point within radius should be inside")
	}
	if s.IsInsidePoint(math.Vec3{Y: 3}) != Outside {
		t.Error("point on the surface should be outside")
	}
}

// Package camera provides the orbit camera used to drive visibility and
// picking queries.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Projection
	FovY   float32 // radians
	Aspect float32 // width / height
	Near   float32
	Far    float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        200.0,
		RotationX:       0.5,
		RotationY:       0.0,
		FovY:            gomath.Pi / 3,
		Aspect:          16.0 / 9.0,
		Near:            1.0,
		Far:             5000.0,
		MinDistance:     50.0,
		MaxDistance:     5000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Sin(float64(c.RotationY)))
	y := c.Distance * float32(gomath.Sin(float64(c.RotationX)))
	z := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Cos(float64(c.RotationY)))

	return c.Center.Add(math.Vec3{X: x, Y: y, Z: z})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3Y)
}

// ProjectionMatrix returns the perspective projection.
func (c *OrbitCamera) ProjectionMatrix() math.Mat4 {
	return math.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// Frustum returns the world-space view frustum.
func (c *OrbitCamera) Frustum() geom.Frustum {
	return geom.FrustumFromMatrix(c.ViewProjection())
}

// ScreenRay converts screen coordinates to a world-space ray starting on
// the near plane. screenX, screenY are pixel coordinates with the origin in
// the top left corner.
func (c *OrbitCamera) ScreenRay(screenX, screenY, viewportW, viewportH float32) geom.Ray {
	invViewProj := c.ViewProjection().Inverse()

	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	nearWorld := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1.0, 1.0})
	farWorld := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1.0, 1.0})

	return geom.NewRay(nearWorld, farWorld.Sub(nearWorld))
}

func unproject(invViewProj math.Mat4, ndc math.Vec4) math.Vec3 {
	p := invViewProj.MulVec4(ndc)
	// Perspective divide
	if p[3] != 0 {
		p[0] /= p[3]
		p[1] /= p[3]
		p[2] /= p[3]
	}
	return math.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity

	// Clamp pitch
	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// Orbit advances the yaw by angle radians, used to sweep the camera around
// the scene in headless runs.
func (c *OrbitCamera) Orbit(angle float32) {
	c.RotationY = float32(gomath.Mod(float64(c.RotationY+angle), 2*gomath.Pi))
}

// FitToBounds adjusts camera to view the given bounding box.
func (c *OrbitCamera) FitToBounds(box geom.BoundingBox) {
	c.Center = box.Center()

	// Calculate distance based on size
	size := box.Size()
	maxSize := max(size.X, size.Z)

	c.Distance = max(maxSize*0.3, c.MinDistance)
	c.Far = max(c.Far, c.Distance+size.Length())

	c.RotationX = 0.6 // Look down at ~35 degrees
	c.RotationY = 0.0
}

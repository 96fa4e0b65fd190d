// Package scene keeps a set of drawables in an octree and drives it once
// per frame: animation updates, reinsertion, visibility and picking.
package scene

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-octree/internal/camera"
	"github.com/Faultbox/midgard-octree/internal/debug"
	"github.com/Faultbox/midgard-octree/internal/drawable"
	"github.com/Faultbox/midgard-octree/internal/logger"
	"github.com/Faultbox/midgard-octree/internal/octree"
	"github.com/Faultbox/midgard-octree/pkg/geom"
)

// ErrNotFound is returned for unknown drawable IDs.
var ErrNotFound = errors.New("drawable not found")

// Config contains scene configuration options.
type Config struct {
	Name            string
	Bounds          geom.BoundingBox
	MaxDepth        int // Values below 1 are raised to 1
	PruneEmpty      bool
	VerifyInsertion bool
	// Dispatcher runs drawable updates; nil runs them inline.
	Dispatcher octree.Dispatcher

	// Viewport size in pixels, used for picking.
	Width  float32
	Height float32
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Name:       "scene",
		Bounds:     geom.CubeBox(octree.DefaultSize),
		MaxDepth:   octree.DefaultMaxDepth,
		PruneEmpty: true,
		Width:      1280,
		Height:     720,
	}
}

// Scene owns drawables and the octree that sorts them.
type Scene struct {
	// Configuration
	config Config
	log    *zap.Logger

	tree *octree.Octree

	// Camera used for Visible, Pick and DebugWireframe
	Camera *camera.OrbitCamera

	// Registry
	objects map[uuid.UUID]octree.Drawable
	ids     map[octree.Drawable]uuid.UUID
	movers  map[uuid.UUID]*drawable.Mover

	frame uint64

	visible *octree.FrustumQuery
	pick    *octree.RayQuery
}

// New creates a new scene with the given configuration.
func New(cfg Config) (*Scene, error) {
	if !cfg.Bounds.Defined() {
		return nil, fmt.Errorf("invalid scene bounds %v", cfg.Bounds)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid viewport %gx%g", cfg.Width, cfg.Height)
	}

	opts := []octree.Option{
		octree.WithName(cfg.Name),
		octree.WithBounds(cfg.Bounds),
		octree.WithMaxDepth(cfg.MaxDepth),
		octree.WithPruneEmptyOctants(cfg.PruneEmpty),
		octree.WithVerifyInsertion(cfg.VerifyInsertion),
	}
	if cfg.Dispatcher != nil {
		opts = append(opts, octree.WithDispatcher(cfg.Dispatcher))
	}

	cam := camera.NewOrbitCamera()
	cam.Aspect = cfg.Width / cfg.Height
	cam.FitToBounds(cfg.Bounds)

	s := &Scene{
		config:  cfg,
		log:     logger.Named("scene").With(zap.String("scene", cfg.Name)),
		tree:    octree.New(opts...),
		Camera:  cam,
		objects: make(map[uuid.UUID]octree.Drawable),
		ids:     make(map[octree.Drawable]uuid.UUID),
		movers:  make(map[uuid.UUID]*drawable.Mover),
		visible: octree.NewFrustumQuery(geom.Frustum{}, octree.FlagAny),
		pick:    octree.NewRayQuery(geom.Ray{}, octree.RayTriangle),
	}
	return s, nil
}

// Octree returns the scene's octree.
func (s *Scene) Octree() *octree.Octree {
	return s.tree
}

// Frame returns the number of the last ticked frame.
func (s *Scene) Frame() uint64 {
	return s.frame
}

// Len returns the number of drawables in the scene.
func (s *Scene) Len() int {
	return len(s.objects)
}

// Add inserts d into the scene and returns its ID. Movers are updated on
// every Tick; other drawables only when they queue themselves.
func (s *Scene) Add(d octree.Drawable) uuid.UUID {
	if id, ok := s.ids[d]; ok {
		return id
	}

	id := uuid.New()
	s.objects[id] = d
	s.ids[d] = id
	if m, ok := d.(*drawable.Mover); ok {
		s.movers[id] = m
	}
	s.tree.Insert(d)
	return id
}

// Get returns the drawable registered under id.
func (s *Scene) Get(id uuid.UUID) (octree.Drawable, bool) {
	d, ok := s.objects[id]
	return d, ok
}

// ID returns the ID of a drawable in the scene.
func (s *Scene) ID(d octree.Drawable) (uuid.UUID, bool) {
	id, ok := s.ids[d]
	return id, ok
}

// Remove takes a drawable out of the scene and the octree.
func (s *Scene) Remove(id uuid.UUID) error {
	d, ok := s.objects[id]
	if !ok {
		return fmt.Errorf("removing %s: %w", id, ErrNotFound)
	}
	s.tree.Remove(d)
	delete(s.objects, id)
	delete(s.ids, d)
	delete(s.movers, id)
	return nil
}

// Tick advances the scene by one frame of timeStep seconds: movers are
// queued, every queued drawable is updated and reinserted.
func (s *Scene) Tick(timeStep float32) octree.FrameInfo {
	s.frame++
	for _, m := range s.movers {
		s.tree.QueueUpdate(m)
	}

	frame := octree.FrameInfo{FrameNumber: s.frame, TimeStep: timeStep}
	s.tree.Update(&frame)
	return frame
}

// Visible returns the drawables matching flags inside the camera frustum.
// The returned slice is reused by the next call.
func (s *Scene) Visible(flags octree.Flags) []octree.Drawable {
	s.visible.Frustum = s.Camera.Frustum()
	s.visible.Flags = flags
	s.tree.GetDrawables(s.visible)
	return s.visible.Result
}

// Pick casts a ray through a viewport pixel and returns the closest
// geometry hit.
func (s *Scene) Pick(screenX, screenY float32) (octree.RayQueryResult, uuid.UUID, bool) {
	return s.PickRay(s.Camera.ScreenRay(screenX, screenY, s.config.Width, s.config.Height))
}

// PickRay returns the closest geometry hit along ray.
func (s *Scene) PickRay(ray geom.Ray) (octree.RayQueryResult, uuid.UUID, bool) {
	s.pick.Ray = ray
	s.pick.Flags = octree.FlagGeometry
	s.pick.MaxDistance = geom.Infinity
	s.tree.RaycastSingle(s.pick)
	if len(s.pick.Result) == 0 {
		return octree.RayQueryResult{}, uuid.Nil, false
	}

	hit := s.pick.Result[0]
	id, ok := s.ids[hit.Drawable]
	if !ok {
		s.log.Warn("picked drawable is not registered in the scene",
			zap.Stringer("box", hit.Drawable.WorldBoundingBox()))
	}
	return hit, id, ok
}

// DebugWireframe returns line vertices for the octants visible to the camera.
func (s *Scene) DebugWireframe() []float32 {
	frustum := s.Camera.Frustum()
	return debug.OctreeWireframe(s.tree, &frustum)
}

// VisibleWireframe returns padded selection boxes around the drawables
// matching flags inside the camera frustum.
func (s *Scene) VisibleWireframe(flags octree.Flags) []float32 {
	return debug.DrawablesWireframe(s.Visible(flags), debug.DefaultBoxPadding)
}

// Destroy detaches every drawable and empties the scene.
func (s *Scene) Destroy() {
	s.tree.Close()
	clear(s.objects)
	clear(s.ids)
	clear(s.movers)
	s.log.Debug("scene destroyed", zap.Uint64("frames", s.frame))
}

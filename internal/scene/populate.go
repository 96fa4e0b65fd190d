package scene

import (
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-octree/internal/drawable"
	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// PopulateConfig describes a randomly generated scene.
type PopulateConfig struct {
	StaticObjects int
	MovingObjects int
	Lights        int
	ObjectSize    float32 // maximum edge length
	MaxSpeed      float32 // units per second
	Seed          uint64
}

// Populate fills the scene with random static models, movers and lights
// inside its bounds. The same seed always yields the same scene.
func (s *Scene) Populate(cfg PopulateConfig) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	size := max(cfg.ObjectSize, 0.01)
	arena := s.config.Bounds.Expanded(math.Splat(-size))
	if !arena.Defined() {
		arena = s.config.Bounds
	}

	randomPoint := func() math.Vec3 {
		return math.Vec3{
			X: arena.Min.X + rng.Float32()*(arena.Max.X-arena.Min.X),
			Y: arena.Min.Y + rng.Float32()*(arena.Max.Y-arena.Min.Y),
			Z: arena.Min.Z + rng.Float32()*(arena.Max.Z-arena.Min.Z),
		}
	}
	randomBox := func() geom.BoundingBox {
		edge := math.Vec3{
			X: size * (0.25 + 0.75*rng.Float32()),
			Y: size * (0.25 + 0.75*rng.Float32()),
			Z: size * (0.25 + 0.75*rng.Float32()),
		}
		return geom.BoxFromCenterSize(math.Vec3Zero, edge)
	}
	randomAxis := func() math.Vec3 {
		return math.Vec3{X: rng.Float32()*2 - 1, Y: rng.Float32()*2 - 1, Z: rng.Float32()*2 - 1}.Normalize()
	}

	for i := 0; i < cfg.StaticObjects; i++ {
		tr := drawable.NewTransform(randomPoint())
		if axis := randomAxis(); axis.LengthSquared() > 0 {
			tr.Rotation = math.QuatFromAxisAngle(axis, rng.Float32()*6.283185)
		}
		s.Add(drawable.NewStaticModel(fmt.Sprintf("static-%d", i), randomBox(), tr))
	}

	for i := 0; i < cfg.MovingObjects; i++ {
		s.Add(drawable.NewMover(fmt.Sprintf("mover-%d", i), drawable.MoverConfig{
			Local:     randomBox(),
			Position:  randomPoint(),
			Velocity:  randomAxis().Scale(cfg.MaxSpeed * rng.Float32()),
			SpinAxis:  randomAxis(),
			SpinSpeed: rng.Float32() * 2,
			Arena:     arena,
		}))
	}

	for i := 0; i < cfg.Lights; i++ {
		s.Add(drawable.NewPointLight(fmt.Sprintf("light-%d", i), randomPoint(), size*(5+10*rng.Float32())))
	}

	s.log.Info("scene populated",
		zap.Int("static", cfg.StaticObjects),
		zap.Int("moving", cfg.MovingObjects),
		zap.Int("lights", cfg.Lights),
		zap.Uint64("seed", cfg.Seed))
}

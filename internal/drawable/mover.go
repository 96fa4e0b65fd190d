package drawable

import (
	"github.com/Faultbox/midgard-octree/internal/octree"
	"github.com/Faultbox/midgard-octree/pkg/geom"
	"github.com/Faultbox/midgard-octree/pkg/math"
)

// Mover is an animated model that drifts with a constant velocity, spins
// around an axis and bounces off the walls of an arena. Its state advances
// in Update, which the octree runs on a worker goroutine.
type Mover struct {
	base

	local    geom.BoundingBox
	position math.Vec3
	velocity math.Vec3
	rotation math.Quat

	spinAxis  math.Vec3
	spinSpeed float32 // radians per second

	arena geom.BoundingBox
	world geom.BoundingBox

	lastFrame uint64
	updates   uint64
}

// MoverConfig describes a Mover's initial motion.
type MoverConfig struct {
	Local     geom.BoundingBox
	Position  math.Vec3
	Velocity  math.Vec3
	SpinAxis  math.Vec3
	SpinSpeed float32
	// Arena bounds the mover's position; an undefined box disables bouncing.
	Arena     geom.BoundingBox
}

// NewMover creates a mover from cfg.
func NewMover(name string, cfg MoverConfig) *Mover {
	m := &Mover{
		base:      newBase(name, octree.FlagGeometry),
		local:     cfg.Local,
		position:  cfg.Position,
		velocity:  cfg.Velocity,
		rotation:  math.QuatIdentity(),
		spinAxis:  cfg.SpinAxis.Normalize(),
		spinSpeed: cfg.SpinSpeed,
		arena:     cfg.Arena,
	}
	m.updateWorldBox()
	return m
}

func (m *Mover) Position() math.Vec3 { return m.position }
func (m *Mover) Velocity() math.Vec3 { return m.velocity }
func (m *Mover) Rotation() math.Quat { return m.rotation }
func (m *Mover) LastFrame() uint64 { return m.lastFrame }
func (m *Mover) Updates() uint64 { return m.updates }
func (m *Mover) WorldBoundingBox() geom.BoundingBox { return m.world }
func (m *Mover) IsOccludee() bool { return true }

// Update advances the mover by frame.TimeStep seconds.
func (m *Mover) Update(frame *octree.FrameInfo) {
	m.updates++
	m.lastFrame = frame.FrameNumber
	dt := frame.TimeStep
	if dt <= 0 {
		return
	}

	m.position = m.position.Add(m.velocity.Scale(dt))
	if m.arena.Defined() {
		m.bounce()
	}

	if m.spinSpeed != 0 && m.spinAxis.LengthSquared() > 0 {
		spin := math.QuatFromAxisAngle(m.spinAxis, m.spinSpeed*dt)
		m.rotation = spin.Mul(m.rotation).Normalize()
	}
	m.updateWorldBox()
}

// bounce reflects the velocity on every axis where the position left the
// arena and clamps the position back inside.
func (m *Mover) bounce() {
	pos := [3]float32{m.position.X, m.position.Y, m.position.Z}
	vel := [3]float32{m.velocity.X, m.velocity.Y, m.velocity.Z}
	for i := 0; i < 3; i++ {
		lo, hi := m.arena.Min.Component(i), m.arena.Max.Component(i)
		switch {
		case pos[i] < lo:
			pos[i] = lo
			vel[i] = abs32(vel[i])
		case pos[i] > hi:
			pos[i] = hi
			vel[i] = -abs32(vel[i])
		}
	}
	m.position = math.Vec3{X: pos[0], Y: pos[1], Z: pos[2]}
	m.velocity = math.Vec3{X: vel[0], Y: vel[1], Z: vel[2]}
}

func (m *Mover) updateWorldBox() {
	matrix := math.Translate(m.position.X, m.position.Y, m.position.Z).Mul(m.rotation.ToMat4())
	m.world = m.local.Transformed(matrix)
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

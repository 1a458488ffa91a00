// Package physics implements the rigid-body world the simulation runs on:
// dynamic, fixed, and kinematic-position bodies with a single collider
// each, impulse application, per-body damping, filtered raycasts, and
// fixed-step integration. The API mirrors the engine surface the game
// needs; all mutation must happen on the tick goroutine.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType selects how a body participates in integration and contacts.
type BodyType uint8

const (
	// BodyDynamic bodies are force-integrated and collide.
	BodyDynamic BodyType = iota
	// BodyFixed bodies never move; they are the level geometry.
	BodyFixed
	// BodyKinematicPositionBased bodies are position-set by the caller
	// and ignore forces and contacts.
	BodyKinematicPositionBased
)

// Handle identifies a body inside a World. The zero Handle is invalid.
type Handle uint64

// BodyDesc configures a new body.
type BodyDesc struct {
	Type           BodyType
	Position       mgl64.Vec3
	Rotation       mgl64.Quat
	LinearDamping  float64
	AngularDamping float64
	LockRotations  bool
	// Mass overrides the collider's density-derived mass when positive.
	Mass float64
}

// ColliderDesc configures the collider attached to a body.
type ColliderDesc struct {
	Shape       Shape
	Density     float64
	Friction    float64
	Restitution float64
	Sensor      bool
}

type body struct {
	handle Handle
	typ    BodyType

	pos    mgl64.Vec3
	rot    mgl64.Quat
	linvel mgl64.Vec3
	angvel mgl64.Vec3

	linDamp float64
	angDamp float64
	lockRot bool

	hasCollider bool
	shape       Shape
	friction    float64
	restitution float64
	sensor      bool

	massOverride float64
	mass         float64
	invMass      float64
	invInertia   float64
}

// World owns every body. A single World instance is shared by the whole
// simulation; it is not safe for concurrent use.
type World struct {
	gravity mgl64.Vec3
	bodies  map[Handle]*body
	order   []Handle
	next    Handle
}

// NewWorld creates an empty world with the given gravity vector.
func NewWorld(gravity mgl64.Vec3) *World {
	return &World{
		gravity: gravity,
		bodies:  make(map[Handle]*body),
	}
}

// Gravity reports the world gravity vector.
func (w *World) Gravity() mgl64.Vec3 { return w.gravity }

// BodyCount reports the number of live bodies.
func (w *World) BodyCount() int { return len(w.bodies) }

// CreateBody inserts a body and returns its handle. Attach a collider
// before the first Step for the body to collide or carry mass.
func (w *World) CreateBody(desc BodyDesc) Handle {
	w.next++
	b := &body{
		handle:       w.next,
		typ:          desc.Type,
		pos:          desc.Position,
		rot:          normalizeQuat(desc.Rotation),
		linDamp:      desc.LinearDamping,
		angDamp:      desc.AngularDamping,
		lockRot:      desc.LockRotations,
		massOverride: desc.Mass,
		mass:         1,
		invMass:      1,
		invInertia:   1,
	}
	w.bodies[b.handle] = b
	w.order = append(w.order, b.handle)
	return b.handle
}

// AttachCollider sets the body's collider and recomputes its mass
// properties. Each body carries exactly one collider.
func (w *World) AttachCollider(h Handle, desc ColliderDesc) {
	b, ok := w.bodies[h]
	if !ok {
		return
	}
	b.hasCollider = true
	b.shape = desc.Shape
	b.friction = desc.Friction
	b.restitution = desc.Restitution
	b.sensor = desc.Sensor

	mass := desc.Density * desc.Shape.volume()
	if b.massOverride > 0 {
		mass = b.massOverride
	}
	if mass <= 0 {
		mass = 1
	}
	b.mass = mass
	b.invMass = 1 / mass
	r := desc.Shape.boundingRadius()
	if r <= 0 {
		r = 1
	}
	inertia := 0.4 * mass * r * r
	b.invInertia = 1 / inertia
}

// RemoveBody deletes a body and its collider from the world.
func (w *World) RemoveBody(h Handle) {
	if _, ok := w.bodies[h]; !ok {
		return
	}
	delete(w.bodies, h)
	for i, other := range w.order {
		if other == h {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether the handle refers to a live body.
func (w *World) Contains(h Handle) bool {
	_, ok := w.bodies[h]
	return ok
}

// SetBodyType switches a body between dynamic and kinematic modes.
func (w *World) SetBodyType(h Handle, typ BodyType) {
	if b, ok := w.bodies[h]; ok {
		b.typ = typ
		if typ != BodyDynamic {
			b.angvel = mgl64.Vec3{}
		}
	}
}

// Type reports the body's current type.
func (w *World) Type(h Handle) BodyType {
	if b, ok := w.bodies[h]; ok {
		return b.typ
	}
	return BodyFixed
}

// Translation reports the body's position.
func (w *World) Translation(h Handle) mgl64.Vec3 {
	if b, ok := w.bodies[h]; ok {
		return b.pos
	}
	return mgl64.Vec3{}
}

// SetTranslation teleports the body.
func (w *World) SetTranslation(h Handle, pos mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok {
		b.pos = pos
	}
}

// Rotation reports the body's orientation.
func (w *World) Rotation(h Handle) mgl64.Quat {
	if b, ok := w.bodies[h]; ok {
		return b.rot
	}
	return mgl64.QuatIdent()
}

// SetRotation sets the body's orientation.
func (w *World) SetRotation(h Handle, rot mgl64.Quat) {
	if b, ok := w.bodies[h]; ok {
		b.rot = normalizeQuat(rot)
	}
}

// LinearVelocity reports the body's linear velocity.
func (w *World) LinearVelocity(h Handle) mgl64.Vec3 {
	if b, ok := w.bodies[h]; ok {
		return b.linvel
	}
	return mgl64.Vec3{}
}

// SetLinearVelocity sets the body's linear velocity.
func (w *World) SetLinearVelocity(h Handle, vel mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok {
		b.linvel = vel
	}
}

// AngularVelocity reports the body's angular velocity.
func (w *World) AngularVelocity(h Handle) mgl64.Vec3 {
	if b, ok := w.bodies[h]; ok {
		return b.angvel
	}
	return mgl64.Vec3{}
}

// ApplyImpulse applies an instantaneous change of momentum to a dynamic
// body.
func (w *World) ApplyImpulse(h Handle, impulse mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok && b.typ == BodyDynamic {
		b.linvel = b.linvel.Add(impulse.Mul(b.invMass))
	}
}

// ApplyTorqueImpulse applies an instantaneous change of angular momentum
// to a dynamic body. Locked rotations absorb the impulse.
func (w *World) ApplyTorqueImpulse(h Handle, impulse mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok && b.typ == BodyDynamic && !b.lockRot {
		b.angvel = b.angvel.Add(impulse.Mul(b.invInertia))
	}
}

// Mass reports the body's mass.
func (w *World) Mass(h Handle) float64 {
	if b, ok := w.bodies[h]; ok {
		return b.mass
	}
	return 0
}

// Step advances the world by dt seconds: integrate dynamic bodies, then
// resolve contacts against fixed geometry and between dynamic pairs.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, h := range w.order {
		b := w.bodies[h]
		if b.typ != BodyDynamic {
			continue
		}
		b.linvel = b.linvel.Add(w.gravity.Mul(dt))
		b.linvel = b.linvel.Mul(1 / (1 + dt*b.linDamp))
		b.pos = b.pos.Add(b.linvel.Mul(dt))
		if !b.lockRot {
			b.angvel = b.angvel.Mul(1 / (1 + dt*b.angDamp))
			b.rot = integrateRotation(b.rot, b.angvel, dt)
		}
	}
	w.resolveFixedContacts(dt)
	w.resolveDynamicContacts()
}

func (w *World) resolveFixedContacts(dt float64) {
	for _, h := range w.order {
		b := w.bodies[h]
		if b.typ != BodyDynamic || !b.hasCollider || b.sensor {
			continue
		}
		for _, fh := range w.order {
			f := w.bodies[fh]
			if f.typ != BodyFixed || !f.hasCollider || f.sensor {
				continue
			}
			resolveAgainstFixed(b, f, dt)
		}
	}
}

// resolveAgainstFixed pushes a dynamic body out of a fixed collider
// along the axis of least penetration of their world AABBs.
func resolveAgainstFixed(b, f *body, dt float64) {
	bh := b.shape.worldHalfExtents(b.rot)
	fh := f.shape.worldHalfExtents(f.rot)

	var overlap [3]float64
	for i := 0; i < 3; i++ {
		overlap[i] = bh[i] + fh[i] - math.Abs(b.pos[i]-f.pos[i])
		if overlap[i] <= 0 {
			return
		}
	}

	axis := 0
	for i := 1; i < 3; i++ {
		if overlap[i] < overlap[axis] {
			axis = i
		}
	}

	var normal mgl64.Vec3
	if b.pos[axis] >= f.pos[axis] {
		normal[axis] = 1
	} else {
		normal[axis] = -1
	}

	b.pos = b.pos.Add(normal.Mul(overlap[axis]))

	vn := b.linvel.Dot(normal)
	if vn < 0 {
		restitution := math.Max(b.restitution, f.restitution)
		bounce := -vn * restitution
		if bounce < restitutionVelocityThreshold {
			bounce = 0
		}
		b.linvel = b.linvel.Sub(normal.Mul(vn)).Add(normal.Mul(bounce))

		friction := 0.5 * (b.friction + f.friction)
		if friction > 0 {
			tangentScale := 1 / (1 + dt*friction*contactFrictionScale)
			for i := 0; i < 3; i++ {
				if i != axis {
					b.linvel[i] *= tangentScale
				}
			}
			if !b.lockRot {
				b.angvel = b.angvel.Mul(tangentScale)
			}
		}
	}
}

func (w *World) resolveDynamicContacts() {
	for i := 0; i < len(w.order); i++ {
		a := w.bodies[w.order[i]]
		if a.typ != BodyDynamic || !a.hasCollider || a.sensor {
			continue
		}
		for j := i + 1; j < len(w.order); j++ {
			b := w.bodies[w.order[j]]
			if b.typ != BodyDynamic || !b.hasCollider || b.sensor {
				continue
			}
			resolveDynamicPair(a, b)
		}
	}
}

// resolveDynamicPair separates two dynamic bodies approximated by their
// bounding spheres, weighted by inverse mass.
func resolveDynamicPair(a, b *body) {
	ra := a.shape.boundingRadius()
	rb := b.shape.boundingRadius()
	delta := b.pos.Sub(a.pos)
	dist := delta.Len()
	penetration := ra + rb - dist
	if penetration <= 0 {
		return
	}

	var normal mgl64.Vec3
	if dist > 1e-9 {
		normal = delta.Mul(1 / dist)
	} else {
		normal = mgl64.Vec3{0, 1, 0}
	}

	totalInv := a.invMass + b.invMass
	if totalInv <= 0 {
		return
	}
	a.pos = a.pos.Sub(normal.Mul(penetration * a.invMass / totalInv))
	b.pos = b.pos.Add(normal.Mul(penetration * b.invMass / totalInv))

	rel := b.linvel.Sub(a.linvel).Dot(normal)
	if rel < 0 {
		restitution := math.Max(a.restitution, b.restitution)
		impulse := -(1 + restitution) * rel / totalInv
		a.linvel = a.linvel.Sub(normal.Mul(impulse * a.invMass))
		b.linvel = b.linvel.Add(normal.Mul(impulse * b.invMass))
	}
}

const (
	restitutionVelocityThreshold = 0.5
	contactFrictionScale         = 5.0
)

func integrateRotation(q mgl64.Quat, angvel mgl64.Vec3, dt float64) mgl64.Quat {
	omega := mgl64.Quat{W: 0, V: angvel.Mul(0.5 * dt)}
	dq := omega.Mul(q)
	return normalizeQuat(mgl64.Quat{W: q.W + dq.W, V: q.V.Add(dq.V)})
}

func normalizeQuat(q mgl64.Quat) mgl64.Quat {
	if q.W == 0 && q.V[0] == 0 && q.V[1] == 0 && q.V[2] == 0 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

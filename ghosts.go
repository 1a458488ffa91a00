package server

import (
	"github.com/go-gl/mathgl/mgl64"

	"skyjack/server/internal/physics"
)

// ghostState is the authoritative record for one carriable. Ghosts are
// created at world init and never destroyed; carrying switches the body
// kinematic so the tick loop can position-set it.
type ghostState struct {
	id    string
	shape GhostShape
	mass  float64
	color string
	pos   mgl64.Vec3
	rot   mgl64.Quat
	vel   mgl64.Vec3

	carrierID string
}

func (g *ghostState) snapshot() GhostSnapshot {
	return GhostSnapshot{
		ID:       g.id,
		Shape:    g.shape,
		Mass:     g.mass,
		Position: vec3From(g.pos),
		Rotation: quatFrom(g.rot),
		Velocity: vec3From(g.vel),
		Carrier:  g.carrierID,
		Color:    g.color,
	}
}

func colliderShapeFor(shape GhostShape) physics.Shape {
	switch shape.Type {
	case GhostShapeSphere:
		return physics.Ball(shape.Radius)
	case GhostShapeCylinder:
		return physics.CylinderY(shape.Height/2, shape.Radius)
	default:
		return physics.Cuboid(shape.Width/2, shape.Height/2, shape.Depth/2)
	}
}

func (w *World) spawnGhost(shape GhostShape, mass float64, color string, pos mgl64.Vec3) *ghostState {
	body := w.phys.CreateBody(physics.BodyDesc{
		Type:           physics.BodyDynamic,
		Position:       pos,
		LinearDamping:  0.2,
		AngularDamping: 0.5,
		Mass:           mass,
	})
	w.phys.AttachCollider(body, physics.ColliderDesc{
		Shape:       colliderShapeFor(shape),
		Density:     1,
		Friction:    w.cfg.Ghost.Friction,
		Restitution: w.cfg.Ghost.Restitution,
	})

	g := &ghostState{
		id:    w.nextGhostID(),
		shape: shape,
		mass:  mass,
		color: color,
		pos:   pos,
		rot:   mgl64.QuatIdent(),
	}
	w.ghosts[g.id] = g
	w.ghostBodies[g.id] = body
	return g
}

package server

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"skyjack/server/internal/physics"
)

// playerState is the authoritative record for one connected player. The
// physics body handle lives in the world's parallel body map.
type playerState struct {
	id     string
	pos    mgl64.Vec3
	rot    mgl64.Quat
	vel    mgl64.Vec3
	health int
	look   mgl64.Vec3

	intent   InputIntent
	lastFire time.Time

	// vehicleID and carryingID are the control-context links. DRIVING
	// excludes CARRYING; the interaction handlers enforce it.
	vehicleID  string
	carryingID string

	grounded     bool
	groundNormal mgl64.Vec3
	groundDist   float64

	lastSeen time.Time
	lastRTT  time.Duration
}

func (p *playerState) context() ControlContext {
	switch {
	case p.vehicleID != "":
		return ControlContext{Mode: ModeDriving, VehicleID: p.vehicleID}
	case p.carryingID != "":
		return ControlContext{Mode: ModeCarrying, GhostID: p.carryingID}
	default:
		return ControlContext{Mode: ModeOnFoot}
	}
}

func (p *playerState) snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:            p.id,
		Position:      vec3From(p.pos),
		Rotation:      quatFrom(p.rot),
		Velocity:      vec3From(p.vel),
		Health:        p.health,
		LookDirection: vec3From(p.look),
		Grounded:      p.grounded,
		Context:       p.context(),
	}
}

// SpawnPlayer creates the player record and its capsule body at the
// spawn point. The id must be fresh.
func (w *World) SpawnPlayer(id string) *playerState {
	cfg := w.cfg
	halfHeight := (cfg.Player.Height - 2*cfg.Player.Radius) / 2

	body := w.phys.CreateBody(physics.BodyDesc{
		Type:           physics.BodyDynamic,
		Position:       w.spawnPoint,
		LinearDamping:  10.0,
		AngularDamping: 10.0,
		LockRotations:  true,
		Mass:           1,
	})
	w.phys.AttachCollider(body, physics.ColliderDesc{
		Shape:       physics.CapsuleY(halfHeight, cfg.Player.Radius),
		Density:     1,
		Friction:    0.5,
		Restitution: 0,
	})

	p := &playerState{
		id:       id,
		pos:      w.spawnPoint,
		rot:      mgl64.QuatIdent(),
		health:   cfg.Player.MaxHealth,
		look:     mgl64.Vec3{0, 0, -1},
		lastSeen: time.Now(),
	}
	w.players[id] = p
	w.playerBodies[id] = body
	return p
}

// RemovePlayer tears a player down: releases any held ghost, vacates
// any vehicle, and frees the body. It returns the updates that must be
// broadcast so other clients observe the released entities.
func (w *World) RemovePlayer(id string) (vehicle *VehicleSnapshot, ghost *GhostSnapshot, ok bool) {
	p, exists := w.players[id]
	if !exists {
		return nil, nil, false
	}

	if p.vehicleID != "" {
		if snap, released := w.ExitVehicle(id); released {
			vehicle = snap
		}
	}
	if p.carryingID != "" {
		if snap, released := w.DropGhost(id); released {
			ghost = snap
		}
	}

	if body, hasBody := w.playerBodies[id]; hasBody {
		w.phys.RemoveBody(body)
		delete(w.playerBodies, id)
	}
	delete(w.players, id)
	return vehicle, ghost, true
}

// respawn restores a dead player at the spawn point within the same
// tick, with full health and zero velocity.
func (w *World) respawn(p *playerState) {
	p.health = w.cfg.Player.MaxHealth
	p.pos = w.spawnPoint
	p.vel = mgl64.Vec3{}
	if body, ok := w.playerBodies[p.id]; ok {
		w.phys.SetTranslation(body, w.spawnPoint)
		w.phys.SetLinearVelocity(body, mgl64.Vec3{})
	}
}

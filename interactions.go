package server

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"skyjack/server/internal/physics"
)

// Interaction handlers validate preconditions against current
// authoritative state and reject silently on failure: the next
// GAME_STATE reveals the lack of effect, no NACK is sent.

// Fire spawns a projectile if the player's cooldown has elapsed.
// Firing at exactly lastFire + FIRE_RATE succeeds.
func (w *World) Fire(playerID string, direction, origin Vec3, now time.Time) (*ProjectileSnapshot, bool) {
	p, ok := w.players[playerID]
	if !ok {
		return nil, false
	}
	if !p.lastFire.IsZero() && now.Sub(p.lastFire).Seconds() < w.cfg.Weapon.FireRate {
		w.log.Debug().Str("player", playerID).Msg("fire rejected: cooldown")
		return nil, false
	}

	p.lastFire = now
	q := w.spawnProjectile(playerID, origin.mgl(), direction.mgl(), now)
	snap := q.snapshot()
	return &snap, true
}

// EnterVehicle seats an on-foot player as driver. The player body
// switches to kinematic mode and parks off-world so it neither collides
// nor renders until exit.
func (w *World) EnterVehicle(playerID, vehicleID string) (*VehicleSnapshot, bool) {
	p, ok := w.players[playerID]
	if !ok {
		return nil, false
	}
	v, ok := w.vehicles[vehicleID]
	if !ok || v.driverID != "" {
		return nil, false
	}
	if p.vehicleID != "" || p.carryingID != "" {
		return nil, false
	}
	if p.pos.Sub(v.pos).Len() > w.cfg.Vehicle.InteractionRange {
		return nil, false
	}

	body, ok := w.playerBodies[playerID]
	if !ok {
		return nil, false
	}

	v.driverID = playerID
	p.vehicleID = vehicleID
	w.phys.SetBodyType(body, physics.BodyKinematicPositionBased)
	w.phys.SetLinearVelocity(body, mgl64.Vec3{})
	w.phys.SetTranslation(body, mgl64.Vec3{0, -1000, 0})

	snap := v.snapshot()
	return &snap, true
}

// ExitVehicle restores the driver beside the vehicle with zero
// velocity and clears both links.
func (w *World) ExitVehicle(playerID string) (*VehicleSnapshot, bool) {
	p, ok := w.players[playerID]
	if !ok || p.vehicleID == "" {
		return nil, false
	}
	v, ok := w.vehicles[p.vehicleID]
	if !ok {
		// Registry invariant broken; drop the stale link and move on.
		p.vehicleID = ""
		return nil, false
	}

	exitPos := v.pos.Add(mgl64.Vec3{3, 1, 0})
	if body, hasBody := w.playerBodies[playerID]; hasBody {
		w.phys.SetBodyType(body, physics.BodyDynamic)
		w.phys.SetTranslation(body, exitPos)
		w.phys.SetLinearVelocity(body, mgl64.Vec3{})
	}
	p.pos = exitPos
	p.vel = mgl64.Vec3{}
	p.vehicleID = ""
	v.driverID = ""

	snap := v.snapshot()
	return &snap, true
}

// GrabGhost picks up a carriable within range. The ghost body switches
// kinematic so the tick loop can position-set it in front of the
// carrier.
func (w *World) GrabGhost(playerID, ghostID string) (*GhostSnapshot, bool) {
	p, ok := w.players[playerID]
	if !ok || p.vehicleID != "" || p.carryingID != "" {
		return nil, false
	}
	g, ok := w.ghosts[ghostID]
	if !ok || g.carrierID != "" {
		return nil, false
	}
	if g.mass > w.cfg.Ghost.MaxCarryMass {
		w.log.Debug().Str("player", playerID).Str("ghost", ghostID).Float64("mass", g.mass).Msg("grab rejected: too heavy")
		return nil, false
	}
	if p.pos.Sub(g.pos).Len() > w.cfg.Ghost.InteractionRange {
		return nil, false
	}

	body, ok := w.ghostBodies[ghostID]
	if !ok {
		return nil, false
	}

	g.carrierID = playerID
	p.carryingID = ghostID
	w.phys.SetBodyType(body, physics.BodyKinematicPositionBased)
	w.phys.SetLinearVelocity(body, mgl64.Vec3{})

	snap := g.snapshot()
	return &snap, true
}

// DropGhost releases the held carriable with a gentle downward
// velocity.
func (w *World) DropGhost(playerID string) (*GhostSnapshot, bool) {
	return w.releaseGhost(playerID, mgl64.Vec3{0, -1, 0})
}

// ThrowGhost releases the held carriable with velocity along the given
// direction scaled by THROW_FORCE.
func (w *World) ThrowGhost(playerID string, direction Vec3) (*GhostSnapshot, bool) {
	return w.releaseGhost(playerID, direction.mgl().Mul(w.cfg.Ghost.ThrowForce))
}

func (w *World) releaseGhost(playerID string, velocity mgl64.Vec3) (*GhostSnapshot, bool) {
	p, ok := w.players[playerID]
	if !ok || p.carryingID == "" {
		return nil, false
	}
	g, ok := w.ghosts[p.carryingID]
	if !ok {
		p.carryingID = ""
		return nil, false
	}

	if body, hasBody := w.ghostBodies[g.id]; hasBody {
		w.phys.SetBodyType(body, physics.BodyDynamic)
		w.phys.SetLinearVelocity(body, velocity)
	}
	g.vel = velocity
	g.carrierID = ""
	p.carryingID = ""

	snap := g.snapshot()
	return &snap, true
}

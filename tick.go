package server

import (
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"skyjack/server/internal/physics"
)

// Projectiles that fall past this plane are culled before their TTL so
// bodies that miss the ground slab do not linger.
const projectileCullY = -100.0

// HitEvent records one projectile hit applied during a tick.
type HitEvent struct {
	Target string
	Damage int
	Health int
}

// TickEvents carries the side effects of one Advance call that need
// broadcasting beyond the snapshot itself.
type TickEvents struct {
	Hits               []HitEvent
	RemovedProjectiles []string
}

// Advance runs one fixed tick: input resolution, the physics step, the
// record syncs, ground detection, carry follow, and the projectile
// sweep. Ordering matters: grounded state is computed post-step so the
// next tick's input resolution sees fresh contacts, and carry follow
// runs post-step so held ghosts snap to the carrier's final position.
func (w *World) Advance(now time.Time, dt float64) TickEvents {
	w.resolveInputs()
	w.phys.Step(dt)
	w.syncPlayers()
	w.detectGround()
	w.followCarriers()
	w.syncVehicles()
	w.syncGhosts()
	events := w.sweepProjectiles(now)
	w.tick++
	return events
}

// syncPlayers copies body state back into player records. Driving
// players are skipped; their parked body is meaningless until exit.
func (w *World) syncPlayers() {
	for id, p := range w.players {
		if p.vehicleID != "" {
			continue
		}
		body, ok := w.playerBodies[id]
		if !ok {
			continue
		}
		p.pos = w.phys.Translation(body)
		p.rot = w.phys.Rotation(body)
		p.vel = w.phys.LinearVelocity(body)
	}
}

// detectGround casts five downward rays from the capsule centre: one
// through the axis and four at ±0.7R offsets. The centre origin means
// the hit distance includes the lower hemisphere, hence the
// HEIGHT/2-based thresholds.
func (w *World) detectGround() {
	height := w.cfg.Player.Height
	radius := w.cfg.Player.Radius
	maxToi := height/2 + 0.5
	groundedWithin := height/2 + 0.1
	offset := radius * 0.7

	origins := [5]mgl64.Vec3{
		{0, 0, 0},
		{offset, 0, 0},
		{-offset, 0, 0},
		{0, 0, offset},
		{0, 0, -offset},
	}

	for id, p := range w.players {
		if p.vehicleID != "" {
			continue
		}
		body, ok := w.playerBodies[id]
		if !ok {
			continue
		}

		p.grounded = false
		p.groundNormal = mgl64.Vec3{0, 1, 0}
		p.groundDist = 0
		closest := maxToi + 1

		for _, off := range origins {
			hit, found := w.phys.Raycast(p.pos.Add(off), mgl64.Vec3{0, -1, 0}, maxToi, physics.RayFilter{
				Exclude:        body,
				ExcludeSensors: true,
			})
			if !found || hit.Toi >= closest {
				continue
			}
			closest = hit.Toi
			if hit.Toi <= groundedWithin {
				p.grounded = true
				p.groundNormal = hit.Normal
				p.groundDist = hit.Toi
			}
		}
	}
}

// followCarriers teleports each held ghost to its carrier's look point.
func (w *World) followCarriers() {
	for _, p := range w.players {
		if p.carryingID == "" {
			continue
		}
		g, ok := w.ghosts[p.carryingID]
		if !ok {
			continue
		}
		body, ok := w.ghostBodies[g.id]
		if !ok {
			continue
		}
		target := p.pos.Add(p.look.Mul(w.cfg.Ghost.CarryDistance)).Add(mgl64.Vec3{0, 0.5, 0})
		w.phys.SetTranslation(body, target)
		g.pos = target
		g.vel = mgl64.Vec3{}
	}
}

func (w *World) syncVehicles() {
	for id, v := range w.vehicles {
		body, ok := w.vehicleBodies[id]
		if !ok {
			continue
		}
		v.pos = w.phys.Translation(body)
		v.rot = w.phys.Rotation(body)
		v.vel = w.phys.LinearVelocity(body)
	}
}

// syncGhosts copies body state for free ghosts. Carried ghosts were
// just position-set by followCarriers; their records are already
// authoritative.
func (w *World) syncGhosts() {
	for id, g := range w.ghosts {
		if g.carrierID != "" {
			continue
		}
		body, ok := w.ghostBodies[id]
		if !ok {
			continue
		}
		g.pos = w.phys.Translation(body)
		g.rot = w.phys.Rotation(body)
		g.vel = w.phys.LinearVelocity(body)
	}
}

// sweepProjectiles expires, culls, and collides projectiles against
// players, applying damage and same-tick respawns.
func (w *World) sweepProjectiles(now time.Time) TickEvents {
	var events TickEvents
	ttl := time.Duration(w.cfg.Weapon.ProjectileTTL * float64(time.Second))
	hitRange := w.cfg.Player.Radius + w.cfg.Weapon.ProjectileRadius

	ids := make([]string, 0, len(w.projectiles))
	for id := range w.projectiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var remove []string
	for _, id := range ids {
		q := w.projectiles[id]
		if body, ok := w.projectileBodies[id]; ok {
			q.pos = w.phys.Translation(body)
			q.vel = w.phys.LinearVelocity(body)
		}

		if now.Sub(q.createdAt) > ttl || q.pos[1] < projectileCullY {
			remove = append(remove, id)
			continue
		}

		playerIDs := make([]string, 0, len(w.players))
		for pid := range w.players {
			playerIDs = append(playerIDs, pid)
		}
		sort.Strings(playerIDs)

		for _, pid := range playerIDs {
			p := w.players[pid]
			if pid == q.ownerID || p.vehicleID != "" {
				continue
			}
			if p.pos.Sub(q.pos).Len() >= hitRange {
				continue
			}

			p.health -= w.cfg.Weapon.ProjectileDamage
			if p.health < 0 {
				p.health = 0
			}
			events.Hits = append(events.Hits, HitEvent{
				Target: pid,
				Damage: w.cfg.Weapon.ProjectileDamage,
				Health: p.health,
			})
			remove = append(remove, id)

			if p.health <= 0 {
				w.respawn(p)
			}
			break
		}
	}

	for _, id := range remove {
		w.removeProjectile(id)
		events.RemovedProjectiles = append(events.RemovedProjectiles, id)
	}
	return events
}
